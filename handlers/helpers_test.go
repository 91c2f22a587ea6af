package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/footballinvestment/lfa-legacy-go/brackets"
	"github.com/footballinvestment/lfa-legacy-go/services"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"tournament not found", services.ErrTournamentNotFound, http.StatusNotFound},
		{"duplicate registration", services.ErrRegistrationConflict, http.StatusConflict},
		{"bracket already seeded", services.ErrAlreadySeeded, http.StatusConflict},
		{"concurrent mutation", services.ErrConcurrentMutationRejected, http.StatusConflict},
		{"match already resolved", brackets.ErrMatchAlreadyResolved, http.StatusConflict},
		{"registration closed", services.ErrRegistrationNotOpen, http.StatusUnprocessableEntity},
		{"match not scorable", brackets.ErrMatchNotScorable, http.StatusUnprocessableEntity},
		{"tied score", brackets.ErrAmbiguousResult, http.StatusBadRequest},
		{"insufficient balance", services.ErrInsufficientBalance, http.StatusPaymentRequired},
		{"bad credentials", services.ErrInvalidCredentials, http.StatusUnauthorized},
		{"forbidden", services.ErrForbiddenOperation, http.StatusForbidden},
		{"banned", services.ErrUserBanned, http.StatusForbidden},
		{"storage disabled", services.ErrStorageNotConfigured, http.StatusServiceUnavailable},
		{"unknown error", assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mapServiceErrorToHTTP(rec, tc.err)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
		})
	}
}

func TestReadJSONRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.c","bogus":1}`))
	rec := httptest.NewRecorder()

	var dst struct {
		Email string `json:"email"`
	}
	err := readJSON(rec, req, &dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown key")
}

func TestReadJSONRejectsTrailingGarbage(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.c"}{"again":true}`))
	rec := httptest.NewRecorder()

	var dst struct {
		Email string `json:"email"`
	}
	err := readJSON(rec, req, &dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "single JSON value")
}

func TestReadJSONAcceptsWellFormedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.c"}`))
	rec := httptest.NewRecorder()

	var dst struct {
		Email string `json:"email"`
	}
	require.NoError(t, readJSON(rec, req, &dst))
	assert.Equal(t, "a@b.c", dst.Email)
}
