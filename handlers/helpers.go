package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/footballinvestment/lfa-legacy-go/brackets"
	"github.com/footballinvestment/lfa-legacy-go/middleware"
	"github.com/footballinvestment/lfa-legacy-go/services"
)

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return errors.New("body contains badly-formed JSON")
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	js, err := json.Marshal(data)
	if err != nil {
		slog.Error("failed to marshal response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)
}

func urlParamInt(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return id, nil
}

// actorFromRequest reads the authenticated caller's identity injected by the
// auth middleware.
func actorFromRequest(r *http.Request) (services.Actor, error) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		return services.Actor{}, err
	}
	role, err := middleware.GetUserRoleFromContext(r.Context())
	if err != nil {
		return services.Actor{}, err
	}
	return services.Actor{ID: userID, Role: role}, nil
}

func errorResponse(w http.ResponseWriter, status int, message interface{}) {
	writeJSON(w, status, jsonResponse{"error": message})
}

func serverErrorResponse(w http.ResponseWriter, err error) {
	slog.Error("internal server error", slog.Any("error", err))
	errorResponse(w, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

func badRequestResponse(w http.ResponseWriter, err error) {
	errorResponse(w, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter) {
	errorResponse(w, http.StatusNotFound, "the requested resource could not be found")
}

func conflictResponse(w http.ResponseWriter, message string) {
	errorResponse(w, http.StatusConflict, message)
}

func unauthorizedResponse(w http.ResponseWriter, message string) {
	errorResponse(w, http.StatusUnauthorized, message)
}

func forbiddenResponse(w http.ResponseWriter, message string) {
	errorResponse(w, http.StatusForbidden, message)
}

func unprocessableResponse(w http.ResponseWriter, message string) {
	errorResponse(w, http.StatusUnprocessableEntity, message)
}

// mapServiceErrorToHTTP translates the service error taxonomy into HTTP
// statuses.
func mapServiceErrorToHTTP(w http.ResponseWriter, err error) {
	switch {
	// Not found
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrTournamentNotFound),
		errors.Is(err, services.ErrParticipantNotFound),
		errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrLocationNotFound),
		errors.Is(err, services.ErrBookingNotFound),
		errors.Is(err, services.ErrChallengeNotFound),
		errors.Is(err, services.ErrFriendshipNotFound):
		notFoundResponse(w)

	// Conflicts
	case errors.Is(err, services.ErrUserEmailConflict),
		errors.Is(err, services.ErrUserNicknameConflict),
		errors.Is(err, services.ErrTournamentNameConflict),
		errors.Is(err, services.ErrRegistrationConflict),
		errors.Is(err, services.ErrFriendshipConflict),
		errors.Is(err, services.ErrAlreadySeeded),
		errors.Is(err, services.ErrTournamentFull),
		errors.Is(err, services.ErrBookingSlotTaken),
		errors.Is(err, services.ErrConcurrentMutationRejected),
		errors.Is(err, brackets.ErrMatchAlreadyResolved),
		errors.Is(err, brackets.ErrDownstreamAlreadyResolved):
		conflictResponse(w, err.Error())

	// State guards (the request is well-formed but the entity cannot take it)
	case errors.Is(err, services.ErrRegistrationNotOpen),
		errors.Is(err, services.ErrTournamentNotInProgress),
		errors.Is(err, services.ErrTournamentNotModifiable),
		errors.Is(err, services.ErrBracketNotGenerated),
		errors.Is(err, services.ErrChallengeNotPending),
		errors.Is(err, services.ErrChallengeNotAccepted),
		errors.Is(err, brackets.ErrMatchNotScorable),
		errors.Is(err, brackets.ErrMatchNotResolved),
		errors.Is(err, brackets.ErrParticipantNotActive):
		unprocessableResponse(w, err.Error())

	// Validation
	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrPasswordTooShort),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrNotEnoughPlayers),
		errors.Is(err, services.ErrSelfFriendship),
		errors.Is(err, services.ErrNotFriends),
		errors.Is(err, services.ErrChallengeTied),
		errors.Is(err, services.ErrBookingInPast),
		errors.Is(err, services.ErrBookingInvalidRange),
		errors.Is(err, services.ErrLocationInactive),
		errors.Is(err, services.ErrTournamentDatesRequired),
		errors.Is(err, services.ErrTournamentInvalidRegDate),
		errors.Is(err, services.ErrTournamentInvalidCapacity),
		errors.Is(err, services.ErrTournamentInvalidFormat),
		errors.Is(err, brackets.ErrInvalidScore),
		errors.Is(err, brackets.ErrAmbiguousResult),
		errors.Is(err, brackets.ErrInvalidParticipantCount):
		badRequestResponse(w, err)

	// Payment required fits the credit ledger exactly.
	case errors.Is(err, services.ErrInsufficientBalance):
		errorResponse(w, http.StatusPaymentRequired, err.Error())

	// Authentication / authorization
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrAuthenticationFailed):
		unauthorizedResponse(w, err.Error())
	case errors.Is(err, services.ErrForbiddenOperation),
		errors.Is(err, services.ErrUserBanned):
		forbiddenResponse(w, err.Error())

	case errors.Is(err, services.ErrStorageNotConfigured):
		errorResponse(w, http.StatusServiceUnavailable, err.Error())

	default:
		serverErrorResponse(w, err)
	}
}
