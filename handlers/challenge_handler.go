package handlers

import (
	"errors"
	"net/http"

	"github.com/footballinvestment/lfa-legacy-go/models"
	"github.com/footballinvestment/lfa-legacy-go/services"
)

type ChallengeHandler struct {
	challengeService services.ChallengeService
}

func NewChallengeHandler(challengeService services.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challengeService: challengeService}
}

func (h *ChallengeHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, "authentication required")
		return
	}

	var input services.CreateChallengeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	challenge, err := h.challengeService.Create(r.Context(), actor.ID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, jsonResponse{"challenge": challenge})
}

func (h *ChallengeHandler) Respond(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, "authentication required")
		return
	}

	challengeID, err := urlParamInt(r, "challengeID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input struct {
		Accept bool `json:"accept"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	challenge, err := h.challengeService.Respond(r.Context(), challengeID, actor.ID, input.Accept)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"challenge": challenge})
}

func (h *ChallengeHandler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, "authentication required")
		return
	}

	challengeID, err := urlParamInt(r, "challengeID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input struct {
		ScoreChallenger int `json:"score_challenger"`
		ScoreChallenged int `json:"score_challenged"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	challenge, err := h.challengeService.SubmitResult(r.Context(), challengeID, actor.ID, input.ScoreChallenger, input.ScoreChallenged)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"challenge": challenge})
}

func (h *ChallengeHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, "authentication required")
		return
	}

	var status *models.ChallengeStatus
	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		candidate := models.ChallengeStatus(statusParam)
		switch candidate {
		case models.ChallengeStatusPending, models.ChallengeStatusAccepted,
			models.ChallengeStatusDeclined, models.ChallengeStatusCompleted,
			models.ChallengeStatusExpired:
			status = &candidate
		default:
			badRequestResponse(w, errors.New("unknown challenge status"))
			return
		}
	}

	challenges, err := h.challengeService.ListForUser(r.Context(), actor.ID, status)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"challenges": challenges})
}
