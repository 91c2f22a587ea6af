package handlers

import (
	"errors"
	"net/http"

	"github.com/footballinvestment/lfa-legacy-go/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

type scoreInput struct {
	ScoreA int `json:"score_a"`
	ScoreB int `json:"score_b"`
}

type reasonInput struct {
	Reason string `json:"reason"`
}

func (h *MatchHandler) matchParams(w http.ResponseWriter, r *http.Request) (tournamentID, matchID int, actor services.Actor, ok bool) {
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, "authentication required")
		return 0, 0, services.Actor{}, false
	}
	tournamentID, err = urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return 0, 0, services.Actor{}, false
	}
	matchID, err = urlParamInt(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return 0, 0, services.Actor{}, false
	}
	return tournamentID, matchID, actor, true
}

func (h *MatchHandler) Start(w http.ResponseWriter, r *http.Request) {
	tournamentID, matchID, actor, ok := h.matchParams(w, r)
	if !ok {
		return
	}

	match, err := h.matchService.StartMatch(r.Context(), tournamentID, matchID, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"match": match})
}

func (h *MatchHandler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	tournamentID, matchID, actor, ok := h.matchParams(w, r)
	if !ok {
		return
	}

	var input scoreInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	match, err := h.matchService.SubmitScore(r.Context(), tournamentID, matchID, input.ScoreA, input.ScoreB, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"match": match})
}

func (h *MatchHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	tournamentID, matchID, actor, ok := h.matchParams(w, r)
	if !ok {
		return
	}

	var input reasonInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	if input.Reason == "" {
		badRequestResponse(w, errors.New("reason is required"))
		return
	}

	match, err := h.matchService.CancelMatch(r.Context(), tournamentID, matchID, input.Reason, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"match": match})
}

// CorrectResult amends a finished match's score. The bracket engine rolls
// downstream results back where the new winner differs, so this stays
// available to staff even after the tournament completed.
func (h *MatchHandler) CorrectResult(w http.ResponseWriter, r *http.Request) {
	tournamentID, matchID, actor, ok := h.matchParams(w, r)
	if !ok {
		return
	}

	var input scoreInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	match, err := h.matchService.CorrectResult(r.Context(), tournamentID, matchID, input.ScoreA, input.ScoreB, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"match": match})
}

func (h *MatchHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, "authentication required")
		return
	}

	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	participantID, err := urlParamInt(r, "participantID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input reasonInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	if input.Reason == "" {
		badRequestResponse(w, errors.New("reason is required"))
		return
	}

	if err := h.matchService.WithdrawParticipant(r.Context(), tournamentID, participantID, input.Reason, actor); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"message": "participant withdrawn"})
}

func (h *MatchHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	matchID, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"match": match})
}
