package handlers

import (
	"errors"
	"net/http"

	"github.com/footballinvestment/lfa-legacy-go/services"
)

type FriendHandler struct {
	friendService services.FriendService
}

func NewFriendHandler(friendService services.FriendService) *FriendHandler {
	return &FriendHandler{friendService: friendService}
}

func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, "authentication required")
		return
	}

	var input struct {
		AddresseeID int `json:"addressee_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	if input.AddresseeID <= 0 {
		badRequestResponse(w, errors.New("addressee_id is required"))
		return
	}

	friendship, err := h.friendService.SendRequest(r.Context(), actor.ID, input.AddresseeID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, jsonResponse{"friendship": friendship})
}

func (h *FriendHandler) Respond(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, "authentication required")
		return
	}

	friendshipID, err := urlParamInt(r, "friendshipID")
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

	friendship, err := h.friendService.Respond(r.Context(), friendshipID, actor.ID, input.Accept)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"friendship": friendship})
}

func (h *FriendHandler) Remove(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, "authentication required")
		return
	}

	friendshipID, err := urlParamInt(r, "friendshipID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	if err := h.friendService.Remove(r.Context(), friendshipID, actor.ID); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"message": "friendship removed"})
}

func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, "authentication required")
		return
	}

	friendships, err := h.friendService.ListFriends(r.Context(), actor.ID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"friendships": friendships})
}

func (h *FriendHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, "authentication required")
		return
	}

	friendships, err := h.friendService.ListPending(r.Context(), actor.ID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"friendships": friendships})
}
