package handlers

import (
	"errors"
	"net/http"

	"github.com/footballinvestment/lfa-legacy-go/services"
)

type AdminHandler struct {
	adminService services.AdminService
}

func NewAdminHandler(adminService services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) BanUser(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, "authentication required")
		return
	}

	userID, err := urlParamInt(r, "userID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	if err := h.adminService.BanUser(r.Context(), userID, input.Reason, actor); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"message": "user banned"})
}

func (h *AdminHandler) UnbanUser(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, "authentication required")
		return
	}

	userID, err := urlParamInt(r, "userID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	if err := h.adminService.UnbanUser(r.Context(), userID, actor); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"message": "user unbanned"})
}

func (h *AdminHandler) AdjustCredits(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, "authentication required")
		return
	}

	userID, err := urlParamInt(r, "userID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input struct {
		Amount int    `json:"amount"`
		Reason string `json:"reason"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	transaction, err := h.adminService.AdjustCredits(r.Context(), userID, input.Amount, input.Reason, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, jsonResponse{"transaction": transaction})
}

func (h *AdminHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, "authentication required")
		return
	}

	entityType := r.URL.Query().Get("entity_type")
	if entityType == "" {
		badRequestResponse(w, errors.New("entity_type query parameter is required"))
		return
	}
	entityID := queryInt(r, "entity_id", 0)
	if entityID <= 0 {
		badRequestResponse(w, errors.New("entity_id must be a positive integer"))
		return
	}

	entries, err := h.adminService.AuditTrail(r.Context(), entityType, entityID, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"entries": entries})
}
