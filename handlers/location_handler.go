package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/footballinvestment/lfa-legacy-go/services"
)

type LocationHandler struct {
	locationService services.LocationService
}

func NewLocationHandler(locationService services.LocationService) *LocationHandler {
	return &LocationHandler{locationService: locationService}
}

func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, "authentication required")
		return
	}

	var input services.LocationInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	location, err := h.locationService.Create(r.Context(), input, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, jsonResponse{"location": location})
}

func (h *LocationHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	locationID, err := urlParamInt(r, "locationID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	location, err := h.locationService.GetByID(r.Context(), locationID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"location": location})
}

func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	onlyActive := true
	if activeParam := r.URL.Query().Get("include_inactive"); activeParam != "" {
		includeInactive, err := strconv.ParseBool(activeParam)
		if err != nil {
			badRequestResponse(w, errors.New("include_inactive must be a boolean"))
			return
		}
		onlyActive = !includeInactive
	}

	locations, err := h.locationService.List(r.Context(), onlyActive)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"locations": locations})
}

func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, "authentication required")
		return
	}

	locationID, err := urlParamInt(r, "locationID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input services.LocationInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	location, err := h.locationService.Update(r.Context(), locationID, input, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"location": location})
}

func (h *LocationHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, "authentication required")
		return
	}

	locationID, err := urlParamInt(r, "locationID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input struct {
		Active bool `json:"active"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	if err := h.locationService.SetActive(r.Context(), locationID, input.Active, actor); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"message": "location updated"})
}

func (h *LocationHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, "authentication required")
		return
	}

	locationID, err := urlParamInt(r, "locationID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		badRequestResponse(w, errors.New("content type required"))
		return
	}

	location, err := h.locationService.UploadPhoto(r.Context(), locationID, contentType, file, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"location": location})
}
