package handlers

import (
	"net/http"

	"github.com/footballinvestment/lfa-legacy-go/services"
)

type BookingHandler struct {
	bookingService services.BookingService
}

func NewBookingHandler(bookingService services.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, "authentication required")
		return
	}

	var input services.CreateBookingInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	booking, err := h.bookingService.Create(r.Context(), actor.ID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, jsonResponse{"booking": booking})
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, "authentication required")
		return
	}

	bookingID, err := urlParamInt(r, "bookingID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	booking, err := h.bookingService.GetByID(r.Context(), bookingID, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"booking": booking})
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, "authentication required")
		return
	}

	bookingID, err := urlParamInt(r, "bookingID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	if err := h.bookingService.Cancel(r.Context(), bookingID, actor); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"message": "booking cancelled"})
}

func (h *BookingHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		unauthorizedResponse(w, "authentication required")
		return
	}

	bookings, err := h.bookingService.ListForUser(r.Context(), actor.ID)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"bookings": bookings})
}
