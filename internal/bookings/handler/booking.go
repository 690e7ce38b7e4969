package handler

import (
	"net/http"

	"calbook/internal/bookings/service"
	apperrors "calbook/pkg/errors"
	httputil "calbook/pkg/http"
	"calbook/pkg/logger"
	"calbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

type AccessResponse struct {
	HasAccess bool `json:"has_access"`
}

type TeamBookingsResponse struct {
	Bookings []*model.Booking `json:"bookings"`
	Count    int64            `json:"count"`
}

func (h *BookingHandler) writeError(w http.ResponseWriter, r *http.Request, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		logger.FromContext(r.Context(), h.log).Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) writeSuccess(w http.ResponseWriter, r *http.Request, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		logger.FromContext(r.Context(), h.log).Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) RoundRobin(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var q model.RoundRobinQuery
	if err := httputil.DecodeJSON(r, &q); err != nil {
		h.writeError(w, r, "RoundRobin", err)
		return
	}

	bookings, err := h.service.ActiveRoundRobinBookings(r.Context(), &q)
	if err != nil {
		h.writeError(w, r, "RoundRobin", err)
		return
	}

	h.writeSuccess(w, r, "RoundRobin", bookings)
}

func (h *BookingHandler) Conflicts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var q model.ConflictWindowQuery
	if err := httputil.DecodeJSON(r, &q); err != nil {
		h.writeError(w, r, "Conflicts", err)
		return
	}

	bookings, err := h.service.ConflictingBookings(r.Context(), &q)
	if err != nil {
		h.writeError(w, r, "Conflicts", err)
		return
	}

	h.writeSuccess(w, r, "Conflicts", bookings)
}

func (h *BookingHandler) TeamBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var q model.TeamBookingsQuery
	if err := httputil.DecodeJSON(r, &q); err != nil {
		h.writeError(w, r, "TeamBookings", err)
		return
	}

	bookings, count, err := h.service.TeamBookings(r.Context(), &q)
	if err != nil {
		h.writeError(w, r, "TeamBookings", err)
		return
	}

	h.writeSuccess(w, r, "TeamBookings", TeamBookingsResponse{Bookings: bookings, Count: count})
}

func (h *BookingHandler) CountTeamBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var q model.TeamBookingsQuery
	if err := httputil.DecodeJSON(r, &q); err != nil {
		h.writeError(w, r, "CountTeamBookings", err)
		return
	}

	count, err := h.service.CountTeamBookings(r.Context(), &q)
	if err != nil {
		h.writeError(w, r, "CountTeamBookings", err)
		return
	}

	if err := httputil.WriteCount(w, count); err != nil {
		h.log.Error("failed to write count response", "handler", "CountTeamBookings", "operation", "WriteCount", "error", err)
	}
}

func (h *BookingHandler) Access(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.writeError(w, r, "Access", apperrors.InvalidInput("'user_id' query parameter is required"))
		return
	}

	ok, err := h.service.HasAccess(r.Context(), userID, ps.ByName("id"))
	if err != nil {
		h.writeError(w, r, "Access", err)
		return
	}

	h.writeSuccess(w, r, "Access", AccessResponse{HasAccess: ok})
}

func (h *BookingHandler) GetByUID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByUID(r.Context(), ps.ByName("uid"))
	if err != nil {
		h.writeError(w, r, "GetByUID", err)
		return
	}

	h.writeSuccess(w, r, "GetByUID", booking)
}

// FirstReschedule answers {"data": null} when the booking was never rescheduled.
func (h *BookingHandler) FirstReschedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetFirstReschedule(r.Context(), ps.ByName("uid"))
	if err != nil {
		h.writeError(w, r, "FirstReschedule", err)
		return
	}

	h.writeSuccess(w, r, "FirstReschedule", booking)
}

func (h *BookingHandler) OriginalRescheduled(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	seats, err := httputil.QueryBool(r, "seats")
	if err != nil {
		h.writeError(w, r, "OriginalRescheduled", err)
		return
	}

	booking, err := h.service.GetOriginalRescheduled(r.Context(), ps.ByName("uid"), seats)
	if err != nil {
		h.writeError(w, r, "OriginalRescheduled", err)
		return
	}

	h.writeSuccess(w, r, "OriginalRescheduled", booking)
}

func (h *BookingHandler) LastRescheduledBy(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ref, err := h.service.GetLastRescheduledBy(r.Context(), ps.ByName("uid"))
	if err != nil {
		h.writeError(w, r, "LastRescheduledBy", err)
		return
	}

	h.writeSuccess(w, r, "LastRescheduledBy", ref)
}

func (h *BookingHandler) UpdateLocation(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.LocationUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, r, "UpdateLocation", err)
		return
	}

	booking, err := h.service.UpdateLocation(r.Context(), ps.ByName("id"), &update)
	if err != nil {
		h.writeError(w, r, "UpdateLocation", err)
		return
	}

	h.writeSuccess(w, r, "UpdateLocation", booking)
}
