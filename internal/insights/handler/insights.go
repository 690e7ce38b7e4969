package handler

import (
	"bytes"
	"net/http"

	"calbook/internal/insights/service"
	"calbook/internal/insights/view"
	apperrors "calbook/pkg/errors"
	httputil "calbook/pkg/http"
	"calbook/pkg/logger"
	"calbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type InsightsHandler struct {
	service service.InsightsService
	card    *view.RecentFeedback
	log     *logger.Logger
}

// NewInsightsHandler serves the ratings API and, when card is non-nil, the
// recent-feedback fragment.
func NewInsightsHandler(service service.InsightsService, card *view.RecentFeedback, log *logger.Logger) *InsightsHandler {
	return &InsightsHandler{
		service: service,
		card:    card,
		log:     log,
	}
}

// parseScope reads the booking scope from query parameters.
func parseScope(r *http.Request) (*model.RatingsScope, error) {
	query := r.URL.Query()
	scope := &model.RatingsScope{
		TeamID:      query.Get("team_id"),
		UserID:      query.Get("user_id"),
		EventTypeID: query.Get("event_type_id"),
	}

	isAll, err := httputil.QueryBool(r, "is_all")
	if err != nil {
		return nil, err
	}
	scope.IsAll = isAll

	start, err := httputil.QueryTime(r, "start_date")
	if err != nil {
		return nil, err
	}
	end, err := httputil.QueryTime(r, "end_date")
	if err != nil {
		return nil, err
	}
	if start == nil || end == nil {
		return nil, apperrors.InvalidInput("'start_date' and 'end_date' query parameters are required")
	}
	scope.StartDate, scope.EndDate = start.UTC(), end.UTC()

	return scope, nil
}

func (h *InsightsHandler) RecentRatings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	scope, err := parseScope(r)
	if err != nil {
		h.writeError(w, "RecentRatings", err)
		return
	}

	rows, err := h.service.RecentRatings(r.Context(), scope)
	if err != nil {
		h.writeError(w, "RecentRatings", err)
		return
	}

	if err := httputil.WriteSuccess(w, rows); err != nil {
		h.log.Error("failed to write success response", "handler", "RecentRatings", "operation", "WriteSuccess", "error", err)
	}
}

func (h *InsightsHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

// RecentFeedback renders the card as an HTML fragment. Bad parameters render
// nothing, like a failed read.
func (h *InsightsHandler) RecentFeedback(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	scope, err := parseScope(r)
	if err != nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	var buf bytes.Buffer
	state, err := h.card.Render(r.Context(), &buf, *scope)
	if err != nil {
		h.log.Error("failed to render recent feedback", "handler", "RecentFeedback", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	w.Header().Set("X-Render-State", state.String())
	if state == view.StatePending {
		w.Header().Set("Retry-After", "1")
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.log.Error("failed to write fragment", "handler", "RecentFeedback", "error", err)
	}
}

func (h *InsightsHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/insights.recentRatings", h.RecentRatings)
	if h.card != nil {
		router.GET("/insights/recent-feedback", h.RecentFeedback)
	}
}
