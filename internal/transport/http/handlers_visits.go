// Package httptransport is the thin HTTP layer: it binds requests, delegates
// to the visitor service, and translates typed errors. No business logic
// lives here.
package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"visitflow/internal/platform/middleware"
	"visitflow/internal/visitor/models"
	"visitflow/internal/visitor/service"
	id "visitflow/pkg/domain"
	dErrors "visitflow/pkg/domain-errors"
)

// Service defines the visitor operations the HTTP layer exposes.
type Service interface {
	PlanVisit(ctx context.Context, cmd service.PlanVisitCommand) (models.Visitor, error)
	UpdatePlannedVisit(ctx context.Context, cmd service.UpdatePlannedVisitCommand) (models.Visitor, error)
	DeletePlannedVisit(ctx context.Context, visitorID id.VisitorID) (bool, error)
	MarkArrived(ctx context.Context, visitorID id.VisitorID) (models.Visitor, error)
	Leave(ctx context.Context, visitorID id.VisitorID) (models.Visitor, error)
	Dashboard(ctx context.Context) (service.DashboardData, error)
	NextWorkweekVisits(ctx context.Context) ([]models.Visitor, error)
	SearchPlannedVisitors(ctx context.Context, term string) ([]models.Visitor, error)
	VisitsForDate(ctx context.Context, date time.Time) ([]models.Visitor, error)
}

// Handler handles the visitor REST endpoints.
type Handler struct {
	logger  *slog.Logger
	visits  Service
	timeout time.Duration
}

func NewHandler(visits Service, logger *slog.Logger, timeout time.Duration) *Handler {
	return &Handler{logger: logger, visits: visits, timeout: timeout}
}

// Register mounts the visitor routes with the shared middleware chain. The
// websocket and metrics endpoints stay outside this group: the request
// timeout would kill long-lived hub connections.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Recovery(h.logger))
		r.Use(middleware.RequestID)
		r.Use(middleware.Logger(h.logger))
		r.Use(middleware.Timeout(h.timeout))

		r.Get("/dashboard", h.handleDashboard)
		r.Get("/visits", h.handleVisitsForDate)
		r.Get("/visits/workweek", h.handleNextWorkweek)
		r.Post("/visits", h.handlePlanVisit)
		r.Put("/visits/{id}", h.handleUpdatePlannedVisit)
		r.Delete("/visits/{id}", h.handleDeletePlannedVisit)
		r.Get("/visitors/search", h.handleSearch)
		r.Post("/visitors/{id}/arrive", h.handleMarkArrived)
		r.Post("/visitors/{id}/leave", h.handleLeave)
	})
}

type planVisitRequest struct {
	Name      string `json:"name"`
	Company   string `json:"company"`
	VisitDate string `json:"visitDate,omitempty"`
}

func (h *Handler) handlePlanVisit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req planVisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidPayload, "invalid request body"))
		return
	}
	visitDate, err := parseOptionalDate(req.VisitDate)
	if err != nil {
		writeError(w, err)
		return
	}

	visitor, err := h.visits.PlanVisit(ctx, service.PlanVisitCommand{
		Name:      req.Name,
		Company:   req.Company,
		VisitDate: visitDate,
	})
	if err != nil {
		h.logCommandError(ctx, "plan visit", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toVisitorResponse(visitor))
}

func (h *Handler) handleUpdatePlannedVisit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	visitorID, err := id.ParseVisitorID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req planVisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidPayload, "invalid request body"))
		return
	}
	visitDate, err := parseOptionalDate(req.VisitDate)
	if err != nil {
		writeError(w, err)
		return
	}

	visitor, err := h.visits.UpdatePlannedVisit(ctx, service.UpdatePlannedVisitCommand{
		ID:        visitorID,
		Name:      req.Name,
		Company:   req.Company,
		VisitDate: visitDate,
	})
	if err != nil {
		h.logCommandError(ctx, "update planned visit", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVisitorResponse(visitor))
}

func (h *Handler) handleDeletePlannedVisit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	visitorID, err := id.ParseVisitorID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := h.visits.DeletePlannedVisit(ctx, visitorID); err != nil {
		h.logCommandError(ctx, "delete planned visit", err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMarkArrived(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "mark arrived", h.visits.MarkArrived)
}

func (h *Handler) handleLeave(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "mark left", h.visits.Leave)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, op string,
	apply func(context.Context, id.VisitorID) (models.Visitor, error)) {
	ctx := r.Context()

	visitorID, err := id.ParseVisitorID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	visitor, err := apply(ctx, visitorID)
	if err != nil {
		h.logCommandError(ctx, op, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVisitorResponse(visitor))
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data, err := h.visits.Dashboard(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]VisitorResponse{
		"plannedVisitors":   toVisitorResponses(data.PlannedVisitors),
		"currentlyVisiting": toVisitorResponses(data.CurrentlyVisiting),
		"alreadyLeft":       toVisitorResponses(data.AlreadyLeft),
	})
}

func (h *Handler) handleNextWorkweek(w http.ResponseWriter, r *http.Request) {
	visits, err := h.visits.NextWorkweekVisits(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVisitorResponses(visits))
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	visitors, err := h.visits.SearchPlannedVisitors(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVisitorResponses(visitors))
}

func (h *Handler) handleVisitsForDate(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	date, err := parseOptionalDate(raw)
	if err != nil {
		writeError(w, err)
		return
	}
	if date == nil {
		now := time.Now().UTC()
		date = &now
	}
	visits, err := h.visits.VisitsForDate(r.Context(), *date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVisitorResponses(visits))
}

func (h *Handler) logCommandError(ctx context.Context, op string, err error) {
	h.logger.WarnContext(ctx, "command rejected",
		"request_id", middleware.GetRequestID(ctx),
		"op", op,
		"code", string(dErrors.CodeOf(err)),
		"error", err.Error(),
	)
}

func parseOptionalDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidationFailed, "date must be formatted YYYY-MM-DD")
	}
	return &parsed, nil
}
