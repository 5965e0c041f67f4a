// Package service implements the visitor command and query handlers. Each
// command validates its input, loads or creates the entity, routes every
// status mutation through the lifecycle engine, and persists via the
// registry. All failures come back as typed domain errors; nothing in here
// panics outward.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"visitflow/internal/platform/metrics"
	"visitflow/internal/visitor/lifecycle"
	"visitflow/internal/visitor/models"
	"visitflow/internal/visitor/store"
	id "visitflow/pkg/domain"
	dErrors "visitflow/pkg/domain-errors"
)

// Service orchestrates visitor commands and queries against the registry.
type Service struct {
	store   store.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func New(st store.Store, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{store: st, logger: logger, metrics: m, now: time.Now}
}

// WithClock overrides the clock; tests use this to pin timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CheckInKioskCommand is the kiosk check-in: a pure walk-in when
// PlannedVisitorID is nil, otherwise an attempt to check in an existing
// planned visitor with the supplied details as fallback.
type CheckInKioskCommand struct {
	Name             string
	Company          string
	PlannedVisitorID *id.VisitorID
}

// PlanVisitCommand schedules a future visit. VisitDate defaults to today.
type PlanVisitCommand struct {
	Name      string
	Company   string
	VisitDate *time.Time
}

// UpdatePlannedVisitCommand edits a visit that has not started yet. A nil
// VisitDate keeps the stored date.
type UpdatePlannedVisitCommand struct {
	ID        id.VisitorID
	Name      string
	Company   string
	VisitDate *time.Time
}

// CheckInKiosk creates an Arrived visitor from kiosk input. When the command
// references a planned visitor it transitions that entity instead; only a
// missing id falls back to creating a new record. An id that exists in the
// wrong state is an invalid-state error, never a silent duplicate.
func (s *Service) CheckInKiosk(ctx context.Context, cmd CheckInKioskCommand) (models.Visitor, error) {
	company := strings.TrimSpace(cmd.Company)
	if company == "" {
		company = models.DefaultCompany
	}

	var violations []dErrors.Violation
	violations = appendNameViolations(violations, cmd.Name)
	violations = appendCompanyViolations(violations, company)
	if len(violations) > 0 {
		return models.Visitor{}, dErrors.NewValidation(violations)
	}

	if cmd.PlannedVisitorID != nil {
		existing, err := s.store.Get(ctx, *cmd.PlannedVisitorID)
		switch {
		case err == nil:
			if existing.Status != models.StatusPlanned {
				return models.Visitor{}, dErrors.New(dErrors.CodeInvalidState,
					"visitor has already checked in")
			}
			arrived, err := lifecycle.Apply(existing, lifecycle.TriggerCheckIn, s.now())
			if err != nil {
				return models.Visitor{}, err
			}
			if err := s.store.Update(ctx, arrived); err != nil {
				return models.Visitor{}, s.mapStoreErr(ctx, "check in planned visitor", err)
			}
			s.metrics.RecordCheckIn("kiosk")
			arrived.Version++
			return arrived, nil
		case errors.Is(err, store.ErrNotFound):
			// Planned visitor not found; fall through and create a walk-in.
		default:
			return models.Visitor{}, s.mapStoreErr(ctx, "check in planned visitor", err)
		}
	}

	walkIn := lifecycle.NewWalkIn(strings.TrimSpace(cmd.Name), company, s.now())
	if err := s.store.Create(ctx, walkIn); err != nil {
		return models.Visitor{}, s.mapStoreErr(ctx, "create walk-in visitor", err)
	}
	s.metrics.RecordCheckIn("kiosk")
	return walkIn, nil
}

// PlanVisit creates a visitor in the Planned state.
func (s *Service) PlanVisit(ctx context.Context, cmd PlanVisitCommand) (models.Visitor, error) {
	var violations []dErrors.Violation
	violations = appendNameViolations(violations, cmd.Name)
	violations = appendRequiredCompanyViolations(violations, cmd.Company)
	if len(violations) > 0 {
		return models.Visitor{}, dErrors.NewValidation(violations)
	}

	now := s.now()
	visitDate := now
	if cmd.VisitDate != nil {
		visitDate = *cmd.VisitDate
	}

	planned := lifecycle.NewPlanned(strings.TrimSpace(cmd.Name), strings.TrimSpace(cmd.Company), visitDate, now)
	if err := s.store.Create(ctx, planned); err != nil {
		return models.Visitor{}, s.mapStoreErr(ctx, "create planned visit", err)
	}
	return planned, nil
}

// UpdatePlannedVisit edits name, company, and visit date of a Planned visit.
func (s *Service) UpdatePlannedVisit(ctx context.Context, cmd UpdatePlannedVisitCommand) (models.Visitor, error) {
	var violations []dErrors.Violation
	if cmd.ID.IsNil() {
		violations = append(violations, dErrors.Violation{Field: "id", Message: "visit id is required"})
	}
	violations = appendNameViolations(violations, cmd.Name)
	violations = appendRequiredCompanyViolations(violations, cmd.Company)
	if len(violations) > 0 {
		return models.Visitor{}, dErrors.NewValidation(violations)
	}

	visitor, err := s.store.Get(ctx, cmd.ID)
	if err != nil {
		return models.Visitor{}, s.mapStoreErr(ctx, "update planned visit", err)
	}
	if visitor.Status != models.StatusPlanned {
		return models.Visitor{}, dErrors.New(dErrors.CodeInvalidState, "only planned visits can be updated")
	}

	visitor.Name = strings.TrimSpace(cmd.Name)
	visitor.Company = strings.TrimSpace(cmd.Company)
	if cmd.VisitDate != nil {
		visitor.VisitDate = models.DateOnly(*cmd.VisitDate)
	}
	visitor.UpdatedAt = s.now()

	if err := s.store.Update(ctx, visitor); err != nil {
		return models.Visitor{}, s.mapStoreErr(ctx, "update planned visit", err)
	}
	visitor.Version++
	return visitor, nil
}

// DeletePlannedVisit removes a visit that has not started. Visitors that
// arrived or left are never physically deleted.
func (s *Service) DeletePlannedVisit(ctx context.Context, visitorID id.VisitorID) (bool, error) {
	visitor, err := s.store.Get(ctx, visitorID)
	if err != nil {
		return false, s.mapStoreErr(ctx, "delete planned visit", err)
	}
	if visitor.Status != models.StatusPlanned {
		return false, dErrors.New(dErrors.CodeInvalidState, "only planned visits can be deleted")
	}
	if err := s.store.Delete(ctx, visitorID); err != nil {
		return false, s.mapStoreErr(ctx, "delete planned visit", err)
	}
	return true, nil
}

// MarkArrived transitions a planned visitor to Arrived. Re-delivery of the
// same check-in is rejected by the state pre-check so arrivedAt is written
// exactly once.
func (s *Service) MarkArrived(ctx context.Context, visitorID id.VisitorID) (models.Visitor, error) {
	visitor, err := s.store.Get(ctx, visitorID)
	if err != nil {
		return models.Visitor{}, s.mapStoreErr(ctx, "mark visitor arrived", err)
	}
	if visitor.Status != models.StatusPlanned {
		return models.Visitor{}, dErrors.New(dErrors.CodeInvalidState,
			"visitor must be in planned status to mark as arrived")
	}

	arrived, err := lifecycle.Apply(visitor, lifecycle.TriggerCheckIn, s.now())
	if err != nil {
		return models.Visitor{}, err
	}
	if err := s.store.Update(ctx, arrived); err != nil {
		return models.Visitor{}, s.mapStoreErr(ctx, "mark visitor arrived", err)
	}
	s.metrics.RecordCheckIn("remote")
	arrived.Version++
	return arrived, nil
}

// Leave transitions an arrived visitor to Left.
func (s *Service) Leave(ctx context.Context, visitorID id.VisitorID) (models.Visitor, error) {
	visitor, err := s.store.Get(ctx, visitorID)
	if err != nil {
		return models.Visitor{}, s.mapStoreErr(ctx, "mark visitor left", err)
	}
	if visitor.Status != models.StatusArrived {
		return models.Visitor{}, dErrors.New(dErrors.CodeInvalidState,
			"visitor must be in arrived status to mark as left")
	}

	left, err := lifecycle.Apply(visitor, lifecycle.TriggerLeave, s.now())
	if err != nil {
		return models.Visitor{}, err
	}
	if err := s.store.Update(ctx, left); err != nil {
		return models.Visitor{}, s.mapStoreErr(ctx, "mark visitor left", err)
	}
	left.Version++
	return left, nil
}

func appendNameViolations(violations []dErrors.Violation, name string) []dErrors.Violation {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		violations = append(violations, dErrors.Violation{Field: "name", Message: "name is required"})
	}
	if len(trimmed) > models.MaxNameLength {
		violations = append(violations, dErrors.Violation{Field: "name", Message: "name must not exceed 100 characters"})
	}
	return violations
}

func appendCompanyViolations(violations []dErrors.Violation, company string) []dErrors.Violation {
	if len(strings.TrimSpace(company)) > models.MaxCompanyLength {
		violations = append(violations, dErrors.Violation{Field: "company", Message: "company must not exceed 100 characters"})
	}
	return violations
}

func appendRequiredCompanyViolations(violations []dErrors.Violation, company string) []dErrors.Violation {
	if strings.TrimSpace(company) == "" {
		violations = append(violations, dErrors.Violation{Field: "company", Message: "company is required"})
	}
	return appendCompanyViolations(violations, company)
}

// mapStoreErr translates storage sentinels into domain errors. Unexpected
// faults are logged with full context and surfaced as an opaque internal
// error so no storage detail leaks to callers.
func (s *Service) mapStoreErr(ctx context.Context, op string, err error) error {
	var mapped error
	switch {
	case errors.Is(err, store.ErrNotFound):
		mapped = dErrors.New(dErrors.CodeNotFound, "visitor not found")
	case errors.Is(err, store.ErrConflict):
		mapped = dErrors.New(dErrors.CodeConflict, "visitor was modified concurrently")
	case errors.Is(err, context.DeadlineExceeded):
		mapped = dErrors.New(dErrors.CodeTimeout, op+" timed out")
	default:
		s.logger.ErrorContext(ctx, "registry operation failed",
			"op", op,
			"error", err.Error(),
		)
		mapped = dErrors.Wrap(dErrors.CodeInternal, "an error occurred while accessing the visitor registry", err)
	}
	s.metrics.RecordHandlerError(string(dErrors.CodeOf(mapped)))
	return mapped
}
