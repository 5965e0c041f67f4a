package service

import (
	"context"
	"strings"
	"time"

	"visitflow/internal/visitor/models"
	"visitflow/internal/visitor/store"
)

// DashboardData is the receptionist's snapshot for today: who is expected,
// who is in the building, and who already left.
type DashboardData struct {
	PlannedVisitors   []models.Visitor
	CurrentlyVisiting []models.Visitor
	AlreadyLeft       []models.Visitor
}

// Dashboard returns today's three status buckets. Each bucket is filtered and
// ordered by the timestamp that put the visitor into it.
func (s *Service) Dashboard(ctx context.Context) (DashboardData, error) {
	today := models.DateOnly(s.now())
	tomorrow := today.AddDate(0, 0, 1)

	planned, err := s.listStatus(ctx, store.Filter{
		Status:      statusPtr(models.StatusPlanned),
		CreatedFrom: &today, CreatedTo: &tomorrow,
		OrderBy: store.OrderByCreatedAt,
	})
	if err != nil {
		return DashboardData{}, err
	}
	visiting, err := s.listStatus(ctx, store.Filter{
		Status:      statusPtr(models.StatusArrived),
		ArrivedFrom: &today, ArrivedTo: &tomorrow,
		OrderBy: store.OrderByArrivedAt,
	})
	if err != nil {
		return DashboardData{}, err
	}
	left, err := s.listStatus(ctx, store.Filter{
		Status:   statusPtr(models.StatusLeft),
		LeftFrom: &today, LeftTo: &tomorrow,
		OrderBy: store.OrderByLeftAt,
	})
	if err != nil {
		return DashboardData{}, err
	}

	return DashboardData{
		PlannedVisitors:   planned,
		CurrentlyVisiting: visiting,
		AlreadyLeft:       left,
	}, nil
}

// NextWorkweekVisits returns planned visits scheduled for next Monday through
// Friday, ordered by visit date then creation time.
func (s *Service) NextWorkweekVisits(ctx context.Context) ([]models.Visitor, error) {
	monday := nextMonday(s.now())
	saturday := monday.AddDate(0, 0, 5)

	return s.listStatus(ctx, store.Filter{
		Status:        statusPtr(models.StatusPlanned),
		VisitDateFrom: &monday,
		VisitDateTo:   &saturday,
		OrderBy:       store.OrderByVisitDate,
	})
}

// SearchPlannedVisitors finds planned visitors by name for kiosk lookup.
// Terms under three characters return nothing so the kiosk does not list the
// whole day's schedule while someone types.
func (s *Service) SearchPlannedVisitors(ctx context.Context, term string) ([]models.Visitor, error) {
	term = strings.TrimSpace(term)
	if len(term) < 3 {
		return []models.Visitor{}, nil
	}
	return s.listStatus(ctx, store.Filter{
		Status:       statusPtr(models.StatusPlanned),
		NameContains: term,
		OrderBy:      store.OrderByName,
		Limit:        10,
	})
}

// VisitsForDate returns every visitor scheduled for the given calendar date.
func (s *Service) VisitsForDate(ctx context.Context, date time.Time) ([]models.Visitor, error) {
	day := models.DateOnly(date)
	next := day.AddDate(0, 0, 1)
	return s.listStatus(ctx, store.Filter{
		VisitDateFrom: &day,
		VisitDateTo:   &next,
		OrderBy:       store.OrderByCreatedAt,
	})
}

func (s *Service) listStatus(ctx context.Context, f store.Filter) ([]models.Visitor, error) {
	visitors, err := s.store.List(ctx, f)
	if err != nil {
		return nil, s.mapStoreErr(ctx, "list visitors", err)
	}
	return visitors, nil
}

func statusPtr(st models.VisitorStatus) *models.VisitorStatus { return &st }

// nextMonday finds the Monday of the next workweek. From a Monday that is
// seven days out, never today.
func nextMonday(now time.Time) time.Time {
	today := models.DateOnly(now)
	days := (8 - int(today.Weekday())) % 7
	if days == 0 {
		days = 7
	}
	return today.AddDate(0, 0, days)
}
