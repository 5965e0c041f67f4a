// Package models defines the Visitor aggregate and its status enum. Entities
// here carry no behavior beyond pure invariant checks; transitions live in the
// lifecycle package and orchestration in the service layer.
package models

import (
	"fmt"
	"time"

	id "visitflow/pkg/domain"
)

// VisitorStatus is the lifecycle state of a visit. Transitions only ever move
// forward: Planned -> Arrived -> Left.
type VisitorStatus string

const (
	StatusPlanned VisitorStatus = "Planned"
	StatusArrived VisitorStatus = "Arrived"
	StatusLeft    VisitorStatus = "Left"
)

// ParseVisitorStatus validates a status read from storage or the wire.
func ParseVisitorStatus(s string) (VisitorStatus, error) {
	switch VisitorStatus(s) {
	case StatusPlanned, StatusArrived, StatusLeft:
		return VisitorStatus(s), nil
	}
	return "", fmt.Errorf("unknown visitor status: %q", s)
}

// Field limits shared by every command validator.
const (
	MaxNameLength    = 100
	MaxCompanyLength = 100
)

// DefaultCompany is recorded when a walk-in checks in without naming one.
const DefaultCompany = "Walk-in"

// Visitor is the sole aggregate: one person's visit and its timestamps.
// Version backs the registry's optimistic concurrency check; it starts at 1
// and the store bumps it on every successful update.
type Visitor struct {
	ID        id.VisitorID
	Name      string
	Company   string
	Status    VisitorStatus
	VisitDate time.Time
	CreatedAt time.Time
	ArrivedAt *time.Time
	LeftAt    *time.Time
	UpdatedAt time.Time
	Version   int64
}

// CheckInvariants verifies the timestamp/status implications that must hold
// for every persisted visitor. Used by tests and the postgres store's
// integration test; it is not a validation path for user input.
func (v Visitor) CheckInvariants() error {
	switch v.Status {
	case StatusPlanned:
		if v.ArrivedAt != nil || v.LeftAt != nil {
			return fmt.Errorf("planned visitor %s has arrival/departure timestamps", v.ID)
		}
	case StatusArrived:
		if v.ArrivedAt == nil {
			return fmt.Errorf("arrived visitor %s has no arrivedAt", v.ID)
		}
		if v.LeftAt != nil {
			return fmt.Errorf("arrived visitor %s already has leftAt", v.ID)
		}
	case StatusLeft:
		if v.ArrivedAt == nil || v.LeftAt == nil {
			return fmt.Errorf("left visitor %s is missing timestamps", v.ID)
		}
		if v.LeftAt.Before(*v.ArrivedAt) {
			return fmt.Errorf("left visitor %s departed before arriving", v.ID)
		}
	default:
		return fmt.Errorf("visitor %s has unknown status %q", v.ID, v.Status)
	}
	return nil
}

// DateOnly truncates a timestamp to its UTC calendar date. VisitDate is always
// stored this way so date-range queries compare cleanly.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
