// Package lifecycle is the single source of truth for visitor status
// transitions. It is pure: given the current entity, a trigger, and a clock
// reading it returns the updated entity or an error, and performs no I/O.
// Command handlers must route every status mutation through Apply or
// NewWalkIn; nothing else may touch Status, ArrivedAt, or LeftAt.
package lifecycle

import (
	"time"

	"visitflow/internal/visitor/models"
	id "visitflow/pkg/domain"
	dErrors "visitflow/pkg/domain-errors"
)

// Trigger names a requested transition.
type Trigger string

const (
	// TriggerCheckIn moves a planned visitor to Arrived.
	TriggerCheckIn Trigger = "checkIn"
	// TriggerLeave moves an arrived visitor to Left.
	TriggerLeave Trigger = "leave"
)

// Apply computes the transition for an existing visitor. The input is taken
// by value and returned updated so a failed transition can never leave a
// half-mutated entity behind.
func Apply(v models.Visitor, trigger Trigger, now time.Time) (models.Visitor, error) {
	switch {
	case trigger == TriggerCheckIn && v.Status == models.StatusPlanned:
		arrived := now
		v.Status = models.StatusArrived
		v.ArrivedAt = &arrived
		v.UpdatedAt = now
		return v, nil

	case trigger == TriggerLeave && v.Status == models.StatusArrived:
		left := now
		if v.ArrivedAt != nil && left.Before(*v.ArrivedAt) {
			// Clock skew between the arrival and departure writers; clamp so
			// leftAt >= arrivedAt always holds.
			left = *v.ArrivedAt
		}
		v.Status = models.StatusLeft
		v.LeftAt = &left
		v.UpdatedAt = now
		return v, nil
	}

	return models.Visitor{}, dErrors.New(dErrors.CodeInvalidTransition,
		string(trigger)+" is not legal from status "+string(v.Status))
}

// NewWalkIn is the synthetic entry point that skips planning: it constructs a
// visitor directly in Arrived with arrivedAt set to now.
func NewWalkIn(name, company string, now time.Time) models.Visitor {
	arrived := now
	return models.Visitor{
		ID:        id.NewVisitorID(),
		Name:      name,
		Company:   company,
		Status:    models.StatusArrived,
		VisitDate: models.DateOnly(now),
		CreatedAt: now,
		ArrivedAt: &arrived,
		UpdatedAt: now,
		Version:   1,
	}
}

// NewPlanned constructs a visitor in the initial Planned state for the given
// visit date.
func NewPlanned(name, company string, visitDate, now time.Time) models.Visitor {
	return models.Visitor{
		ID:        id.NewVisitorID(),
		Name:      name,
		Company:   company,
		Status:    models.StatusPlanned,
		VisitDate: models.DateOnly(visitDate),
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
}
