// Package domain holds typed identifiers used across layers. Wrapping
// uuid.UUID in distinct types lets the compiler catch IDs crossing wires.
package domain

import (
	"github.com/google/uuid"

	dErrors "visitflow/pkg/domain-errors"
)

// VisitorID identifies one visitor aggregate. IDs are UUIDv7 so they sort by
// creation time, which keeps registry listings stable without a secondary key.
type VisitorID uuid.UUID

// NilVisitorID is the zero value; Parse rejects it at trust boundaries.
var NilVisitorID = VisitorID(uuid.Nil)

// NewVisitorID allocates a time-sortable identifier.
func NewVisitorID() VisitorID {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the entropy source does; fall back to v4
		// rather than propagating an error nobody can act on.
		return VisitorID(uuid.New())
	}
	return VisitorID(id)
}

// ParseVisitorID validates an incoming identifier. Empty, malformed, and nil
// UUIDs are all rejected.
func ParseVisitorID(s string) (VisitorID, error) {
	if s == "" {
		return NilVisitorID, dErrors.New(dErrors.CodeValidationFailed, "visitor id must not be empty")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return NilVisitorID, dErrors.New(dErrors.CodeValidationFailed, "visitor id is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return NilVisitorID, dErrors.New(dErrors.CodeValidationFailed, "visitor id must not be the nil UUID")
	}
	return VisitorID(parsed), nil
}

// IsNil reports whether the ID is unset.
func (id VisitorID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

func (id VisitorID) String() string {
	return uuid.UUID(id).String()
}
