// Package store is the visitor registry: persistence and lookup only, no
// business rules. Implementations are interface-driven so the service layer
// can run against in-memory storage in tests and PostgreSQL in production.
package store

import (
	"context"
	"errors"
	"time"

	"visitflow/internal/visitor/models"
	id "visitflow/pkg/domain"
)

// Sentinel errors for storage facts. Services translate these into domain
// errors; stores never import the domain-errors package.
var (
	// ErrNotFound means no visitor exists under the given id.
	ErrNotFound = errors.New("visitor not found")
	// ErrConflict means an Update lost the optimistic concurrency race: the
	// stored Version no longer matches the caller's copy.
	ErrConflict = errors.New("visitor version conflict")
)

// OrderBy selects the sort key for List. All orderings are ascending.
type OrderBy string

const (
	OrderByCreatedAt OrderBy = "created_at"
	OrderByArrivedAt OrderBy = "arrived_at"
	OrderByLeftAt    OrderBy = "left_at"
	OrderByVisitDate OrderBy = "visit_date"
	OrderByName      OrderBy = "name"
)

// Filter narrows a List call. Nil/zero fields are ignored. Time ranges are
// half-open: From inclusive, To exclusive.
type Filter struct {
	Status        *models.VisitorStatus
	VisitDateFrom *time.Time
	VisitDateTo   *time.Time
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	ArrivedFrom   *time.Time
	ArrivedTo     *time.Time
	LeftFrom      *time.Time
	LeftTo        *time.Time
	NameContains  string
	OrderBy       OrderBy
	Limit         int
}

// Store is the registry contract. Each call is transactional for the single
// entity it touches; the lifecycle logic never needs cross-entity atomicity.
type Store interface {
	// Create persists a new visitor. The caller assigns the ID.
	Create(ctx context.Context, v models.Visitor) error
	// Get returns the visitor or ErrNotFound.
	Get(ctx context.Context, visitorID id.VisitorID) (models.Visitor, error)
	// Update persists a mutation conditioned on v.Version matching the stored
	// version. On success the stored version is bumped; on mismatch it
	// returns ErrConflict and leaves the record untouched.
	Update(ctx context.Context, v models.Visitor) error
	// Delete removes the visitor or returns ErrNotFound. State policy (only
	// Planned visitors may be deleted) is enforced by the service, not here.
	Delete(ctx context.Context, visitorID id.VisitorID) error
	// List returns visitors matching the filter in the requested order.
	List(ctx context.Context, f Filter) ([]models.Visitor, error)
}
