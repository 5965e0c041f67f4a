package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"visitflow/internal/visitor/models"
	id "visitflow/pkg/domain"
)

// InMemoryStore keeps the registry lightweight and testable. It favors
// clarity over performance; production runs against PostgresStore.
type InMemoryStore struct {
	mu       sync.RWMutex
	visitors map[id.VisitorID]models.Visitor
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{visitors: make(map[id.VisitorID]models.Visitor)}
}

func (s *InMemoryStore) Create(_ context.Context, v models.Visitor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.visitors[v.ID]; exists {
		return ErrConflict
	}
	s.visitors[v.ID] = v
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, visitorID id.VisitorID) (models.Visitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.visitors[visitorID]; ok {
		return v, nil
	}
	return models.Visitor{}, ErrNotFound
}

func (s *InMemoryStore) Update(_ context.Context, v models.Visitor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.visitors[v.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != v.Version {
		return ErrConflict
	}
	v.Version++
	s.visitors[v.ID] = v
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, visitorID id.VisitorID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.visitors[visitorID]; !ok {
		return ErrNotFound
	}
	delete(s.visitors, visitorID)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, f Filter) ([]models.Visitor, error) {
	s.mu.RLock()
	matched := make([]models.Visitor, 0)
	for _, v := range s.visitors {
		if matches(v, f) {
			matched = append(matched, v)
		}
	}
	s.mu.RUnlock()

	sortVisitors(matched, f.OrderBy)
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

func matches(v models.Visitor, f Filter) bool {
	if f.Status != nil && v.Status != *f.Status {
		return false
	}
	if !inRange(&v.VisitDate, f.VisitDateFrom, f.VisitDateTo) {
		return false
	}
	if !inRange(&v.CreatedAt, f.CreatedFrom, f.CreatedTo) {
		return false
	}
	if !inRange(v.ArrivedAt, f.ArrivedFrom, f.ArrivedTo) {
		return false
	}
	if !inRange(v.LeftAt, f.LeftFrom, f.LeftTo) {
		return false
	}
	if f.NameContains != "" &&
		!strings.Contains(strings.ToLower(v.Name), strings.ToLower(f.NameContains)) {
		return false
	}
	return true
}

// inRange checks a half-open [from, to) window. A nil timestamp fails any
// bounded range; nil bounds are ignored.
func inRange(t, from, to *time.Time) bool {
	if from == nil && to == nil {
		return true
	}
	if t == nil {
		return false
	}
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && !t.Before(*to) {
		return false
	}
	return true
}

func sortVisitors(vs []models.Visitor, order OrderBy) {
	sort.SliceStable(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		switch order {
		case OrderByArrivedAt:
			return timePtrLess(a.ArrivedAt, b.ArrivedAt)
		case OrderByLeftAt:
			return timePtrLess(a.LeftAt, b.LeftAt)
		case OrderByVisitDate:
			if !a.VisitDate.Equal(b.VisitDate) {
				return a.VisitDate.Before(b.VisitDate)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		case OrderByName:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	})
}

func timePtrLess(a, b *time.Time) bool {
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	return a.Before(*b)
}
