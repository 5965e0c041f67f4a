package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"visitflow/internal/visitor/models"
	"visitflow/internal/visitor/store"
	id "visitflow/pkg/domain"
)

type QueriesSuite struct {
	suite.Suite
	store   *store.InMemoryStore
	service *Service
	ctx     context.Context
	now     time.Time
}

func TestQueriesSuite(t *testing.T) {
	suite.Run(t, new(QueriesSuite))
}

func (s *QueriesSuite) SetupTest() {
	s.store = store.NewInMemoryStore()
	s.ctx = context.Background()
	// A Wednesday.
	s.now = time.Date(2025, 6, 11, 14, 0, 0, 0, time.UTC)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = New(s.store, log, nil).WithClock(func() time.Time { return s.now })
}

// seed inserts a visitor directly into the store so tests control every
// timestamp, bypassing the command handlers.
func (s *QueriesSuite) seed(v models.Visitor) models.Visitor {
	if v.ID.IsNil() {
		v.ID = id.NewVisitorID()
	}
	if v.Version == 0 {
		v.Version = 1
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = s.now
	}
	if v.UpdatedAt.IsZero() {
		v.UpdatedAt = v.CreatedAt
	}
	if v.VisitDate.IsZero() {
		v.VisitDate = models.DateOnly(v.CreatedAt)
	}
	s.Require().NoError(s.store.Create(s.ctx, v))
	return v
}

func (s *QueriesSuite) TestDashboard() {
	today := models.DateOnly(s.now)
	yesterday := today.AddDate(0, 0, -1)

	arrivedAt := s.now.Add(-3 * time.Hour)
	leftAt := s.now.Add(-1 * time.Hour)

	planned := s.seed(models.Visitor{Name: "Ada", Company: "Acme", Status: models.StatusPlanned})
	visiting := s.seed(models.Visitor{
		Name: "Grace", Company: "Navy", Status: models.StatusArrived,
		CreatedAt: arrivedAt, ArrivedAt: &arrivedAt,
	})
	gone := s.seed(models.Visitor{
		Name: "Linus", Company: "Kernel Labs", Status: models.StatusLeft,
		CreatedAt: arrivedAt, ArrivedAt: &arrivedAt, LeftAt: &leftAt,
	})
	// Left yesterday; must not show on today's board.
	staleLeft := yesterday.Add(16 * time.Hour)
	staleArrive := yesterday.Add(10 * time.Hour)
	s.seed(models.Visitor{
		Name: "Old", Company: "Past", Status: models.StatusLeft,
		CreatedAt: staleArrive, ArrivedAt: &staleArrive, LeftAt: &staleLeft,
	})

	data, err := s.service.Dashboard(s.ctx)
	s.Require().NoError(err)

	s.Require().Len(data.PlannedVisitors, 1)
	s.Equal(planned.ID, data.PlannedVisitors[0].ID)
	s.Require().Len(data.CurrentlyVisiting, 1)
	s.Equal(visiting.ID, data.CurrentlyVisiting[0].ID)
	s.Require().Len(data.AlreadyLeft, 1)
	s.Equal(gone.ID, data.AlreadyLeft[0].ID)
}

func (s *QueriesSuite) TestDashboardOrdersByBucketTimestamp() {
	first := s.now.Add(-4 * time.Hour)
	second := s.now.Add(-2 * time.Hour)

	late := s.seed(models.Visitor{
		Name: "Late", Company: "Acme", Status: models.StatusArrived,
		CreatedAt: second, ArrivedAt: &second,
	})
	early := s.seed(models.Visitor{
		Name: "Early", Company: "Acme", Status: models.StatusArrived,
		CreatedAt: first, ArrivedAt: &first,
	})

	data, err := s.service.Dashboard(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(data.CurrentlyVisiting, 2)
	s.Equal(early.ID, data.CurrentlyVisiting[0].ID)
	s.Equal(late.ID, data.CurrentlyVisiting[1].ID)
}

func (s *QueriesSuite) TestNextWorkweekVisits() {
	// s.now is Wednesday 2025-06-11, so next Monday is 2025-06-16.
	monday := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	friday := monday.AddDate(0, 0, 4)
	saturday := monday.AddDate(0, 0, 5)
	thisWeek := models.DateOnly(s.now).AddDate(0, 0, 1)

	inWeek1 := s.seed(models.Visitor{Name: "Ada", Company: "Acme", Status: models.StatusPlanned, VisitDate: monday})
	inWeek2 := s.seed(models.Visitor{Name: "Grace", Company: "Navy", Status: models.StatusPlanned, VisitDate: friday})
	s.seed(models.Visitor{Name: "Weekend", Company: "Acme", Status: models.StatusPlanned, VisitDate: saturday})
	s.seed(models.Visitor{Name: "Soon", Company: "Acme", Status: models.StatusPlanned, VisitDate: thisWeek})

	visits, err := s.service.NextWorkweekVisits(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(visits, 2)
	s.Equal(inWeek1.ID, visits[0].ID)
	s.Equal(inWeek2.ID, visits[1].ID)
}

func (s *QueriesSuite) TestNextMonday() {
	cases := []struct {
		day  time.Time
		want time.Time
	}{
		// From a Monday the next workweek starts seven days out.
		{time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC), time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC), time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 6, 13, 10, 0, 0, 0, time.UTC), time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC), time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC), time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		s.Equal(tc.want, nextMonday(tc.day), "from %s", tc.day.Weekday())
	}
}

func (s *QueriesSuite) TestSearchPlannedVisitors() {
	s.seed(models.Visitor{Name: "Ada Lovelace", Company: "Acme", Status: models.StatusPlanned})
	s.seed(models.Visitor{Name: "Adam Smith", Company: "Acme", Status: models.StatusPlanned})
	arrivedAt := s.now
	s.seed(models.Visitor{
		Name: "Ada Arrived", Company: "Acme", Status: models.StatusArrived,
		ArrivedAt: &arrivedAt,
	})

	s.Run("short terms return nothing", func() {
		found, err := s.service.SearchPlannedVisitors(s.ctx, "ad")
		s.Require().NoError(err)
		s.Empty(found)
	})

	s.Run("matches planned visitors only", func() {
		found, err := s.service.SearchPlannedVisitors(s.ctx, "ada")
		s.Require().NoError(err)
		s.Require().Len(found, 2)
		for _, v := range found {
			s.Equal(models.StatusPlanned, v.Status)
		}
	})

	s.Run("results are capped", func() {
		for i := 0; i < 15; i++ {
			s.seed(models.Visitor{
				Name: fmt.Sprintf("Searchable %02d", i), Company: "Acme",
				Status: models.StatusPlanned,
			})
		}
		found, err := s.service.SearchPlannedVisitors(s.ctx, "searchable")
		s.Require().NoError(err)
		s.Len(found, 10)
	})
}

func (s *QueriesSuite) TestVisitsForDate() {
	target := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)
	match := s.seed(models.Visitor{Name: "Ada", Company: "Acme", Status: models.StatusPlanned, VisitDate: target})
	s.seed(models.Visitor{
		Name: "Grace", Company: "Navy", Status: models.StatusPlanned,
		VisitDate: target.AddDate(0, 0, 1),
	})

	visits, err := s.service.VisitsForDate(s.ctx, target.Add(13*time.Hour))
	s.Require().NoError(err)
	s.Require().Len(visits, 1)
	s.Equal(match.ID, visits[0].ID)
}
