package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"visitflow/internal/visitor/models"
	"visitflow/internal/visitor/store"
	id "visitflow/pkg/domain"
	dErrors "visitflow/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	store   *store.InMemoryStore
	service *Service
	ctx     context.Context
	now     time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewInMemoryStore()
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = New(s.store, log, nil).WithClock(func() time.Time { return s.now })
}

func (s *ServiceSuite) storedCount() int {
	all, err := s.store.List(s.ctx, store.Filter{})
	s.Require().NoError(err)
	return len(all)
}

func (s *ServiceSuite) plan(name, company string) models.Visitor {
	v, err := s.service.PlanVisit(s.ctx, PlanVisitCommand{Name: name, Company: company})
	s.Require().NoError(err)
	return v
}

func (s *ServiceSuite) TestCheckInKioskWalkIn() {
	v, err := s.service.CheckInKiosk(s.ctx, CheckInKioskCommand{Name: "Linus", Company: "Kernel Labs"})
	s.Require().NoError(err)
	s.Equal(models.StatusArrived, v.Status)
	s.Require().NotNil(v.ArrivedAt)
	s.Equal(s.now, *v.ArrivedAt)
	s.Equal(models.DateOnly(s.now), v.VisitDate)
	s.Require().NoError(v.CheckInvariants())
}

func (s *ServiceSuite) TestCheckInKioskDefaultsCompany() {
	v, err := s.service.CheckInKiosk(s.ctx, CheckInKioskCommand{Name: "Linus"})
	s.Require().NoError(err)
	s.Equal(models.DefaultCompany, v.Company)
}

func (s *ServiceSuite) TestCheckInKioskValidation() {
	s.Run("name required", func() {
		_, err := s.service.CheckInKiosk(s.ctx, CheckInKioskCommand{Name: "  "})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidationFailed))
	})

	s.Run("oversized name rejected before any write", func() {
		_, err := s.service.CheckInKiosk(s.ctx, CheckInKioskCommand{Name: strings.Repeat("a", 101)})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidationFailed))
		s.Equal(0, s.storedCount())
	})

	s.Run("every violation reported, not just the first", func() {
		_, err := s.service.CheckInKiosk(s.ctx, CheckInKioskCommand{
			Name:    "",
			Company: strings.Repeat("b", 101),
		})
		s.Require().Error(err)
		var de *dErrors.Error
		s.Require().ErrorAs(err, &de)
		fields := make([]string, 0, len(de.Violations))
		for _, v := range de.Violations {
			fields = append(fields, v.Field)
		}
		s.ElementsMatch([]string{"name", "company"}, fields)
	})
}

func (s *ServiceSuite) TestCheckInKioskPlannedVisitor() {
	s.Run("transitions the planned entity instead of creating", func() {
		planned := s.plan("Ada", "Acme")

		v, err := s.service.CheckInKiosk(s.ctx, CheckInKioskCommand{
			Name: "Ada", Company: "Acme", PlannedVisitorID: &planned.ID,
		})
		s.Require().NoError(err)
		s.Equal(planned.ID, v.ID)
		s.Equal(models.StatusArrived, v.Status)
		s.Equal(1, s.storedCount())
	})

	s.Run("falls back to creation when the id is unknown", func() {
		missing := id.NewVisitorID()
		before := s.storedCount()

		v, err := s.service.CheckInKiosk(s.ctx, CheckInKioskCommand{
			Name: "Grace", Company: "Navy", PlannedVisitorID: &missing,
		})
		s.Require().NoError(err)
		s.NotEqual(missing, v.ID)
		s.Equal(models.StatusArrived, v.Status)
		s.Equal(before+1, s.storedCount())
	})

	s.Run("wrong state is invalid_state, never a duplicate", func() {
		walkIn, err := s.service.CheckInKiosk(s.ctx, CheckInKioskCommand{Name: "Linus"})
		s.Require().NoError(err)
		before := s.storedCount()

		_, err = s.service.CheckInKiosk(s.ctx, CheckInKioskCommand{
			Name: "Linus", Company: "Kernel Labs", PlannedVisitorID: &walkIn.ID,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
		s.Equal(before, s.storedCount())
	})
}

func (s *ServiceSuite) TestPlanVisit() {
	visitDate := time.Date(2025, 6, 16, 15, 30, 0, 0, time.UTC)
	v, err := s.service.PlanVisit(s.ctx, PlanVisitCommand{Name: "Ada", Company: "Acme", VisitDate: &visitDate})
	s.Require().NoError(err)
	s.Equal(models.StatusPlanned, v.Status)
	s.Equal(time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), v.VisitDate)
	s.Nil(v.ArrivedAt)

	s.Run("visit date defaults to today", func() {
		v, err := s.service.PlanVisit(s.ctx, PlanVisitCommand{Name: "Grace", Company: "Navy"})
		s.Require().NoError(err)
		s.Equal(models.DateOnly(s.now), v.VisitDate)
	})

	s.Run("company is required for planned visits", func() {
		_, err := s.service.PlanVisit(s.ctx, PlanVisitCommand{Name: "Grace"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidationFailed))
	})
}

func (s *ServiceSuite) TestUpdatePlannedVisit() {
	planned := s.plan("Ada", "Acme")

	s.Run("updates fields on a planned visit", func() {
		newDate := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)
		v, err := s.service.UpdatePlannedVisit(s.ctx, UpdatePlannedVisitCommand{
			ID: planned.ID, Name: "Ada Lovelace", Company: "Analytical Engines", VisitDate: &newDate,
		})
		s.Require().NoError(err)
		s.Equal("Ada Lovelace", v.Name)
		s.Equal(newDate, v.VisitDate)
	})

	s.Run("nil visit date keeps the stored date", func() {
		v, err := s.service.UpdatePlannedVisit(s.ctx, UpdatePlannedVisitCommand{
			ID: planned.ID, Name: "Ada Lovelace", Company: "Acme",
		})
		s.Require().NoError(err)
		s.Equal(time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC), v.VisitDate)
	})

	s.Run("unknown id is not_found", func() {
		_, err := s.service.UpdatePlannedVisit(s.ctx, UpdatePlannedVisitCommand{
			ID: id.NewVisitorID(), Name: "Ada", Company: "Acme",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("non-planned visit is invalid_state", func() {
		arrived, err := s.service.MarkArrived(s.ctx, planned.ID)
		s.Require().NoError(err)
		_, err = s.service.UpdatePlannedVisit(s.ctx, UpdatePlannedVisitCommand{
			ID: arrived.ID, Name: "Ada", Company: "Acme",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func (s *ServiceSuite) TestDeletePlannedVisit() {
	s.Run("planned visits can be deleted", func() {
		planned := s.plan("Ada", "Acme")
		ok, err := s.service.DeletePlannedVisit(s.ctx, planned.ID)
		s.Require().NoError(err)
		s.True(ok)

		_, err = s.store.Get(s.ctx, planned.ID)
		s.Require().ErrorIs(err, store.ErrNotFound)
	})

	s.Run("arrived visitors are never deleted", func() {
		planned := s.plan("Grace", "Navy")
		_, err := s.service.MarkArrived(s.ctx, planned.ID)
		s.Require().NoError(err)

		_, err = s.service.DeletePlannedVisit(s.ctx, planned.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

		_, err = s.store.Get(s.ctx, planned.ID)
		s.Require().NoError(err)
	})

	s.Run("unknown id is not_found", func() {
		_, err := s.service.DeletePlannedVisit(s.ctx, id.NewVisitorID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestMarkArrived() {
	planned := s.plan("Ada", "Acme")

	v, err := s.service.MarkArrived(s.ctx, planned.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusArrived, v.Status)
	s.Require().NotNil(v.ArrivedAt)

	s.Run("re-delivery is rejected and fields stay untouched", func() {
		before, err := s.store.Get(s.ctx, planned.ID)
		s.Require().NoError(err)

		_, err = s.service.MarkArrived(s.ctx, planned.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

		after, err := s.store.Get(s.ctx, planned.ID)
		s.Require().NoError(err)
		s.Equal(before, after)
	})
}

func (s *ServiceSuite) TestLeave() {
	planned := s.plan("Ada", "Acme")
	arrived, err := s.service.MarkArrived(s.ctx, planned.ID)
	s.Require().NoError(err)

	s.now = s.now.Add(2 * time.Hour)
	left, err := s.service.Leave(s.ctx, planned.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusLeft, left.Status)
	s.Require().NotNil(left.LeftAt)
	s.True(!left.LeftAt.Before(*arrived.ArrivedAt))
	s.Require().NoError(left.CheckInvariants())

	s.Run("leaving twice is invalid_state and state is unchanged", func() {
		before, err := s.store.Get(s.ctx, planned.ID)
		s.Require().NoError(err)

		_, err = s.service.Leave(s.ctx, planned.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

		after, err := s.store.Get(s.ctx, planned.ID)
		s.Require().NoError(err)
		s.Equal(before, after)
	})

	s.Run("leave on a planned visitor is invalid_state", func() {
		other := s.plan("Grace", "Navy")
		_, err := s.service.Leave(s.ctx, other.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

// stubStore lets error-mapping tests inject storage failures.
type stubStore struct {
	store.Store
	getErr    error
	updateErr error
}

func (s *stubStore) Get(ctx context.Context, visitorID id.VisitorID) (models.Visitor, error) {
	if s.getErr != nil {
		return models.Visitor{}, s.getErr
	}
	return s.Store.Get(ctx, visitorID)
}

func (s *stubStore) Update(ctx context.Context, v models.Visitor) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	return s.Store.Update(ctx, v)
}

func (s *ServiceSuite) TestStoreErrorMapping() {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	planned := s.plan("Ada", "Acme")

	s.Run("conflict surfaces as conflict", func() {
		stub := &stubStore{Store: s.store, updateErr: store.ErrConflict}
		svc := New(stub, log, nil).WithClock(func() time.Time { return s.now })

		_, err := svc.MarkArrived(s.ctx, planned.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("deadline surfaces as timeout", func() {
		stub := &stubStore{Store: s.store, getErr: context.DeadlineExceeded}
		svc := New(stub, log, nil).WithClock(func() time.Time { return s.now })

		_, err := svc.MarkArrived(s.ctx, planned.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
	})

	s.Run("unexpected faults stay opaque", func() {
		stub := &stubStore{Store: s.store, getErr: io.ErrUnexpectedEOF}
		svc := New(stub, log, nil).WithClock(func() time.Time { return s.now })

		_, err := svc.MarkArrived(s.ctx, planned.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		s.NotContains(err.Error(), "EOF")
	})
}
