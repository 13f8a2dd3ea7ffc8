package repository

//go:generate mockgen -source=codec.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"neom/internal/platform/metrics"
	"neom/internal/repository/mocks"
	"neom/pkg/ddd"
	dErrors "neom/pkg/domain-errors"
	"neom/pkg/platform/sentinel"
)

// =============================================================================
// Repository Service Test Suite
// =============================================================================
// The service guards the store: it rejects values that cannot be keyed and
// turns store failures into coded errors.

type ServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	mockStore *mocks.MockStore
	metrics   *metrics.Metrics
	service   *Service
	customers *ddd.Schema
	addresses *ddd.Schema
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockStore = mocks.NewMockStore(s.ctrl)
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())

	var err error
	s.service, err = New(s.mockStore,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
	)
	s.Require().NoError(err)

	s.customers, err = ddd.NewEntity("Customer",
		[]ddd.Field{ddd.Identity[int]("id"), ddd.Attr[string]("name")},
		ddd.WithEntitySupport())
	s.Require().NoError(err)
	s.addresses, err = ddd.NewValueObject("Address", []ddd.Field{ddd.Attr[string]("street")})
	s.Require().NoError(err)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) customer(id int, name string) *ddd.Instance {
	c, err := s.customers.New(id, name)
	s.Require().NoError(err)
	return c
}

func (s *ServiceSuite) TestNew() {
	s.Run("nil store returns error", func() {
		_, err := New(nil)
		s.Require().Error(err)
		s.Contains(err.Error(), "entity store is required")
	})

	s.Run("defaults logger and tracer", func() {
		svc, err := New(s.mockStore)
		s.Require().NoError(err)
		s.NotNil(svc.logger)
		s.NotNil(svc.tracer)
	})
}

func (s *ServiceSuite) TestSave() {
	ctx := context.Background()

	s.Run("stores entities with identity", func() {
		c := s.customer(1, "ada")
		s.mockStore.EXPECT().Save(gomock.Any(), c).Return(nil)
		s.Require().NoError(s.service.Save(ctx, c))
		s.InDelta(1, testutil.ToFloat64(s.metrics.RepositoryOps.WithLabelValues("save", "ok")), 0)
	})

	s.Run("value objects are rejected", func() {
		addr, err := s.addresses.New("Main St")
		s.Require().NoError(err)
		err = s.service.Save(ctx, addr)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		s.ErrorIs(err, ddd.ErrNoIdentity)
	})

	s.Run("unassigned identity is rejected", func() {
		partial, err := s.customers.Make(map[string]any{"name": "ada"})
		s.Require().NoError(err)
		s.True(dErrors.HasCode(s.service.Save(ctx, partial), dErrors.CodeInvalidInput))
	})

	s.Run("nil entity is rejected", func() {
		s.True(dErrors.HasCode(s.service.Save(ctx, nil), dErrors.CodeInvalidInput))
	})

	s.Run("store failure is internal", func() {
		c := s.customer(2, "grace")
		s.mockStore.EXPECT().Save(gomock.Any(), c).Return(errors.New("disk full"))
		err := s.service.Save(ctx, c)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		s.InDelta(1, testutil.ToFloat64(s.metrics.RepositoryOps.WithLabelValues("save", string(dErrors.CodeInternal))), 0)
	})

	s.Run("unsupported fields are invalid input", func() {
		c := s.customer(3, "linus")
		s.mockStore.EXPECT().Save(gomock.Any(), c).Return(ErrUnsupportedField)
		s.True(dErrors.HasCode(s.service.Save(ctx, c), dErrors.CodeInvalidInput))
	})
}

func (s *ServiceSuite) TestFind() {
	ctx := context.Background()

	s.Run("returns the stored entity", func() {
		c := s.customer(1, "ada")
		s.mockStore.EXPECT().Find(gomock.Any(), s.customers, 1).Return(c, nil)
		got, err := s.service.Find(ctx, s.customers, 1)
		s.Require().NoError(err)
		s.Same(c, got)
	})

	s.Run("missing entity is not found", func() {
		s.mockStore.EXPECT().Find(gomock.Any(), s.customers, 9).Return(nil, sentinel.ErrNotFound)
		_, err := s.service.Find(ctx, s.customers, 9)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unavailable store", func() {
		s.mockStore.EXPECT().Find(gomock.Any(), s.customers, 1).Return(nil, sentinel.ErrUnavailable)
		_, err := s.service.Find(ctx, s.customers, 1)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.Run("schema without identity", func() {
		_, err := s.service.Find(ctx, s.addresses, 1)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *ServiceSuite) TestDeleteAndCount() {
	ctx := context.Background()

	s.mockStore.EXPECT().Delete(gomock.Any(), s.customers, 1).Return(nil)
	s.Require().NoError(s.service.Delete(ctx, s.customers, 1))

	s.mockStore.EXPECT().Delete(gomock.Any(), s.customers, 2).Return(sentinel.ErrNotFound)
	s.True(dErrors.HasCode(s.service.Delete(ctx, s.customers, 2), dErrors.CodeNotFound))

	s.mockStore.EXPECT().Count(gomock.Any(), s.customers).Return(3, nil)
	n, err := s.service.Count(ctx, s.customers)
	s.Require().NoError(err)
	s.Equal(3, n)
}
