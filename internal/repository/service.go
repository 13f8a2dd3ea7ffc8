package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"neom/internal/platform/metrics"
	"neom/pkg/ddd"
	dErrors "neom/pkg/domain-errors"
	"neom/pkg/platform/sentinel"
)

const tracerName = "neom/internal/repository"

// Service fronts a Store with validation, logging, tracing and metrics.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// New constructs a Service.
func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("entity store is required")
	}
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s, nil
}

// Save stores entity, replacing any entity with the same identity.
func (s *Service) Save(ctx context.Context, entity *ddd.Instance) (err error) {
	if entity == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "entity is required")
	}
	ctx, done := s.start(ctx, "save", entity.Schema())
	defer func() { done(err) }()

	id, err := entity.Identity()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "only entities with an identity can be stored")
	}
	if id == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "identity field is not assigned")
	}

	if err := s.store.Save(ctx, entity); err != nil {
		if errors.Is(err, ErrUnsupportedField) {
			return dErrors.Wrap(err, dErrors.CodeInvalidInput, "entity cannot be stored")
		}
		return s.translate(err, "failed to save entity")
	}
	s.logger.DebugContext(ctx, "entity saved",
		"schema", entity.Schema().Name(),
		"identity", fmt.Sprint(id),
	)
	return nil
}

// Find loads the entity of schema with the given identity.
func (s *Service) Find(ctx context.Context, schema *ddd.Schema, identity any) (_ *ddd.Instance, err error) {
	ctx, done := s.start(ctx, "find", schema)
	defer func() { done(err) }()

	if err := requireIdentity(schema); err != nil {
		return nil, err
	}
	entity, err := s.store.Find(ctx, schema, identity)
	if err != nil {
		return nil, s.translate(err, "failed to load entity")
	}
	return entity, nil
}

// Delete removes the entity of schema with the given identity.
func (s *Service) Delete(ctx context.Context, schema *ddd.Schema, identity any) (err error) {
	ctx, done := s.start(ctx, "delete", schema)
	defer func() { done(err) }()

	if err := requireIdentity(schema); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, schema, identity); err != nil {
		return s.translate(err, "failed to delete entity")
	}
	s.logger.DebugContext(ctx, "entity deleted",
		"schema", schema.Name(),
		"identity", fmt.Sprint(identity),
	)
	return nil
}

// Count returns the number of stored entities of schema.
func (s *Service) Count(ctx context.Context, schema *ddd.Schema) (_ int, err error) {
	ctx, done := s.start(ctx, "count", schema)
	defer func() { done(err) }()

	n, err := s.store.Count(ctx, schema)
	if err != nil {
		return 0, s.translate(err, "failed to count entities")
	}
	return n, nil
}

func requireIdentity(schema *ddd.Schema) error {
	if schema == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "schema is required")
	}
	if _, ok := schema.IdentityField(); !ok {
		return dErrors.New(dErrors.CodeInvalidInput, "schema "+schema.Name()+" has no identity field")
	}
	return nil
}

func (s *Service) translate(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "entity not found")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}

// start opens a span and returns the function that closes it and records
// the outcome.
func (s *Service) start(ctx context.Context, op string, schema *ddd.Schema) (context.Context, func(error)) {
	name := ""
	if schema != nil {
		name = schema.Name()
	}
	ctx, span := s.tracer.Start(ctx, "repository."+op,
		trace.WithAttributes(attribute.String("neom.schema", name)))
	began := time.Now()

	return ctx, func(err error) {
		result := "ok"
		if err != nil {
			result = string(dErrors.CodeOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if !dErrors.HasCode(err, dErrors.CodeNotFound) {
				s.logger.ErrorContext(ctx, "repository operation failed",
					"op", op,
					"schema", name,
					"error", err,
				)
			}
		}
		span.End()
		if s.metrics != nil {
			s.metrics.ObserveRepository(op, result, time.Since(began).Seconds())
		}
	}
}
