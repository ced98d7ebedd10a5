// Package lifecycle runs the proposal and agreement state transitions.
//
// Every operation writes inside one storage unit of work. Room provisioning
// and notifications run after commit; their failures are logged and never
// change the outcome reported to the caller.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	apperrors "github.com/louisbranch/crosspromo/internal/platform/errors"
	"github.com/louisbranch/crosspromo/internal/platform/id"
	"github.com/louisbranch/crosspromo/internal/platform/otel"
	"github.com/louisbranch/crosspromo/internal/services/collab/domain"
	"github.com/louisbranch/crosspromo/internal/services/collab/notify"
	"github.com/louisbranch/crosspromo/internal/services/collab/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/crosspromo/internal/services/collab/lifecycle"

// Routes are the caller's re-entry points attached to failures as hints.
type Routes struct {
	// Login is used when the acting party cannot be resolved.
	Login string
	// Apply is the submission form.
	Apply string
	// Received lists proposals and agreements awaiting the caller's decision.
	Received string
}

// DefaultRoutes match the bundled HTTP transport.
var DefaultRoutes = Routes{
	Login:    "/login",
	Apply:    "/collaborations/apply",
	Received: "/mypage/received",
}

// RoomEnsurer provisions rooms idempotently.
type RoomEnsurer interface {
	Ensure(ctx context.Context, owner domain.Owner) (domain.Room, error)
}

// Config wires a Service.
type Config struct {
	Store    storage.Store
	Rooms    RoomEnsurer
	Notifier notify.Sender
	Routes   Routes
	NewID    id.Generator
	Now      func() time.Time
	Logf     func(format string, args ...any)
}

// Service is the lifecycle orchestrator.
type Service struct {
	store    storage.Store
	rooms    RoomEnsurer
	notifier notify.Sender
	routes   Routes
	newID    id.Generator
	now      func() time.Time
	logf     func(format string, args ...any)
	tracer   trace.Tracer
}

// New validates cfg and returns a Service.
func New(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("lifecycle store is required")
	}
	s := &Service{
		store:    cfg.Store,
		rooms:    cfg.Rooms,
		notifier: cfg.Notifier,
		routes:   cfg.Routes,
		newID:    cfg.NewID,
		now:      cfg.Now,
		logf:     cfg.Logf,
		tracer:   otel.Tracer(tracerName),
	}
	if s.notifier == nil {
		s.notifier = notify.Discard{}
	}
	if s.newID == nil {
		s.newID = id.NewID
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logf == nil {
		s.logf = log.Printf
	}
	return s, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(apperrors.CodeOf(err)))
		}
		span.End()
	}
}

// fail attaches route as the hint of a business failure and wraps anything
// else as a storage failure.
func fail(err error, route string) error {
	if err == nil {
		return nil
	}
	if domainErr, ok := apperrors.As(err); ok {
		return domainErr.WithHint(route)
	}
	return apperrors.Wrap(apperrors.CodeStorageFailure, "storage failure", err).WithHint(route)
}

// lookup converts storage.ErrNotFound into a coded failure and leaves other
// errors for fail to classify.
func lookup(err error, code apperrors.Code, message string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.New(code, message)
	}
	return err
}

// ensureRoom provisions a room and discards any failure after logging it.
func (s *Service) ensureRoom(ctx context.Context, owner domain.Owner) {
	if s.rooms == nil {
		return
	}
	if _, err := s.rooms.Ensure(ctx, owner); err != nil {
		s.logf("room provisioning failed owner=%s: %v", owner, err)
	}
}

func (s *Service) nowUTC() time.Time {
	return s.now().UTC()
}
