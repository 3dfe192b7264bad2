package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/facility-planner/internal/application"
	"github.com/example/facility-planner/internal/periodicity"
)

// ServiceFactory builds application services over a harness with a shared
// clock and identifier sequence.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Location    *time.Location
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory returns a factory at ReferenceTime in UTC.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Location:    time.UTC,
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.Location == nil {
		factory.Location = time.UTC
	}
	return factory
}

// WithClock overrides the factory clock.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(f *ServiceFactory) { f.Clock = clock }
}

// WithIDGenerator overrides the factory identifier sequence.
func WithIDGenerator(gen *IDGenerator) ServiceFactoryOption {
	return func(f *ServiceFactory) { f.IDGenerator = gen }
}

// WithLocation overrides the calendar location handed to the engines.
func WithLocation(loc *time.Location) ServiceFactoryOption {
	return func(f *ServiceFactory) { f.Location = loc }
}

// WithLogger overrides the service logger.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(f *ServiceFactory) { f.Logger = logger }
}

// Services groups every application service.
type Services struct {
	Locations    *application.LocationService
	Activities   *application.ActivityService
	Staff        *application.StaffService
	Tasks        *application.TaskService
	Governance   *application.GovernanceService
	Convocations *application.ConvocationService
}

// Build wires every service to the repositories of h.
func (f *ServiceFactory) Build(h *SQLiteHarness) Services {
	idGen := f.IDGenerator.NextFunc()
	now := f.Clock.NowFunc()
	return Services{
		Locations:  application.NewLocationServiceWithLogger(h.Locations, idGen, now, f.Logger),
		Activities: application.NewActivityServiceWithLogger(h.Activities, idGen, now, f.Logger),
		Staff:      application.NewStaffServiceWithLogger(h.Staff, idGen, now, f.Logger),
		Tasks: application.NewTaskServiceWithLogger(
			h.Tasks, h.Locations, h.Activities, h.Staff,
			periodicity.NewEngine(f.Location), idGen, now, f.Logger,
		),
		Governance: application.NewGovernanceServiceWithLogger(
			h.Governance, h.Schedules, h.Staff,
			application.GovernanceOptions{Location: f.Location},
			idGen, now, f.Logger,
		),
		Convocations: application.NewConvocationServiceWithLogger(h.Schedules, h.Convocations, f.Location, idGen, now, f.Logger),
	}
}
