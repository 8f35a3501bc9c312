package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/timeslot"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
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
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

func (f *ServiceFactory) idGen(override func() string) func() string {
	if override != nil {
		return override
	}
	return f.IDGenerator.NextFunc()
}

func (f *ServiceFactory) nowFunc(override func() time.Time) func() time.Time {
	if override != nil {
		return override
	}
	return f.Clock.NowFunc()
}

// ResourceServiceDeps captures dependencies for constructing a resource
// service.
type ResourceServiceDeps struct {
	Resources   application.ResourceRepository
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewResourceService builds a resource service using the supplied
// dependencies combined with the factory defaults.
func (f *ServiceFactory) NewResourceService(deps ResourceServiceDeps) *application.ResourceService {
	return application.NewResourceServiceWithLogger(
		deps.Resources,
		f.idGen(deps.IDGenerator),
		f.nowFunc(deps.Now),
		deps.Logger,
	)
}

// TimetableServiceDeps captures dependencies for constructing a timetable
// service.
type TimetableServiceDeps struct {
	Entries     application.TimetableRepository
	Resources   application.ResourceRepository
	Bookings    application.BookingRepository
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewTimetableService builds a timetable service using the supplied
// dependencies.
func (f *ServiceFactory) NewTimetableService(deps TimetableServiceDeps) *application.TimetableService {
	return application.NewTimetableServiceWithLogger(
		deps.Entries,
		deps.Resources,
		deps.Bookings,
		f.idGen(deps.IDGenerator),
		f.nowFunc(deps.Now),
		deps.Logger,
	)
}

// BookingServiceDeps captures dependencies for constructing a booking
// service.
type BookingServiceDeps struct {
	Bookings    application.BookingRepository
	Resources   application.ResourceRepository
	Entries     application.TimetableRepository
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewBookingService builds a booking service using the supplied dependencies.
func (f *ServiceFactory) NewBookingService(deps BookingServiceDeps) *application.BookingService {
	return application.NewBookingServiceWithLogger(
		deps.Bookings,
		deps.Resources,
		deps.Entries,
		f.idGen(deps.IDGenerator),
		f.nowFunc(deps.Now),
		deps.Logger,
	)
}

// RoutineServiceDeps captures dependencies for constructing a routine
// service.
type RoutineServiceDeps struct {
	Entries     application.TimetableRepository
	Resources   application.ResourceRepository
	Bookings    application.BookingRepository
	Catalog     *timeslot.Catalog
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewRoutineService builds a routine service using the supplied dependencies.
func (f *ServiceFactory) NewRoutineService(deps RoutineServiceDeps) *application.RoutineService {
	return application.NewRoutineServiceWithLogger(
		deps.Entries,
		deps.Resources,
		deps.Bookings,
		deps.Catalog,
		f.idGen(deps.IDGenerator),
		f.nowFunc(deps.Now),
		deps.Logger,
	)
}

// UserServiceDeps captures dependencies for constructing a user service.
type UserServiceDeps struct {
	Users       application.UserRepository
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewUserService builds a user service using the supplied dependencies.
func (f *ServiceFactory) NewUserService(deps UserServiceDeps) *application.UserService {
	return application.NewUserServiceWithLogger(
		deps.Users,
		f.idGen(deps.IDGenerator),
		f.nowFunc(deps.Now),
		deps.Logger,
	)
}

// AuthServiceDeps captures dependencies for constructing an auth service.
type AuthServiceDeps struct {
	Credentials    application.CredentialStore
	Sessions       application.SessionRepository
	PasswordVerify application.PasswordVerifier
	TokenGenerator func() string
	Now            func() time.Time
	SessionTTL     time.Duration
	Logger         *slog.Logger
}

// NewAuthService builds an auth service using the supplied dependencies.
func (f *ServiceFactory) NewAuthService(deps AuthServiceDeps) *application.AuthService {
	ttl := deps.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return application.NewAuthServiceWithLogger(
		deps.Credentials,
		deps.Sessions,
		deps.PasswordVerify,
		f.idGen(deps.TokenGenerator),
		f.nowFunc(deps.Now),
		ttl,
		deps.Logger,
	)
}
