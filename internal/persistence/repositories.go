package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for staff accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// ResourceFilter narrows resource queries.
type ResourceFilter struct {
	Department string
	Type       string
	Shared     *bool
	Active     *bool
}

// ResourceRepository exposes operations for the bookable resource catalog.
// Resources are never deleted; deactivation goes through UpdateResource.
type ResourceRepository interface {
	CreateResource(ctx context.Context, resource Resource) error
	UpdateResource(ctx context.Context, resource Resource) error
	GetResource(ctx context.Context, id string) (Resource, error)
	ListResources(ctx context.Context, filter ResourceFilter) ([]Resource, error)
}

// TimetableFilter narrows timetable entry queries. A nil DayOfWeek matches
// every day.
type TimetableFilter struct {
	ResourceID string
	DayOfWeek  *int
	Department string
}

// TimetableRepository stores standing weekly class sessions.
type TimetableRepository interface {
	CreateEntry(ctx context.Context, entry TimetableEntry) error
	GetEntry(ctx context.Context, id string) (TimetableEntry, error)
	ListEntries(ctx context.Context, filter TimetableFilter) ([]TimetableEntry, error)
	DeleteEntry(ctx context.Context, id string) error
}

// BookingFilter narrows booking request queries.
type BookingFilter struct {
	ResourceID       string
	DayOfWeek        *int
	Status           string
	TargetDepartment string
	RequesterID      string
}

// BookingTransition captures a guarded status change for a booking request.
// The update only applies while the stored status still equals From;
// otherwise ErrStaleTransition is returned. This is the atomic
// read-modify-write that closes the race between two concurrent approvals.
type BookingTransition struct {
	RequestID  string
	From       string
	To         string
	ApproverID *string
	DecidedAt  *time.Time
	Notes      *string
}

// BookingRepository stores ad-hoc reservation requests.
type BookingRepository interface {
	CreateRequest(ctx context.Context, request BookingRequest) error
	GetRequest(ctx context.Context, id string) (BookingRequest, error)
	ListRequests(ctx context.Context, filter BookingFilter) ([]BookingRequest, error)
	TransitionRequest(ctx context.Context, transition BookingTransition) (BookingRequest, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
