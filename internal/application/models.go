package application

import (
	"time"

	"github.com/example/campus-scheduler/internal/scheduler"
	"github.com/example/campus-scheduler/internal/timeslot"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID     string
	Department string
	Role       scheduler.Role
}

// requester converts the principal to the policy gate's actor shape.
func (p Principal) requester() scheduler.Requester {
	return scheduler.Requester{UserID: p.UserID, Department: p.Department, Role: p.Role}
}

// IsPrincipal reports whether the actor holds institution-level authority.
func (p Principal) IsPrincipal() bool {
	return p.Role == scheduler.RolePrincipal
}

// ResourceInput captures caller provided resource fields.
type ResourceInput struct {
	Name       string
	Type       string
	Capacity   int
	Department string
	Shared     bool
}

// Resource represents a bookable asset exposed by the application services.
type Resource struct {
	ID         string
	Name       string
	Type       scheduler.ResourceType
	Capacity   int
	Department string
	Shared     bool
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// info converts the resource to the policy gate's view.
func (r Resource) info() scheduler.ResourceInfo {
	return scheduler.ResourceInfo{
		ID:         r.ID,
		Name:       r.Name,
		Type:       r.Type,
		Capacity:   r.Capacity,
		Department: r.Department,
		Shared:     r.Shared,
		Active:     r.Active,
	}
}

// CreateResourceParams wraps the data required to create a resource.
type CreateResourceParams struct {
	Principal Principal
	Input     ResourceInput
}

// UpdateResourceParams wraps the data required to update a resource.
type UpdateResourceParams struct {
	Principal  Principal
	ResourceID string
	Input      ResourceInput
}

// ListResourcesParams narrows resource listings.
type ListResourcesParams struct {
	Principal  Principal
	Department string
	Type       string
	SharedOnly bool
	ActiveOnly bool
}

// TimetableEntryInput captures caller provided timetable entry fields. Times
// are "HH:MM" clock values.
type TimetableEntryInput struct {
	ResourceID string
	DayOfWeek  int
	StartTime  string
	EndTime    string
	Course     string
	Instructor string
	Department string
}

// TimetableEntry represents a standing weekly class session.
type TimetableEntry struct {
	ID         string
	ResourceID string
	DayOfWeek  time.Weekday
	StartTime  timeslot.ClockTime
	EndTime    timeslot.ClockTime
	Course     string
	Instructor string
	Department string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Window returns the entry's normalized comparison window.
func (e TimetableEntry) Window() scheduler.Window {
	return scheduler.Window{Day: e.DayOfWeek, Start: e.StartTime, End: e.EndTime}
}

// CreateTimetableEntryParams wraps the data required to publish an entry.
type CreateTimetableEntryParams struct {
	Principal Principal
	Input     TimetableEntryInput
}

// ListTimetableParams narrows timetable listings.
type ListTimetableParams struct {
	Principal  Principal
	ResourceID string
	DayOfWeek  *int
	Department string
}

// ExpandTimetableParams bounds a dated expansion of the weekly schedule.
// Only the date component of From and To is meaningful; both days are
// included in the expansion.
type ExpandTimetableParams struct {
	Principal  Principal
	ResourceID string
	Department string
	From       time.Time
	To         time.Time
}

// CheckSlotParams describes a slot availability query.
type CheckSlotParams struct {
	Principal  Principal
	ResourceID string
	DayOfWeek  int
	StartTime  string
	EndTime    string
}

// SlotReport is the resolver's answer to a CheckSlot query.
type SlotReport struct {
	Free bool
	// Conflicts are confirmed occupants blocking the slot, timetable entries
	// first.
	Conflicts []scheduler.Occupant
	// Pending are requests already submitted for an overlapping window; they
	// warn but do not block.
	Pending []scheduler.Occupant
}

// BookingInput captures caller provided booking request fields.
type BookingInput struct {
	ResourceID string
	DayOfWeek  int
	Date       *time.Time
	StartTime  string
	EndTime    string
	Purpose    string
	Attendance int
}

// BookingRequest represents an ad-hoc reservation request.
type BookingRequest struct {
	ID                  string
	RequesterID         string
	RequesterDepartment string
	ResourceID          string
	TargetDepartment    string
	DayOfWeek           time.Weekday
	Date                *time.Time
	StartTime           timeslot.ClockTime
	EndTime             timeslot.ClockTime
	Purpose             string
	Attendance          int
	Status              scheduler.RequestStatus
	ApproverID          *string
	DecidedAt           *time.Time
	Notes               *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Window returns the request's normalized comparison window.
func (b BookingRequest) Window() scheduler.Window {
	return scheduler.Window{Day: b.DayOfWeek, Start: b.StartTime, End: b.EndTime}
}

// CreateBookingParams wraps the data required to submit a booking request.
type CreateBookingParams struct {
	Principal Principal
	Input     BookingInput
}

// DecideBookingParams wraps the data for an approve or reject action.
type DecideBookingParams struct {
	Principal Principal
	RequestID string
	Notes     string
}

// CancelBookingParams wraps the data for a requester withdrawal.
type CancelBookingParams struct {
	Principal Principal
	RequestID string
	Reason    string
}

// ListBookingsParams narrows booking listings.
type ListBookingsParams struct {
	Principal        Principal
	ResourceID       string
	Status           string
	TargetDepartment string
	Mine             bool
}

// CourseInput describes one course for routine generation.
type CourseInput struct {
	ID             string
	Title          string
	Instructor     string
	Kind           string
	WeeklySessions int
	ClassSize      int
}

// GenerateRoutineParams wraps the data required to build a department
// routine.
type GenerateRoutineParams struct {
	Principal  Principal
	Department string
	Courses    []CourseInput
	// Commit persists the generated placements as timetable entries. When
	// false the result is a dry-run proposal.
	Commit bool
}

// GenerateRoutineResult reports the generated placements and any courses
// left with unscheduled sessions.
type GenerateRoutineResult struct {
	Entries  []TimetableEntry
	Unplaced map[string]int
}

// UserInput captures caller provided user attributes.
type UserInput struct {
	Email       string
	DisplayName string
	Password    string
	Department  string
	Role        string
}

// User represents a staff account exposed by the application services.
type User struct {
	ID          string
	Email       string
	DisplayName string
	Department  string
	Role        scheduler.Role
	Disabled    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User         User
	PasswordHash string
	Disabled     bool
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication.
type AuthenticateResult struct {
	User    User
	Session Session
}
