package persistence

import "time"

// User represents a staff account in the campus scheduler domain.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	Department   string
	Role         string
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Resource represents a bookable physical asset. Resources are deactivated
// rather than deleted so that booking history stays intact.
type Resource struct {
	ID         string
	Name       string
	Type       string
	Capacity   int
	Department string
	Shared     bool
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TimetableEntry represents a standing weekly class session published in a
// department routine. Times are stored as "HH:MM" clock values; only the
// time-of-day component combined with DayOfWeek is meaningful.
type TimetableEntry struct {
	ID         string
	ResourceID string
	DayOfWeek  int
	StartTime  string
	EndTime    string
	Course     string
	Instructor string
	Department string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// BookingRequest represents an ad-hoc reservation request and its approval
// lifecycle state.
type BookingRequest struct {
	ID                  string
	RequesterID         string
	RequesterDepartment string
	ResourceID          string
	TargetDepartment    string
	DayOfWeek           int
	Date                *time.Time
	StartTime           string
	EndTime             string
	Purpose             string
	Attendance          int
	Status              string
	ApproverID          *string
	DecidedAt           *time.Time
	Notes               *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}
