// Package testfixtures provides deterministic fixtures and helpers for
// application and persistence tests.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/scheduler"
	"github.com/example/campus-scheduler/internal/timeslot"
)

var (
	userCounter     uint64
	resourceCounter uint64
	entryCounter    uint64
	bookingCounter  uint64
	sessionCounter  uint64
)

var referenceTime = time.Date(2025, time.September, 1, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic staff account record.
type UserFixture struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	Department   string
	Role         scheduler.Role
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.edu", id),
		DisplayName:  fmt.Sprintf("User %03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		Department:   "computer_science",
		Role:         scheduler.RoleFaculty,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserRole overrides the fixture role.
func WithUserRole(role scheduler.Role) UserOption {
	return func(f *UserFixture) { f.Role = role }
}

// WithUserDepartment overrides the fixture department.
func WithUserDepartment(department string) UserOption {
	return func(f *UserFixture) { f.Department = department }
}

// WithUserDisabled marks the fixture account as disabled.
func WithUserDisabled() UserOption {
	return func(f *UserFixture) { f.Disabled = true }
}

// AsPersistence converts the fixture to its persistence model.
func (f UserFixture) AsPersistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Email:        f.Email,
		DisplayName:  f.DisplayName,
		PasswordHash: f.PasswordHash,
		Department:   f.Department,
		Role:         string(f.Role),
		Disabled:     f.Disabled,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// AsApplication converts the fixture to the application model.
func (f UserFixture) AsApplication() application.User {
	return application.User{
		ID:          f.ID,
		Email:       f.Email,
		DisplayName: f.DisplayName,
		Department:  f.Department,
		Role:        f.Role,
		Disabled:    f.Disabled,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Principal converts the fixture to an authenticated principal.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, Department: f.Department, Role: f.Role}
}

// --------------------------- Resource fixtures ---------------------------

// ResourceFixture represents a deterministic bookable resource record.
type ResourceFixture struct {
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

// ResourceOption configures the generated resource fixture.
type ResourceOption func(*ResourceFixture)

// NewResourceFixture returns a deterministic resource fixture with optional
// overrides.
func NewResourceFixture(opts ...ResourceOption) ResourceFixture {
	idx := atomic.AddUint64(&resourceCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := ResourceFixture{
		ID:         fmt.Sprintf("resource-%03d", idx),
		Name:       fmt.Sprintf("Classroom %03d", idx),
		Type:       scheduler.TypeClassroom,
		Capacity:   60,
		Department: "computer_science",
		Active:     true,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithResourceType overrides the fixture resource type.
func WithResourceType(t scheduler.ResourceType) ResourceOption {
	return func(f *ResourceFixture) { f.Type = t }
}

// WithResourceShared marks the fixture as institution shared.
func WithResourceShared() ResourceOption {
	return func(f *ResourceFixture) { f.Shared = true }
}

// WithResourceDepartment overrides the owning department.
func WithResourceDepartment(department string) ResourceOption {
	return func(f *ResourceFixture) { f.Department = department }
}

// WithResourceCapacity overrides the fixture capacity.
func WithResourceCapacity(capacity int) ResourceOption {
	return func(f *ResourceFixture) { f.Capacity = capacity }
}

// AsPersistence converts the fixture to its persistence model.
func (f ResourceFixture) AsPersistence() persistence.Resource {
	return persistence.Resource{
		ID:         f.ID,
		Name:       f.Name,
		Type:       string(f.Type),
		Capacity:   f.Capacity,
		Department: f.Department,
		Shared:     f.Shared,
		Active:     f.Active,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}
}

// AsApplication converts the fixture to the application model.
func (f ResourceFixture) AsApplication() application.Resource {
	return application.Resource{
		ID:         f.ID,
		Name:       f.Name,
		Type:       f.Type,
		Capacity:   f.Capacity,
		Department: f.Department,
		Shared:     f.Shared,
		Active:     f.Active,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}
}

// ----------------------- Timetable entry fixtures ------------------------

// TimetableEntryFixture represents a deterministic weekly class session.
type TimetableEntryFixture struct {
	ID         string
	ResourceID string
	DayOfWeek  time.Weekday
	StartTime  string
	EndTime    string
	Course     string
	Instructor string
	Department string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// EntryOption configures the generated timetable entry fixture.
type EntryOption func(*TimetableEntryFixture)

// NewTimetableEntryFixture returns a deterministic timetable entry fixture
// with optional overrides.
func NewTimetableEntryFixture(opts ...EntryOption) TimetableEntryFixture {
	idx := atomic.AddUint64(&entryCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := TimetableEntryFixture{
		ID:         fmt.Sprintf("entry-%03d", idx),
		ResourceID: "resource-001",
		DayOfWeek:  time.Monday,
		StartTime:  "09:00",
		EndTime:    "10:00",
		Course:     fmt.Sprintf("Course %03d", idx),
		Instructor: fmt.Sprintf("Instructor %03d", idx),
		Department: "computer_science",
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEntryResource overrides the fixture resource.
func WithEntryResource(resourceID string) EntryOption {
	return func(f *TimetableEntryFixture) { f.ResourceID = resourceID }
}

// WithEntryWindow overrides the fixture day and clock window.
func WithEntryWindow(day time.Weekday, start, end string) EntryOption {
	return func(f *TimetableEntryFixture) {
		f.DayOfWeek = day
		f.StartTime = start
		f.EndTime = end
	}
}

// AsPersistence converts the fixture to its persistence model.
func (f TimetableEntryFixture) AsPersistence() persistence.TimetableEntry {
	return persistence.TimetableEntry{
		ID:         f.ID,
		ResourceID: f.ResourceID,
		DayOfWeek:  int(f.DayOfWeek),
		StartTime:  f.StartTime,
		EndTime:    f.EndTime,
		Course:     f.Course,
		Instructor: f.Instructor,
		Department: f.Department,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}
}

// AsApplication converts the fixture to the application model. Invalid clock
// values panic because fixtures are authored, not parsed.
func (f TimetableEntryFixture) AsApplication() application.TimetableEntry {
	return application.TimetableEntry{
		ID:         f.ID,
		ResourceID: f.ResourceID,
		DayOfWeek:  f.DayOfWeek,
		StartTime:  mustClock(f.StartTime),
		EndTime:    mustClock(f.EndTime),
		Course:     f.Course,
		Instructor: f.Instructor,
		Department: f.Department,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}
}

// ------------------------ Booking request fixtures -----------------------

// BookingRequestFixture represents a deterministic reservation request.
type BookingRequestFixture struct {
	ID                  string
	RequesterID         string
	RequesterDepartment string
	ResourceID          string
	TargetDepartment    string
	DayOfWeek           time.Weekday
	StartTime           string
	EndTime             string
	Purpose             string
	Attendance          int
	Status              scheduler.RequestStatus
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// BookingOption configures the generated booking request fixture.
type BookingOption func(*BookingRequestFixture)

// NewBookingRequestFixture returns a deterministic booking request fixture
// with optional overrides.
func NewBookingRequestFixture(opts ...BookingOption) BookingRequestFixture {
	idx := atomic.AddUint64(&bookingCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := BookingRequestFixture{
		ID:                  fmt.Sprintf("booking-%03d", idx),
		RequesterID:         "user-001",
		RequesterDepartment: "mathematics",
		ResourceID:          "resource-001",
		TargetDepartment:    "computer_science",
		DayOfWeek:           time.Monday,
		StartTime:           "10:00",
		EndTime:             "12:00",
		Purpose:             fmt.Sprintf("Seminar %03d", idx),
		Attendance:          20,
		Status:              scheduler.StatusPending,
		CreatedAt:           created,
		UpdatedAt:           created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithBookingStatus overrides the fixture lifecycle status.
func WithBookingStatus(status scheduler.RequestStatus) BookingOption {
	return func(f *BookingRequestFixture) { f.Status = status }
}

// WithBookingResource overrides the target resource.
func WithBookingResource(resourceID string) BookingOption {
	return func(f *BookingRequestFixture) { f.ResourceID = resourceID }
}

// WithBookingWindow overrides the requested day and clock window.
func WithBookingWindow(day time.Weekday, start, end string) BookingOption {
	return func(f *BookingRequestFixture) {
		f.DayOfWeek = day
		f.StartTime = start
		f.EndTime = end
	}
}

// WithBookingRequester overrides the requesting user and department.
func WithBookingRequester(userID, department string) BookingOption {
	return func(f *BookingRequestFixture) {
		f.RequesterID = userID
		f.RequesterDepartment = department
	}
}

// AsPersistence converts the fixture to its persistence model.
func (f BookingRequestFixture) AsPersistence() persistence.BookingRequest {
	return persistence.BookingRequest{
		ID:                  f.ID,
		RequesterID:         f.RequesterID,
		RequesterDepartment: f.RequesterDepartment,
		ResourceID:          f.ResourceID,
		TargetDepartment:    f.TargetDepartment,
		DayOfWeek:           int(f.DayOfWeek),
		StartTime:           f.StartTime,
		EndTime:             f.EndTime,
		Purpose:             f.Purpose,
		Attendance:          f.Attendance,
		Status:              string(f.Status),
		CreatedAt:           f.CreatedAt,
		UpdatedAt:           f.UpdatedAt,
	}
}

// AsApplication converts the fixture to the application model.
func (f BookingRequestFixture) AsApplication() application.BookingRequest {
	return application.BookingRequest{
		ID:                  f.ID,
		RequesterID:         f.RequesterID,
		RequesterDepartment: f.RequesterDepartment,
		ResourceID:          f.ResourceID,
		TargetDepartment:    f.TargetDepartment,
		DayOfWeek:           f.DayOfWeek,
		StartTime:           mustClock(f.StartTime),
		EndTime:             mustClock(f.EndTime),
		Purpose:             f.Purpose,
		Attendance:          f.Attendance,
		Status:              f.Status,
		CreatedAt:           f.CreatedAt,
		UpdatedAt:           f.UpdatedAt,
	}
}

// --------------------------- Session fixtures ----------------------------

// SessionFixture represents a deterministic authentication session record.
type SessionFixture struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a deterministic session fixture with optional
// overrides.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		UserID:    "user-001",
		Token:     fmt.Sprintf("token-%03d", idx),
		ExpiresAt: created.Add(24 * time.Hour),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionUser overrides the owning user.
func WithSessionUser(userID string) SessionOption {
	return func(f *SessionFixture) { f.UserID = userID }
}

// WithSessionExpired backdates the expiry before the reference time.
func WithSessionExpired() SessionOption {
	return func(f *SessionFixture) { f.ExpiresAt = referenceTime.Add(-time.Hour) }
}

// AsPersistence converts the fixture to its persistence model.
func (f SessionFixture) AsPersistence() persistence.Session {
	return persistence.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
		RevokedAt: f.RevokedAt,
	}
}

// AsApplication converts the fixture to the application model.
func (f SessionFixture) AsApplication() application.Session {
	return application.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
		RevokedAt: f.RevokedAt,
	}
}

func mustClock(value string) timeslot.ClockTime {
	parsed, err := timeslot.ParseClockTime(value)
	if err != nil {
		panic(fmt.Sprintf("testfixtures: invalid clock value %q: %v", value, err))
	}
	return parsed
}
