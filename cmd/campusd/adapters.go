package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/scheduler"
	"github.com/example/campus-scheduler/internal/timeslot"
)

// mapStorageError translates persistence sentinels into the application
// package's error vocabulary.
func mapStorageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return application.ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return application.ErrAlreadyExists
	case errors.Is(err, persistence.ErrStaleTransition):
		return application.ErrStaleTransition
	}
	return err
}

// persistenceUserRepo is the subset of the SQLite user repository the
// adapters rely on.
type persistenceUserRepo interface {
	CreateUser(ctx context.Context, user persistence.User) error
	UpdateUser(ctx context.Context, user persistence.User) error
	GetUser(ctx context.Context, id string) (persistence.User, error)
	GetUserByEmail(ctx context.Context, email string) (persistence.User, error)
	ListUsers(ctx context.Context) ([]persistence.User, error)
}

type userAdapter struct {
	repo persistenceUserRepo
}

func newUserRepositoryAdapter(repo persistenceUserRepo) *userAdapter {
	return &userAdapter{repo: repo}
}

func (a *userAdapter) CreateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(user, passwordHash)); err != nil {
		return application.User{}, mapStorageError(err)
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, mapStorageError(err)
	}
	return toApplicationUser(stored), nil
}

func (a *userAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, mapStorageError(err)
	}
	return toApplicationUser(stored), nil
}

func (a *userAdapter) UpdateUser(ctx context.Context, user application.User) (application.User, error) {
	current, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, mapStorageError(err)
	}
	if err := a.repo.UpdateUser(ctx, toPersistenceUser(user, current.PasswordHash)); err != nil {
		return application.User{}, mapStorageError(err)
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, mapStorageError(err)
	}
	return toApplicationUser(stored), nil
}

func (a *userAdapter) ListUsers(ctx context.Context) ([]application.User, error) {
	models, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, mapStorageError(err)
	}
	users := make([]application.User, 0, len(models))
	for _, model := range models {
		users = append(users, toApplicationUser(model))
	}
	return users, nil
}

type credentialStoreAdapter struct {
	repo persistenceUserRepo
}

func newCredentialStoreAdapter(repo persistenceUserRepo) *credentialStoreAdapter {
	return &credentialStoreAdapter{repo: repo}
}

func (a *credentialStoreAdapter) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, mapStorageError(err)
	}
	return application.UserCredentials{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
		Disabled:     stored.Disabled,
	}, nil
}

func (a *credentialStoreAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, mapStorageError(err)
	}
	return toApplicationUser(stored), nil
}

type persistenceResourceRepo interface {
	CreateResource(ctx context.Context, resource persistence.Resource) error
	UpdateResource(ctx context.Context, resource persistence.Resource) error
	GetResource(ctx context.Context, id string) (persistence.Resource, error)
	ListResources(ctx context.Context, filter persistence.ResourceFilter) ([]persistence.Resource, error)
}

type resourceAdapter struct {
	repo persistenceResourceRepo
}

func newResourceRepositoryAdapter(repo persistenceResourceRepo) *resourceAdapter {
	return &resourceAdapter{repo: repo}
}

func (a *resourceAdapter) CreateResource(ctx context.Context, resource application.Resource) (application.Resource, error) {
	if err := a.repo.CreateResource(ctx, toPersistenceResource(resource)); err != nil {
		return application.Resource{}, mapStorageError(err)
	}
	return a.GetResource(ctx, resource.ID)
}

func (a *resourceAdapter) UpdateResource(ctx context.Context, resource application.Resource) (application.Resource, error) {
	if err := a.repo.UpdateResource(ctx, toPersistenceResource(resource)); err != nil {
		return application.Resource{}, mapStorageError(err)
	}
	return a.GetResource(ctx, resource.ID)
}

func (a *resourceAdapter) GetResource(ctx context.Context, id string) (application.Resource, error) {
	stored, err := a.repo.GetResource(ctx, id)
	if err != nil {
		return application.Resource{}, mapStorageError(err)
	}
	return toApplicationResource(stored), nil
}

func (a *resourceAdapter) ListResources(ctx context.Context, filter application.ResourceRepositoryFilter) ([]application.Resource, error) {
	models, err := a.repo.ListResources(ctx, persistence.ResourceFilter{
		Department: filter.Department,
		Type:       filter.Type,
		Shared:     filter.Shared,
		Active:     filter.Active,
	})
	if err != nil {
		return nil, mapStorageError(err)
	}
	resources := make([]application.Resource, 0, len(models))
	for _, model := range models {
		resources = append(resources, toApplicationResource(model))
	}
	return resources, nil
}

type persistenceTimetableRepo interface {
	CreateEntry(ctx context.Context, entry persistence.TimetableEntry) error
	GetEntry(ctx context.Context, id string) (persistence.TimetableEntry, error)
	ListEntries(ctx context.Context, filter persistence.TimetableFilter) ([]persistence.TimetableEntry, error)
	DeleteEntry(ctx context.Context, id string) error
}

type timetableAdapter struct {
	repo persistenceTimetableRepo
}

func newTimetableRepositoryAdapter(repo persistenceTimetableRepo) *timetableAdapter {
	return &timetableAdapter{repo: repo}
}

func (a *timetableAdapter) CreateEntry(ctx context.Context, entry application.TimetableEntry) (application.TimetableEntry, error) {
	if err := a.repo.CreateEntry(ctx, toPersistenceEntry(entry)); err != nil {
		return application.TimetableEntry{}, mapStorageError(err)
	}
	return a.GetEntry(ctx, entry.ID)
}

func (a *timetableAdapter) GetEntry(ctx context.Context, id string) (application.TimetableEntry, error) {
	stored, err := a.repo.GetEntry(ctx, id)
	if err != nil {
		return application.TimetableEntry{}, mapStorageError(err)
	}
	return toApplicationEntry(stored)
}

func (a *timetableAdapter) DeleteEntry(ctx context.Context, id string) error {
	return mapStorageError(a.repo.DeleteEntry(ctx, id))
}

func (a *timetableAdapter) ListEntries(ctx context.Context, filter application.TimetableRepositoryFilter) ([]application.TimetableEntry, error) {
	models, err := a.repo.ListEntries(ctx, persistence.TimetableFilter{
		ResourceID: filter.ResourceID,
		DayOfWeek:  filter.DayOfWeek,
		Department: filter.Department,
	})
	if err != nil {
		return nil, mapStorageError(err)
	}
	entries := make([]application.TimetableEntry, 0, len(models))
	for _, model := range models {
		entry, err := toApplicationEntry(model)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

type persistenceBookingRepo interface {
	CreateRequest(ctx context.Context, request persistence.BookingRequest) error
	GetRequest(ctx context.Context, id string) (persistence.BookingRequest, error)
	ListRequests(ctx context.Context, filter persistence.BookingFilter) ([]persistence.BookingRequest, error)
	TransitionRequest(ctx context.Context, transition persistence.BookingTransition) (persistence.BookingRequest, error)
}

type bookingAdapter struct {
	repo persistenceBookingRepo
}

func newBookingRepositoryAdapter(repo persistenceBookingRepo) *bookingAdapter {
	return &bookingAdapter{repo: repo}
}

func (a *bookingAdapter) CreateRequest(ctx context.Context, request application.BookingRequest) (application.BookingRequest, error) {
	if err := a.repo.CreateRequest(ctx, toPersistenceBooking(request)); err != nil {
		return application.BookingRequest{}, mapStorageError(err)
	}
	return a.GetRequest(ctx, request.ID)
}

func (a *bookingAdapter) GetRequest(ctx context.Context, id string) (application.BookingRequest, error) {
	stored, err := a.repo.GetRequest(ctx, id)
	if err != nil {
		return application.BookingRequest{}, mapStorageError(err)
	}
	return toApplicationBooking(stored)
}

func (a *bookingAdapter) ListRequests(ctx context.Context, filter application.BookingRepositoryFilter) ([]application.BookingRequest, error) {
	models, err := a.repo.ListRequests(ctx, persistence.BookingFilter{
		ResourceID:       filter.ResourceID,
		DayOfWeek:        filter.DayOfWeek,
		Status:           string(filter.Status),
		TargetDepartment: filter.TargetDepartment,
		RequesterID:      filter.RequesterID,
	})
	if err != nil {
		return nil, mapStorageError(err)
	}
	requests := make([]application.BookingRequest, 0, len(models))
	for _, model := range models {
		request, err := toApplicationBooking(model)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, nil
}

func (a *bookingAdapter) TransitionRequest(ctx context.Context, transition application.BookingTransition) (application.BookingRequest, error) {
	var approverID *string
	if transition.ApproverID != "" {
		approverID = cloneString(&transition.ApproverID)
	}
	var decidedAt *time.Time
	if !transition.DecidedAt.IsZero() {
		decidedAt = cloneTime(&transition.DecidedAt)
	}

	stored, err := a.repo.TransitionRequest(ctx, persistence.BookingTransition{
		RequestID:  transition.RequestID,
		From:       string(transition.From),
		To:         string(transition.To),
		ApproverID: approverID,
		DecidedAt:  decidedAt,
		Notes:      cloneString(transition.Notes),
	})
	if err != nil {
		return application.BookingRequest{}, mapStorageError(err)
	}
	return toApplicationBooking(stored)
}

type persistenceSessionRepo interface {
	CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error)
	GetSession(ctx context.Context, token string) (persistence.Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

type sessionAdapter struct {
	repo persistenceSessionRepo
}

func newSessionRepositoryAdapter(repo persistenceSessionRepo) *sessionAdapter {
	return &sessionAdapter{repo: repo}
}

func (a *sessionAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, mapStorageError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, mapStorageError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, mapStorageError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return mapStorageError(a.repo.DeleteExpiredSessions(ctx, reference))
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:          model.ID,
		Email:       model.Email,
		DisplayName: model.DisplayName,
		Department:  model.Department,
		Role:        scheduler.Role(model.Role),
		Disabled:    model.Disabled,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toPersistenceUser(user application.User, passwordHash string) persistence.User {
	return persistence.User{
		ID:           user.ID,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		PasswordHash: passwordHash,
		Department:   user.Department,
		Role:         string(user.Role),
		Disabled:     user.Disabled,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toApplicationResource(model persistence.Resource) application.Resource {
	return application.Resource{
		ID:         model.ID,
		Name:       model.Name,
		Type:       scheduler.ResourceType(model.Type),
		Capacity:   model.Capacity,
		Department: model.Department,
		Shared:     model.Shared,
		Active:     model.Active,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

func toPersistenceResource(resource application.Resource) persistence.Resource {
	return persistence.Resource{
		ID:         resource.ID,
		Name:       resource.Name,
		Type:       string(resource.Type),
		Capacity:   resource.Capacity,
		Department: resource.Department,
		Shared:     resource.Shared,
		Active:     resource.Active,
		CreatedAt:  resource.CreatedAt,
		UpdatedAt:  resource.UpdatedAt,
	}
}

func toApplicationEntry(model persistence.TimetableEntry) (application.TimetableEntry, error) {
	start, err := timeslot.ParseClockTime(model.StartTime)
	if err != nil {
		return application.TimetableEntry{}, fmt.Errorf("timetable entry %s has a corrupt start time: %w", model.ID, err)
	}
	end, err := timeslot.ParseClockTime(model.EndTime)
	if err != nil {
		return application.TimetableEntry{}, fmt.Errorf("timetable entry %s has a corrupt end time: %w", model.ID, err)
	}
	return application.TimetableEntry{
		ID:         model.ID,
		ResourceID: model.ResourceID,
		DayOfWeek:  time.Weekday(model.DayOfWeek),
		StartTime:  start,
		EndTime:    end,
		Course:     model.Course,
		Instructor: model.Instructor,
		Department: model.Department,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}, nil
}

func toPersistenceEntry(entry application.TimetableEntry) persistence.TimetableEntry {
	return persistence.TimetableEntry{
		ID:         entry.ID,
		ResourceID: entry.ResourceID,
		DayOfWeek:  int(entry.DayOfWeek),
		StartTime:  entry.StartTime.String(),
		EndTime:    entry.EndTime.String(),
		Course:     entry.Course,
		Instructor: entry.Instructor,
		Department: entry.Department,
		CreatedAt:  entry.CreatedAt,
		UpdatedAt:  entry.UpdatedAt,
	}
}

func toApplicationBooking(model persistence.BookingRequest) (application.BookingRequest, error) {
	start, err := timeslot.ParseClockTime(model.StartTime)
	if err != nil {
		return application.BookingRequest{}, fmt.Errorf("booking request %s has a corrupt start time: %w", model.ID, err)
	}
	end, err := timeslot.ParseClockTime(model.EndTime)
	if err != nil {
		return application.BookingRequest{}, fmt.Errorf("booking request %s has a corrupt end time: %w", model.ID, err)
	}
	return application.BookingRequest{
		ID:                  model.ID,
		RequesterID:         model.RequesterID,
		RequesterDepartment: model.RequesterDepartment,
		ResourceID:          model.ResourceID,
		TargetDepartment:    model.TargetDepartment,
		DayOfWeek:           time.Weekday(model.DayOfWeek),
		Date:                cloneTime(model.Date),
		StartTime:           start,
		EndTime:             end,
		Purpose:             model.Purpose,
		Attendance:          model.Attendance,
		Status:              scheduler.RequestStatus(model.Status),
		ApproverID:          cloneString(model.ApproverID),
		DecidedAt:           cloneTime(model.DecidedAt),
		Notes:               cloneString(model.Notes),
		CreatedAt:           model.CreatedAt,
		UpdatedAt:           model.UpdatedAt,
	}, nil
}

func toPersistenceBooking(request application.BookingRequest) persistence.BookingRequest {
	return persistence.BookingRequest{
		ID:                  request.ID,
		RequesterID:         request.RequesterID,
		RequesterDepartment: request.RequesterDepartment,
		ResourceID:          request.ResourceID,
		TargetDepartment:    request.TargetDepartment,
		DayOfWeek:           int(request.DayOfWeek),
		Date:                cloneTime(request.Date),
		StartTime:           request.StartTime.String(),
		EndTime:             request.EndTime.String(),
		Purpose:             request.Purpose,
		Attendance:          request.Attendance,
		Status:              string(request.Status),
		ApproverID:          cloneString(request.ApproverID),
		DecidedAt:           cloneTime(request.DecidedAt),
		Notes:               cloneString(request.Notes),
		CreatedAt:           request.CreatedAt,
		UpdatedAt:           request.UpdatedAt,
	}
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:        model.ID,
		UserID:    model.UserID,
		Token:     model.Token,
		ExpiresAt: model.ExpiresAt,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
		RevokedAt: cloneTime(model.RevokedAt),
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		RevokedAt: cloneTime(session.RevokedAt),
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
