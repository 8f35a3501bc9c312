package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/scheduler"
)

// BookingRepository captures the persistence interactions needed by the
// booking service. TransitionRequest must be guarded: it applies the change
// only when the stored status still equals From, and returns
// ErrStaleTransition otherwise.
type BookingRepository interface {
	CreateRequest(ctx context.Context, request BookingRequest) (BookingRequest, error)
	GetRequest(ctx context.Context, id string) (BookingRequest, error)
	ListRequests(ctx context.Context, filter BookingRepositoryFilter) ([]BookingRequest, error)
	TransitionRequest(ctx context.Context, transition BookingTransition) (BookingRequest, error)
}

// BookingRepositoryFilter narrows queries issued to the booking repository.
type BookingRepositoryFilter struct {
	ResourceID       string
	DayOfWeek        *int
	Status           scheduler.RequestStatus
	TargetDepartment string
	RequesterID      string
}

// BookingTransition describes a guarded status change for a booking request.
type BookingTransition struct {
	RequestID  string
	From       scheduler.RequestStatus
	To         scheduler.RequestStatus
	ApproverID string
	DecidedAt  time.Time
	Notes      *string
}

// BookingService handles ad-hoc reservation requests: submission through the
// cross-department policy gate, the approval workflow, and withdrawal.
type BookingService struct {
	bookings    BookingRepository
	resources   ResourceRepository
	timetable   TimetableRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewBookingService constructs a booking service with the provided
// dependencies.
func NewBookingService(bookings BookingRepository, resources ResourceRepository, timetable TimetableRepository, idGenerator func() string, now func() time.Time) *BookingService {
	return NewBookingServiceWithLogger(bookings, resources, timetable, idGenerator, now, nil)
}

// NewBookingServiceWithLogger constructs a booking service with a specified
// logger.
func NewBookingServiceWithLogger(bookings BookingRepository, resources ResourceRepository, timetable TimetableRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		bookings:    bookings,
		resources:   resources,
		timetable:   timetable,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

func (s *BookingService) sources() occupancySources {
	return occupancySources{timetable: s.timetable, bookings: s.bookings}
}

// CreateRequest submits a reservation request. The policy gate decides the
// initial status: same-department and principal requests on shared resources
// are approved directly, cross-department requests on shared resources are
// queued for the owning department, and everything else is denied. Confirmed
// occupants block creation outright; overlapping pending requests are
// returned as warnings.
func (s *BookingService) CreateRequest(ctx context.Context, params CreateBookingParams) (request BookingRequest, warnings []scheduler.Occupant, err error) {
	if s == nil || s.bookings == nil {
		err = fmt.Errorf("booking repository not configured")
		return
	}
	if s.resources == nil {
		err = fmt.Errorf("resource repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateRequest",
		"principal_id", params.Principal.UserID,
		"resource_id", params.Input.ResourceID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create booking request", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("request_id", request.ID, "status", string(request.Status)).InfoContext(ctx, "booking request created")
	}()

	window, vErr := validateWindow(params.Input.DayOfWeek, params.Input.StartTime, params.Input.EndTime)
	if strings.TrimSpace(params.Input.ResourceID) == "" {
		vErr.add("resource_id", "resource is required")
	}
	if strings.TrimSpace(params.Input.Purpose) == "" {
		vErr.add("purpose", "purpose is required")
	}
	if params.Input.Attendance < 0 {
		vErr.add("attendance", "attendance must not be negative")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	resource, err := s.resources.GetResource(ctx, params.Input.ResourceID)
	if err != nil {
		return BookingRequest{}, nil, err
	}
	if params.Input.Attendance > resource.Capacity {
		vErr.add("attendance", fmt.Sprintf("attendance exceeds resource capacity of %d", resource.Capacity))
		err = vErr
		return BookingRequest{}, nil, err
	}

	decision, reason := scheduler.DecideBooking(params.Principal.requester(), resource.info())
	if decision == scheduler.DecisionDeny {
		logger.InfoContext(ctx, "booking request denied by policy", "reason", reason)
		err = ErrUnauthorized
		return BookingRequest{}, nil, err
	}

	occupants, err := s.sources().occupantsFor(ctx, resource.ID, window.Day)
	if err != nil {
		return BookingRequest{}, nil, err
	}
	candidate := scheduler.Candidate{ResourceID: resource.ID, Window: window}
	if conflicts := scheduler.FindConflicts(occupants, candidate); len(conflicts) > 0 {
		err = &SlotConflictError{Occupants: conflicts}
		return BookingRequest{}, nil, err
	}
	warnings = scheduler.FindPending(occupants, candidate)

	createdAt := s.now()
	request = BookingRequest{
		ID:                  s.idGenerator(),
		RequesterID:         params.Principal.UserID,
		RequesterDepartment: params.Principal.Department,
		ResourceID:          resource.ID,
		TargetDepartment:    resource.Department,
		DayOfWeek:           window.Day,
		Date:                params.Input.Date,
		StartTime:           window.Start,
		EndTime:             window.End,
		Purpose:             strings.TrimSpace(params.Input.Purpose),
		Attendance:          params.Input.Attendance,
		Status:              scheduler.StatusPending,
		CreatedAt:           createdAt,
		UpdatedAt:           createdAt,
	}

	if decision == scheduler.DecisionApprove {
		approverID := params.Principal.UserID
		decidedAt := createdAt
		request.Status = scheduler.StatusApproved
		request.ApproverID = &approverID
		request.DecidedAt = &decidedAt
	}

	request, err = s.bookings.CreateRequest(ctx, request)
	if err != nil {
		return BookingRequest{}, nil, err
	}
	return
}

// ApproveRequest confirms a pending booking. Only a principal or the HOD of
// the target department may approve. Occupancy is re-validated immediately
// before the guarded transition: a slot filled since submission yields
// *StaleApprovalError so the approver sees the new occupant instead of
// double-booking the resource.
func (s *BookingService) ApproveRequest(ctx context.Context, params DecideBookingParams) (request BookingRequest, err error) {
	if s == nil || s.bookings == nil {
		err = fmt.Errorf("booking repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "ApproveRequest",
		"principal_id", params.Principal.UserID,
		"request_id", params.RequestID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to approve booking request", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "booking request approved")
	}()

	current, err := s.bookings.GetRequest(ctx, params.RequestID)
	if err != nil {
		return BookingRequest{}, err
	}
	if !scheduler.CanApprove(params.Principal.requester(), current.TargetDepartment) {
		err = ErrUnauthorized
		return BookingRequest{}, err
	}
	if !scheduler.ValidTransition(current.Status, scheduler.StatusApproved) {
		err = &InvalidTransitionError{RequestID: current.ID, From: current.Status, To: scheduler.StatusApproved}
		return BookingRequest{}, err
	}

	occupants, err := s.sources().occupantsFor(ctx, current.ResourceID, current.DayOfWeek)
	if err != nil {
		return BookingRequest{}, err
	}
	occupants = scheduler.Exclude(occupants, current.ID)
	candidate := scheduler.Candidate{ResourceID: current.ResourceID, Window: current.Window()}
	if conflicts := scheduler.FindConflicts(occupants, candidate); len(conflicts) > 0 {
		err = &StaleApprovalError{Conflict: &SlotConflictError{Occupants: conflicts}}
		return BookingRequest{}, err
	}

	request, err = s.transition(ctx, current, scheduler.StatusApproved, params.Principal.UserID, params.Notes)
	return
}

// RejectRequest declines a pending booking with an optional note back to the
// requester. Authorization mirrors approval.
func (s *BookingService) RejectRequest(ctx context.Context, params DecideBookingParams) (request BookingRequest, err error) {
	if s == nil || s.bookings == nil {
		err = fmt.Errorf("booking repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "RejectRequest",
		"principal_id", params.Principal.UserID,
		"request_id", params.RequestID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to reject booking request", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "booking request rejected")
	}()

	current, err := s.bookings.GetRequest(ctx, params.RequestID)
	if err != nil {
		return BookingRequest{}, err
	}
	if !scheduler.CanApprove(params.Principal.requester(), current.TargetDepartment) {
		err = ErrUnauthorized
		return BookingRequest{}, err
	}
	if !scheduler.ValidTransition(current.Status, scheduler.StatusRejected) {
		err = &InvalidTransitionError{RequestID: current.ID, From: current.Status, To: scheduler.StatusRejected}
		return BookingRequest{}, err
	}

	request, err = s.transition(ctx, current, scheduler.StatusRejected, params.Principal.UserID, params.Notes)
	return
}

// CancelRequest withdraws a pending booking. Only the requester may cancel,
// and only while the request is still pending.
func (s *BookingService) CancelRequest(ctx context.Context, params CancelBookingParams) (request BookingRequest, err error) {
	if s == nil || s.bookings == nil {
		err = fmt.Errorf("booking repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CancelRequest",
		"principal_id", params.Principal.UserID,
		"request_id", params.RequestID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel booking request", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "booking request cancelled")
	}()

	current, err := s.bookings.GetRequest(ctx, params.RequestID)
	if err != nil {
		return BookingRequest{}, err
	}
	if current.RequesterID != params.Principal.UserID {
		err = ErrUnauthorized
		return BookingRequest{}, err
	}
	if !scheduler.ValidTransition(current.Status, scheduler.StatusCancelled) {
		err = &InvalidTransitionError{RequestID: current.ID, From: current.Status, To: scheduler.StatusCancelled}
		return BookingRequest{}, err
	}

	request, err = s.transition(ctx, current, scheduler.StatusCancelled, params.Principal.UserID, params.Reason)
	return
}

// GetRequest retrieves a single booking request.
func (s *BookingService) GetRequest(ctx context.Context, requestID string) (BookingRequest, error) {
	if s == nil || s.bookings == nil {
		return BookingRequest{}, fmt.Errorf("booking repository not configured")
	}
	return s.bookings.GetRequest(ctx, requestID)
}

// ListRequests enumerates booking requests matching the filter. The Mine
// flag restricts results to the caller's own submissions.
func (s *BookingService) ListRequests(ctx context.Context, params ListBookingsParams) ([]BookingRequest, error) {
	if s == nil || s.bookings == nil {
		return nil, fmt.Errorf("booking repository not configured")
	}

	filter := BookingRepositoryFilter{
		ResourceID:       params.ResourceID,
		Status:           scheduler.RequestStatus(params.Status),
		TargetDepartment: params.TargetDepartment,
	}
	if params.Mine {
		filter.RequesterID = params.Principal.UserID
	}
	return s.bookings.ListRequests(ctx, filter)
}

// transition applies a guarded status change and normalizes the lost-race
// outcome: when the stored status changed underneath us, the caller gets
// *InvalidTransitionError describing the state the request is actually in.
func (s *BookingService) transition(ctx context.Context, current BookingRequest, to scheduler.RequestStatus, actorID, notes string) (BookingRequest, error) {
	var notesPtr *string
	if trimmed := strings.TrimSpace(notes); trimmed != "" {
		notesPtr = &trimmed
	}

	updated, err := s.bookings.TransitionRequest(ctx, BookingTransition{
		RequestID:  current.ID,
		From:       current.Status,
		To:         to,
		ApproverID: actorID,
		DecidedAt:  s.now(),
		Notes:      notesPtr,
	})
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, ErrStaleTransition) {
		return BookingRequest{}, err
	}

	latest, getErr := s.bookings.GetRequest(ctx, current.ID)
	if getErr != nil {
		return BookingRequest{}, getErr
	}
	return BookingRequest{}, &InvalidTransitionError{RequestID: current.ID, From: latest.Status, To: to}
}
