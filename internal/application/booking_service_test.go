package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/campus-scheduler/internal/scheduler"
	"github.com/example/campus-scheduler/internal/timeslot"
)

type resourceRepoStub struct {
	resources map[string]Resource
	created   Resource
	updated   Resource
	list      []Resource
	err       error
}

func (s *resourceRepoStub) CreateResource(ctx context.Context, resource Resource) (Resource, error) {
	if s.err != nil {
		return Resource{}, s.err
	}
	s.created = resource
	return resource, nil
}

func (s *resourceRepoStub) GetResource(ctx context.Context, id string) (Resource, error) {
	if s.err != nil {
		return Resource{}, s.err
	}
	resource, ok := s.resources[id]
	if !ok {
		return Resource{}, ErrNotFound
	}
	return resource, nil
}

func (s *resourceRepoStub) UpdateResource(ctx context.Context, resource Resource) (Resource, error) {
	if s.err != nil {
		return Resource{}, s.err
	}
	s.updated = resource
	if s.resources != nil {
		s.resources[resource.ID] = resource
	}
	return resource, nil
}

func (s *resourceRepoStub) ListResources(ctx context.Context, filter ResourceRepositoryFilter) ([]Resource, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []Resource
	for _, resource := range s.list {
		if filter.Active != nil && resource.Active != *filter.Active {
			continue
		}
		if filter.Shared != nil && resource.Shared != *filter.Shared {
			continue
		}
		if filter.Department != "" && resource.Department != filter.Department {
			continue
		}
		if filter.Type != "" && string(resource.Type) != filter.Type {
			continue
		}
		out = append(out, resource)
	}
	return out, nil
}

type timetableRepoStub struct {
	entries []TimetableEntry
	created []TimetableEntry
	deleted []string
	err     error
}

func (s *timetableRepoStub) CreateEntry(ctx context.Context, entry TimetableEntry) (TimetableEntry, error) {
	if s.err != nil {
		return TimetableEntry{}, s.err
	}
	s.created = append(s.created, entry)
	s.entries = append(s.entries, entry)
	return entry, nil
}

func (s *timetableRepoStub) GetEntry(ctx context.Context, id string) (TimetableEntry, error) {
	if s.err != nil {
		return TimetableEntry{}, s.err
	}
	for _, entry := range s.entries {
		if entry.ID == id {
			return entry, nil
		}
	}
	return TimetableEntry{}, ErrNotFound
}

func (s *timetableRepoStub) DeleteEntry(ctx context.Context, id string) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *timetableRepoStub) ListEntries(ctx context.Context, filter TimetableRepositoryFilter) ([]TimetableEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []TimetableEntry
	for _, entry := range s.entries {
		if filter.ResourceID != "" && entry.ResourceID != filter.ResourceID {
			continue
		}
		if filter.DayOfWeek != nil && int(entry.DayOfWeek) != *filter.DayOfWeek {
			continue
		}
		if filter.Department != "" && entry.Department != filter.Department {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

type bookingRepoStub struct {
	requests      map[string]BookingRequest
	created       []BookingRequest
	transitionErr error
	onTransition  func()
	err           error
}

func (s *bookingRepoStub) CreateRequest(ctx context.Context, request BookingRequest) (BookingRequest, error) {
	if s.err != nil {
		return BookingRequest{}, s.err
	}
	s.created = append(s.created, request)
	if s.requests == nil {
		s.requests = make(map[string]BookingRequest)
	}
	s.requests[request.ID] = request
	return request, nil
}

func (s *bookingRepoStub) GetRequest(ctx context.Context, id string) (BookingRequest, error) {
	if s.err != nil {
		return BookingRequest{}, s.err
	}
	request, ok := s.requests[id]
	if !ok {
		return BookingRequest{}, ErrNotFound
	}
	return request, nil
}

func (s *bookingRepoStub) ListRequests(ctx context.Context, filter BookingRepositoryFilter) ([]BookingRequest, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []BookingRequest
	for _, request := range s.requests {
		if filter.ResourceID != "" && request.ResourceID != filter.ResourceID {
			continue
		}
		if filter.Status != "" && request.Status != filter.Status {
			continue
		}
		if filter.TargetDepartment != "" && request.TargetDepartment != filter.TargetDepartment {
			continue
		}
		if filter.RequesterID != "" && request.RequesterID != filter.RequesterID {
			continue
		}
		out = append(out, request)
	}
	return out, nil
}

func (s *bookingRepoStub) TransitionRequest(ctx context.Context, transition BookingTransition) (BookingRequest, error) {
	if s.onTransition != nil {
		s.onTransition()
	}
	if s.transitionErr != nil {
		return BookingRequest{}, s.transitionErr
	}
	request, ok := s.requests[transition.RequestID]
	if !ok {
		return BookingRequest{}, ErrNotFound
	}
	if request.Status != transition.From {
		return BookingRequest{}, ErrStaleTransition
	}
	request.Status = transition.To
	request.ApproverID = &transition.ApproverID
	request.DecidedAt = &transition.DecidedAt
	if transition.Notes != nil {
		request.Notes = transition.Notes
	}
	request.UpdatedAt = transition.DecidedAt
	s.requests[transition.RequestID] = request
	return request, nil
}

func clock(t *testing.T, value string) timeslot.ClockTime {
	t.Helper()
	parsed, err := timeslot.ParseClockTime(value)
	if err != nil {
		t.Fatalf("failed to parse clock time %q: %v", value, err)
	}
	return parsed
}

func fixedNow(t *testing.T) func() time.Time {
	t.Helper()
	at := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func csLab(shared bool) Resource {
	return Resource{
		ID:         "lab-1",
		Name:       "Computer Lab 1",
		Type:       scheduler.TypeLab,
		Capacity:   40,
		Department: "computer_science",
		Shared:     shared,
		Active:     true,
	}
}

func newBookingService(t *testing.T, bookings *bookingRepoStub, resources *resourceRepoStub, timetable *timetableRepoStub) *BookingService {
	t.Helper()
	return NewBookingService(bookings, resources, timetable, func() string { return "req-1" }, fixedNow(t))
}

func TestBookingService_CreateRequest_SameDepartmentAutoApproved(t *testing.T) {
	t.Parallel()

	bookings := &bookingRepoStub{}
	resources := &resourceRepoStub{resources: map[string]Resource{"lab-1": csLab(false)}}
	svc := newBookingService(t, bookings, resources, &timetableRepoStub{})

	request, warnings, err := svc.CreateRequest(context.Background(), CreateBookingParams{
		Principal: Principal{UserID: "user-1", Department: "computer_science", Role: scheduler.RoleFaculty},
		Input: BookingInput{
			ResourceID: "lab-1",
			DayOfWeek:  int(time.Monday),
			StartTime:  "10:00",
			EndTime:    "12:00",
			Purpose:    "Extra practical session",
			Attendance: 30,
		},
	})
	if err != nil {
		t.Fatalf("CreateRequest returned error: %v", err)
	}
	if request.Status != scheduler.StatusApproved {
		t.Fatalf("expected same-department request to be approved, got %s", request.Status)
	}
	if request.ApproverID == nil || *request.ApproverID != "user-1" {
		t.Fatalf("expected requester recorded as approver, got %v", request.ApproverID)
	}
	if request.DecidedAt == nil {
		t.Fatal("expected decided timestamp on auto-approved request")
	}
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %d", len(warnings))
	}
	if len(bookings.created) != 1 {
		t.Fatalf("expected one persisted request, got %d", len(bookings.created))
	}
}

func TestBookingService_CreateRequest_CrossDepartmentSharedQueued(t *testing.T) {
	t.Parallel()

	pending := BookingRequest{
		ID:                  "req-other",
		RequesterID:         "user-9",
		RequesterDepartment: "physics",
		ResourceID:          "lab-1",
		TargetDepartment:    "computer_science",
		DayOfWeek:           time.Monday,
		StartTime:           clock(t, "11:00"),
		EndTime:             clock(t, "13:00"),
		Purpose:             "Placement test",
		Status:              scheduler.StatusPending,
	}
	bookings := &bookingRepoStub{requests: map[string]BookingRequest{"req-other": pending}}
	resources := &resourceRepoStub{resources: map[string]Resource{"lab-1": csLab(true)}}
	svc := newBookingService(t, bookings, resources, &timetableRepoStub{})

	request, warnings, err := svc.CreateRequest(context.Background(), CreateBookingParams{
		Principal: Principal{UserID: "user-2", Department: "mathematics", Role: scheduler.RoleFaculty},
		Input: BookingInput{
			ResourceID: "lab-1",
			DayOfWeek:  int(time.Monday),
			StartTime:  "10:00",
			EndTime:    "12:00",
			Purpose:    "Statistics workshop",
			Attendance: 25,
		},
	})
	if err != nil {
		t.Fatalf("CreateRequest returned error: %v", err)
	}
	if request.Status != scheduler.StatusPending {
		t.Fatalf("expected cross-department request to be queued, got %s", request.Status)
	}
	if request.TargetDepartment != "computer_science" {
		t.Fatalf("expected target department from the resource, got %s", request.TargetDepartment)
	}
	if len(warnings) != 1 || warnings[0].RefID != "req-other" {
		t.Fatalf("expected the overlapping pending request as a warning, got %v", warnings)
	}
}

func TestBookingService_CreateRequest_PrincipalOnSharedApprovedDirectly(t *testing.T) {
	t.Parallel()

	bookings := &bookingRepoStub{}
	resources := &resourceRepoStub{resources: map[string]Resource{"lab-1": csLab(true)}}
	svc := newBookingService(t, bookings, resources, &timetableRepoStub{})

	request, _, err := svc.CreateRequest(context.Background(), CreateBookingParams{
		Principal: Principal{UserID: "principal-1", Department: "administration", Role: scheduler.RolePrincipal},
		Input: BookingInput{
			ResourceID: "lab-1",
			DayOfWeek:  int(time.Friday),
			StartTime:  "14:00",
			EndTime:    "16:00",
			Purpose:    "Accreditation walkthrough",
			Attendance: 10,
		},
	})
	if err != nil {
		t.Fatalf("CreateRequest returned error: %v", err)
	}
	if request.Status != scheduler.StatusApproved {
		t.Fatalf("expected principal request approved directly, got %s", request.Status)
	}
}

func TestBookingService_CreateRequest_NonSharedCrossDepartmentDenied(t *testing.T) {
	t.Parallel()

	bookings := &bookingRepoStub{}
	resources := &resourceRepoStub{resources: map[string]Resource{"lab-1": csLab(false)}}
	svc := newBookingService(t, bookings, resources, &timetableRepoStub{})

	_, _, err := svc.CreateRequest(context.Background(), CreateBookingParams{
		Principal: Principal{UserID: "user-2", Department: "mathematics", Role: scheduler.RoleFaculty},
		Input: BookingInput{
			ResourceID: "lab-1",
			DayOfWeek:  int(time.Monday),
			StartTime:  "10:00",
			EndTime:    "12:00",
			Purpose:    "Statistics workshop",
			Attendance: 25,
		},
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if len(bookings.created) != 0 {
		t.Fatal("denied request must not be persisted")
	}
}

func TestBookingService_CreateRequest_ConfirmedOccupantBlocks(t *testing.T) {
	t.Parallel()

	timetable := &timetableRepoStub{entries: []TimetableEntry{{
		ID:         "entry-1",
		ResourceID: "lab-1",
		DayOfWeek:  time.Monday,
		StartTime:  clock(t, "09:00"),
		EndTime:    clock(t, "11:00"),
		Course:     "Operating Systems Lab",
		Department: "computer_science",
	}}}
	bookings := &bookingRepoStub{}
	resources := &resourceRepoStub{resources: map[string]Resource{"lab-1": csLab(false)}}
	svc := newBookingService(t, bookings, resources, timetable)

	_, _, err := svc.CreateRequest(context.Background(), CreateBookingParams{
		Principal: Principal{UserID: "user-1", Department: "computer_science", Role: scheduler.RoleFaculty},
		Input: BookingInput{
			ResourceID: "lab-1",
			DayOfWeek:  int(time.Monday),
			StartTime:  "10:00",
			EndTime:    "12:00",
			Purpose:    "Extra practical session",
			Attendance: 30,
		},
	})

	var conflictErr *SlotConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected SlotConflictError, got %v", err)
	}
	if len(conflictErr.Occupants) != 1 || conflictErr.Occupants[0].RefID != "entry-1" {
		t.Fatalf("expected the timetable entry as the conflict, got %v", conflictErr.Occupants)
	}
	if len(bookings.created) != 0 {
		t.Fatal("conflicting request must not be persisted")
	}
}

func TestBookingService_CreateRequest_AttendanceExceedsCapacity(t *testing.T) {
	t.Parallel()

	resources := &resourceRepoStub{resources: map[string]Resource{"lab-1": csLab(false)}}
	svc := newBookingService(t, &bookingRepoStub{}, resources, &timetableRepoStub{})

	_, _, err := svc.CreateRequest(context.Background(), CreateBookingParams{
		Principal: Principal{UserID: "user-1", Department: "computer_science", Role: scheduler.RoleFaculty},
		Input: BookingInput{
			ResourceID: "lab-1",
			DayOfWeek:  int(time.Monday),
			StartTime:  "10:00",
			EndTime:    "12:00",
			Purpose:    "Department meeting",
			Attendance: 80,
		},
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["attendance"]; !ok {
		t.Fatalf("expected attendance field error, got %v", vErr.FieldErrors)
	}
}

func pendingRequest(t *testing.T) BookingRequest {
	t.Helper()
	return BookingRequest{
		ID:                  "req-1",
		RequesterID:         "user-2",
		RequesterDepartment: "mathematics",
		ResourceID:          "lab-1",
		TargetDepartment:    "computer_science",
		DayOfWeek:           time.Monday,
		StartTime:           clock(t, "10:00"),
		EndTime:             clock(t, "12:00"),
		Purpose:             "Statistics workshop",
		Status:              scheduler.StatusPending,
	}
}

func TestBookingService_ApproveRequest_TargetDepartmentHOD(t *testing.T) {
	t.Parallel()

	bookings := &bookingRepoStub{requests: map[string]BookingRequest{"req-1": pendingRequest(t)}}
	svc := newBookingService(t, bookings, &resourceRepoStub{}, &timetableRepoStub{})

	approved, err := svc.ApproveRequest(context.Background(), DecideBookingParams{
		Principal: Principal{UserID: "hod-1", Department: "computer_science", Role: scheduler.RoleHOD},
		RequestID: "req-1",
		Notes:     "Approved for the semester",
	})
	if err != nil {
		t.Fatalf("ApproveRequest returned error: %v", err)
	}
	if approved.Status != scheduler.StatusApproved {
		t.Fatalf("expected approved status, got %s", approved.Status)
	}
	if approved.ApproverID == nil || *approved.ApproverID != "hod-1" {
		t.Fatalf("expected approver recorded, got %v", approved.ApproverID)
	}
	if approved.Notes == nil || *approved.Notes != "Approved for the semester" {
		t.Fatalf("expected notes recorded, got %v", approved.Notes)
	}
}

func TestBookingService_ApproveRequest_OtherDepartmentHODUnauthorized(t *testing.T) {
	t.Parallel()

	bookings := &bookingRepoStub{requests: map[string]BookingRequest{"req-1": pendingRequest(t)}}
	svc := newBookingService(t, bookings, &resourceRepoStub{}, &timetableRepoStub{})

	_, err := svc.ApproveRequest(context.Background(), DecideBookingParams{
		Principal: Principal{UserID: "hod-2", Department: "mathematics", Role: scheduler.RoleHOD},
		RequestID: "req-1",
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestBookingService_ApproveRequest_StaleWhenSlotFilled(t *testing.T) {
	t.Parallel()

	request := pendingRequest(t)
	winner := BookingRequest{
		ID:                  "req-winner",
		RequesterID:         "user-3",
		RequesterDepartment: "computer_science",
		ResourceID:          "lab-1",
		TargetDepartment:    "computer_science",
		DayOfWeek:           time.Monday,
		StartTime:           clock(t, "11:00"),
		EndTime:             clock(t, "13:00"),
		Purpose:             "Robotics club",
		Status:              scheduler.StatusApproved,
	}
	bookings := &bookingRepoStub{requests: map[string]BookingRequest{"req-1": request, "req-winner": winner}}
	svc := newBookingService(t, bookings, &resourceRepoStub{}, &timetableRepoStub{})

	_, err := svc.ApproveRequest(context.Background(), DecideBookingParams{
		Principal: Principal{UserID: "hod-1", Department: "computer_science", Role: scheduler.RoleHOD},
		RequestID: "req-1",
	})

	var staleErr *StaleApprovalError
	if !errors.As(err, &staleErr) {
		t.Fatalf("expected StaleApprovalError, got %v", err)
	}
	if len(staleErr.Conflict.Occupants) != 1 || staleErr.Conflict.Occupants[0].RefID != "req-winner" {
		t.Fatalf("expected the interim approval as the conflict, got %v", staleErr.Conflict.Occupants)
	}
	if got := bookings.requests["req-1"].Status; got != scheduler.StatusPending {
		t.Fatalf("request must stay pending after a stale approval, got %s", got)
	}
}

func TestBookingService_ApproveRequest_LostRaceReportsCurrentState(t *testing.T) {
	t.Parallel()

	rejected := pendingRequest(t)
	rejected.Status = scheduler.StatusRejected
	bookings := &bookingRepoStub{
		requests:      map[string]BookingRequest{"req-1": pendingRequest(t)},
		transitionErr: ErrStaleTransition,
	}
	// Another approver decides the request between our read and the guarded
	// update.
	bookings.onTransition = func() {
		bookings.requests["req-1"] = rejected
	}

	svc := newBookingService(t, bookings, &resourceRepoStub{}, &timetableRepoStub{})

	_, err := svc.ApproveRequest(context.Background(), DecideBookingParams{
		Principal: Principal{UserID: "hod-1", Department: "computer_science", Role: scheduler.RoleHOD},
		RequestID: "req-1",
	})

	var transitionErr *InvalidTransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if transitionErr.From != scheduler.StatusRejected || transitionErr.To != scheduler.StatusApproved {
		t.Fatalf("unexpected transition detail: %+v", transitionErr)
	}
}

func TestBookingService_ApproveRequest_TerminalState(t *testing.T) {
	t.Parallel()

	request := pendingRequest(t)
	request.Status = scheduler.StatusCancelled
	bookings := &bookingRepoStub{requests: map[string]BookingRequest{"req-1": request}}
	svc := newBookingService(t, bookings, &resourceRepoStub{}, &timetableRepoStub{})

	_, err := svc.ApproveRequest(context.Background(), DecideBookingParams{
		Principal: Principal{UserID: "hod-1", Department: "computer_science", Role: scheduler.RoleHOD},
		RequestID: "req-1",
	})

	var transitionErr *InvalidTransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if transitionErr.From != scheduler.StatusCancelled {
		t.Fatalf("expected cancelled as current state, got %s", transitionErr.From)
	}
}

func TestBookingService_RejectRequest_RecordsNotes(t *testing.T) {
	t.Parallel()

	bookings := &bookingRepoStub{requests: map[string]BookingRequest{"req-1": pendingRequest(t)}}
	svc := newBookingService(t, bookings, &resourceRepoStub{}, &timetableRepoStub{})

	rejected, err := svc.RejectRequest(context.Background(), DecideBookingParams{
		Principal: Principal{UserID: "hod-1", Department: "computer_science", Role: scheduler.RoleHOD},
		RequestID: "req-1",
		Notes:     "Lab reserved for exams that week",
	})
	if err != nil {
		t.Fatalf("RejectRequest returned error: %v", err)
	}
	if rejected.Status != scheduler.StatusRejected {
		t.Fatalf("expected rejected status, got %s", rejected.Status)
	}
	if rejected.Notes == nil || *rejected.Notes != "Lab reserved for exams that week" {
		t.Fatalf("expected rejection notes, got %v", rejected.Notes)
	}
}

func TestBookingService_CancelRequest_RequesterOnly(t *testing.T) {
	t.Parallel()

	bookings := &bookingRepoStub{requests: map[string]BookingRequest{"req-1": pendingRequest(t)}}
	svc := newBookingService(t, bookings, &resourceRepoStub{}, &timetableRepoStub{})

	_, err := svc.CancelRequest(context.Background(), CancelBookingParams{
		Principal: Principal{UserID: "someone-else", Department: "mathematics", Role: scheduler.RoleFaculty},
		RequestID: "req-1",
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	cancelled, err := svc.CancelRequest(context.Background(), CancelBookingParams{
		Principal: Principal{UserID: "user-2", Department: "mathematics", Role: scheduler.RoleFaculty},
		RequestID: "req-1",
	})
	if err != nil {
		t.Fatalf("CancelRequest returned error: %v", err)
	}
	if cancelled.Status != scheduler.StatusCancelled {
		t.Fatalf("expected cancelled status, got %s", cancelled.Status)
	}
}

func TestBookingService_ListRequests_MineFiltersByRequester(t *testing.T) {
	t.Parallel()

	mine := pendingRequest(t)
	other := pendingRequest(t)
	other.ID = "req-2"
	other.RequesterID = "user-9"
	bookings := &bookingRepoStub{requests: map[string]BookingRequest{"req-1": mine, "req-2": other}}
	svc := newBookingService(t, bookings, &resourceRepoStub{}, &timetableRepoStub{})

	requests, err := svc.ListRequests(context.Background(), ListBookingsParams{
		Principal: Principal{UserID: "user-2", Department: "mathematics", Role: scheduler.RoleFaculty},
		Mine:      true,
	})
	if err != nil {
		t.Fatalf("ListRequests returned error: %v", err)
	}
	if len(requests) != 1 || requests[0].ID != "req-1" {
		t.Fatalf("expected only the caller's request, got %v", requests)
	}
}
