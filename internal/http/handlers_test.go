package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/recurrence"
	"github.com/example/campus-scheduler/internal/scheduler"
	"github.com/example/campus-scheduler/internal/timeslot"
)

type bookingServiceStub struct {
	createParams application.CreateBookingParams
	created      application.BookingRequest
	warnings     []scheduler.Occupant
	createErr    error

	decideParams application.DecideBookingParams
	decided      application.BookingRequest
	decideErr    error

	list    []application.BookingRequest
	listErr error
}

func (s *bookingServiceStub) CreateRequest(ctx context.Context, params application.CreateBookingParams) (application.BookingRequest, []scheduler.Occupant, error) {
	s.createParams = params
	if s.createErr != nil {
		return application.BookingRequest{}, nil, s.createErr
	}
	return s.created, s.warnings, nil
}

func (s *bookingServiceStub) ApproveRequest(ctx context.Context, params application.DecideBookingParams) (application.BookingRequest, error) {
	s.decideParams = params
	if s.decideErr != nil {
		return application.BookingRequest{}, s.decideErr
	}
	return s.decided, nil
}

func (s *bookingServiceStub) RejectRequest(ctx context.Context, params application.DecideBookingParams) (application.BookingRequest, error) {
	s.decideParams = params
	if s.decideErr != nil {
		return application.BookingRequest{}, s.decideErr
	}
	return s.decided, nil
}

func (s *bookingServiceStub) CancelRequest(ctx context.Context, params application.CancelBookingParams) (application.BookingRequest, error) {
	if s.decideErr != nil {
		return application.BookingRequest{}, s.decideErr
	}
	return s.decided, nil
}

func (s *bookingServiceStub) GetRequest(ctx context.Context, requestID string) (application.BookingRequest, error) {
	if s.listErr != nil {
		return application.BookingRequest{}, s.listErr
	}
	return s.decided, nil
}

func (s *bookingServiceStub) ListRequests(ctx context.Context, params application.ListBookingsParams) ([]application.BookingRequest, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.list, nil
}

type timetableServiceStub struct {
	checkParams application.CheckSlotParams
	report      application.SlotReport
	checkErr    error

	createParams application.CreateTimetableEntryParams
	created      application.TimetableEntry
	createErr    error

	expandParams application.ExpandTimetableParams
	occurrences  []recurrence.Occurrence
	expandErr    error
}

func (s *timetableServiceStub) CreateEntry(ctx context.Context, params application.CreateTimetableEntryParams) (application.TimetableEntry, error) {
	s.createParams = params
	if s.createErr != nil {
		return application.TimetableEntry{}, s.createErr
	}
	return s.created, nil
}

func (s *timetableServiceStub) DeleteEntry(ctx context.Context, principal application.Principal, entryID string) error {
	return nil
}

func (s *timetableServiceStub) ListEntries(ctx context.Context, params application.ListTimetableParams) ([]application.TimetableEntry, error) {
	return nil, nil
}

func (s *timetableServiceStub) CheckSlot(ctx context.Context, params application.CheckSlotParams) (application.SlotReport, error) {
	s.checkParams = params
	if s.checkErr != nil {
		return application.SlotReport{}, s.checkErr
	}
	return s.report, nil
}

func (s *timetableServiceStub) ExpandOccurrences(ctx context.Context, params application.ExpandTimetableParams) ([]recurrence.Occurrence, error) {
	s.expandParams = params
	if s.expandErr != nil {
		return nil, s.expandErr
	}
	return s.occurrences, nil
}

type routineServiceStub struct {
	params application.GenerateRoutineParams
	result application.GenerateRoutineResult
	err    error
}

func (s *routineServiceStub) GenerateRoutine(ctx context.Context, params application.GenerateRoutineParams) (application.GenerateRoutineResult, error) {
	s.params = params
	if s.err != nil {
		return application.GenerateRoutineResult{}, s.err
	}
	return s.result, nil
}

func mustClock(t *testing.T, value string) timeslot.ClockTime {
	t.Helper()
	parsed, err := timeslot.ParseClockTime(value)
	if err != nil {
		t.Fatalf("failed to parse clock time %q: %v", value, err)
	}
	return parsed
}

func sampleBooking(t *testing.T) application.BookingRequest {
	t.Helper()
	return application.BookingRequest{
		ID:                  "req-1",
		RequesterID:         "user-1",
		RequesterDepartment: "mathematics",
		ResourceID:          "lab-1",
		TargetDepartment:    "computer_science",
		DayOfWeek:           time.Monday,
		StartTime:           mustClock(t, "10:00"),
		EndTime:             mustClock(t, "12:00"),
		Purpose:             "Statistics workshop",
		Attendance:          25,
		Status:              scheduler.StatusPending,
		CreatedAt:           time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC),
		UpdatedAt:           time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC),
	}
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.NewDecoder(recorder.Body).Decode(target); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

func TestBookingHandler_Create_ReturnsWarnings(t *testing.T) {
	t.Parallel()

	service := &bookingServiceStub{
		created: sampleBooking(t),
		warnings: []scheduler.Occupant{{
			Kind:       scheduler.KindPendingRequest,
			RefID:      "req-other",
			ResourceID: "lab-1",
			Window: scheduler.Window{
				Day:   time.Monday,
				Start: mustClock(t, "11:00"),
				End:   mustClock(t, "13:00"),
			},
		}},
	}
	router := NewRouter(RouterConfig{Bookings: NewBookingHandler(service, nil)})

	body := `{"resource_id":"lab-1","day_of_week":1,"start_time":"10:00","end_time":"12:00","purpose":"Statistics workshop","attendance":25}`
	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var resp bookingResponse
	decodeBody(t, recorder, &resp)
	if resp.Request.ID != "req-1" || resp.Request.Status != "pending" {
		t.Fatalf("unexpected request payload: %+v", resp.Request)
	}
	if len(resp.Warnings) != 1 || resp.Warnings[0].RefID != "req-other" {
		t.Fatalf("expected pending warning in response, got %+v", resp.Warnings)
	}
}

func TestBookingHandler_Create_AcceptsClassroomIDAlias(t *testing.T) {
	t.Parallel()

	service := &bookingServiceStub{created: sampleBooking(t)}
	router := NewRouter(RouterConfig{Bookings: NewBookingHandler(service, nil)})

	body := `{"classroom_id":"lab-1","day_of_week":1,"start_time":"10:00","end_time":"12:00","purpose":"Statistics workshop","attendance":25}`
	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", recorder.Code)
	}
	if service.createParams.Input.ResourceID != "lab-1" {
		t.Fatalf("expected classroom_id normalized to resource id, got %q", service.createParams.Input.ResourceID)
	}
}

func TestBookingHandler_Create_SlotConflict(t *testing.T) {
	t.Parallel()

	service := &bookingServiceStub{createErr: &application.SlotConflictError{Occupants: []scheduler.Occupant{{
		Kind:       scheduler.KindClassSession,
		RefID:      "entry-1",
		ResourceID: "lab-1",
		Title:      "Operating Systems Lab",
		Window: scheduler.Window{
			Day:   time.Monday,
			Start: mustClock(t, "09:00"),
			End:   mustClock(t, "11:00"),
		},
	}}}}
	router := NewRouter(RouterConfig{Bookings: NewBookingHandler(service, nil)})

	body := `{"resource_id":"lab-1","day_of_week":1,"start_time":"10:00","end_time":"12:00","purpose":"Workshop","attendance":10}`
	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", recorder.Code)
	}

	var resp errorResponse
	decodeBody(t, recorder, &resp)
	if resp.ErrorCode != "SLOT_CONFLICT" {
		t.Fatalf("expected SLOT_CONFLICT code, got %q", resp.ErrorCode)
	}
	if len(resp.Conflicts) != 1 || resp.Conflicts[0].RefID != "entry-1" {
		t.Fatalf("expected blocking occupant in response, got %+v", resp.Conflicts)
	}
}

func TestBookingHandler_Approve_StaleApproval(t *testing.T) {
	t.Parallel()

	service := &bookingServiceStub{decideErr: &application.StaleApprovalError{
		Conflict: &application.SlotConflictError{Occupants: []scheduler.Occupant{{RefID: "req-winner"}}},
	}}
	router := NewRouter(RouterConfig{Bookings: NewBookingHandler(service, nil)})

	req := httptest.NewRequest(http.MethodPost, "/bookings/req-1/approve", strings.NewReader(`{"notes":"ok"}`))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", recorder.Code)
	}

	var resp errorResponse
	decodeBody(t, recorder, &resp)
	if resp.ErrorCode != "STALE_APPROVAL" {
		t.Fatalf("expected STALE_APPROVAL code, got %q", resp.ErrorCode)
	}
	if service.decideParams.RequestID != "req-1" || service.decideParams.Notes != "ok" {
		t.Fatalf("unexpected decide params: %+v", service.decideParams)
	}
}

func TestBookingHandler_Approve_InvalidTransition(t *testing.T) {
	t.Parallel()

	service := &bookingServiceStub{decideErr: &application.InvalidTransitionError{
		RequestID: "req-1",
		From:      scheduler.StatusRejected,
		To:        scheduler.StatusApproved,
	}}
	router := NewRouter(RouterConfig{Bookings: NewBookingHandler(service, nil)})

	req := httptest.NewRequest(http.MethodPost, "/bookings/req-1/approve", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", recorder.Code)
	}

	var resp errorResponse
	decodeBody(t, recorder, &resp)
	if resp.ErrorCode != "INVALID_TRANSITION" {
		t.Fatalf("expected INVALID_TRANSITION code, got %q", resp.ErrorCode)
	}
}

func TestBookingHandler_Create_ValidationErrors(t *testing.T) {
	t.Parallel()

	vErr := &application.ValidationError{FieldErrors: map[string]string{
		"start_time": "start time must be in HH:MM format",
	}}
	service := &bookingServiceStub{createErr: vErr}
	router := NewRouter(RouterConfig{Bookings: NewBookingHandler(service, nil)})

	body := `{"resource_id":"lab-1","day_of_week":1,"start_time":"bad","end_time":"12:00","purpose":"Workshop"}`
	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", recorder.Code)
	}

	var resp errorResponse
	decodeBody(t, recorder, &resp)
	if resp.Errors["start_time"] == "" {
		t.Fatalf("expected start_time field error, got %+v", resp.Errors)
	}
}

func TestTimetableHandler_CheckSlot(t *testing.T) {
	t.Parallel()

	service := &timetableServiceStub{report: application.SlotReport{
		Free: true,
		Pending: []scheduler.Occupant{{
			Kind:  scheduler.KindPendingRequest,
			RefID: "req-1",
		}},
	}}
	router := NewRouter(RouterConfig{Timetable: NewTimetableHandler(service, nil)})

	req := httptest.NewRequest(http.MethodGet, "/timetable/check?classroom_id=lab-1&day_of_week=1&start_time=10:00&end_time=12:00", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if service.checkParams.ResourceID != "lab-1" {
		t.Fatalf("expected classroom_id alias resolved, got %q", service.checkParams.ResourceID)
	}
	if service.checkParams.StartTime != "10:00" || service.checkParams.DayOfWeek != 1 {
		t.Fatalf("unexpected check params: %+v", service.checkParams)
	}

	var resp slotReportDTO
	decodeBody(t, recorder, &resp)
	if !resp.Free || len(resp.Pending) != 1 {
		t.Fatalf("unexpected report: %+v", resp)
	}
}

func TestTimetableHandler_Occurrences(t *testing.T) {
	t.Parallel()

	service := &timetableServiceStub{occurrences: []recurrence.Occurrence{{
		RefID:      "entry-1",
		ResourceID: "lab-1",
		Title:      "Operating Systems Lab",
		Department: "computer_science",
		Start:      time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC),
		End:        time.Date(2025, 9, 1, 11, 0, 0, 0, time.UTC),
	}}}
	router := NewRouter(RouterConfig{Timetable: NewTimetableHandler(service, nil)})

	req := httptest.NewRequest(http.MethodGet, "/timetable/occurrences?classroom_id=lab-1&from=2025-09-01&to=2025-09-07", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if service.expandParams.ResourceID != "lab-1" {
		t.Fatalf("expected classroom_id alias resolved, got %q", service.expandParams.ResourceID)
	}
	if !service.expandParams.From.Equal(time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected from bound: %v", service.expandParams.From)
	}

	var resp listOccurrencesResponse
	decodeBody(t, recorder, &resp)
	if len(resp.Occurrences) != 1 {
		t.Fatalf("expected one occurrence, got %+v", resp.Occurrences)
	}
	got := resp.Occurrences[0]
	if got.EntryID != "entry-1" || got.Date != "2025-09-01" || got.StartTime != "09:00" || got.EndTime != "11:00" {
		t.Fatalf("unexpected occurrence payload: %+v", got)
	}
}

func TestTimetableHandler_Occurrences_RejectsMalformedDates(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterConfig{Timetable: NewTimetableHandler(&timetableServiceStub{}, nil)})

	req := httptest.NewRequest(http.MethodGet, "/timetable/occurrences?from=01-09-2025&to=2025-09-07", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
}

func TestTimetableHandler_Create_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterConfig{Timetable: NewTimetableHandler(&timetableServiceStub{}, nil)})

	req := httptest.NewRequest(http.MethodPut, "/timetable", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", recorder.Code)
	}
	if allow := recorder.Header().Get("Allow"); !strings.Contains(allow, http.MethodPost) {
		t.Fatalf("expected Allow header listing POST, got %q", allow)
	}
}

func TestRoutineHandler_Generate(t *testing.T) {
	t.Parallel()

	service := &routineServiceStub{result: application.GenerateRoutineResult{
		Entries: []application.TimetableEntry{{
			ID:         "entry-1",
			ResourceID: "room-101",
			DayOfWeek:  time.Monday,
			StartTime:  mustClock(t, "09:00"),
			EndTime:    mustClock(t, "10:00"),
			Course:     "Algorithms",
			Department: "computer_science",
		}},
		Unplaced: map[string]int{"cs305": 1},
	}}
	router := NewRouter(RouterConfig{Routine: NewRoutineHandler(service, nil)})

	body := `{"department":"computer_science","courses":[{"id":"cs301","title":"Algorithms","kind":"theory","weekly_sessions":3,"class_size":55}],"commit":true}`
	req := httptest.NewRequest(http.MethodPost, "/routine/generate", strings.NewReader(body))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if !service.params.Commit || service.params.Department != "computer_science" {
		t.Fatalf("unexpected generate params: %+v", service.params)
	}
	if len(service.params.Courses) != 1 || service.params.Courses[0].ID != "cs301" {
		t.Fatalf("unexpected course inputs: %+v", service.params.Courses)
	}

	var resp generateRoutineResponse
	decodeBody(t, recorder, &resp)
	if len(resp.Entries) != 1 || resp.Entries[0].StartTime != "09:00" {
		t.Fatalf("unexpected entries payload: %+v", resp.Entries)
	}
	if resp.Unplaced["cs305"] != 1 {
		t.Fatalf("expected unplaced report, got %+v", resp.Unplaced)
	}
}

func TestBookingHandler_UnknownActionNotFound(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterConfig{Bookings: NewBookingHandler(&bookingServiceStub{}, nil)})

	req := httptest.NewRequest(http.MethodPost, "/bookings/req-1/escalate", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}
}
