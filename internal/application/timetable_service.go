package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/recurrence"
	"github.com/example/campus-scheduler/internal/scheduler"
	"github.com/example/campus-scheduler/internal/timeslot"
)

// TimetableRepository captures the persistence interactions needed by the
// timetable service.
type TimetableRepository interface {
	CreateEntry(ctx context.Context, entry TimetableEntry) (TimetableEntry, error)
	GetEntry(ctx context.Context, id string) (TimetableEntry, error)
	DeleteEntry(ctx context.Context, id string) error
	ListEntries(ctx context.Context, filter TimetableRepositoryFilter) ([]TimetableEntry, error)
}

// TimetableRepositoryFilter narrows queries issued to the timetable
// repository.
type TimetableRepositoryFilter struct {
	ResourceID string
	DayOfWeek  *int
	Department string
}

// TimetableService manages the standing weekly class schedule and answers
// slot availability queries.
type TimetableService struct {
	entries     TimetableRepository
	resources   ResourceRepository
	bookings    BookingRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewTimetableService constructs a timetable service with the provided
// dependencies.
func NewTimetableService(entries TimetableRepository, resources ResourceRepository, bookings BookingRepository, idGenerator func() string, now func() time.Time) *TimetableService {
	return NewTimetableServiceWithLogger(entries, resources, bookings, idGenerator, now, nil)
}

// NewTimetableServiceWithLogger constructs a timetable service with a
// specified logger.
func NewTimetableServiceWithLogger(entries TimetableRepository, resources ResourceRepository, bookings BookingRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *TimetableService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &TimetableService{
		entries:     entries,
		resources:   resources,
		bookings:    bookings,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *TimetableService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "TimetableService", operation, attrs...)
}

func (s *TimetableService) sources() occupancySources {
	return occupancySources{timetable: s.entries, bookings: s.bookings}
}

// CreateEntry publishes a standing weekly class session. Timetable entries
// are authoritative: creation fails with *SlotConflictError when the window
// overlaps any confirmed occupant of the resource.
func (s *TimetableService) CreateEntry(ctx context.Context, params CreateTimetableEntryParams) (entry TimetableEntry, err error) {
	if s == nil || s.entries == nil {
		err = fmt.Errorf("timetable repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateEntry",
		"principal_id", params.Principal.UserID,
		"resource_id", params.Input.ResourceID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create timetable entry", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("entry_id", entry.ID).InfoContext(ctx, "timetable entry created")
	}()

	department := strings.TrimSpace(params.Input.Department)
	if department == "" {
		department = params.Principal.Department
	}
	if !canManageResourcesFor(params.Principal, department) {
		err = ErrUnauthorized
		return
	}

	window, vErr := validateWindow(params.Input.DayOfWeek, params.Input.StartTime, params.Input.EndTime)
	if strings.TrimSpace(params.Input.ResourceID) == "" {
		vErr.add("resource_id", "resource is required")
	}
	if strings.TrimSpace(params.Input.Course) == "" {
		vErr.add("course", "course is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if s.resources != nil {
		var resource Resource
		resource, err = s.resources.GetResource(ctx, params.Input.ResourceID)
		if err != nil {
			return TimetableEntry{}, err
		}
		if !resource.Active {
			vErr.add("resource_id", "resource is not active")
			err = vErr
			return TimetableEntry{}, err
		}
	}

	occupants, err := s.sources().occupantsFor(ctx, params.Input.ResourceID, window.Day)
	if err != nil {
		return TimetableEntry{}, err
	}
	candidate := scheduler.Candidate{ResourceID: params.Input.ResourceID, Window: window}
	if conflicts := scheduler.FindConflicts(occupants, candidate); len(conflicts) > 0 {
		err = &SlotConflictError{Occupants: conflicts}
		return TimetableEntry{}, err
	}

	createdAt := s.now()
	entry = TimetableEntry{
		ID:         s.idGenerator(),
		ResourceID: params.Input.ResourceID,
		DayOfWeek:  window.Day,
		StartTime:  window.Start,
		EndTime:    window.End,
		Course:     strings.TrimSpace(params.Input.Course),
		Instructor: strings.TrimSpace(params.Input.Instructor),
		Department: department,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}

	entry, err = s.entries.CreateEntry(ctx, entry)
	return
}

// DeleteEntry removes a standing class session from the weekly schedule.
func (s *TimetableService) DeleteEntry(ctx context.Context, principal Principal, entryID string) (err error) {
	if s == nil || s.entries == nil {
		return fmt.Errorf("timetable repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteEntry",
		"principal_id", principal.UserID,
		"entry_id", entryID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete timetable entry", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "timetable entry deleted")
	}()

	entry, err := s.entries.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}
	if !canManageResourcesFor(principal, entry.Department) {
		return ErrUnauthorized
	}

	return s.entries.DeleteEntry(ctx, entryID)
}

// ListEntries enumerates standing class sessions matching the filter.
func (s *TimetableService) ListEntries(ctx context.Context, params ListTimetableParams) ([]TimetableEntry, error) {
	if s == nil || s.entries == nil {
		return nil, fmt.Errorf("timetable repository not configured")
	}
	return s.entries.ListEntries(ctx, TimetableRepositoryFilter{
		ResourceID: params.ResourceID,
		DayOfWeek:  params.DayOfWeek,
		Department: params.Department,
	})
}

// CheckSlot answers whether a resource window is free. Confirmed occupants
// (timetable entries and approved bookings) block; pending requests are
// reported separately as warnings and never block.
func (s *TimetableService) CheckSlot(ctx context.Context, params CheckSlotParams) (report SlotReport, err error) {
	if s == nil {
		err = fmt.Errorf("TimetableService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CheckSlot",
		"resource_id", params.ResourceID,
		"day_of_week", params.DayOfWeek,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to check slot", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "slot checked", "free", report.Free, "conflicts", len(report.Conflicts), "pending", len(report.Pending))
	}()

	window, vErr := validateWindow(params.DayOfWeek, params.StartTime, params.EndTime)
	if strings.TrimSpace(params.ResourceID) == "" {
		vErr.add("resource_id", "resource is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	occupants, err := s.sources().occupantsFor(ctx, params.ResourceID, window.Day)
	if err != nil {
		return SlotReport{}, err
	}

	candidate := scheduler.Candidate{ResourceID: params.ResourceID, Window: window}
	report = SlotReport{
		Conflicts: scheduler.FindConflicts(occupants, candidate),
		Pending:   scheduler.FindPending(occupants, candidate),
	}
	report.Free = len(report.Conflicts) == 0
	return
}

// ExpandOccurrences projects the weekly schedule onto concrete dates between
// From and To inclusive, for term calendars and client-side exports.
func (s *TimetableService) ExpandOccurrences(ctx context.Context, params ExpandTimetableParams) (occurrences []recurrence.Occurrence, err error) {
	if s == nil || s.entries == nil {
		return nil, fmt.Errorf("timetable repository not configured")
	}

	logger := s.loggerWith(ctx, "ExpandOccurrences",
		"resource_id", params.ResourceID,
		"department", params.Department,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to expand timetable", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "timetable expanded", "occurrences", len(occurrences))
	}()

	entries, err := s.entries.ListEntries(ctx, TimetableRepositoryFilter{
		ResourceID: params.ResourceID,
		Department: params.Department,
	})
	if err != nil {
		return nil, err
	}

	rules := make([]recurrence.WeeklyRule, 0, len(entries))
	for _, entry := range entries {
		rules = append(rules, recurrence.WeeklyRule{
			RefID:      entry.ID,
			ResourceID: entry.ResourceID,
			Day:        entry.DayOfWeek,
			Start:      entry.StartTime,
			End:        entry.EndTime,
			Title:      entry.Course,
			Department: entry.Department,
		})
	}

	occurrences, err = recurrence.NewEngine(nil).Expand(rules, params.From, params.To)
	if err != nil {
		vErr := &ValidationError{}
		switch {
		case errors.Is(err, recurrence.ErrInvalidRange):
			vErr.add("to", "range end must not precede range start")
		case errors.Is(err, recurrence.ErrRangeTooWide):
			vErr.add("to", "range must not exceed one year")
		default:
			return nil, err
		}
		return nil, vErr
	}
	return occurrences, nil
}

// validateWindow parses the caller supplied day and clock times into a
// normalized window, accumulating field errors for anything malformed.
func validateWindow(dayOfWeek int, startTime, endTime string) (scheduler.Window, *ValidationError) {
	vErr := &ValidationError{}

	if dayOfWeek < int(time.Sunday) || dayOfWeek > int(time.Saturday) {
		vErr.add("day_of_week", "day of week must be between 0 and 6")
	}

	start, startErr := timeslot.ParseClockTime(startTime)
	if startErr != nil {
		vErr.add("start_time", "start time must be in HH:MM format")
	}
	end, endErr := timeslot.ParseClockTime(endTime)
	if endErr != nil {
		vErr.add("end_time", "end time must be in HH:MM format")
	}
	if startErr == nil && endErr == nil && start >= end {
		vErr.add("end_time", "end time must be after start time")
	}

	return scheduler.Window{Day: time.Weekday(dayOfWeek), Start: start, End: end}, vErr
}
