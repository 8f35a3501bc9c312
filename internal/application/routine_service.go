package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/scheduler"
	"github.com/example/campus-scheduler/internal/timeslot"
)

// RoutineService builds weekly class routines for a department with the
// greedy first-fit generator and, when asked, commits the placements as
// timetable entries.
type RoutineService struct {
	entries     TimetableRepository
	resources   ResourceRepository
	bookings    BookingRepository
	catalog     *timeslot.Catalog
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewRoutineService constructs a routine service with the provided
// dependencies. A nil catalog falls back to the standard lecture periods.
func NewRoutineService(entries TimetableRepository, resources ResourceRepository, bookings BookingRepository, catalog *timeslot.Catalog, idGenerator func() string, now func() time.Time) *RoutineService {
	return NewRoutineServiceWithLogger(entries, resources, bookings, catalog, idGenerator, now, nil)
}

// NewRoutineServiceWithLogger constructs a routine service with a specified
// logger.
func NewRoutineServiceWithLogger(entries TimetableRepository, resources ResourceRepository, bookings BookingRepository, catalog *timeslot.Catalog, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RoutineService {
	if catalog == nil {
		catalog = timeslot.LectureCatalog()
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RoutineService{
		entries:     entries,
		resources:   resources,
		bookings:    bookings,
		catalog:     catalog,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *RoutineService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoutineService", operation, attrs...)
}

// GenerateRoutine places every requested course session into the week using
// first-fit over days, slot periods, and the resource catalog, honoring all
// existing confirmed occupancy. With Commit set the placements are persisted
// as timetable entries; otherwise the result is a dry-run proposal. Courses
// that cannot be fully placed are reported in Unplaced rather than failing
// the run.
func (s *RoutineService) GenerateRoutine(ctx context.Context, params GenerateRoutineParams) (result GenerateRoutineResult, err error) {
	if s == nil || s.resources == nil {
		err = fmt.Errorf("resource repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "GenerateRoutine",
		"principal_id", params.Principal.UserID,
		"department", params.Department,
		"commit", params.Commit,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to generate routine", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "routine generated", "placed", len(result.Entries), "unplaced_courses", len(result.Unplaced))
	}()

	department := strings.TrimSpace(params.Department)
	if department == "" {
		department = params.Principal.Department
	}
	if !canManageResourcesFor(params.Principal, department) {
		err = ErrUnauthorized
		return
	}
	if params.Commit && s.entries == nil {
		err = fmt.Errorf("timetable repository not configured")
		return
	}

	courses, vErr := normalizeCourses(params.Courses, department)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	active := true
	resources, err := s.resources.ListResources(ctx, ResourceRepositoryFilter{Active: &active})
	if err != nil {
		return GenerateRoutineResult{}, err
	}

	infos := make([]scheduler.ResourceInfo, 0, len(resources))
	for _, resource := range resources {
		if resource.Department != department && !resource.Shared {
			continue
		}
		infos = append(infos, resource.info())
	}

	occupants, err := s.existingOccupants(ctx, infos)
	if err != nil {
		return GenerateRoutineResult{}, err
	}

	generated := scheduler.Generate(scheduler.GenerateRequest{
		Courses:   courses,
		Resources: infos,
		Slots:     s.catalog.Slots(),
	}, occupants)

	result = GenerateRoutineResult{Unplaced: generated.Unplaced}
	createdAt := s.now()
	for _, placement := range generated.Placements {
		entry := TimetableEntry{
			ID:         s.idGenerator(),
			ResourceID: placement.ResourceID,
			DayOfWeek:  placement.Window.Day,
			StartTime:  placement.Window.Start,
			EndTime:    placement.Window.End,
			Course:     placement.Title,
			Instructor: placement.Instructor,
			Department: placement.Department,
			CreatedAt:  createdAt,
			UpdatedAt:  createdAt,
		}
		if params.Commit {
			entry, err = s.entries.CreateEntry(ctx, entry)
			if err != nil {
				return GenerateRoutineResult{}, err
			}
		}
		result.Entries = append(result.Entries, entry)
	}
	return
}

// existingOccupants gathers confirmed and pending occupancy for every
// candidate resource across the working week.
func (s *RoutineService) existingOccupants(ctx context.Context, resources []scheduler.ResourceInfo) ([]scheduler.Occupant, error) {
	sources := occupancySources{timetable: s.entries, bookings: s.bookings}
	days := []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

	var occupants []scheduler.Occupant
	for _, resource := range resources {
		for _, day := range days {
			found, err := sources.occupantsFor(ctx, resource.ID, day)
			if err != nil {
				return nil, err
			}
			occupants = append(occupants, found...)
		}
	}
	return occupants, nil
}

func normalizeCourses(inputs []CourseInput, department string) ([]scheduler.Course, *ValidationError) {
	vErr := &ValidationError{}
	if len(inputs) == 0 {
		vErr.add("courses", "at least one course is required")
		return nil, vErr
	}

	courses := make([]scheduler.Course, 0, len(inputs))
	seen := make(map[string]bool, len(inputs))
	for i, input := range inputs {
		field := func(name string) string { return fmt.Sprintf("courses[%d].%s", i, name) }

		id := strings.TrimSpace(input.ID)
		if id == "" {
			vErr.add(field("id"), "course id is required")
		} else if seen[id] {
			vErr.add(field("id"), "course id is duplicated")
		}
		seen[id] = true

		if strings.TrimSpace(input.Title) == "" {
			vErr.add(field("title"), "title is required")
		}

		kind := scheduler.CourseKind(input.Kind)
		if kind == "" {
			kind = scheduler.CourseTheory
		}
		if kind != scheduler.CourseTheory && kind != scheduler.CoursePractical {
			vErr.add(field("kind"), "kind must be theory or practical")
		}

		if input.WeeklySessions <= 0 {
			vErr.add(field("weekly_sessions"), "weekly sessions must be positive")
		}
		if input.ClassSize <= 0 {
			vErr.add(field("class_size"), "class size must be positive")
		}

		courses = append(courses, scheduler.Course{
			ID:             id,
			Title:          strings.TrimSpace(input.Title),
			Department:     department,
			Instructor:     strings.TrimSpace(input.Instructor),
			Kind:           kind,
			WeeklySessions: input.WeeklySessions,
			ClassSize:      input.ClassSize,
		})
	}

	if vErr.HasErrors() {
		return nil, vErr
	}
	return courses, nil
}
