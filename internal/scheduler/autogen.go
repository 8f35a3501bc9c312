package scheduler

import (
	"time"

	"github.com/example/campus-scheduler/internal/timeslot"
)

// CourseKind distinguishes theory courses from practicals when matching
// resource types.
type CourseKind string

const (
	// CourseTheory sessions run in classrooms or seminar halls.
	CourseTheory CourseKind = "theory"
	// CoursePractical sessions require a lab.
	CoursePractical CourseKind = "practical"
)

// Course describes one course the generator must place.
type Course struct {
	ID             string
	Title          string
	Department     string
	Instructor     string
	Kind           CourseKind
	WeeklySessions int
	ClassSize      int
}

// Placement is one generated (course, resource, window) assignment.
type Placement struct {
	CourseID   string
	Title      string
	Department string
	Instructor string
	ResourceID string
	SlotID     string
	Window     Window
}

// GenerateRequest carries the inputs for one generation pass. Ordering of
// Courses, Resources, and Slots is significant: the generator is first-fit
// and deterministic, so identical inputs always yield identical placements.
type GenerateRequest struct {
	Courses   []Course
	Resources []ResourceInfo
	Slots     []timeslot.TimeSlot
	// Days defaults to Monday through Friday when empty.
	Days []time.Weekday
}

// GenerateResult reports the placements made and the sessions that could not
// be placed, per course.
type GenerateResult struct {
	Placements []Placement
	// Unplaced maps course id to the number of weekly sessions left
	// unscheduled. Partial placement is not an error.
	Unplaced map[string]int
}

var weekdaysMonToFri = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
}

// Generate runs the greedy first-fit routine builder. For each course it
// walks days and the slot catalog in order and takes the first resource that
// matches the course's required type, seats the class, and is free against
// both the supplied occupancy and placements made earlier in this same pass.
// There is no backtracking: a course that cannot be fully placed stays
// partially scheduled, which keeps placements reproducible and explainable.
func Generate(req GenerateRequest, existing []Occupant) GenerateResult {
	days := req.Days
	if len(days) == 0 {
		days = weekdaysMonToFri
	}

	occupancy := make([]Occupant, len(existing))
	copy(occupancy, existing)

	result := GenerateResult{Unplaced: make(map[string]int)}

	for _, course := range req.Courses {
		remaining := course.WeeklySessions

		for _, day := range days {
			if remaining == 0 {
				break
			}
			for _, slot := range req.Slots {
				if remaining == 0 {
					break
				}
				window := Window{Day: day, Start: slot.Start, End: slot.End}
				resource, ok := firstFit(req.Resources, course, window, occupancy)
				if !ok {
					continue
				}

				placement := Placement{
					CourseID:   course.ID,
					Title:      course.Title,
					Department: course.Department,
					Instructor: course.Instructor,
					ResourceID: resource.ID,
					SlotID:     slot.ID,
					Window:     window,
				}
				result.Placements = append(result.Placements, placement)
				occupancy = append(occupancy, Occupant{
					Kind:       KindClassSession,
					RefID:      course.ID + "/" + slot.ID,
					ResourceID: resource.ID,
					Window:     window,
					Title:      course.Title,
					Department: course.Department,
					HeldBy:     course.Instructor,
				})
				remaining--
			}
		}

		if remaining > 0 {
			result.Unplaced[course.ID] = remaining
		}
	}

	return result
}

func firstFit(resources []ResourceInfo, course Course, window Window, occupancy []Occupant) (ResourceInfo, bool) {
	for _, resource := range resources {
		if !resource.Active {
			continue
		}
		if !resourceFitsCourse(resource.Type, course.Kind) {
			continue
		}
		if resource.Capacity < course.ClassSize {
			continue
		}
		candidate := Candidate{ResourceID: resource.ID, Window: window}
		if len(FindConflicts(occupancy, candidate)) > 0 {
			continue
		}
		return resource, true
	}
	return ResourceInfo{}, false
}

func resourceFitsCourse(resourceType ResourceType, kind CourseKind) bool {
	switch kind {
	case CoursePractical:
		return resourceType == TypeLab
	case CourseTheory:
		return resourceType == TypeClassroom || resourceType == TypeSeminarHall
	}
	return false
}
