package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/example/campus-scheduler/internal/timeslot"
)

func weeklyLecture(id string, day time.Weekday, start, end string) WeeklyRule {
	return WeeklyRule{
		RefID:      id,
		ResourceID: "room-101",
		Day:        day,
		Start:      timeslot.MustClockTime(start),
		End:        timeslot.MustClockTime(end),
		Title:      "Algorithms",
		Department: "computer_science",
	}
}

func TestEngine_Expand_DatesMatchingWeekdays(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	rules := []WeeklyRule{
		weeklyLecture("entry-1", time.Monday, "09:00", "10:00"),
		weeklyLecture("entry-2", time.Wednesday, "11:00", "12:00"),
	}

	// 2025-09-01 is a Monday.
	from := time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.September, 14, 0, 0, 0, 0, time.UTC)

	occurrences, err := engine.Expand(rules, from, to)
	if err != nil {
		t.Fatalf("Expand returned error: %v", err)
	}

	// Two Mondays and two Wednesdays fall in the range.
	if len(occurrences) != 4 {
		t.Fatalf("expected 4 occurrences, got %d", len(occurrences))
	}

	first := occurrences[0]
	if first.RefID != "entry-1" {
		t.Fatalf("expected the Monday lecture first, got %q", first.RefID)
	}
	expectedStart := time.Date(2025, time.September, 1, 9, 0, 0, 0, time.UTC)
	if !first.Start.Equal(expectedStart) {
		t.Fatalf("expected start %v, got %v", expectedStart, first.Start)
	}
	if !first.End.Equal(expectedStart.Add(time.Hour)) {
		t.Fatalf("expected one hour duration, got end %v", first.End)
	}

	for i := 1; i < len(occurrences); i++ {
		if occurrences[i].Start.Before(occurrences[i-1].Start) {
			t.Fatalf("occurrences out of order at index %d", i)
		}
	}
}

func TestEngine_Expand_InclusiveBounds(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	rules := []WeeklyRule{weeklyLecture("entry-1", time.Friday, "14:00", "16:00")}

	// 2025-09-05 is a Friday; both bounds name that same day.
	day := time.Date(2025, time.September, 5, 0, 0, 0, 0, time.UTC)
	occurrences, err := engine.Expand(rules, day, day)
	if err != nil {
		t.Fatalf("Expand returned error: %v", err)
	}
	if len(occurrences) != 1 {
		t.Fatalf("expected a single occurrence on the boundary day, got %d", len(occurrences))
	}
}

func TestEngine_Expand_IgnoresClockComponentOfBounds(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	rules := []WeeklyRule{weeklyLecture("entry-1", time.Monday, "09:00", "10:00")}

	// A late-evening range start must still include that Monday's lecture.
	from := time.Date(2025, time.September, 1, 23, 30, 0, 0, time.UTC)
	to := time.Date(2025, time.September, 1, 23, 45, 0, 0, time.UTC)

	occurrences, err := engine.Expand(rules, from, to)
	if err != nil {
		t.Fatalf("Expand returned error: %v", err)
	}
	if len(occurrences) != 1 {
		t.Fatalf("expected the Monday lecture despite late bounds, got %d", len(occurrences))
	}
}

func TestEngine_Expand_ReversedRange(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	from := time.Date(2025, time.September, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)

	if _, err := engine.Expand(nil, from, to); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestEngine_Expand_RangeTooWide(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	from := time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(2, 0, 0)

	if _, err := engine.Expand(nil, from, to); !errors.Is(err, ErrRangeTooWide) {
		t.Fatalf("expected ErrRangeTooWide, got %v", err)
	}
}

func TestEngine_Expand_RejectsEmptyRuleWindow(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	rule := weeklyLecture("entry-1", time.Monday, "10:00", "10:00")
	day := time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)

	if _, err := engine.Expand([]WeeklyRule{rule}, day, day); !errors.Is(err, ErrInvalidRule) {
		t.Fatalf("expected ErrInvalidRule, got %v", err)
	}
}

func TestEngine_Expand_HonorsLocation(t *testing.T) {
	t.Parallel()

	kolkata := time.FixedZone("IST", 5*3600+1800)
	engine := NewEngine(kolkata)
	rules := []WeeklyRule{weeklyLecture("entry-1", time.Monday, "09:00", "10:00")}

	day := time.Date(2025, time.September, 1, 0, 0, 0, 0, kolkata)
	occurrences, err := engine.Expand(rules, day, day)
	if err != nil {
		t.Fatalf("Expand returned error: %v", err)
	}
	if len(occurrences) != 1 {
		t.Fatalf("expected one occurrence, got %d", len(occurrences))
	}
	if occurrences[0].Start.Location() != kolkata {
		t.Fatalf("expected occurrence in engine location, got %v", occurrences[0].Start.Location())
	}
	if occurrences[0].Start.Hour() != 9 {
		t.Fatalf("expected 09:00 local start, got %v", occurrences[0].Start)
	}
}
