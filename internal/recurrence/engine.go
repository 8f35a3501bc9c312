// Package recurrence expands weekly timetable rules into dated occurrences
// over a calendar range, for term calendars and export views.
package recurrence

import (
	"errors"
	"sort"
	"time"

	"github.com/example/campus-scheduler/internal/timeslot"
)

// MaxRangeDays bounds a single expansion request to one academic year.
const MaxRangeDays = 366

// WeeklyRule describes one standing weekly session to expand.
type WeeklyRule struct {
	RefID      string
	ResourceID string
	Day        time.Weekday
	Start      timeslot.ClockTime
	End        timeslot.ClockTime
	Title      string
	Department string
}

// Occurrence is a dated instance of a weekly rule.
type Occurrence struct {
	RefID      string
	ResourceID string
	Title      string
	Department string
	Start      time.Time
	End        time.Time
}

// Engine expands weekly rules into occurrences, anchored to a location so
// day-of-week boundaries resolve consistently.
type Engine struct {
	location *time.Location
}

// NewEngine constructs an Engine that renders occurrences in the provided
// location. If loc is nil, UTC is used.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{location: loc}
}

// ErrInvalidRange indicates the expansion range is empty or reversed.
var ErrInvalidRange = errors.New("recurrence: range end must not precede range start")

// ErrRangeTooWide indicates the expansion range exceeds MaxRangeDays.
var ErrRangeTooWide = errors.New("recurrence: range exceeds one year")

// ErrInvalidRule indicates a rule window is empty or reversed.
var ErrInvalidRule = errors.New("recurrence: rule end time must follow its start time")

// Expand produces every dated occurrence of the rules between rangeStart and
// rangeEnd inclusive. Only the date component of the bounds is considered.
// The result is ordered by start time, then resource id.
func (e *Engine) Expand(rules []WeeklyRule, rangeStart, rangeEnd time.Time) ([]Occurrence, error) {
	loc := e.location
	if loc == nil {
		loc = time.UTC
	}

	first := dateOnly(rangeStart, loc)
	last := dateOnly(rangeEnd, loc)
	if last.Before(first) {
		return nil, ErrInvalidRange
	}
	if last.Sub(first) > MaxRangeDays*24*time.Hour {
		return nil, ErrRangeTooWide
	}

	byDay := make(map[time.Weekday][]WeeklyRule, len(rules))
	for _, rule := range rules {
		if rule.End <= rule.Start {
			return nil, ErrInvalidRule
		}
		byDay[rule.Day] = append(byDay[rule.Day], rule)
	}

	occurrences := make([]Occurrence, 0)
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		for _, rule := range byDay[day.Weekday()] {
			occurrences = append(occurrences, Occurrence{
				RefID:      rule.RefID,
				ResourceID: rule.ResourceID,
				Title:      rule.Title,
				Department: rule.Department,
				Start:      atClock(day, rule.Start),
				End:        atClock(day, rule.End),
			})
		}
	}

	sort.Slice(occurrences, func(i, j int) bool {
		if !occurrences[i].Start.Equal(occurrences[j].Start) {
			return occurrences[i].Start.Before(occurrences[j].Start)
		}
		return occurrences[i].ResourceID < occurrences[j].ResourceID
	})
	return occurrences, nil
}

func dateOnly(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func atClock(day time.Time, clock timeslot.ClockTime) time.Time {
	return day.Add(time.Duration(clock) * time.Minute)
}
