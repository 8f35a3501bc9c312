// Package scheduler implements the slot-conflict resolver: interval overlap,
// occupancy screening, the booking policy gate, the request state machine,
// and the greedy routine generator. The package is pure; callers supply all
// occupancy data in the canonical Occupant shape.
package scheduler

import (
	"time"

	"github.com/example/campus-scheduler/internal/timeslot"
)

// Window is a half-open [Start, End) time-of-day interval on a single day of
// the week.
type Window struct {
	Day   time.Weekday
	Start timeslot.ClockTime
	End   timeslot.ClockTime
}

// Valid reports whether the window is well formed: both bounds inside a
// single day and start strictly before end.
func (w Window) Valid() bool {
	return w.Start.Valid() && w.End.Valid() && w.Start < w.End
}

// Overlaps reports whether two windows overlap. Both intervals are half-open,
// so windows that merely touch (one ending exactly when the other starts) do
// not overlap. Windows on different days never overlap regardless of their
// clock times.
func (w Window) Overlaps(other Window) bool {
	if w.Day != other.Day {
		return false
	}
	return w.Start < other.End && other.Start < w.End
}

// Contains reports whether the clock time falls inside the window.
func (w Window) Contains(t timeslot.ClockTime) bool {
	return t >= w.Start && t < w.End
}

// String renders the window as "Monday 09:00-10:30".
func (w Window) String() string {
	return w.Day.String() + " " + w.Start.String() + "-" + w.End.String()
}
