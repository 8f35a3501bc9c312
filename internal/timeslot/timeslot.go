// Package timeslot defines the clock-time primitives and the fixed slot
// catalogs shared by the conflict resolver and the routine generator.
package timeslot

import (
	"errors"
	"fmt"
	"time"
)

// ClockTime is a time of day expressed as minutes since midnight. Calendar
// dates are deliberately absent: occupancy comparisons only ever look at the
// clock component combined with an explicit day-of-week.
type ClockTime int

// ErrInvalidClockTime indicates a value outside the "HH:MM" 24-hour range.
var ErrInvalidClockTime = errors.New("timeslot: invalid clock time")

// ParseClockTime parses an "HH:MM" value. Parsing goes through time.Parse
// with its zero reference date, so the date component is neutralized and only
// hours and minutes survive.
func ParseClockTime(value string) (ClockTime, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, value)
	}
	return ClockTime(parsed.Hour()*60 + parsed.Minute()), nil
}

// MustClockTime parses an "HH:MM" value and panics on failure. Intended for
// fixed catalog definitions and tests.
func MustClockTime(value string) ClockTime {
	t, err := ParseClockTime(value)
	if err != nil {
		panic(err)
	}
	return t
}

// String renders the clock time back to "HH:MM".
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Valid reports whether the clock time falls within a single day.
func (c ClockTime) Valid() bool {
	return c >= 0 && c < 24*60
}

// TimeSlot is an immutable catalog entry. Invariant: Start < End.
type TimeSlot struct {
	ID    string
	Start ClockTime
	End   ClockTime
	Label string
}

// Minutes returns the slot duration in minutes.
func (s TimeSlot) Minutes() int {
	return int(s.End - s.Start)
}

// Catalog is an ordered, immutable list of non-overlapping time slots.
type Catalog struct {
	slots []TimeSlot
}

// NewCatalog copies the provided slots into a catalog, preserving order.
func NewCatalog(slots []TimeSlot) *Catalog {
	copied := make([]TimeSlot, len(slots))
	copy(copied, slots)
	return &Catalog{slots: copied}
}

// Slots returns the catalog entries in definition order.
func (c *Catalog) Slots() []TimeSlot {
	if c == nil {
		return nil
	}
	out := make([]TimeSlot, len(c.slots))
	copy(out, c.slots)
	return out
}

// Len returns the number of slots in the catalog.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.slots)
}

// Lookup returns the slot with the given id.
func (c *Catalog) Lookup(id string) (TimeSlot, bool) {
	if c == nil {
		return TimeSlot{}, false
	}
	for _, slot := range c.slots {
		if slot.ID == id {
			return slot, true
		}
	}
	return TimeSlot{}, false
}

// Resolve maps a raw start/end pair to the catalog slot with exactly those
// bounds. Callers that work with ad-hoc windows may skip resolution and
// compare raw times directly.
func (c *Catalog) Resolve(start, end ClockTime) (TimeSlot, bool) {
	if c == nil {
		return TimeSlot{}, false
	}
	for _, slot := range c.slots {
		if slot.Start == start && slot.End == end {
			return slot, true
		}
	}
	return TimeSlot{}, false
}

// LectureCatalog returns the 60-minute period catalog used for theory
// classes and ad-hoc room bookings.
func LectureCatalog() *Catalog {
	return NewCatalog([]TimeSlot{
		{ID: "P1", Start: MustClockTime("09:00"), End: MustClockTime("10:00"), Label: "Period 1"},
		{ID: "P2", Start: MustClockTime("10:00"), End: MustClockTime("11:00"), Label: "Period 2"},
		{ID: "P3", Start: MustClockTime("11:00"), End: MustClockTime("12:00"), Label: "Period 3"},
		{ID: "P4", Start: MustClockTime("12:00"), End: MustClockTime("13:00"), Label: "Period 4"},
		{ID: "P5", Start: MustClockTime("14:00"), End: MustClockTime("15:00"), Label: "Period 5"},
		{ID: "P6", Start: MustClockTime("15:00"), End: MustClockTime("16:00"), Label: "Period 6"},
		{ID: "P7", Start: MustClockTime("16:00"), End: MustClockTime("17:00"), Label: "Period 7"},
	})
}

// BlockCatalog returns the 90-minute block catalog used for lab sessions and
// the routine builder.
func BlockCatalog() *Catalog {
	return NewCatalog([]TimeSlot{
		{ID: "B1", Start: MustClockTime("09:00"), End: MustClockTime("10:30"), Label: "Block 1"},
		{ID: "B2", Start: MustClockTime("10:30"), End: MustClockTime("12:00"), Label: "Block 2"},
		{ID: "B3", Start: MustClockTime("13:00"), End: MustClockTime("14:30"), Label: "Block 3"},
		{ID: "B4", Start: MustClockTime("14:30"), End: MustClockTime("16:00"), Label: "Block 4"},
	})
}
