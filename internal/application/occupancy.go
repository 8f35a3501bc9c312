package application

import (
	"context"
	"errors"
	"time"

	"github.com/example/campus-scheduler/internal/scheduler"
)

// occupancySources aggregates the three authoritative occupancy feeds for a
// resource and day: standing timetable entries, approved bookings, and
// pending requests. Everything is normalized into scheduler.Occupant here so
// the comparison logic never sees source-specific shapes.
type occupancySources struct {
	timetable TimetableRepository
	bookings  BookingRepository
}

// occupantsFor returns all occupants of a resource on a day, timetable
// entries first, then approved bookings, then pending requests. The order
// fixes conflict reporting precedence; screening checks every occupant
// regardless.
func (s occupancySources) occupantsFor(ctx context.Context, resourceID string, day time.Weekday) ([]scheduler.Occupant, error) {
	var occupants []scheduler.Occupant

	if s.timetable != nil {
		dayFilter := int(day)
		entries, err := s.timetable.ListEntries(ctx, TimetableRepositoryFilter{ResourceID: resourceID, DayOfWeek: &dayFilter})
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		for _, entry := range entries {
			occupants = append(occupants, entryOccupant(entry))
		}
	}

	if s.bookings != nil {
		for _, status := range []scheduler.RequestStatus{scheduler.StatusApproved, scheduler.StatusPending} {
			requests, err := s.bookings.ListRequests(ctx, BookingRepositoryFilter{ResourceID: resourceID, Status: status})
			if err != nil && !errors.Is(err, ErrNotFound) {
				return nil, err
			}
			for _, request := range requests {
				if request.DayOfWeek != day {
					continue
				}
				occupants = append(occupants, bookingOccupant(request))
			}
		}
	}

	return occupants, nil
}

func entryOccupant(entry TimetableEntry) scheduler.Occupant {
	return scheduler.Occupant{
		Kind:       scheduler.KindClassSession,
		RefID:      entry.ID,
		ResourceID: entry.ResourceID,
		Window:     entry.Window(),
		Title:      entry.Course,
		Department: entry.Department,
		HeldBy:     entry.Instructor,
	}
}

func bookingOccupant(request BookingRequest) scheduler.Occupant {
	kind := scheduler.KindPendingRequest
	if request.Status == scheduler.StatusApproved {
		kind = scheduler.KindApprovedBooking
	}
	return scheduler.Occupant{
		Kind:       kind,
		RefID:      request.ID,
		ResourceID: request.ResourceID,
		Window:     request.Window(),
		Title:      request.Purpose,
		Department: request.RequesterDepartment,
		HeldBy:     request.RequesterID,
	}
}
