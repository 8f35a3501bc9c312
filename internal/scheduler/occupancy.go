package scheduler

// OccupantKind identifies which authoritative source an occupant came from.
type OccupantKind string

const (
	// KindClassSession marks a standing timetable entry.
	KindClassSession OccupantKind = "class_session"
	// KindApprovedBooking marks an approved ad-hoc booking request.
	KindApprovedBooking OccupantKind = "approved_booking"
	// KindPendingRequest marks a pending booking request awaiting approval.
	KindPendingRequest OccupantKind = "pending_request"
)

// Occupant is the canonical occupancy record the resolver compares against.
// Callers normalize timetable entries and booking requests into this shape at
// the boundary; the matching logic below only ever sees normalized
// (ResourceID, Window) tuples.
type Occupant struct {
	Kind       OccupantKind
	RefID      string
	ResourceID string
	Window     Window
	// Descriptive fields carried through for user-facing conflict detail.
	Title      string
	Department string
	HeldBy     string
}

// Blocks reports whether the occupant hard-blocks a slot. Pending requests
// never block; they are surfaced as soft warnings only.
func (o Occupant) Blocks() bool {
	return o.Kind == KindClassSession || o.Kind == KindApprovedBooking
}

// Candidate describes a proposed reservation under evaluation.
type Candidate struct {
	ResourceID string
	Window     Window
}

// FindConflicts returns every confirmed occupant (class session or approved
// booking) of the candidate's resource whose window overlaps the candidate
// window. Source order in the input is preserved in the result so callers can
// report timetable entries ahead of bookings.
func FindConflicts(existing []Occupant, candidate Candidate) []Occupant {
	return screen(existing, candidate, true)
}

// FindPending returns pending requests that overlap the candidate slot. These
// do not block creation of another request; first approval wins.
func FindPending(existing []Occupant, candidate Candidate) []Occupant {
	return screen(existing, candidate, false)
}

func screen(existing []Occupant, candidate Candidate, blocking bool) []Occupant {
	var matched []Occupant
	for _, occupant := range existing {
		if occupant.Blocks() != blocking {
			continue
		}
		if occupant.ResourceID != candidate.ResourceID {
			continue
		}
		if !occupant.Window.Overlaps(candidate.Window) {
			continue
		}
		matched = append(matched, occupant)
	}
	return matched
}

// Exclude filters out the occupant with the given reference id. Used when
// re-validating a request at approval time so the request does not conflict
// with itself.
func Exclude(occupants []Occupant, refID string) []Occupant {
	if refID == "" {
		return occupants
	}
	out := make([]Occupant, 0, len(occupants))
	for _, occupant := range occupants {
		if occupant.RefID == refID {
			continue
		}
		out = append(out, occupant)
	}
	return out
}
