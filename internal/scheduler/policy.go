package scheduler

// Role identifies the authority level of a requester or approver.
type Role string

const (
	// RoleFaculty is a regular department member without approval authority.
	RoleFaculty Role = "faculty"
	// RoleHOD is a head of department with authority over that department's
	// resources.
	RoleHOD Role = "hod"
	// RolePrincipal is an institution-level administrator with authority over
	// shared resources and cross-department approvals.
	RolePrincipal Role = "principal"
)

// SharedDepartment is the sentinel owner name for the university-wide pool.
const SharedDepartment = "university"

// Requester identifies the actor attempting a booking or approval.
type Requester struct {
	UserID     string
	Department string
	Role       Role
}

// Elevated reports whether the requester holds institution-level authority.
func (r Requester) Elevated() bool {
	return r.Role == RolePrincipal
}

// ResourceInfo is the resource view the policy gate and generator need.
type ResourceInfo struct {
	ID         string
	Name       string
	Type       ResourceType
	Capacity   int
	Department string
	Shared     bool
	Active     bool
}

// ResourceType classifies bookable physical assets.
type ResourceType string

const (
	TypeClassroom      ResourceType = "classroom"
	TypeLab            ResourceType = "lab"
	TypeSeminarHall    ResourceType = "seminar_hall"
	TypeConferenceRoom ResourceType = "conference_room"
	TypeAuditorium     ResourceType = "auditorium"
	TypeEquipment      ResourceType = "equipment"
)

// KnownResourceType reports whether the value is a recognized resource type.
func KnownResourceType(t ResourceType) bool {
	switch t {
	case TypeClassroom, TypeLab, TypeSeminarHall, TypeConferenceRoom, TypeAuditorium, TypeEquipment:
		return true
	}
	return false
}

// Decision is the policy gate outcome for a booking creation attempt.
type Decision int

const (
	// DecisionDeny rejects the attempt outright.
	DecisionDeny Decision = iota
	// DecisionApprove grants the booking immediately, subject to the slot
	// being free.
	DecisionApprove
	// DecisionQueue creates the request in pending state for the owning
	// department's approver.
	DecisionQueue
)

// DecideBooking applies the cross-department approval policy at creation
// time. The occupancy check is separate: an Approve outcome still requires
// the slot to be free.
func DecideBooking(requester Requester, resource ResourceInfo) (Decision, string) {
	if !resource.Active {
		return DecisionDeny, "resource is not available for booking"
	}
	if requester.Department != "" && requester.Department == resource.Department {
		return DecisionApprove, "requester's department owns the resource"
	}
	if resource.Shared && requester.Elevated() {
		return DecisionApprove, "principal has direct booking authority"
	}
	if resource.Shared || requester.Elevated() {
		return DecisionQueue, "cross-department booking requires approval by " + resource.Department
	}
	return DecisionDeny, "resource is not shared outside " + resource.Department
}

// CanApprove reports whether the actor may approve or reject requests
// targeting the given department. Principals approve everywhere, including
// the shared university pool; HODs only within their own department.
func CanApprove(actor Requester, targetDepartment string) bool {
	if actor.Role == RolePrincipal {
		return true
	}
	return actor.Role == RoleHOD && actor.Department == targetDepartment
}

// RequestStatus is the lifecycle state of a booking request.
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusCancelled RequestStatus = "cancelled"
)

// Terminal reports whether no further transition is permitted from the
// status.
func (s RequestStatus) Terminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// ValidTransition reports whether a status change is permitted. Only pending
// requests move; approved, rejected, and cancelled are terminal.
func ValidTransition(from, to RequestStatus) bool {
	if from != StatusPending {
		return false
	}
	switch to {
	case StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}
