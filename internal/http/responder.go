package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/scheduler"
)

var (
	errBadRequestBody      = errors.New("the request body could not be parsed")
	errInvalidResourceID   = errors.New("a valid resource id is required")
	errInvalidEntryID      = errors.New("a valid timetable entry id is required")
	errInvalidUserID       = errors.New("a valid user id is required")
	errInvalidBookingID    = errors.New("a valid booking request id is required")
	errInvalidBookingDate  = errors.New("the booking date must be in YYYY-MM-DD format")
	errInvalidDateRange    = errors.New("the from and to dates must be in YYYY-MM-DD format")
	errMissingSessionToken = errors.New("a session token is required")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError maps application layer errors to HTTP responses. Slot
// conflicts and approval races carry the blocking occupants so clients can
// explain exactly what holds the slot.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "you are not allowed to perform this operation",
		})
		return
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "the requested record was not found"})
		return
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "ALREADY_EXISTS",
			Message:   "a record with the same unique attributes already exists",
		})
		return
	}

	// StaleApprovalError unwraps to SlotConflictError, so it must be checked
	// first.
	var staleErr *application.StaleApprovalError
	if errors.As(err, &staleErr) {
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "STALE_APPROVAL",
			Message:   "the slot was filled before this request could be approved",
			Conflicts: toOccupantDTOs(staleErr.Conflict.Occupants),
		})
		return
	}
	var conflictErr *application.SlotConflictError
	if errors.As(err, &conflictErr) {
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "SLOT_CONFLICT",
			Message:   "the requested slot overlaps an existing booking or class",
			Conflicts: toOccupantDTOs(conflictErr.Occupants),
		})
		return
	}
	var transitionErr *application.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "INVALID_TRANSITION",
			Message:   transitionErr.Error(),
		})
		return
	}
	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			Message: "the request contains invalid fields",
			Errors:  vErr.FieldErrors,
		})
		return
	}

	r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "an internal error occurred"})
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
	Conflicts []occupantDTO     `json:"conflicts,omitempty"`
}

type occupantDTO struct {
	Kind       string `json:"kind"`
	RefID      string `json:"ref_id"`
	ResourceID string `json:"resource_id"`
	DayOfWeek  int    `json:"day_of_week"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Title      string `json:"title,omitempty"`
	Department string `json:"department,omitempty"`
	HeldBy     string `json:"held_by,omitempty"`
}

func toOccupantDTO(occupant scheduler.Occupant) occupantDTO {
	return occupantDTO{
		Kind:       string(occupant.Kind),
		RefID:      occupant.RefID,
		ResourceID: occupant.ResourceID,
		DayOfWeek:  int(occupant.Window.Day),
		StartTime:  occupant.Window.Start.String(),
		EndTime:    occupant.Window.End.String(),
		Title:      occupant.Title,
		Department: occupant.Department,
		HeldBy:     occupant.HeldBy,
	}
}

func toOccupantDTOs(occupants []scheduler.Occupant) []occupantDTO {
	if len(occupants) == 0 {
		return nil
	}
	out := make([]occupantDTO, len(occupants))
	for i, occupant := range occupants {
		out[i] = toOccupantDTO(occupant)
	}
	return out
}
