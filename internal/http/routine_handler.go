package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/campus-scheduler/internal/application"
)

type routineService interface {
	GenerateRoutine(ctx context.Context, params application.GenerateRoutineParams) (application.GenerateRoutineResult, error)
}

type RoutineHandler struct {
	service   routineService
	responder responder
}

func NewRoutineHandler(service routineService, logger *slog.Logger) *RoutineHandler {
	return &RoutineHandler{service: service, responder: newResponder(logger)}
}

// Generate builds a weekly routine proposal for a department. Set "commit"
// to persist the placements as timetable entries.
func (h *RoutineHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req generateRoutineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	result, err := h.service.GenerateRoutine(r.Context(), application.GenerateRoutineParams{
		Principal:  principal,
		Department: req.Department,
		Courses:    toCourseInputs(req.Courses),
		Commit:     req.Commit,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	entries := make([]timetableEntryDTO, 0, len(result.Entries))
	for _, entry := range result.Entries {
		entries = append(entries, toTimetableEntryDTO(entry))
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, generateRoutineResponse{
		Entries:  entries,
		Unplaced: result.Unplaced,
	})
}

type courseRequest struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Instructor     string `json:"instructor"`
	Kind           string `json:"kind"`
	WeeklySessions int    `json:"weekly_sessions"`
	ClassSize      int    `json:"class_size"`
}

type generateRoutineRequest struct {
	Department string          `json:"department"`
	Courses    []courseRequest `json:"courses"`
	Commit     bool            `json:"commit"`
}

type generateRoutineResponse struct {
	Entries  []timetableEntryDTO `json:"entries"`
	Unplaced map[string]int      `json:"unplaced,omitempty"`
}

func toCourseInputs(courses []courseRequest) []application.CourseInput {
	out := make([]application.CourseInput, 0, len(courses))
	for _, course := range courses {
		out = append(out, application.CourseInput{
			ID:             course.ID,
			Title:          course.Title,
			Instructor:     course.Instructor,
			Kind:           course.Kind,
			WeeklySessions: course.WeeklySessions,
			ClassSize:      course.ClassSize,
		})
	}
	return out
}
