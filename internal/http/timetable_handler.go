package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/recurrence"
)

type timetableService interface {
	CreateEntry(ctx context.Context, params application.CreateTimetableEntryParams) (application.TimetableEntry, error)
	DeleteEntry(ctx context.Context, principal application.Principal, entryID string) error
	ListEntries(ctx context.Context, params application.ListTimetableParams) ([]application.TimetableEntry, error)
	CheckSlot(ctx context.Context, params application.CheckSlotParams) (application.SlotReport, error)
	ExpandOccurrences(ctx context.Context, params application.ExpandTimetableParams) ([]recurrence.Occurrence, error)
}

type TimetableHandler struct {
	service   timetableService
	responder responder
}

func NewTimetableHandler(service timetableService, logger *slog.Logger) *TimetableHandler {
	return &TimetableHandler{service: service, responder: newResponder(logger)}
}

func (h *TimetableHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req timetableEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	entry, err := h.service.CreateEntry(r.Context(), application.CreateTimetableEntryParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toTimetableEntryDTO(entry))
}

func (h *TimetableHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	entryID, ok := EntryIDFromContext(r.Context())
	if !ok || strings.TrimSpace(entryID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEntryID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteEntry(r.Context(), principal, entryID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *TimetableHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	entries, err := h.service.ListEntries(r.Context(), buildListTimetableParams(r.URL.Query(), principal))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]timetableEntryDTO, 0, len(entries))
	for _, entry := range entries {
		dtos = append(dtos, toTimetableEntryDTO(entry))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listTimetableResponse{Entries: dtos})
}

// CheckSlot answers availability queries. The response always reports the
// confirmed conflicts and pending warnings separately so clients can warn
// without blocking.
func (h *TimetableHandler) CheckSlot(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	principal, _ := PrincipalFromContext(r.Context())

	dayOfWeek, err := strconv.Atoi(strings.TrimSpace(query.Get("day_of_week")))
	if err != nil {
		dayOfWeek = -1
	}

	report, err := h.service.CheckSlot(r.Context(), application.CheckSlotParams{
		Principal:  principal,
		ResourceID: resolveResourceID(query.Get("resource_id"), query.Get("classroom_id")),
		DayOfWeek:  dayOfWeek,
		StartTime:  strings.TrimSpace(query.Get("start_time")),
		EndTime:    strings.TrimSpace(query.Get("end_time")),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, slotReportDTO{
		Free:      report.Free,
		Conflicts: toOccupantDTOs(report.Conflicts),
		Pending:   toOccupantDTOs(report.Pending),
	})
}

// Occurrences projects the weekly schedule onto concrete dates. The "from"
// and "to" query parameters are YYYY-MM-DD and both bound days are included.
func (h *TimetableHandler) Occurrences(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	principal, _ := PrincipalFromContext(r.Context())

	from, err := time.Parse("2006-01-02", strings.TrimSpace(query.Get("from")))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDateRange)
		return
	}
	to, err := time.Parse("2006-01-02", strings.TrimSpace(query.Get("to")))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDateRange)
		return
	}

	occurrences, err := h.service.ExpandOccurrences(r.Context(), application.ExpandTimetableParams{
		Principal:  principal,
		ResourceID: resolveResourceID(query.Get("resource_id"), query.Get("classroom_id")),
		Department: strings.TrimSpace(query.Get("department")),
		From:       from,
		To:         to,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]occurrenceDTO, 0, len(occurrences))
	for _, occurrence := range occurrences {
		dtos = append(dtos, occurrenceDTO{
			EntryID:    occurrence.RefID,
			ResourceID: occurrence.ResourceID,
			Course:     occurrence.Title,
			Department: occurrence.Department,
			Date:       occurrence.Start.Format("2006-01-02"),
			StartTime:  occurrence.Start.Format("15:04"),
			EndTime:    occurrence.End.Format("15:04"),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listOccurrencesResponse{Occurrences: dtos})
}

func buildListTimetableParams(query url.Values, principal application.Principal) application.ListTimetableParams {
	params := application.ListTimetableParams{
		Principal:  principal,
		ResourceID: resolveResourceID(query.Get("resource_id"), query.Get("classroom_id")),
		Department: strings.TrimSpace(query.Get("department")),
	}
	if raw := strings.TrimSpace(query.Get("day_of_week")); raw != "" {
		if day, err := strconv.Atoi(raw); err == nil {
			params.DayOfWeek = &day
		}
	}
	return params
}

// resolveResourceID accepts both the canonical resource_id key and the
// legacy classroom_id alias still used by older clients.
func resolveResourceID(resourceID, classroomID string) string {
	if id := strings.TrimSpace(resourceID); id != "" {
		return id
	}
	return strings.TrimSpace(classroomID)
}

type timetableEntryRequest struct {
	ResourceID  string `json:"resource_id"`
	ClassroomID string `json:"classroom_id"`
	DayOfWeek   int    `json:"day_of_week"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Course      string `json:"course"`
	Instructor  string `json:"instructor"`
	Department  string `json:"department"`
}

func (r timetableEntryRequest) toInput() application.TimetableEntryInput {
	return application.TimetableEntryInput{
		ResourceID: resolveResourceID(r.ResourceID, r.ClassroomID),
		DayOfWeek:  r.DayOfWeek,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
		Course:     r.Course,
		Instructor: r.Instructor,
		Department: r.Department,
	}
}

type timetableEntryDTO struct {
	ID         string `json:"id"`
	ResourceID string `json:"resource_id"`
	DayOfWeek  int    `json:"day_of_week"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Course     string `json:"course"`
	Instructor string `json:"instructor,omitempty"`
	Department string `json:"department"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type listTimetableResponse struct {
	Entries []timetableEntryDTO `json:"entries"`
}

type occurrenceDTO struct {
	EntryID    string `json:"entry_id"`
	ResourceID string `json:"resource_id"`
	Course     string `json:"course"`
	Department string `json:"department"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

type listOccurrencesResponse struct {
	Occurrences []occurrenceDTO `json:"occurrences"`
}

type slotReportDTO struct {
	Free      bool          `json:"free"`
	Conflicts []occupantDTO `json:"conflicts,omitempty"`
	Pending   []occupantDTO `json:"pending,omitempty"`
}

func toTimetableEntryDTO(entry application.TimetableEntry) timetableEntryDTO {
	return timetableEntryDTO{
		ID:         entry.ID,
		ResourceID: entry.ResourceID,
		DayOfWeek:  int(entry.DayOfWeek),
		StartTime:  entry.StartTime.String(),
		EndTime:    entry.EndTime.String(),
		Course:     entry.Course,
		Instructor: entry.Instructor,
		Department: entry.Department,
		CreatedAt:  entry.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  entry.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
