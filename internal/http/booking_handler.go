package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/scheduler"
)

type bookingService interface {
	CreateRequest(ctx context.Context, params application.CreateBookingParams) (application.BookingRequest, []scheduler.Occupant, error)
	ApproveRequest(ctx context.Context, params application.DecideBookingParams) (application.BookingRequest, error)
	RejectRequest(ctx context.Context, params application.DecideBookingParams) (application.BookingRequest, error)
	CancelRequest(ctx context.Context, params application.CancelBookingParams) (application.BookingRequest, error)
	GetRequest(ctx context.Context, requestID string) (application.BookingRequest, error)
	ListRequests(ctx context.Context, params application.ListBookingsParams) ([]application.BookingRequest, error)
}

type BookingHandler struct {
	service   bookingService
	responder responder
}

func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{service: service, responder: newResponder(logger)}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req bookingRequestDTOIn
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	request, warnings, err := h.service.CreateRequest(r.Context(), application.CreateBookingParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, bookingResponse{
		Request:  toBookingDTO(request),
		Warnings: toOccupantDTOs(warnings),
	})
}

func (h *BookingHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "approve")
}

func (h *BookingHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "reject")
}

func (h *BookingHandler) decide(w http.ResponseWriter, r *http.Request, action string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := BookingIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	var req decisionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
			return
		}
	}

	principal, _ := PrincipalFromContext(r.Context())
	params := application.DecideBookingParams{
		Principal: principal,
		RequestID: bookingID,
		Notes:     req.Notes,
	}

	var (
		request application.BookingRequest
		err     error
	)
	if action == "approve" {
		request, err = h.service.ApproveRequest(r.Context(), params)
	} else {
		request, err = h.service.RejectRequest(r.Context(), params)
	}
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Request: toBookingDTO(request)})
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := BookingIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	var req decisionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
			return
		}
	}

	principal, _ := PrincipalFromContext(r.Context())

	request, err := h.service.CancelRequest(r.Context(), application.CancelBookingParams{
		Principal: principal,
		RequestID: bookingID,
		Reason:    req.Notes,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Request: toBookingDTO(request)})
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := BookingIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	request, err := h.service.GetRequest(r.Context(), bookingID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Request: toBookingDTO(request)})
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	requests, err := h.service.ListRequests(r.Context(), buildListBookingsParams(r.URL.Query(), principal))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]bookingDTO, 0, len(requests))
	for _, request := range requests {
		dtos = append(dtos, toBookingDTO(request))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingsResponse{Requests: dtos})
}

func buildListBookingsParams(query url.Values, principal application.Principal) application.ListBookingsParams {
	return application.ListBookingsParams{
		Principal:        principal,
		ResourceID:       resolveResourceID(query.Get("resource_id"), query.Get("classroom_id")),
		Status:           strings.TrimSpace(query.Get("status")),
		TargetDepartment: strings.TrimSpace(query.Get("target_department")),
		Mine:             query.Get("mine") == "true",
	}
}

type bookingRequestDTOIn struct {
	ResourceID  string `json:"resource_id"`
	ClassroomID string `json:"classroom_id"`
	DayOfWeek   int    `json:"day_of_week"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Purpose     string `json:"purpose"`
	Attendance  int    `json:"attendance"`
}

func (r bookingRequestDTOIn) toInput() (application.BookingInput, error) {
	input := application.BookingInput{
		ResourceID: resolveResourceID(r.ResourceID, r.ClassroomID),
		DayOfWeek:  r.DayOfWeek,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
		Purpose:    r.Purpose,
		Attendance: r.Attendance,
	}
	if raw := strings.TrimSpace(r.Date); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return application.BookingInput{}, errInvalidBookingDate
		}
		input.Date = &date
		input.DayOfWeek = int(date.Weekday())
	}
	return input, nil
}

type decisionRequest struct {
	Notes string `json:"notes"`
}

type bookingDTO struct {
	ID                  string  `json:"id"`
	RequesterID         string  `json:"requester_id"`
	RequesterDepartment string  `json:"requester_department"`
	ResourceID          string  `json:"resource_id"`
	TargetDepartment    string  `json:"target_department"`
	DayOfWeek           int     `json:"day_of_week"`
	Date                *string `json:"date,omitempty"`
	StartTime           string  `json:"start_time"`
	EndTime             string  `json:"end_time"`
	Purpose             string  `json:"purpose"`
	Attendance          int     `json:"attendance"`
	Status              string  `json:"status"`
	ApproverID          *string `json:"approver_id,omitempty"`
	DecidedAt           *string `json:"decided_at,omitempty"`
	Notes               *string `json:"notes,omitempty"`
	CreatedAt           string  `json:"created_at"`
	UpdatedAt           string  `json:"updated_at"`
}

type bookingResponse struct {
	Request  bookingDTO    `json:"request"`
	Warnings []occupantDTO `json:"warnings,omitempty"`
}

type listBookingsResponse struct {
	Requests []bookingDTO `json:"requests"`
}

func toBookingDTO(request application.BookingRequest) bookingDTO {
	dto := bookingDTO{
		ID:                  request.ID,
		RequesterID:         request.RequesterID,
		RequesterDepartment: request.RequesterDepartment,
		ResourceID:          request.ResourceID,
		TargetDepartment:    request.TargetDepartment,
		DayOfWeek:           int(request.DayOfWeek),
		StartTime:           request.StartTime.String(),
		EndTime:             request.EndTime.String(),
		Purpose:             request.Purpose,
		Attendance:          request.Attendance,
		Status:              string(request.Status),
		ApproverID:          request.ApproverID,
		Notes:               request.Notes,
		CreatedAt:           request.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:           request.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if request.Date != nil {
		date := request.Date.Format("2006-01-02")
		dto.Date = &date
	}
	if request.DecidedAt != nil {
		decided := request.DecidedAt.UTC().Format(time.RFC3339)
		dto.DecidedAt = &decided
	}
	return dto
}
