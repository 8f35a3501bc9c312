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
)

type resourceService interface {
	CreateResource(ctx context.Context, params application.CreateResourceParams) (application.Resource, error)
	UpdateResource(ctx context.Context, params application.UpdateResourceParams) (application.Resource, error)
	DeactivateResource(ctx context.Context, principal application.Principal, resourceID string) (application.Resource, error)
	GetResource(ctx context.Context, resourceID string) (application.Resource, error)
	ListResources(ctx context.Context, params application.ListResourcesParams) ([]application.Resource, error)
}

type ResourceHandler struct {
	service   resourceService
	responder responder
}

func NewResourceHandler(service resourceService, logger *slog.Logger) *ResourceHandler {
	return &ResourceHandler{service: service, responder: newResponder(logger)}
}

func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req resourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	resource, err := h.service.CreateResource(r.Context(), application.CreateResourceParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toResourceDTO(resource))
}

func (h *ResourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(resourceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	var req resourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	resource, err := h.service.UpdateResource(r.Context(), application.UpdateResourceParams{
		Principal:  principal,
		ResourceID: resourceID,
		Input:      req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toResourceDTO(resource))
}

// Deactivate handles DELETE on a resource. Resources are never removed, only
// closed to new bookings.
func (h *ResourceHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(resourceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	resource, err := h.service.DeactivateResource(r.Context(), principal, resourceID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toResourceDTO(resource))
}

func (h *ResourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(resourceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	resource, err := h.service.GetResource(r.Context(), resourceID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toResourceDTO(resource))
}

func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	resources, err := h.service.ListResources(r.Context(), buildListResourcesParams(r.URL.Query(), principal))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]resourceDTO, 0, len(resources))
	for _, resource := range resources {
		dtos = append(dtos, toResourceDTO(resource))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listResourcesResponse{Resources: dtos})
}

func buildListResourcesParams(query url.Values, principal application.Principal) application.ListResourcesParams {
	return application.ListResourcesParams{
		Principal:  principal,
		Department: strings.TrimSpace(query.Get("department")),
		Type:       strings.TrimSpace(query.Get("type")),
		SharedOnly: query.Get("shared") == "true",
		ActiveOnly: query.Get("active") == "true",
	}
}

type resourceRequest struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Capacity   int    `json:"capacity"`
	Department string `json:"department"`
	Shared     bool   `json:"shared"`
}

func (r resourceRequest) toInput() application.ResourceInput {
	return application.ResourceInput{
		Name:       r.Name,
		Type:       r.Type,
		Capacity:   r.Capacity,
		Department: r.Department,
		Shared:     r.Shared,
	}
}

type resourceDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Capacity   int    `json:"capacity"`
	Department string `json:"department"`
	Shared     bool   `json:"shared"`
	Active     bool   `json:"active"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type listResourcesResponse struct {
	Resources []resourceDTO `json:"resources"`
}

func toResourceDTO(resource application.Resource) resourceDTO {
	return resourceDTO{
		ID:         resource.ID,
		Name:       resource.Name,
		Type:       string(resource.Type),
		Capacity:   resource.Capacity,
		Department: resource.Department,
		Shared:     resource.Shared,
		Active:     resource.Active,
		CreatedAt:  resource.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  resource.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
