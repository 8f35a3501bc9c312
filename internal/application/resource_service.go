package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/scheduler"
)

// ResourceRepository captures the persistence interactions needed by the
// resource service.
type ResourceRepository interface {
	CreateResource(ctx context.Context, resource Resource) (Resource, error)
	GetResource(ctx context.Context, id string) (Resource, error)
	UpdateResource(ctx context.Context, resource Resource) (Resource, error)
	ListResources(ctx context.Context, filter ResourceRepositoryFilter) ([]Resource, error)
}

// ResourceRepositoryFilter narrows queries issued to the resource repository.
type ResourceRepositoryFilter struct {
	Department string
	Type       string
	Shared     *bool
	Active     *bool
}

// ResourceService orchestrates validation, authorization, and persistence for
// the bookable resource catalog.
type ResourceService struct {
	resources   ResourceRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewResourceService constructs a resource service with the provided
// dependencies.
func NewResourceService(resources ResourceRepository, idGenerator func() string, now func() time.Time) *ResourceService {
	return NewResourceServiceWithLogger(resources, idGenerator, now, nil)
}

// NewResourceServiceWithLogger constructs a resource service with a specified
// logger.
func NewResourceServiceWithLogger(resources ResourceRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ResourceService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ResourceService{resources: resources, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *ResourceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ResourceService", operation, attrs...)
}

// CreateResource registers a new bookable asset. HODs create resources for
// their own department; principals may create for any department, including
// the shared university pool.
func (s *ResourceService) CreateResource(ctx context.Context, params CreateResourceParams) (resource Resource, err error) {
	if s == nil {
		err = fmt.Errorf("ResourceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateResource",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create resource", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("resource_id", resource.ID).InfoContext(ctx, "resource created")
	}()

	department := strings.TrimSpace(params.Input.Department)
	if department == "" {
		department = params.Principal.Department
	}

	if !canManageResourcesFor(params.Principal, department) {
		err = ErrUnauthorized
		return
	}

	vErr := validateResourceInput(params.Input, department)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	createdAt := s.now()
	resource = Resource{
		ID:         s.idGenerator(),
		Name:       strings.TrimSpace(params.Input.Name),
		Type:       scheduler.ResourceType(params.Input.Type),
		Capacity:   params.Input.Capacity,
		Department: department,
		Shared:     params.Input.Shared,
		Active:     true,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}

	if s.resources == nil {
		return
	}

	var persisted Resource
	persisted, err = s.resources.CreateResource(ctx, resource)
	if err != nil {
		return Resource{}, err
	}
	resource = persisted
	return
}

// UpdateResource mutates catalog attributes. Capacity and department are
// mutable by the owning department's HOD or a principal only.
func (s *ResourceService) UpdateResource(ctx context.Context, params UpdateResourceParams) (resource Resource, err error) {
	if s == nil {
		err = fmt.Errorf("ResourceService is nil")
		return
	}
	if s.resources == nil {
		err = fmt.Errorf("resource repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateResource",
		"principal_id", params.Principal.UserID,
		"resource_id", params.ResourceID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update resource", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "resource updated")
	}()

	existing, err := s.resources.GetResource(ctx, params.ResourceID)
	if err != nil {
		return Resource{}, err
	}

	if !canManageResourcesFor(params.Principal, existing.Department) {
		err = ErrUnauthorized
		return
	}

	department := strings.TrimSpace(params.Input.Department)
	if department == "" {
		department = existing.Department
	}
	if department != existing.Department && !canManageResourcesFor(params.Principal, department) {
		err = ErrUnauthorized
		return
	}

	vErr := validateResourceInput(params.Input, department)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	updated.Name = strings.TrimSpace(params.Input.Name)
	updated.Type = scheduler.ResourceType(params.Input.Type)
	updated.Capacity = params.Input.Capacity
	updated.Department = department
	updated.Shared = params.Input.Shared
	updated.UpdatedAt = s.now()

	resource, err = s.resources.UpdateResource(ctx, updated)
	return
}

// DeactivateResource disables a resource for new bookings without deleting
// its history.
func (s *ResourceService) DeactivateResource(ctx context.Context, principal Principal, resourceID string) (resource Resource, err error) {
	if s == nil {
		err = fmt.Errorf("ResourceService is nil")
		return
	}
	if s.resources == nil {
		err = fmt.Errorf("resource repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "DeactivateResource",
		"principal_id", principal.UserID,
		"resource_id", resourceID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to deactivate resource", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "resource deactivated")
	}()

	existing, err := s.resources.GetResource(ctx, resourceID)
	if err != nil {
		return Resource{}, err
	}

	if !canManageResourcesFor(principal, existing.Department) {
		err = ErrUnauthorized
		return
	}

	existing.Active = false
	existing.UpdatedAt = s.now()
	resource, err = s.resources.UpdateResource(ctx, existing)
	return
}

// GetResource retrieves a single catalog entry.
func (s *ResourceService) GetResource(ctx context.Context, resourceID string) (Resource, error) {
	if s == nil || s.resources == nil {
		return Resource{}, fmt.Errorf("resource repository not configured")
	}
	return s.resources.GetResource(ctx, resourceID)
}

// ListResources enumerates catalog entries visible to the caller. Listing is
// unrestricted: occupancy checks span department boundaries, so every
// department can see every resource.
func (s *ResourceService) ListResources(ctx context.Context, params ListResourcesParams) ([]Resource, error) {
	if s == nil || s.resources == nil {
		return nil, fmt.Errorf("resource repository not configured")
	}

	filter := ResourceRepositoryFilter{
		Department: params.Department,
		Type:       params.Type,
	}
	if params.SharedOnly {
		shared := true
		filter.Shared = &shared
	}
	if params.ActiveOnly {
		active := true
		filter.Active = &active
	}

	return s.resources.ListResources(ctx, filter)
}

func canManageResourcesFor(principal Principal, department string) bool {
	if principal.IsPrincipal() {
		return true
	}
	return principal.Role == scheduler.RoleHOD && principal.Department == department
}

func validateResourceInput(input ResourceInput, department string) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if !scheduler.KnownResourceType(scheduler.ResourceType(input.Type)) {
		vErr.add("type", "unknown resource type")
	}
	if input.Capacity <= 0 {
		vErr.add("capacity", "capacity must be positive")
	}
	if department == "" {
		vErr.add("department", "department is required")
	}

	return vErr
}
