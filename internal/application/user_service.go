package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/scheduler"
)

// UserRepository captures the persistence operations needed by the user
// service.
type UserRepository interface {
	CreateUser(ctx context.Context, user User, passwordHash string) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// UserService orchestrates validation, authorization, and persistence for
// staff accounts.
type UserService struct {
	users        UserRepository
	hashPassword func(password string) (string, error)
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewUserService constructs a user service with the provided dependencies.
func NewUserService(users UserRepository, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, idGenerator, now, nil)
}

// NewUserServiceWithLogger constructs a user service with a specified logger.
func NewUserServiceWithLogger(users UserRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		users: users,
		hashPassword: func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		},
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// CreateUser registers a staff account. Only principals create accounts; the
// role assigned is faculty, hod, or principal.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateUser",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "user created")
	}()

	if !params.Principal.IsPrincipal() {
		err = ErrUnauthorized
		return
	}

	normalized := normalizeUserInput(params.Input)
	vErr := validateUserInput(normalized)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var passwordHash string
	passwordHash, err = s.hashPassword(normalized.Password)
	if err != nil {
		return User{}, err
	}

	createdAt := s.now()
	user = User{
		ID:          s.idGenerator(),
		Email:       normalized.Email,
		DisplayName: normalized.DisplayName,
		Department:  normalized.Department,
		Role:        scheduler.Role(normalized.Role),
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}

	if s.users == nil {
		return
	}

	var persisted User
	persisted, err = s.users.CreateUser(ctx, user, passwordHash)
	if err != nil {
		return User{}, err
	}
	user = persisted
	return
}

// GetUser retrieves a single staff account.
func (s *UserService) GetUser(ctx context.Context, userID string) (User, error) {
	if s == nil || s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}
	return s.users.GetUser(ctx, userID)
}

// DisableUser locks a staff account out of authentication. Only principals
// disable accounts.
func (s *UserService) DisableUser(ctx context.Context, principal Principal, userID string) (user User, err error) {
	if s == nil || s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "DisableUser",
		"principal_id", principal.UserID,
		"user_id", userID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to disable user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user disabled")
	}()

	if !principal.IsPrincipal() {
		err = ErrUnauthorized
		return
	}

	existing, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return User{}, err
	}

	existing.Disabled = true
	existing.UpdatedAt = s.now()
	user, err = s.users.UpdateUser(ctx, existing)
	return
}

// ListUsers returns all staff accounts sorted by email. Only principals and
// HODs may enumerate accounts.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if principal.Role != scheduler.RolePrincipal && principal.Role != scheduler.RoleHOD {
		return nil, ErrUnauthorized
	}
	if s.users == nil {
		return nil, nil
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]User, len(users))
	copy(out, users)
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func normalizeUserInput(input UserInput) UserInput {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	input.Department = strings.TrimSpace(input.Department)
	input.Role = strings.TrimSpace(strings.ToLower(input.Role))
	return input
}

func validateUserInput(input UserInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		vErr.add("email", "email is malformed")
	}
	if input.DisplayName == "" {
		vErr.add("display_name", "display name is required")
	}
	if len(input.Password) < 8 {
		vErr.add("password", "password must be at least 8 characters")
	}
	if input.Department == "" {
		vErr.add("department", "department is required")
	}
	switch scheduler.Role(input.Role) {
	case scheduler.RoleFaculty, scheduler.RoleHOD, scheduler.RolePrincipal:
	default:
		vErr.add("role", "role must be faculty, hod, or principal")
	}

	return vErr
}
