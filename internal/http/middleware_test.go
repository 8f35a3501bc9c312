package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/scheduler"
)

type sessionValidatorStub struct {
	principal application.Principal
	err       error
	token     string
}

func (s *sessionValidatorStub) ValidateSession(ctx context.Context, token string) (application.Principal, error) {
	s.token = token
	if s.err != nil {
		return application.Principal{}, s.err
	}
	return s.principal, nil
}

func TestRequireSession_RejectsMissingToken(t *testing.T) {
	t.Parallel()

	validator := &sessionValidatorStub{}
	handler := RequireSession(validator, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run without a token")
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/resources", nil))

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
}

func TestRequireSession_RejectsExpiredSession(t *testing.T) {
	t.Parallel()

	validator := &sessionValidatorStub{err: application.ErrSessionExpired}
	handler := RequireSession(validator, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run with an expired session")
	}))

	req := httptest.NewRequest(http.MethodGet, "/resources", nil)
	req.Header.Set("Authorization", "Bearer stale-token")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
	if validator.token != "stale-token" {
		t.Fatalf("expected bearer token forwarded, got %q", validator.token)
	}
}

func TestRequireSession_AttachesPrincipal(t *testing.T) {
	t.Parallel()

	principal := application.Principal{UserID: "user-1", Department: "computer_science", Role: scheduler.RoleHOD}
	validator := &sessionValidatorStub{principal: principal}

	var captured application.Principal
	handler := RequireSession(validator, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := PrincipalFromContext(r.Context())
		if !ok {
			t.Fatal("expected principal in request context")
		}
		captured = got
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/resources", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: "valid-token"})
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", recorder.Code)
	}
	if captured != principal {
		t.Fatalf("unexpected principal: %+v", captured)
	}
	if validator.token != "valid-token" {
		t.Fatalf("expected cookie token forwarded, got %q", validator.token)
	}
}

func TestRequestLogger_PropagatesContextLogger(t *testing.T) {
	t.Parallel()

	handler := RequestLogger(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if LoggerFromContext(r.Context()) == nil {
			t.Fatal("expected request scoped logger in context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/resources", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
}
