package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/config"
	httptransport "github.com/example/campus-scheduler/internal/http"
	"github.com/example/campus-scheduler/internal/persistence/sqlite"
	"github.com/example/campus-scheduler/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := sqlite.Open(ctx, cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	userRepo := newUserRepositoryAdapter(sqlite.NewUserRepository(pool))
	resourceRepo := newResourceRepositoryAdapter(sqlite.NewResourceRepository(pool))
	timetableRepo := newTimetableRepositoryAdapter(sqlite.NewTimetableRepository(pool))
	bookingRepo := newBookingRepositoryAdapter(sqlite.NewBookingRepository(pool))
	sessionRepo := newSessionRepositoryAdapter(sqlite.NewSessionRepository(pool))
	credentialStore := newCredentialStoreAdapter(sqlite.NewUserRepository(pool))

	userService := application.NewUserServiceWithLogger(userRepo, idGenerator, now, logger)
	resourceService := application.NewResourceServiceWithLogger(resourceRepo, idGenerator, now, logger)
	timetableService := application.NewTimetableServiceWithLogger(timetableRepo, resourceRepo, bookingRepo, idGenerator, now, logger)
	bookingService := application.NewBookingServiceWithLogger(bookingRepo, resourceRepo, timetableRepo, idGenerator, now, logger)
	routineService := application.NewRoutineServiceWithLogger(timetableRepo, resourceRepo, bookingRepo, nil, idGenerator, now, logger)
	authService := application.NewAuthServiceWithLogger(credentialStore, sessionRepo, nil, tokenGenerator, now, cfg.SessionTTL, logger)

	if err := seedBootstrapPrincipal(ctx, userService, cfg.Bootstrap, logger); err != nil {
		logger.Error("failed to seed bootstrap principal", "error", err)
		os.Exit(1)
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:      httptransport.NewAuthHandler(authService, logger),
		Users:     httptransport.NewUserHandler(userService, logger),
		Resources: httptransport.NewResourceHandler(resourceService, logger),
		Timetable: httptransport.NewTimetableHandler(timetableService, logger),
		Bookings:  httptransport.NewBookingHandler(bookingService, logger),
		Routine:   httptransport.NewRoutineHandler(routineService, logger),
	})

	protected := httptransport.RequireSession(authService, logger)(router)
	handler := httptransport.RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Login is the only endpoint reachable without a session.
		if r.Method == http.MethodPost && r.URL.Path == "/sessions" {
			router.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	}))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("campus scheduler API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// seedBootstrapPrincipal creates the configured principal account when the
// user table is still empty. Every other account is created through the API
// by an authenticated principal, so a fresh database needs this one seeded.
func seedBootstrapPrincipal(ctx context.Context, users *application.UserService, bootstrap config.Bootstrap, logger *slog.Logger) error {
	if bootstrap.Email == "" || bootstrap.Password == "" {
		return nil
	}

	seeder := application.Principal{Role: scheduler.RolePrincipal}
	existing, err := users.ListUsers(ctx, seeder)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	displayName := bootstrap.DisplayName
	if displayName == "" {
		displayName = "Principal"
	}
	department := bootstrap.Department
	if department == "" {
		department = "administration"
	}

	user, err := users.CreateUser(ctx, application.CreateUserParams{
		Principal: seeder,
		Input: application.UserInput{
			Email:       bootstrap.Email,
			DisplayName: displayName,
			Password:    bootstrap.Password,
			Department:  department,
			Role:        string(scheduler.RolePrincipal),
		},
	})
	if err != nil {
		return err
	}
	logger.Info("seeded bootstrap principal", "user_id", user.ID, "email", user.Email)
	return nil
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
