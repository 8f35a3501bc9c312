package testfixtures

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/scheduler"
)

type capturingUserRepo struct {
	created     application.User
	createdHash string
}

func (c *capturingUserRepo) CreateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	c.created = user
	c.createdHash = passwordHash
	return user, nil
}

func (c *capturingUserRepo) GetUser(ctx context.Context, id string) (application.User, error) {
	return application.User{}, application.ErrNotFound
}

func (c *capturingUserRepo) UpdateUser(ctx context.Context, user application.User) (application.User, error) {
	return user, nil
}

func (c *capturingUserRepo) ListUsers(ctx context.Context) ([]application.User, error) {
	return nil, nil
}

func TestServiceFactory_NewUserService(t *testing.T) {
	factory := NewServiceFactory()
	repo := &capturingUserRepo{}

	svc := factory.NewUserService(UserServiceDeps{Users: repo})
	principal := application.Principal{UserID: "admin", Role: scheduler.RolePrincipal}
	input := application.UserInput{
		Email:       "user@example.edu",
		DisplayName: "User",
		Password:    "long-enough-password",
		Department:  "computer_science",
		Role:        "faculty",
	}

	user, err := svc.CreateUser(context.Background(), application.CreateUserParams{Principal: principal, Input: input})
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	if user.ID != "id-1" {
		t.Fatalf("expected generated ID id-1, got %q", user.ID)
	}
	if repo.created.ID != user.ID {
		t.Fatalf("repository received unexpected ID: %q", repo.created.ID)
	}
	if repo.createdHash == "" || repo.createdHash == input.Password {
		t.Fatalf("expected hashed password to reach the repository, got %q", repo.createdHash)
	}
	if !user.CreatedAt.Equal(factory.Clock.Current()) {
		t.Fatalf("expected timestamp %v, got %v", factory.Clock.Current(), user.CreatedAt)
	}
}

func TestSQLiteHarness_BookingLifecycle(t *testing.T) {
	harness := NewSQLiteHarness(t)
	ctx := context.Background()

	requester := NewUserFixture(WithUserDepartment("mathematics"))
	if err := harness.Users.CreateUser(ctx, requester.AsPersistence()); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	lab := NewResourceFixture(WithResourceType(scheduler.TypeLab), WithResourceShared())
	if err := harness.Resources.CreateResource(ctx, lab.AsPersistence()); err != nil {
		t.Fatalf("failed to seed resource: %v", err)
	}

	booking := NewBookingRequestFixture(
		WithBookingRequester(requester.ID, requester.Department),
		WithBookingResource(lab.ID),
		WithBookingWindow(time.Tuesday, "14:00", "16:00"),
	)
	if err := harness.Bookings.CreateRequest(ctx, booking.AsPersistence()); err != nil {
		t.Fatalf("failed to create booking request: %v", err)
	}

	approver := "hod-1"
	decided := ReferenceTime().Add(2 * time.Hour)
	approved, err := harness.Bookings.TransitionRequest(ctx, persistence.BookingTransition{
		RequestID:  booking.ID,
		From:       string(scheduler.StatusPending),
		To:         string(scheduler.StatusApproved),
		ApproverID: &approver,
		DecidedAt:  &decided,
	})
	if err != nil {
		t.Fatalf("TransitionRequest returned error: %v", err)
	}
	if approved.Status != string(scheduler.StatusApproved) {
		t.Fatalf("expected approved status, got %q", approved.Status)
	}
	if approved.ApproverID == nil || *approved.ApproverID != approver {
		t.Fatalf("expected approver to be recorded, got %+v", approved.ApproverID)
	}

	// A second transition from pending must fail: the stored status moved on.
	_, err = harness.Bookings.TransitionRequest(ctx, persistence.BookingTransition{
		RequestID: booking.ID,
		From:      string(scheduler.StatusPending),
		To:        string(scheduler.StatusRejected),
	})
	if !errors.Is(err, persistence.ErrStaleTransition) {
		t.Fatalf("expected stale transition error, got %v", err)
	}
}

func TestSQLiteHarness_TimetableRoundTrip(t *testing.T) {
	harness := NewSQLiteHarness(t)
	ctx := context.Background()

	room := NewResourceFixture()
	if err := harness.Resources.CreateResource(ctx, room.AsPersistence()); err != nil {
		t.Fatalf("failed to seed resource: %v", err)
	}

	entry := NewTimetableEntryFixture(
		WithEntryResource(room.ID),
		WithEntryWindow(time.Wednesday, "11:00", "12:00"),
	)
	if err := harness.Timetable.CreateEntry(ctx, entry.AsPersistence()); err != nil {
		t.Fatalf("failed to create entry: %v", err)
	}

	day := int(time.Wednesday)
	listed, err := harness.Timetable.ListEntries(ctx, persistence.TimetableFilter{
		ResourceID: room.ID,
		DayOfWeek:  &day,
	})
	if err != nil {
		t.Fatalf("ListEntries returned error: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != entry.ID {
		t.Fatalf("expected seeded entry in listing, got %+v", listed)
	}
	if listed[0].StartTime != "11:00" || listed[0].EndTime != "12:00" {
		t.Fatalf("unexpected stored window: %s-%s", listed[0].StartTime, listed[0].EndTime)
	}
}
