package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/internal/testutil"
)

func setupRepo(t *testing.T) (context.Context, *Repository) {
	t.Helper()

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect database: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() { _ = unlock() })

	if err := testutil.ResetSchema(ctx, repo.Pool(), repo); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	return ctx, repo
}

func newTestUser(email string) *model.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.User{
		ID:             ulid.Make().String(),
		Email:          email,
		HashedPassword: "$2a$12$fakefakefakefakefakefakefakefakefakefakefakefakefake",
		IsActive:       true,
		Roles:          []string{model.RoleUser},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func newTestTodo(ownerID, title string) *model.Todo {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.Todo{
		ID:        ulid.Make().String(),
		OwnerID:   ownerID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestUserCRUD(t *testing.T) {
	ctx, repo := setupRepo(t)

	user := newTestUser("alice@example.com")
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	// Duplicate email is rejected
	dup := newTestUser("alice@example.com")
	if err := repo.CreateUser(ctx, dup); !errors.Is(err, ErrEmailExists) {
		t.Errorf("duplicate CreateUser = %v, want ErrEmailExists", err)
	}

	got, err := repo.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if got.Email != "alice@example.com" {
		t.Errorf("Email = %q", got.Email)
	}
	if len(got.Roles) != 1 || got.Roles[0] != model.RoleUser {
		t.Errorf("Roles = %v", got.Roles)
	}

	byEmail, err := repo.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Errorf("ID = %q, want %q", byEmail.ID, user.ID)
	}

	// Update roles and active flag
	got.Roles = append(got.Roles, model.RoleAdmin)
	got.IsActive = false
	if err := repo.UpdateUser(ctx, got); err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}

	updated, err := repo.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if updated.IsActive {
		t.Error("IsActive should be false after update")
	}
	if !updated.IsAdmin() {
		t.Errorf("Roles = %v, want admin", updated.Roles)
	}

	// Unknown users
	if _, err := repo.GetUserByID(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetUserByID(missing) = %v, want ErrUserNotFound", err)
	}
	missing := newTestUser("ghost@example.com")
	if err := repo.UpdateUser(ctx, missing); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("UpdateUser(missing) = %v, want ErrUserNotFound", err)
	}
}

func TestListUsers_Pagination(t *testing.T) {
	ctx, repo := setupRepo(t)

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		if err := repo.CreateUser(ctx, newTestUser(email)); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}

	page, err := repo.ListUsers(ctx, 1, 2)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(page) != 2 {
		t.Errorf("got %d users, want 2", len(page))
	}
}

func TestTodoCRUD(t *testing.T) {
	ctx, repo := setupRepo(t)

	owner := newTestUser("owner@example.com")
	other := newTestUser("other@example.com")
	for _, u := range []*model.User{owner, other} {
		if err := repo.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}

	todo := newTestTodo(owner.ID, "write integration tests")
	if err := repo.CreateTodo(ctx, todo); err != nil {
		t.Fatalf("CreateTodo failed: %v", err)
	}

	got, err := repo.GetTodo(ctx, todo.ID, owner.ID)
	if err != nil {
		t.Fatalf("GetTodo failed: %v", err)
	}
	if got.Title != "write integration tests" {
		t.Errorf("Title = %q", got.Title)
	}

	// Ownership is enforced in the query itself
	if _, err := repo.GetTodo(ctx, todo.ID, other.ID); !errors.Is(err, ErrTodoNotFound) {
		t.Errorf("cross-owner GetTodo = %v, want ErrTodoNotFound", err)
	}

	got.Title = "ship integration tests"
	got.IsDone = true
	if err := repo.UpdateTodo(ctx, got); err != nil {
		t.Fatalf("UpdateTodo failed: %v", err)
	}

	updated, err := repo.GetTodo(ctx, todo.ID, owner.ID)
	if err != nil {
		t.Fatalf("GetTodo failed: %v", err)
	}
	if !updated.IsDone || updated.Title != "ship integration tests" {
		t.Errorf("update not persisted: %+v", updated)
	}

	list, err := repo.ListTodosByOwner(ctx, owner.ID, 0, 10)
	if err != nil {
		t.Fatalf("ListTodosByOwner failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("got %d todos, want 1", len(list))
	}

	if err := repo.DeleteTodo(ctx, todo.ID, other.ID); !errors.Is(err, ErrTodoNotFound) {
		t.Errorf("cross-owner DeleteTodo = %v, want ErrTodoNotFound", err)
	}
	if err := repo.DeleteTodo(ctx, todo.ID, owner.ID); err != nil {
		t.Fatalf("DeleteTodo failed: %v", err)
	}
	if _, err := repo.GetTodo(ctx, todo.ID, owner.ID); !errors.Is(err, ErrTodoNotFound) {
		t.Errorf("deleted todo lookup = %v, want ErrTodoNotFound", err)
	}
}

func TestBulkInsertActivity(t *testing.T) {
	ctx, repo := setupRepo(t)

	owner := newTestUser("audit@example.com")
	if err := repo.CreateUser(ctx, owner); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	events := []*model.ActivityEvent{
		{ID: ulid.Make().String(), UserID: owner.ID, TodoID: "t1", Action: model.ActivityTodoCreated, OccurredAt: time.Now().UTC()},
		{ID: ulid.Make().String(), UserID: owner.ID, TodoID: "t1", Action: model.ActivityTodoUpdated, OccurredAt: time.Now().UTC()},
	}

	if err := repo.BulkInsertActivity(ctx, events); err != nil {
		t.Fatalf("BulkInsertActivity failed: %v", err)
	}

	// Re-inserting the same IDs is a no-op (idempotent replay)
	if err := repo.BulkInsertActivity(ctx, events); err != nil {
		t.Fatalf("idempotent BulkInsertActivity failed: %v", err)
	}

	list, err := repo.ListActivityByUser(ctx, owner.ID, 10)
	if err != nil {
		t.Fatalf("ListActivityByUser failed: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("got %d events, want 2", len(list))
	}
}
