package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/taskdeck/taskdeck/internal/activity"
	"github.com/taskdeck/taskdeck/internal/metrics"
	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/internal/repository"
)

// Todo service errors.
var (
	ErrTodoNotFound   = errors.New("todo not found")
	ErrTitleRequired  = errors.New("title must not be empty")
	ErrTitleTooLong   = errors.New("title exceeds maximum length")
	ErrDescrTooLong   = errors.New("description exceeds maximum length")
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
)

// TodoService handles todo business logic.
type TodoService struct {
	repo      *repository.Repository
	publisher *activity.Publisher
	metrics   metrics.Recorder
}

// NewTodoService creates a new TodoService.
// The publisher may be nil; activity recording is then disabled.
func NewTodoService(repo *repository.Repository, publisher *activity.Publisher, recorder metrics.Recorder) *TodoService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &TodoService{
		repo:      repo,
		publisher: publisher,
		metrics:   recorder,
	}
}

// CreateTodoInput defines input for creating a todo.
type CreateTodoInput struct {
	Title       string
	Description string
}

// CreateTodo validates input and creates a todo for the owner.
func (s *TodoService) CreateTodo(ctx context.Context, ownerID string, input CreateTodoInput) (*model.Todo, error) {
	title := strings.TrimSpace(input.Title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if len(input.Description) > maxDescriptionLength {
		return nil, ErrDescrTooLong
	}

	now := time.Now().UTC()
	todo := &model.Todo{
		ID:          ulid.Make().String(),
		OwnerID:     ownerID,
		Title:       title,
		Description: input.Description,
		IsDone:      false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateTodo(ctx, todo); err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}

	s.metrics.IncTodoCreated()
	s.record(ownerID, todo.ID, model.ActivityTodoCreated)

	return todo, nil
}

// GetTodo retrieves one of the owner's todos.
func (s *TodoService) GetTodo(ctx context.Context, todoID, ownerID string) (*model.Todo, error) {
	todo, err := s.repo.GetTodo(ctx, todoID, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrTodoNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}
	return todo, nil
}

// ListTodos returns the owner's todos with skip/limit pagination.
func (s *TodoService) ListTodos(ctx context.Context, ownerID string, skip, limit int) ([]*model.Todo, error) {
	if skip < 0 {
		skip = 0
	}

	todos, err := s.repo.ListTodosByOwner(ctx, ownerID, skip, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return todos, nil
}

// UpdateTodoInput defines a partial todo update.
// Nil fields are left unchanged.
type UpdateTodoInput struct {
	Title       *string
	Description *string
	IsDone      *bool
}

// UpdateTodo applies a partial update to one of the owner's todos.
func (s *TodoService) UpdateTodo(ctx context.Context, todoID, ownerID string, input UpdateTodoInput) (*model.Todo, error) {
	todo, err := s.GetTodo(ctx, todoID, ownerID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		todo.Title = title
	}

	if input.Description != nil {
		if len(*input.Description) > maxDescriptionLength {
			return nil, ErrDescrTooLong
		}
		todo.Description = *input.Description
	}

	if input.IsDone != nil {
		todo.IsDone = *input.IsDone
	}

	if err := s.repo.UpdateTodo(ctx, todo); err != nil {
		if errors.Is(err, repository.ErrTodoNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}

	s.metrics.IncTodoUpdated()
	s.record(ownerID, todo.ID, model.ActivityTodoUpdated)

	return todo, nil
}

// DeleteTodo removes one of the owner's todos.
func (s *TodoService) DeleteTodo(ctx context.Context, todoID, ownerID string) error {
	if err := s.repo.DeleteTodo(ctx, todoID, ownerID); err != nil {
		if errors.Is(err, repository.ErrTodoNotFound) {
			return ErrTodoNotFound
		}
		return fmt.Errorf("failed to delete todo: %w", err)
	}

	s.metrics.IncTodoDeleted()
	s.record(ownerID, todoID, model.ActivityTodoDeleted)

	return nil
}

// record publishes an activity event without blocking the caller.
func (s *TodoService) record(userID, todoID string, action model.ActivityAction) {
	if s.publisher == nil {
		return
	}
	s.publisher.PublishAsync(&model.ActivityEvent{
		ID:         ulid.Make().String(),
		UserID:     userID,
		TodoID:     todoID,
		Action:     action,
		OccurredAt: time.Now().UTC(),
	})
}

func validateTitle(title string) error {
	if title == "" {
		return ErrTitleRequired
	}
	if len(title) > maxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}
