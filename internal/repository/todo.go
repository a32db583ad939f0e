package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/taskdeck/taskdeck/internal/model"
)

// ErrTodoNotFound indicates the todo does not exist or is not owned by the caller.
var ErrTodoNotFound = errors.New("todo not found")

// CreateTodo inserts a new todo.
func (r *Repository) CreateTodo(ctx context.Context, todo *model.Todo) error {
	query := `
		INSERT INTO todos (id, owner_id, title, description, is_done, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		todo.ID,
		todo.OwnerID,
		todo.Title,
		todo.Description,
		todo.IsDone,
		todo.CreatedAt,
		todo.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}

	return nil
}

// GetTodo retrieves a todo by ID scoped to its owner.
// Ownership is enforced in the query so a user can never read another
// user's todo by guessing IDs.
func (r *Repository) GetTodo(ctx context.Context, todoID, ownerID string) (*model.Todo, error) {
	query := `
		SELECT id, owner_id, title, description, is_done, created_at, updated_at
		FROM todos
		WHERE id = $1 AND owner_id = $2
	`

	return r.scanTodo(r.pool.QueryRow(ctx, query, todoID, ownerID))
}

// ListTodosByOwner returns the owner's todos ordered by creation time.
func (r *Repository) ListTodosByOwner(ctx context.Context, ownerID string, skip, limit int) ([]*model.Todo, error) {
	query := `
		SELECT id, owner_id, title, description, is_done, created_at, updated_at
		FROM todos
		WHERE owner_id = $1
		ORDER BY created_at
		OFFSET $2 LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, ownerID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	var todos []*model.Todo
	for rows.Next() {
		var todo model.Todo
		if err := rows.Scan(
			&todo.ID,
			&todo.OwnerID,
			&todo.Title,
			&todo.Description,
			&todo.IsDone,
			&todo.CreatedAt,
			&todo.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, &todo)
	}

	return todos, rows.Err()
}

// UpdateTodo persists title, description and done flag changes.
// Ownership is enforced in the query.
func (r *Repository) UpdateTodo(ctx context.Context, todo *model.Todo) error {
	query := `
		UPDATE todos
		SET title = $3, description = $4, is_done = $5, updated_at = now()
		WHERE id = $1 AND owner_id = $2
	`

	tag, err := r.pool.Exec(ctx, query,
		todo.ID,
		todo.OwnerID,
		todo.Title,
		todo.Description,
		todo.IsDone,
	)
	if err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTodoNotFound
	}

	return nil
}

// DeleteTodo removes a todo owned by the given user.
func (r *Repository) DeleteTodo(ctx context.Context, todoID, ownerID string) error {
	query := `DELETE FROM todos WHERE id = $1 AND owner_id = $2`

	tag, err := r.pool.Exec(ctx, query, todoID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTodoNotFound
	}

	return nil
}

// scanTodo scans a single todo row, mapping pgx.ErrNoRows to ErrTodoNotFound.
func (r *Repository) scanTodo(row pgx.Row) (*model.Todo, error) {
	var todo model.Todo

	err := row.Scan(
		&todo.ID,
		&todo.OwnerID,
		&todo.Title,
		&todo.Description,
		&todo.IsDone,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTodoNotFound
		}
		return nil, fmt.Errorf("failed to scan todo: %w", err)
	}

	return &todo, nil
}
