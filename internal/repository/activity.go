package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/taskdeck/taskdeck/internal/model"
)

// BulkInsertActivity inserts a batch of activity events in one round trip.
// Duplicate IDs are ignored so redelivered stream messages stay idempotent.
func (r *Repository) BulkInsertActivity(ctx context.Context, events []*model.ActivityEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO activity_log (id, user_id, todo_id, action, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`

	for _, e := range events {
		batch.Queue(query, e.ID, e.UserID, e.TodoID, string(e.Action), e.OccurredAt)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range events {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert activity batch: %w", err)
		}
	}

	return nil
}

// ListActivityByUser returns recent activity events for a user, newest first.
func (r *Repository) ListActivityByUser(ctx context.Context, userID string, limit int) ([]*model.ActivityEvent, error) {
	query := `
		SELECT id, user_id, todo_id, action, occurred_at
		FROM activity_log
		WHERE user_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var events []*model.ActivityEvent
	for rows.Next() {
		var e model.ActivityEvent
		var action string
		if err := rows.Scan(&e.ID, &e.UserID, &e.TodoID, &action, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity event: %w", err)
		}
		e.Action = model.ActivityAction(action)
		events = append(events, &e)
	}

	return events, rows.Err()
}
