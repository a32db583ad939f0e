package model

import "time"

// ActivityAction identifies the kind of todo mutation being recorded.
type ActivityAction string

const (
	ActivityTodoCreated ActivityAction = "todo_created"
	ActivityTodoUpdated ActivityAction = "todo_updated"
	ActivityTodoDeleted ActivityAction = "todo_deleted"
)

// ActivityEvent is an append-only audit record of a todo mutation.
// Events are published to a Redis stream and batch-inserted by the
// activity worker.
type ActivityEvent struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	TodoID     string         `json:"todo_id"`
	Action     ActivityAction `json:"action"`
	OccurredAt time.Time      `json:"occurred_at"`
}
