// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Auth metrics
	IncUserRegistered()
	IncLoginSuccess()
	IncLoginFailure()

	// Todo management metrics
	IncTodoCreated()
	IncTodoUpdated()
	IncTodoDeleted()

	// Activity pipeline metrics
	IncActivityEventPublished(status string) // status: "success" or "dropped"
	IncActivityEventProcessed(status string) // status: "success" or "failed"
	ObserveActivityBatchSize(size int)
	ObserveActivityBatchDuration(duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}

// Snapshot is a point-in-time view of counter values.
type Snapshot struct {
	UsersRegistered int64 `json:"users_registered"`
	LoginSuccesses  int64 `json:"login_successes"`
	LoginFailures   int64 `json:"login_failures"`

	TodosCreated int64 `json:"todos_created"`
	TodosUpdated int64 `json:"todos_updated"`
	TodosDeleted int64 `json:"todos_deleted"`

	ActivityPublished map[string]int64 `json:"activity_published"`
	ActivityProcessed map[string]int64 `json:"activity_processed"`
}
