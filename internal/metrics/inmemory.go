package metrics

import (
	"sync"
	"time"
)

// InMemoryRecorder implements Recorder with in-process counters.
// Useful for tests and the /metrics debug endpoint.
type InMemoryRecorder struct {
	mu sync.Mutex

	usersRegistered int64
	loginSuccesses  int64
	loginFailures   int64

	todosCreated int64
	todosUpdated int64
	todosDeleted int64

	activityPublished map[string]int64
	activityProcessed map[string]int64
}

// NewInMemory returns a Recorder backed by in-process counters.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		activityPublished: make(map[string]int64),
		activityProcessed: make(map[string]int64),
	}
}

// IncUserRegistered increments the registration counter.
func (m *InMemoryRecorder) IncUserRegistered() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usersRegistered++
}

// IncLoginSuccess increments the successful login counter.
func (m *InMemoryRecorder) IncLoginSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loginSuccesses++
}

// IncLoginFailure increments the failed login counter.
func (m *InMemoryRecorder) IncLoginFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loginFailures++
}

// IncTodoCreated increments the todo creation counter.
func (m *InMemoryRecorder) IncTodoCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.todosCreated++
}

// IncTodoUpdated increments the todo update counter.
func (m *InMemoryRecorder) IncTodoUpdated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.todosUpdated++
}

// IncTodoDeleted increments the todo deletion counter.
func (m *InMemoryRecorder) IncTodoDeleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.todosDeleted++
}

// IncActivityEventPublished counts published activity events by status.
func (m *InMemoryRecorder) IncActivityEventPublished(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activityPublished[status]++
}

// IncActivityEventProcessed counts processed activity events by status.
func (m *InMemoryRecorder) IncActivityEventProcessed(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activityProcessed[status]++
}

// ObserveActivityBatchSize is recorded only as a counter of batches.
func (m *InMemoryRecorder) ObserveActivityBatchSize(size int) {}

// ObserveActivityBatchDuration is not aggregated in memory.
func (m *InMemoryRecorder) ObserveActivityBatchDuration(duration time.Duration) {}

// Snapshot returns a copy of the current counter values.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	published := make(map[string]int64, len(m.activityPublished))
	for k, v := range m.activityPublished {
		published[k] = v
	}
	processed := make(map[string]int64, len(m.activityProcessed))
	for k, v := range m.activityProcessed {
		processed[k] = v
	}

	return Snapshot{
		UsersRegistered:   m.usersRegistered,
		LoginSuccesses:    m.loginSuccesses,
		LoginFailures:     m.loginFailures,
		TodosCreated:      m.todosCreated,
		TodosUpdated:      m.todosUpdated,
		TodosDeleted:      m.todosDeleted,
		ActivityPublished: published,
		ActivityProcessed: processed,
	}
}
