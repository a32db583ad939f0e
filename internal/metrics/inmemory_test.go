package metrics

import (
	"sync"
	"testing"
)

func TestInMemoryRecorder_Counters(t *testing.T) {
	t.Parallel()

	rec := NewInMemory()

	rec.IncUserRegistered()
	rec.IncLoginSuccess()
	rec.IncLoginSuccess()
	rec.IncLoginFailure()
	rec.IncTodoCreated()
	rec.IncTodoUpdated()
	rec.IncTodoDeleted()
	rec.IncActivityEventPublished("success")
	rec.IncActivityEventPublished("dropped")
	rec.IncActivityEventProcessed("success")

	snap := rec.Snapshot()

	if snap.UsersRegistered != 1 {
		t.Errorf("UsersRegistered = %d, want 1", snap.UsersRegistered)
	}
	if snap.LoginSuccesses != 2 {
		t.Errorf("LoginSuccesses = %d, want 2", snap.LoginSuccesses)
	}
	if snap.LoginFailures != 1 {
		t.Errorf("LoginFailures = %d, want 1", snap.LoginFailures)
	}
	if snap.TodosCreated != 1 || snap.TodosUpdated != 1 || snap.TodosDeleted != 1 {
		t.Errorf("todo counters = %d/%d/%d, want 1/1/1", snap.TodosCreated, snap.TodosUpdated, snap.TodosDeleted)
	}
	if snap.ActivityPublished["success"] != 1 || snap.ActivityPublished["dropped"] != 1 {
		t.Errorf("ActivityPublished = %v", snap.ActivityPublished)
	}
	if snap.ActivityProcessed["success"] != 1 {
		t.Errorf("ActivityProcessed = %v", snap.ActivityProcessed)
	}
}

func TestInMemoryRecorder_SnapshotIsolation(t *testing.T) {
	t.Parallel()

	rec := NewInMemory()
	rec.IncActivityEventPublished("success")

	snap := rec.Snapshot()
	snap.ActivityPublished["success"] = 99

	if got := rec.Snapshot().ActivityPublished["success"]; got != 1 {
		t.Errorf("mutating a snapshot leaked into the recorder: %d", got)
	}
}

func TestInMemoryRecorder_Concurrent(t *testing.T) {
	t.Parallel()

	rec := NewInMemory()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				rec.IncTodoCreated()
			}
		}()
	}
	wg.Wait()

	if got := rec.Snapshot().TodosCreated; got != 1000 {
		t.Errorf("TodosCreated = %d, want 1000", got)
	}
}
