// internal/scheduler/scheduler_test.go
package scheduler

import (
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/user/parley/internal/history"
)

func newStore(t *testing.T) *history.TaskStore {
	t.Helper()
	return history.NewTaskStore(filepath.Join(t.TempDir(), "tasks.json"))
}

func TestSchedulerFiresTask(t *testing.T) {
	store := newStore(t)
	task := &history.Task{
		Name:       "every-second",
		Prompt:     "do something every second",
		Schedule:   "* * * * * *",
		SessionKey: "telegram:123",
		Enabled:    true,
	}
	if err := store.Add(task); err != nil {
		t.Fatal(err)
	}

	var fires atomic.Int32
	sched := New(store, func(sessionKey, prompt string) {
		fires.Add(1)
	})
	if err := sched.Start(); err != nil {
		t.Fatal(err)
	}
	defer sched.Stop()

	// Wait up to 2.5 seconds for at least one fire
	deadline := time.After(2500 * time.Millisecond)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			t.Fatalf("handler did not fire within 2.5s, fires=%d", fires.Load())
		case <-ticker.C:
			if fires.Load() > 0 {
				return
			}
		}
	}
}

func TestSchedulerSkipsDisabledAndUnscheduled(t *testing.T) {
	store := newStore(t)
	if err := store.Add(&history.Task{
		Name:       "disabled-task",
		Prompt:     "should not fire",
		Schedule:   "* * * * * *",
		SessionKey: "telegram:123",
		Enabled:    false,
	}); err != nil {
		t.Fatal(err)
	}
	if err := store.Add(&history.Task{
		Name:       "webhook-only",
		Prompt:     "no schedule",
		SessionKey: "telegram:123",
		Enabled:    true,
	}); err != nil {
		t.Fatal(err)
	}

	var fires atomic.Int32
	sched := New(store, func(sessionKey, prompt string) {
		fires.Add(1)
	})
	if err := sched.Start(); err != nil {
		t.Fatal(err)
	}
	defer sched.Stop()

	time.Sleep(2 * time.Second)

	if n := fires.Load(); n != 0 {
		t.Errorf("expected 0 fires, got %d", n)
	}
}

func TestSchedulerReloadPicksUpNewTasks(t *testing.T) {
	store := newStore(t)

	var fires atomic.Int32
	sched := New(store, func(sessionKey, prompt string) {
		fires.Add(1)
	})
	if err := sched.Start(); err != nil {
		t.Fatal(err)
	}
	defer sched.Stop()

	if err := store.Add(&history.Task{
		Name:       "added-later",
		Prompt:     "p",
		Schedule:   "* * * * * *",
		SessionKey: "telegram:123",
		Enabled:    true,
	}); err != nil {
		t.Fatal(err)
	}
	if err := sched.Reload(); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(2500 * time.Millisecond)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			t.Fatalf("reloaded task did not fire, fires=%d", fires.Load())
		case <-ticker.C:
			if fires.Load() > 0 {
				return
			}
		}
	}
}
