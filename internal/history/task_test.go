// internal/history/task_test.go
package history

import (
	"path/filepath"
	"testing"
)

func newTaskStore(t *testing.T) *TaskStore {
	t.Helper()
	return NewTaskStore(filepath.Join(t.TempDir(), "tasks.json"))
}

func TestTaskStoreEmptyFile(t *testing.T) {
	store := newTaskStore(t)
	tasks, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("expected no tasks, got %d", len(tasks))
	}
}

func TestTaskStoreAddGetRemove(t *testing.T) {
	store := newTaskStore(t)

	task := &Task{
		Name:       "morning-brief",
		Prompt:     "Summarize overnight news.",
		Schedule:   "0 7 * * *",
		SessionKey: "task:morning-brief",
		Enabled:    true,
	}
	if err := store.Add(task); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := store.Add(task); err == nil {
		t.Error("expected error adding duplicate task")
	}

	got, err := store.Get("morning-brief")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Prompt != task.Prompt || got.Schedule != task.Schedule {
		t.Errorf("task changed: %+v", got)
	}

	if err := store.Remove("morning-brief"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := store.Get("morning-brief"); err == nil {
		t.Error("removed task should be gone")
	}
	if err := store.Remove("morning-brief"); err == nil {
		t.Error("expected error removing unknown task")
	}
}

func TestTaskStoreListSorted(t *testing.T) {
	store := newTaskStore(t)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := store.Add(&Task{Name: name, Prompt: "p", SessionKey: "task:" + name}); err != nil {
			t.Fatal(err)
		}
	}

	tasks, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"alpha", "mid", "zeta"}
	for i, task := range tasks {
		if task.Name != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], task.Name)
		}
	}
}

func TestTaskStoreSetEnabled(t *testing.T) {
	store := newTaskStore(t)
	if err := store.Add(&Task{Name: "t", Prompt: "p", SessionKey: "task:t", Enabled: true}); err != nil {
		t.Fatal(err)
	}

	if err := store.SetEnabled("t", false); err != nil {
		t.Fatalf("SetEnabled failed: %v", err)
	}
	got, err := store.Get("t")
	if err != nil {
		t.Fatal(err)
	}
	if got.Enabled {
		t.Error("task should be disabled")
	}

	if err := store.SetEnabled("nope", true); err == nil {
		t.Error("expected error for unknown task")
	}
}
