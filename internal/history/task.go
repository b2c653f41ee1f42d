// internal/history/task.go
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Task is a named prompt that can fire on a schedule or via webhook. An
// optional Model overrides the daemon default for this task's session.
type Task struct {
	Name       string `json:"name"`
	Prompt     string `json:"prompt"`
	Schedule   string `json:"schedule,omitempty"`
	SessionKey string `json:"session_key"`
	Model      string `json:"model,omitempty"`
	Enabled    bool   `json:"enabled"`
}

// TaskStore is a JSON-file-backed store for tasks.
type TaskStore struct {
	path string
	mu   sync.RWMutex
}

// NewTaskStore creates a file-backed TaskStore at the given file path.
func NewTaskStore(path string) *TaskStore {
	return &TaskStore{path: path}
}

// Path returns the file path used by this store.
func (s *TaskStore) Path() string {
	return s.path
}

// List returns all tasks sorted by name. A missing file yields an empty
// slice.
func (s *TaskStore) List() ([]*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byName, err := s.load()
	if err != nil {
		return nil, err
	}

	tasks := make([]*Task, 0, len(byName))
	for _, task := range byName {
		tasks = append(tasks, task)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Name < tasks[j].Name })
	return tasks, nil
}

// Get finds a task by name.
func (s *TaskStore) Get(name string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byName, err := s.load()
	if err != nil {
		return nil, err
	}
	task, ok := byName[name]
	if !ok {
		return nil, fmt.Errorf("task not found: %s", name)
	}
	return task, nil
}

// Add stores a new task. The name must be unused.
func (s *TaskStore) Add(task *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byName, err := s.load()
	if err != nil {
		return err
	}
	if _, exists := byName[task.Name]; exists {
		return fmt.Errorf("task already exists: %s", task.Name)
	}
	byName[task.Name] = task
	return s.save(byName)
}

// Remove deletes a task by name.
func (s *TaskStore) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byName, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := byName[name]; !ok {
		return fmt.Errorf("task not found: %s", name)
	}
	delete(byName, name)
	return s.save(byName)
}

// SetEnabled toggles the enabled flag for a task.
func (s *TaskStore) SetEnabled(name string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byName, err := s.load()
	if err != nil {
		return err
	}
	task, ok := byName[name]
	if !ok {
		return fmt.Errorf("task not found: %s", name)
	}
	task.Enabled = enabled
	return s.save(byName)
}

func (s *TaskStore) load() (map[string]*Task, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]*Task), nil
		}
		return nil, fmt.Errorf("read tasks file: %w", err)
	}

	var tasks []*Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("unmarshal tasks: %w", err)
	}

	byName := make(map[string]*Task, len(tasks))
	for _, task := range tasks {
		byName[task.Name] = task
	}
	return byName, nil
}

func (s *TaskStore) save(byName map[string]*Task) error {
	tasks := make([]*Task, 0, len(byName))
	for _, task := range byName {
		tasks = append(tasks, task)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Name < tasks[j].Name })

	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal tasks: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create tasks dir: %w", err)
	}
	return atomicWrite(s.path, data)
}
