// internal/history/session.go
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/user/parley/internal/types"
	"github.com/user/parley/pkg/llm"
)

// Store is a JSON-file-backed session store. The session index lives in
// sessions/sessions.json and each session keeps its transcript at
// sessions/<sessionID>/messages.json.
type Store struct {
	root string
	mu   sync.RWMutex
}

// NewStore creates a file-backed Store rooted at the given directory.
func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) indexPath() string {
	return filepath.Join(s.root, "sessions", "sessions.json")
}

func (s *Store) sessionsDir() string {
	return filepath.Join(s.root, "sessions")
}

func (s *Store) sessionDir(id types.SessionID) string {
	return filepath.Join(s.root, "sessions", string(id))
}

func (s *Store) transcriptPath(id types.SessionID) string {
	return filepath.Join(s.sessionDir(id), "messages.json")
}

// loadIndex reads sessions.json and returns a map keyed by SessionKey.
func (s *Store) loadIndex() (map[types.SessionKey]*types.SessionIndex, error) {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[types.SessionKey]*types.SessionIndex), nil
		}
		return nil, fmt.Errorf("read session index: %w", err)
	}

	var sessions []*types.SessionIndex
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("unmarshal session index: %w", err)
	}

	index := make(map[types.SessionKey]*types.SessionIndex, len(sessions))
	for _, sess := range sessions {
		index[sess.SessionKey] = sess
	}
	return index, nil
}

// saveIndex converts the map to a slice, marshals with indentation, and
// writes atomically.
func (s *Store) saveIndex(index map[types.SessionKey]*types.SessionIndex) error {
	sessions := make([]*types.SessionIndex, 0, len(index))
	for _, sess := range index {
		sessions = append(sessions, sess)
	}

	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session index: %w", err)
	}

	if err := os.MkdirAll(s.sessionsDir(), 0o755); err != nil {
		return fmt.Errorf("create sessions dir: %w", err)
	}

	return atomicWrite(s.indexPath(), data)
}

// ResolveOrCreate returns the SessionID for the given key, creating a new
// session bound to the given model if needed.
func (s *Store) ResolveOrCreate(_ context.Context, key types.SessionKey, model string) (types.SessionID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.loadIndex()
	if err != nil {
		return "", err
	}

	if existing, ok := index[key]; ok {
		return existing.SessionID, nil
	}

	now := time.Now()
	id := types.NewSessionID()
	index[key] = &types.SessionIndex{
		SessionID:  id,
		SessionKey: key,
		Model:      model,
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.saveIndex(index); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.sessionDir(id), 0o755); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}

	return id, nil
}

// Get returns the session with the given ID.
func (s *Store) Get(_ context.Context, id types.SessionID) (*types.SessionIndex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index, err := s.loadIndex()
	if err != nil {
		return nil, err
	}

	for _, sess := range index {
		if sess.SessionID == id {
			return sess, nil
		}
	}
	return nil, fmt.Errorf("session not found: %s", id)
}

// List returns all sessions.
func (s *Store) List(_ context.Context) ([]*types.SessionIndex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index, err := s.loadIndex()
	if err != nil {
		return nil, err
	}

	sessions := make([]*types.SessionIndex, 0, len(index))
	for _, sess := range index {
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

// Update persists changes to the given session, setting UpdatedAt to now.
func (s *Store) Update(_ context.Context, session *types.SessionIndex) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.loadIndex()
	if err != nil {
		return err
	}

	if _, ok := index[session.SessionKey]; !ok {
		return fmt.Errorf("session not found: %s", session.SessionKey)
	}

	session.UpdatedAt = time.Now()
	index[session.SessionKey] = session

	return s.saveIndex(index)
}

// Messages loads the session transcript. A session with no transcript yet
// yields an empty collection.
func (s *Store) Messages(_ context.Context, id types.SessionID) (*llm.MessageCollection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.transcriptPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return llm.NewMessageCollection()
		}
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	var messages llm.MessageCollection
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("unmarshal transcript: %w", err)
	}
	return &messages, nil
}

// SaveMessages writes the session transcript atomically and refreshes the
// message count on the index.
func (s *Store) SaveMessages(_ context.Context, id types.SessionID, messages *llm.MessageCollection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	if err := os.MkdirAll(s.sessionDir(id), 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := atomicWrite(s.transcriptPath(id), data); err != nil {
		return err
	}

	index, err := s.loadIndex()
	if err != nil {
		return err
	}
	for _, sess := range index {
		if sess.SessionID == id {
			sess.MessageCount = messages.Len()
			sess.UpdatedAt = time.Now()
			return s.saveIndex(index)
		}
	}
	return nil
}

// Reset discards the session transcript but keeps the session itself.
func (s *Store) Reset(_ context.Context, id types.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.transcriptPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove transcript: %w", err)
	}

	index, err := s.loadIndex()
	if err != nil {
		return err
	}
	for _, sess := range index {
		if sess.SessionID == id {
			sess.MessageCount = 0
			sess.UpdatedAt = time.Now()
			return s.saveIndex(index)
		}
	}
	return nil
}

// Delete removes a session and its transcript entirely.
func (s *Store) Delete(_ context.Context, key types.SessionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.loadIndex()
	if err != nil {
		return err
	}

	sess, ok := index[key]
	if !ok {
		return fmt.Errorf("session not found: %s", key)
	}
	delete(index, key)

	if err := s.saveIndex(index); err != nil {
		return err
	}
	if err := os.RemoveAll(s.sessionDir(sess.SessionID)); err != nil {
		return fmt.Errorf("remove session dir: %w", err)
	}
	return nil
}

// atomicWrite writes data to path via a temp file and rename.
func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
