package sessionclient

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// LocalState is the only durable state the client owns: which server session is ours.
type LocalState struct {
	UserID    string    `json:"userId,omitempty"`
	SessionID string    `json:"sessionId,omitempty"`
	LoginTime time.Time `json:"loginTime,omitempty"`
}

// IsZero reports whether no session is cached.
func (s LocalState) IsZero() bool {
	return s.SessionID == ""
}

// LocalStore persists LocalState. Written by the bootstrapper, cleared by the guard.
type LocalStore interface {
	Load() (LocalState, error)
	Save(state LocalState) error
	Clear() error
}

// MemoryStore keeps LocalState in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	state LocalState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (LocalState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, nil
}

func (s *MemoryStore) Save(state LocalState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = LocalState{}
	return nil
}

// FileStore keeps LocalState in a JSON file so it survives restarts of the CLI.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (LocalState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var state LocalState
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return state, nil
		}
		return state, fmt.Errorf("failed to read local state: %w", err)
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return LocalState{}, fmt.Errorf("failed to decode local state: %w", err)
	}
	return state, nil
}

func (s *FileStore) Save(state LocalState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode local state: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".sessionstate-*")
	if err != nil {
		return fmt.Errorf("failed to write local state: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write local state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write local state: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("failed to write local state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to write local state: %w", err)
	}
	return nil
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear local state: %w", err)
	}
	return nil
}
