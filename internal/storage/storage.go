package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const (
	lockTimeout   = 5 * time.Second
	lockRetryWait = 50 * time.Millisecond
)

// CheckedFileStore keeps the checked state of planned shopping items in a JSON
// file. Every Set is a locked read-modify-write of a single key, so separate
// processes sharing the file do not lose each other's toggles.
type CheckedFileStore struct {
	path     string
	mu       sync.Mutex
	fileLock *flock.Flock
}

// NewCheckedFileStore creates the store and ensures its directory exists.
func NewCheckedFileStore(path string) (*CheckedFileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory for %s: %w", path, err)
	}
	return &CheckedFileStore{
		path:     path,
		fileLock: flock.New(path + ".lock"),
	}, nil
}

// All returns every stored key.
func (s *CheckedFileStore) All(ctx context.Context) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer func() { _ = s.fileLock.Unlock() }()

	return s.load()
}

// Set stores the checked state for one key.
func (s *CheckedFileStore) Set(ctx context.Context, key string, checked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock(ctx); err != nil {
		return err
	}
	defer func() { _ = s.fileLock.Unlock() }()

	state, err := s.load()
	if err != nil {
		return err
	}
	state[key] = checked
	return s.save(state)
}

func (s *CheckedFileStore) lock(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := s.fileLock.TryLockContext(ctx, lockRetryWait)
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", s.path, err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire lock on %s", s.path)
	}
	return nil
}

func (s *CheckedFileStore) load() (map[string]bool, error) {
	state := make(map[string]bool)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return state, nil
		}
		return nil, fmt.Errorf("failed to read checked state file: %w", err)
	}
	if len(data) == 0 {
		return state, nil
	}

	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checked state: %w", err)
	}
	return state, nil
}

func (s *CheckedFileStore) save(state map[string]bool) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checked state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write checked state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace checked state file: %w", err)
	}
	return nil
}
