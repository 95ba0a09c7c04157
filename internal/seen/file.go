package seen

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore keeps seen records in a single human-readable JSON file mapping
// identifier to RFC3339 delivery timestamp. The whole map lives in memory
// between Open and Save; Save writes to a temp file in the same directory and
// renames it into place so an interrupted write never corrupts the previous
// state.
type FileStore struct {
	path string

	mu      sync.Mutex
	records map[string]time.Time
}

// OpenFile loads the store at path. A missing file yields an empty store; a
// present but unreadable file is an error, so history is never silently
// discarded.
func OpenFile(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("seen store path is required")
	}
	store := &FileStore{
		path:    path,
		records: map[string]time.Time{},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, fmt.Errorf("load seen state %s: %w", path, err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("seen state %s is corrupt: %w", path, err)
	}
	for id, stamp := range raw {
		at, err := time.Parse(time.RFC3339, stamp)
		if err != nil {
			return nil, fmt.Errorf("seen state %s is corrupt: bad timestamp for %q: %w", path, id, err)
		}
		store.records[id] = at
	}
	return store, nil
}

func (s *FileStore) IsSeen(ctx context.Context, id string) (bool, error) {
	_ = ctx
	if id == "" {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[id]
	return ok, nil
}

func (s *FileStore) MarkSeen(ctx context.Context, id string, at time.Time) error {
	_ = ctx
	if id == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = at.UTC()
	return nil
}

func (s *FileStore) EvictOlderThan(ctx context.Context, retention time.Duration) (int, error) {
	_ = ctx
	if retention <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().Add(-retention)
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, at := range s.records {
		if at.Before(cutoff) {
			delete(s.records, id)
			evicted++
		}
	}
	return evicted, nil
}

func (s *FileStore) Save(ctx context.Context) error {
	_ = ctx
	s.mu.Lock()
	raw := make(map[string]string, len(s.records))
	for id, at := range s.records {
		raw[id] = at.UTC().Format(time.RFC3339)
	}
	s.mu.Unlock()

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encode seen state: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}

// Len reports the number of retained records. Intended for logging and tests.
func (s *FileStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
