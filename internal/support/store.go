package support

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists tickets as JSON lines appended to a single file.
// One record per line keeps the store greppable and safe to append under
// the handler's per-request locking.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store writing to the given path. The parent
// directory is created on first append, not here.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Append writes one ticket record to the store.
func (s *FileStore) Append(ctx context.Context, rec StoredTicket) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to serialize ticket: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open ticket store: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to append to ticket store: %w", err)
	}

	return nil
}
