package history

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Store is the persistence contract for the rolling history: loaded once at
// the start of a run, rewritten wholesale at the end.
type Store interface {
	Load() History
	Save(h History) error
}

// FileStore persists History as a JSON file. Saves are atomic
// (write-to-temp-then-rename) so a failed run never leaves a partial file.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the persisted history. A missing, unreadable, or corrupted file
// is treated as an empty store: current-day processing must always succeed.
func (s *FileStore) Load() History {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("history file unreadable, starting empty", "path", s.path, "error", err)
		}
		return History{}
	}

	var h History
	if err := json.Unmarshal(data, &h); err != nil {
		slog.Warn("history file corrupted, starting empty", "path", s.path, "error", err)
		return History{}
	}
	return h
}

// Save rewrites the history file atomically.
func (s *FileStore) Save(h History) error {
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling history: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating history dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing history temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing history file: %w", err)
	}
	return nil
}
