// Package localstore provides the durable per-device document store.
//
// Each logical key maps to one pretty-printed JSON file under the data
// directory. Corrupt or missing documents read as absent rather than
// failing: the on-device copy is best-effort cache plus offline
// fallback, and a damaged file must never take the application down.
package localstore

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Well-known document keys.
const (
	KeyProgress    = "progress"
	KeyExperiments = "experiments"
	KeySession     = "session"
)

// Store reads and writes named JSON documents under a single directory.
type Store struct {
	dir    string
	logger *log.Logger
}

// New creates a Store rooted at dir. The directory is created on first
// write, not here. If logger is nil, a default logger writing to stderr
// is used.
func New(dir string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(os.Stderr, "[localstore] ", log.LstdFlags)
	}
	return &Store{dir: dir, logger: logger}
}

// Dir returns the directory the store writes into.
func (s *Store) Dir() string {
	return s.dir
}

// path returns the file backing a key: {dir}/{key}.json
func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Save serializes value as JSON and stores it durably under key,
// replacing any prior value. The write goes through a temp file and
// rename so a crash mid-write cannot leave a half-written document.
func (s *Store) Save(key string, value any) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", key, err)
	}

	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write document %s: %w", key, err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		return fmt.Errorf("failed to replace document %s: %w", key, err)
	}

	return nil
}

// Load reads the document stored under key into out. ok is false when
// the document was never written or cannot be deserialized; a corrupt
// document is logged and treated as absent, never surfaced as an error.
func (s *Store) Load(key string, out any) (ok bool, err error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read document %s: %w", key, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		s.logger.Printf("Warning: corrupt document %s, treating as absent: %v", key, err)
		return false, nil
	}

	return true, nil
}

// Delete removes the document stored under key.
// Returns nil if the document doesn't exist (idempotent).
func (s *Store) Delete(key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete document %s: %w", key, err)
	}
	return nil
}
