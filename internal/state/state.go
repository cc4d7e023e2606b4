// Package state persists the last computed temperature state between runs.
package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sweeney/temperature-notifier/internal/logic"
)

// DefaultPath is the record location used when none is configured.
const DefaultPath = ".temperature_state"

// Store loads and saves the last known state.
type Store interface {
	// Load returns the persisted state. It always returns a valid state:
	// on any failure it returns logic.Nominal with a non-nil error the caller
	// should log as a warning.
	Load() (logic.State, error)
	// Save overwrites the record with s.
	Save(s logic.State) error
}

// Record is the on-disk representation. Only State is required.
type Record struct {
	State     logic.State `json:"state"`
	UpdatedAt string      `json:"updated_at,omitempty"`
}

// ErrEmpty is returned by Load when the record exists but holds no data.
var ErrEmpty = errors.New("state record is empty")

// FileStore keeps the record in a single file, replaced atomically on save.
type FileStore struct {
	path string
	now  func() time.Time
}

// NewFileStore returns a store backed by path (DefaultPath if empty).
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultPath
	}
	return &FileStore{path: path, now: time.Now}
}

// Path returns the record location.
func (f *FileStore) Path() string {
	return f.path
}

// Load reads the record. Missing, empty or corrupt records yield logic.Nominal.
func (f *FileStore) Load() (logic.State, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return logic.Nominal, fmt.Errorf("read state: %w", err)
	}
	s, err := decode(data)
	if err != nil {
		return logic.Nominal, fmt.Errorf("decode state %s: %w", f.path, err)
	}
	return s, nil
}

func decode(data []byte) (logic.State, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return logic.Nominal, ErrEmpty
	}
	if data[0] != '{' {
		// Bare tag, e.g. "HIGH".
		return logic.ParseState(string(data))
	}
	var raw struct {
		State *logic.State `json:"state"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return logic.Nominal, err
	}
	if raw.State == nil {
		return logic.Nominal, errors.New("record has no state field")
	}
	return *raw.State, nil
}

// Save writes s to the record.
func (f *FileStore) Save(s logic.State) error {
	return f.write(Record{State: s, UpdatedAt: f.now().UTC().Format(time.RFC3339)})
}

// write replaces the record via a temp file and rename so readers never
// observe a partial record.
func (f *FileStore) write(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
