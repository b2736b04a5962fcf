package rotation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"folklorovich/types"
)

// Store persists rotation state. Implementations must be atomic: a load
// after an interrupted save sees either the old state or the new one, never
// a partial write.
type Store interface {
	Load() (*types.RotationState, error)
	Save(*types.RotationState) error
}

// FileStore keeps rotation state in a JSON document, replaced via
// write-to-temp-then-rename.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the document at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the state document. A missing file means a first run and
// returns a fresh state; a corrupt file is an error, never silently reset.
func (s *FileStore) Load() (*types.RotationState, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return types.NewRotationState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rotation state: %w", err)
	}

	var state types.RotationState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse rotation state %s: %w", s.path, err)
	}
	if state.CycleNumber <= 0 {
		state.CycleNumber = 1
	}
	return &state, nil
}

// Save replaces the state document atomically
func (s *FileStore) Save(state *types.RotationState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// MemoryStore is an in-memory Store for tests
type MemoryStore struct {
	state *types.RotationState
	saves int
}

// NewMemoryStore returns a store seeded with state (nil means fresh)
func NewMemoryStore(state *types.RotationState) *MemoryStore {
	return &MemoryStore{state: state}
}

func (m *MemoryStore) Load() (*types.RotationState, error) {
	if m.state == nil {
		return types.NewRotationState(), nil
	}
	clone := *m.state
	clone.UsedIDsThisCycle = append([]string(nil), m.state.UsedIDsThisCycle...)
	return &clone, nil
}

func (m *MemoryStore) Save(state *types.RotationState) error {
	clone := *state
	clone.UsedIDsThisCycle = append([]string(nil), state.UsedIDsThisCycle...)
	m.state = &clone
	m.saves++
	return nil
}

// Saves returns how many times Save has been called
func (m *MemoryStore) Saves() int { return m.saves }

// State returns the last saved state
func (m *MemoryStore) State() *types.RotationState { return m.state }
