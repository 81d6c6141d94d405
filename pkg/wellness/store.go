package wellness

import (
	"errors"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
)

// State is what survives a restart within the same day
type State struct {
	Date          string `json:"date"`
	PolicyHash    string `json:"policy_hash"`
	ActiveSeconds int64  `json:"active_seconds"`
	LastReminder  int64  `json:"last_reminder"`
	Extensions    int    `json:"extensions"`
	Warned        bool   `json:"warned"`
	LoggedOut     bool   `json:"logged_out"`
}

// Store persists tracker state
type Store interface {
	Load() (State, error)
	Save(State) error
}

// FileStore keeps state in a JSON file
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Load() (State, error) {
	var st State
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return st, err
	}
	if err := jsoniter.Unmarshal(data, &st); err != nil {
		// A corrupt file starts the day over
		return State{}, nil
	}
	return st, nil
}

func (s *FileStore) Save(st State) error {
	data, err := jsoniter.Marshal(st)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return err
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.Path)
}

// Remove deletes the persisted state
func (s *FileStore) Remove() error {
	err := os.Remove(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// MemoryStore is a Store that keeps state in memory
type MemoryStore struct {
	State State
	Saves int
}

func (m *MemoryStore) Load() (State, error) { return m.State, nil }

func (m *MemoryStore) Save(st State) error {
	m.State = st
	m.Saves++
	return nil
}
