package warden

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

const intentFileName = ".warden_intent"

// IntentStore holds the goal of the last apply that failed verification.
// Only one value is ever stored.
type IntentStore interface {
	Read() (string, bool, error)
	Write(goal string) error
	Clear() error
}

type FileIntentStore struct {
	Path string
}

func NewFileIntentStore(root string) *FileIntentStore {
	return &FileIntentStore{Path: filepath.Join(root, intentFileName)}
}

func (s *FileIntentStore) Read() (string, bool, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read intent: %w", err)
	}
	goal := strings.TrimSpace(string(data))
	return goal, goal != "", nil
}

func (s *FileIntentStore) Write(goal string) error {
	if err := os.WriteFile(s.Path, []byte(strings.TrimSpace(goal)), 0644); err != nil {
		return fmt.Errorf("failed to write intent: %w", err)
	}
	return nil
}

func (s *FileIntentStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to clear intent: %w", err)
	}
	return nil
}

type MemoryIntentStore struct {
	mu   sync.Mutex
	goal string
}

func (s *MemoryIntentStore) Read() (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goal, s.goal != "", nil
}

func (s *MemoryIntentStore) Write(goal string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goal = strings.TrimSpace(goal)
	return nil
}

func (s *MemoryIntentStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goal = ""
	return nil
}

// FindProjectRoot prefers the enclosing git work tree and falls back to
// the working directory.
func FindProjectRoot() (string, error) {
	out, err := exec.Command("git", "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return os.Getwd()
	}
	return strings.TrimSpace(string(out)), nil
}
