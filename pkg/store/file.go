package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileStore stores each document as a file. A reference that is an
// absolute path or ends in ".json" names the file directly; any other
// reference is stored as <dir>/<ref>.json.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file store rooted at baseDir.
// If baseDir is empty, defaults to ~/.local/share/tspstudio/studies/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".local", "share", "tspstudio", "studies")
	}
	return &FileStore{baseDir: baseDir}, nil
}

// Path returns the file a reference is stored in.
func (s *FileStore) Path(ref string) string {
	if filepath.IsAbs(ref) || strings.HasSuffix(ref, ".json") {
		return ref
	}
	return filepath.Join(s.baseDir, ref+".json")
}

// Dir returns the base directory for named references.
func (s *FileStore) Dir() string { return s.baseDir }

func (s *FileStore) Load(ctx context.Context, ref string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path(ref))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", ref, ErrNotFound)
		}
		return nil, fmt.Errorf("read study file: %w", err)
	}
	return data, nil
}

// Save writes through a temporary file so an interrupted run never leaves a
// truncated study behind.
func (s *FileStore) Save(ctx context.Context, ref string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(ref)
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create study dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write study file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace study file: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(ref)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove study file: %w", err)
	}
	return nil
}

// List returns the named references under the base directory.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read study dir: %w", err)
	}
	var refs []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		refs = append(refs, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(refs)
	return refs, nil
}

func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
