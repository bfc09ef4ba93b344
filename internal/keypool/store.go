package keypool

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// FileStore reads and rewrites a plain text key file. Lines that are blank or
// start with '#' are preserved on rewrite but never treated as keys.
type FileStore struct {
	path string
}

// NewFileStore builds a FileStore rooted at the provided path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the key list from disk in file order.
func (s *FileStore) Load() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read key file %s: %w", s.path, err)
		}
		return nil, fmt.Errorf("read key file: %w", err)
	}

	var keys []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keys = append(keys, line)
	}
	return keys, nil
}

// Remove rewrites the file without any line containing the given key.
// Comments and unrelated lines survive the rewrite.
func (s *FileStore) Remove(key string) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read key file: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if key != "" && strings.Contains(line, key) {
			continue
		}
		kept = append(kept, line)
	}

	if err := os.WriteFile(s.path, []byte(strings.Join(kept, "\n")), 0o600); err != nil {
		return fmt.Errorf("rewrite key file: %w", err)
	}
	return nil
}
