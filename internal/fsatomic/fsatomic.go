// Package fsatomic provides tmp+rename primitives for durable single-file
// writes, shared by the task-file mutator and the vault store.
package fsatomic

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile writes content to path using a temp file in the same directory
// followed by a rename, so readers never observe a partial write.
func WriteFile(path string, content []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, perm); err != nil {
		return fmt.Errorf("write tmp %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s -> %s: %w", tmp, path, err)
	}

	return nil
}

// ReadFile reads the content of path. It returns nil, nil if the file does
// not exist, matching the teacher's "absent means empty" convention for
// optional state files.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
