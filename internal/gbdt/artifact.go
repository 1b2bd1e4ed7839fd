package gbdt

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Save persists the model atomically: the artifact is written to a temp
// file in the target directory and renamed into place, so a concurrent
// reader observes either the previous artifact or the new one, never a
// partial write.
func (m *Model) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	if err := enc.Encode(m); err != nil {
		tmp.Close()
		return fmt.Errorf("encode artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp artifact: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("commit artifact: %w", err)
	}
	return nil
}

// Load reads a persisted model. A missing file surfaces as fs.ErrNotExist
// so callers can map it to their own not-found error.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", path, err)
	}
	return &m, nil
}
