package narrative

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileKV keeps values in a single JSON object on disk, rewritten on every Set.
// It plays the role of browser local storage for the terminal client.
type FileKV struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// OpenFileKV loads path if it exists. A corrupt file is treated as empty.
func OpenFileKV(path string) (*FileKV, error) {
	kv := &FileKV{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return kv, nil
	case err != nil:
		return nil, fmt.Errorf("read cache file %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &kv.values); err != nil {
		kv.values = make(map[string]string)
	}
	return kv, nil
}

func (f *FileKV) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *FileKV) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.values[key] = value
	data, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}
