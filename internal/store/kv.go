package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"
)

// KeyValue is a flat string store. Set applies all entries at once.
type KeyValue interface {
	Get(key string) (string, bool, error)
	Set(entries map[string]string) error
}

// FileKV keeps all keys in one JSON object file.
type FileKV struct {
	path string

	mu   sync.Mutex
	data map[string]string
}

// OpenFileKV loads path, creating its directory if needed. A missing file is
// an empty store.
func OpenFileKV(path string) (*FileKV, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create kv directory: %w", err)
	}
	kv := &FileKV{path: path, data: map[string]string{}}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return kv, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read kv file: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &kv.data); err != nil {
			return nil, fmt.Errorf("decode kv file: %w", err)
		}
	}
	return kv, nil
}

func (f *FileKV) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *FileKV) Set(entries map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := maps.Clone(f.data)
	maps.Copy(next, entries)

	raw, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("encode kv file: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write kv file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace kv file: %w", err)
	}
	f.data = next
	return nil
}

// MemoryKV is the last-resort store; nothing survives a restart.
type MemoryKV struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: map[string]string{}}
}

func (m *MemoryKV) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(entries map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	maps.Copy(m.data, entries)
	return nil
}
