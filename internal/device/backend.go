package device

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

// ErrNotFound is returned by a Backend when a key has never been written.
var ErrNotFound = errors.New("device: key not found")

// Backend is a minimal key/value store for device-local blobs.
type Backend interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// FileBackend keeps each key as a JSON file under Dir.
type FileBackend struct {
	Dir string
}

// NewFileBackend creates dir if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create device dir: %w", err)
	}
	return &FileBackend{Dir: dir}, nil
}

func (b *FileBackend) path(key string) (string, error) {
	if !keyPattern.MatchString(key) {
		return "", fmt.Errorf("device: invalid key %q", key)
	}
	return filepath.Join(b.Dir, key+".json"), nil
}

func (b *FileBackend) Get(key string) ([]byte, error) {
	p, err := b.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// Set writes through a temp file and rename so a crash never leaves a
// truncated blob behind.
func (b *FileBackend) Set(key string, value []byte) error {
	p, err := b.path(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(b.Dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("device: temp file: %w", err)
	}
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("device: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("device: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("device: rename: %w", err)
	}
	return nil
}

func (b *FileBackend) Delete(key string) error {
	p, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// MemoryBackend is an in-process Backend.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (b *MemoryBackend) Get(key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (b *MemoryBackend) Set(key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = append([]byte(nil), value...)
	return nil
}

func (b *MemoryBackend) Delete(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key)
	return nil
}
