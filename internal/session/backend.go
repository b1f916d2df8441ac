package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Backend is key/value persistence with batch writes. SetMany and DeleteMany
// must apply all keys or none.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetMany(ctx context.Context, values map[string]string) error
	DeleteMany(ctx context.Context, keys ...string) error
}

// Provider hands out the Backend for one client (a browser id on the web front end).
type Provider interface {
	Backend(id string) Backend
}

// ==========================
// Memory
// ==========================

type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string]string)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryBackend) SetMany(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range values {
		m.data[k] = v
	}
	return nil
}

func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *MemoryBackend) DeleteMany(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// MemoryProvider keeps one MemoryBackend per client id. A client gets an
// entry on its first write and loses it when its last key is deleted, so
// visitors that only read leave nothing behind.
type MemoryProvider struct {
	mu       sync.Mutex
	backends map[string]*MemoryBackend
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{backends: make(map[string]*MemoryBackend)}
}

func (p *MemoryProvider) Backend(id string) Backend {
	return &memoryClient{p: p, id: id}
}

type memoryClient struct {
	p  *MemoryProvider
	id string
}

func (c *memoryClient) Get(ctx context.Context, key string) (string, bool, error) {
	c.p.mu.Lock()
	b, ok := c.p.backends[c.id]
	c.p.mu.Unlock()
	if !ok {
		return "", false, nil
	}
	return b.Get(ctx, key)
}

func (c *memoryClient) SetMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	b, ok := c.p.backends[c.id]
	if !ok {
		b = NewMemoryBackend()
		c.p.backends[c.id] = b
	}
	return b.SetMany(ctx, values)
}

func (c *memoryClient) DeleteMany(ctx context.Context, keys ...string) error {
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	b, ok := c.p.backends[c.id]
	if !ok {
		return nil
	}
	if err := b.DeleteMany(ctx, keys...); err != nil {
		return err
	}
	if b.Len() == 0 {
		delete(c.p.backends, c.id)
	}
	return nil
}

// ==========================
// File
// ==========================

// FileBackend keeps all keys in one JSON document and replaces it atomically.
type FileBackend struct {
	path string
	mu   *sync.Mutex
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path, mu: new(sync.Mutex)}
}

func (f *FileBackend) Path() string { return f.path }

func (f *FileBackend) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	values := map[string]string{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		// a corrupt file reads as empty; the next write replaces it
		return map[string]string{}, nil
	}
	return values, nil
}

func (f *FileBackend) write(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

func (f *FileBackend) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (f *FileBackend) SetMany(_ context.Context, values map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, err := f.read()
	if err != nil {
		return err
	}
	for k, v := range values {
		current[k] = v
	}
	return f.write(current)
}

func (f *FileBackend) DeleteMany(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, err := f.read()
	if err != nil {
		return err
	}
	n := len(current)
	for _, k := range keys {
		delete(current, k)
	}
	if len(current) == n {
		return nil
	}
	return f.write(current)
}

// FileProvider stores one session file per id under Dir. Files are created on
// the first write; backends are not cached, and all of them share one lock.
type FileProvider struct {
	Dir string

	mu sync.Mutex
}

func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{Dir: dir}
}

func (p *FileProvider) Backend(id string) Backend {
	return &FileBackend{path: filepath.Join(p.Dir, filepath.Base(id)+".json"), mu: &p.mu}
}
