package archive

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Memory keeps archived objects in a map. It backs tests and local runs.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewMemory constructs an empty in-memory archive.
func NewMemory() *Memory {
	return &Memory{objects: map[string][]byte{}}
}

// PutObject stores a copy of data under path and returns a mem:// URI.
func (m *Memory) PutObject(_ context.Context, path string, _ string, data []byte) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path is required")
	}
	cp := make([]byte, len(data))
	copy(cp, data)

	m.mu.Lock()
	m.objects[path] = cp
	m.mu.Unlock()
	return "mem://" + path, nil
}

// Object returns the stored bytes for path, if present.
func (m *Memory) Object(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[path]
	return data, ok
}

// Len reports how many objects are stored.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
