// ABOUTME: In-process cache backend built on go-cache
// ABOUTME: Entries expire on their own; a janitor sweeps them periodically
package cache

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryBackend keeps entries in process memory.
type MemoryBackend struct {
	items *gocache.Cache
}

// NewMemoryBackend creates a memory backend whose janitor runs every
// cleanupInterval.
func NewMemoryBackend(cleanupInterval time.Duration) *MemoryBackend {
	return &MemoryBackend{
		items: gocache.New(DefaultTTL, cleanupInterval),
	}
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.items.Get(key)
	if !ok {
		return nil, false, nil
	}
	data, ok := v.([]byte)
	return data, ok, nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.items.Set(key, value, ttl)
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.items.Delete(key)
	return nil
}

func (m *MemoryBackend) DeletePrefix(_ context.Context, prefix string) error {
	for key := range m.items.Items() {
		if strings.HasPrefix(key, prefix) {
			m.items.Delete(key)
		}
	}
	return nil
}

func (m *MemoryBackend) Clear(_ context.Context) error {
	m.items.Flush()
	return nil
}

// Len returns the number of stored entries, including expired ones the
// janitor has not swept yet.
func (m *MemoryBackend) Len() int {
	return m.items.ItemCount()
}

func (m *MemoryBackend) Close() error {
	m.items.Flush()
	return nil
}
