package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryCache is an in-process Cache used when Redis is not available
type MemoryCache struct {
	mu     sync.RWMutex
	data   map[string]memoryEntry
	prefix string
	now    func() time.Time
}

func NewMemoryCache(prefix string) *MemoryCache {
	return &MemoryCache{
		data:   make(map[string]memoryEntry),
		prefix: prefix,
		now:    time.Now,
	}
}

func (m *MemoryCache) Close() error {
	return nil
}

func (m *MemoryCache) get(key string) ([]byte, bool) {
	m.mu.RLock()
	entry, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if entry.expired(m.now()) {
		m.mu.Lock()
		delete(m.data, key)
		m.mu.Unlock()
		return nil, false
	}
	return entry.value, true
}

func (m *MemoryCache) set(key string, value []byte, ttl time.Duration) {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.data[key] = entry
	m.mu.Unlock()
}

func (m *MemoryCache) processedKey(hash string) string {
	return m.prefix + "processed:" + hash
}

func (m *MemoryCache) IsProcessed(ctx context.Context, hash string) (bool, error) {
	_, ok := m.get(m.processedKey(hash))
	return ok, nil
}

func (m *MemoryCache) MarkProcessed(ctx context.Context, hash string, ttl time.Duration) error {
	m.set(m.processedKey(hash), []byte("1"), ttl)
	return nil
}

func (m *MemoryCache) ClearProcessed(ctx context.Context) error {
	prefix := m.processedKey("")
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			delete(m.data, key)
		}
	}
	return nil
}

func (m *MemoryCache) GetJSON(ctx context.Context, key string, dst interface{}) error {
	data, ok := m.get(m.prefix + key)
	if !ok {
		return ErrMiss
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode cached %s: %w", key, err)
	}
	return nil
}

func (m *MemoryCache) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	m.set(m.prefix+key, data, ttl)
	return nil
}
