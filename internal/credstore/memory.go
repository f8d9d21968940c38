package credstore

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// memoryEntry представляє запис в пам'яті
type memoryEntry struct {
	Value     string
	ExpiresAt time.Time
}

// MemoryBackend реалізація Backend (in-memory) з TTL на кожен запис
type MemoryBackend struct {
	entries map[string]*memoryEntry
	mutex   sync.RWMutex
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

// NewMemoryBackend створює новий in-memory backend і запускає очищення
func NewMemoryBackend(cleanupInterval time.Duration) *MemoryBackend {
	backend := &MemoryBackend{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
		done:    make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go backend.cleanupRoutine(cleanupInterval)
	}

	return backend
}

// Get отримує запис, прострочені записи видаляються
func (m *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	m.mutex.RLock()
	entry, exists := m.entries[key]
	m.mutex.RUnlock()

	if !exists {
		return "", false, nil
	}

	if !m.now().Before(entry.ExpiresAt) {
		m.mutex.Lock()
		delete(m.entries, key)
		m.mutex.Unlock()
		return "", false, nil
	}

	return entry.Value, true, nil
}

// Set зберігає запис з TTL
func (m *MemoryBackend) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.entries[key] = &memoryEntry{
		Value:     value,
		ExpiresAt: m.now().Add(ttl),
	}
	return nil
}

// Delete видаляє запис
func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.entries, key)
	return nil
}

// CleanupExpired видаляє прострочені записи
func (m *MemoryBackend) CleanupExpired() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := m.now()
	cleaned := 0

	for key, entry := range m.entries {
		if !now.Before(entry.ExpiresAt) {
			delete(m.entries, key)
			cleaned++
		}
	}

	if cleaned > 0 {
		logrus.WithField("cleaned_count", cleaned).Debug("Cleaned up expired credential entries")
	}

	return cleaned
}

// Close зупиняє горутину очищення
func (m *MemoryBackend) Close() {
	m.once.Do(func() { close(m.done) })
}

// cleanupRoutine періодично очищає прострочені записи
func (m *MemoryBackend) cleanupRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.CleanupExpired()
		case <-m.done:
			return
		}
	}
}
