package audit

import (
	"context"
	"sync"
	"time"
)

// MemoryLog keeps a bounded in-process audit trail.
type MemoryLog struct {
	mu       sync.Mutex
	capacity int
	entries  []Entry
}

// NewMemoryLog keeps at most capacity entries; capacity <= 0 keeps defaultListLimit.
func NewMemoryLog(capacity int) *MemoryLog {
	if capacity <= 0 {
		capacity = defaultListLimit
	}
	return &MemoryLog{capacity: capacity}
}

// Log appends an entry, dropping the oldest when full.
func (m *MemoryLog) Log(_ context.Context, entry Entry) error {
	entry = entry.complete(time.Now())
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	if over := len(m.entries) - m.capacity; over > 0 {
		m.entries = append([]Entry(nil), m.entries[over:]...)
	}
	return nil
}

// List returns the newest entries first, optionally filtered by action.
func (m *MemoryLog) List(_ context.Context, action string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var entries []Entry
	for i := len(m.entries) - 1; i >= 0 && len(entries) < limit; i-- {
		if action != "" && m.entries[i].Action != action {
			continue
		}
		entries = append(entries, m.entries[i])
	}
	return entries, nil
}
