package store

import (
	"context"
	"sync"
	"time"

	"github.com/spigell/hh-interviewer/internal/interview"
)

type memoryEntry struct {
	version   int64
	data      []byte
	expiresAt time.Time
}

// Memory keeps records in process. Sessions are stored encoded so callers never
// share state with the store.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, id string) (*Record, error) {
	m.mu.Lock()
	entry, ok := m.live(id)
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}

	session, err := decode(entry.data)
	if err != nil {
		return nil, err
	}
	return &Record{Version: entry.version, Session: session}, nil
}

func (m *Memory) CompareAndSet(_ context.Context, id string, expected int64, session *interview.Session) (bool, error) {
	data, err := encode(session)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.live(id)
	if !ok {
		return false, ErrNotFound
	}
	if entry.version != expected {
		return false, nil
	}

	entry.version++
	entry.data = data
	m.entries[id] = entry
	return true, nil
}

func (m *Memory) PutWithTTL(_ context.Context, id string, session *interview.Session, ttl time.Duration) error {
	if err := validateID(id); err != nil {
		return err
	}
	data, err := encode(session)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	version := int64(1)
	if entry, ok := m.live(id); ok {
		version = entry.version + 1
	}
	m.entries[id] = memoryEntry{version: version, data: data, expiresAt: m.now().Add(ttl)}
	return nil
}

// live returns the entry unless it expired; expired entries are dropped.
// The caller holds m.mu.
func (m *Memory) live(id string) (memoryEntry, bool) {
	entry, ok := m.entries[id]
	if !ok {
		return memoryEntry{}, false
	}
	if !m.now().Before(entry.expiresAt) {
		delete(m.entries, id)
		return memoryEntry{}, false
	}
	return entry, true
}
