package idempotency

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore keeps claims in process memory for tests. Claims must hold across Lambda
// instances, so the binaries always use the DynamoDB Store, RUN_LOCAL included.
type MemoryStore struct {
	mu        sync.Mutex
	records   map[string]Record
	ttlWindow time.Duration
	nowFunc   func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(ttlWindow time.Duration) *MemoryStore {
	return &MemoryStore{
		records:   map[string]Record{},
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

func (m *MemoryStore) Claim(_ context.Context, key, reference string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.nowFunc()
	if rec, ok := m.records[key]; ok && rec.ExpiresAt >= now.Unix() {
		return false, nil
	}
	m.records[key] = Record{
		Key:       key,
		Status:    StatusInProgress,
		Reference: reference,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(m.ttlWindow).Unix(),
	}
	return true, nil
}

func (m *MemoryStore) Get(_ context.Context, key string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *MemoryStore) Complete(_ context.Context, key, outcome string) error {
	return m.update(key, func(r *Record) {
		r.Status = StatusDone
		r.Outcome = outcome
	})
}

func (m *MemoryStore) Fail(_ context.Context, key, note string) error {
	return m.update(key, func(r *Record) {
		r.Status = StatusFailed
		r.Note = note
	})
}

func (m *MemoryStore) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
	return nil
}

func (m *MemoryStore) update(key string, fn func(*Record)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotClaimed, key)
	}
	fn(&rec)
	rec.UpdatedAt = m.nowFunc()
	m.records[key] = rec
	return nil
}
