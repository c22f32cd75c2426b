package store

import (
	"context"
	"sync"
)

// Memory is an in-process Store implementation. A per-tenant lock serializes
// updates for the same tenant while leaving other tenants unblocked.
type Memory struct {
	mutex   sync.Mutex
	records map[string]*record
}

type record struct {
	mutex      sync.Mutex
	collection *Collection
}

func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]*record),
	}
}

func (m *Memory) Load(ctx context.Context, tenantID string) (*Collection, error) {
	rec := m.record(tenantID)

	rec.mutex.Lock()
	defer rec.mutex.Unlock()

	return rec.collection.Clone(), nil
}

func (m *Memory) Update(ctx context.Context, tenantID string, fn func(*Collection) error) error {
	rec := m.record(tenantID)

	rec.mutex.Lock()
	defer rec.mutex.Unlock()

	// Mutate a copy so a failed fn leaves the stored collection untouched
	working := rec.collection.Clone()
	if err := fn(working); err != nil {
		return err
	}

	rec.collection = working

	return nil
}

func (m *Memory) record(tenantID string) *record {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	rec, exists := m.records[tenantID]
	if !exists {
		rec = &record{collection: Seed()}
		m.records[tenantID] = rec
	}

	return rec
}
