package storage

import (
	"context"
	"sync"
)

type MemoryStorage struct {
	records []RunRecord
	mutex   sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) AppendRecord(_ context.Context, record *RunRecord) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	// store a copy so later mutation by the caller is not visible
	cc := *record
	cc.GeneratedImages = append([]ImageEntry{}, record.GeneratedImages...)
	m.records = append(m.records, cc)
	return nil
}

// Records returns the appended records in order.
func (m *MemoryStorage) Records() []RunRecord {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return append([]RunRecord(nil), m.records...)
}

func (m *MemoryStorage) Close() error {
	return nil
}
