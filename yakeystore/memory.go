package yakeystore

import (
	"context"
	"sync"
	"time"

	"github.com/YaCodeDev/GoYaVarRSA/yaerrors"
)

// Memory is a map-backed Store. Expired records are dropped when read.
type Memory struct {
	mutex   sync.RWMutex
	ttl     time.Duration
	records map[string]KeyRecord
}

// NewMemory returns an empty Memory store. A positive ttl makes every saved
// record expire after that long.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		records: make(map[string]KeyRecord),
	}
}

func (m *Memory) Save(_ context.Context, record *KeyRecord) yaerrors.Error {
	stored := *record
	if m.ttl > 0 {
		stored.ExpiresAt = time.Now().Add(m.ttl)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.records[record.ID] = stored

	return nil
}

func (m *Memory) Load(_ context.Context, id string) (*KeyRecord, yaerrors.Error) {
	m.mutex.RLock()
	record, ok := m.records[id]
	m.mutex.RUnlock()

	if !ok {
		return nil, notFound(id)
	}

	if record.expired(time.Now()) {
		m.mutex.Lock()
		delete(m.records, id)
		m.mutex.Unlock()

		return nil, notFound(id)
	}

	return &record, nil
}

func (m *Memory) Delete(_ context.Context, id string) yaerrors.Error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	record, ok := m.records[id]
	if !ok || record.expired(time.Now()) {
		delete(m.records, id)

		return notFound(id)
	}

	delete(m.records, id)

	return nil
}

func (m *Memory) Ping(context.Context) yaerrors.Error {
	return nil
}
