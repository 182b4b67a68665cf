package store

import (
	"context"
	"sync"
)

type Memory struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string][]byte)}
}

func memKey(device, key string) string {
	return device + "\x00" + key
}

func (m *Memory) Load(_ context.Context, device, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	body, ok := m.records[memKey(device, key)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), body...), nil
}

func (m *Memory) Save(_ context.Context, device, key string, body []byte) error {
	m.mu.Lock()
	m.records[memKey(device, key)] = append([]byte(nil), body...)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, device, key string) error {
	m.mu.Lock()
	delete(m.records, memKey(device, key))
	m.mu.Unlock()
	return nil
}
