package store

import (
	"context"
	"sync"
	"time"
)

// Memory is a map-backed Backing. It keeps nothing across processes.
type Memory struct {
	mu     sync.Mutex
	data   map[string][]byte
	events []LLMEvent
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) AppendLLMRequest(_ context.Context, data LLMRequestEventData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.events) + 1)
	m.events = append(m.events, LLMEvent{ID: n, Sequence: n, Timestamp: time.Now().UTC(), LLMRequestEventData: data})
	return nil
}

func (m *Memory) QueryLLMEvents(_ context.Context, limit int) ([]LLMEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []LLMEvent
	for i := len(m.events) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, m.events[i])
	}
	return out, nil
}

func (m *Memory) GetLLMEvent(_ context.Context, id int64) (*LLMEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e := e
			return &e, nil
		}
	}
	return nil, nil
}
