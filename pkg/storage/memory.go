package storage

import (
	"errors"
	"sort"
	"sync"
)

// ErrUnavailable is returned by a Memory store that has been told to fail.
var ErrUnavailable = errors.New("storage unavailable")

// Memory is an in-process Storage. FailReads and FailWrites make it behave
// like disabled or full browser storage.
type Memory struct {
	mu   sync.Mutex
	data map[string]string

	FailReads  bool
	FailWrites bool

	// Writes counts successful SetItem calls per key.
	Writes map[string]int
}

var _ Storage = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		data:   make(map[string]string),
		Writes: make(map[string]int),
	}
}

func (m *Memory) GetItem(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads {
		return "", false, ErrUnavailable
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return ErrUnavailable
	}
	m.data[key] = value
	m.Writes[key]++
	return nil
}

func (m *Memory) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return ErrUnavailable
	}
	delete(m.data, key)
	return nil
}

func (m *Memory) Keys() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads {
		return nil, ErrUnavailable
	}
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return ErrUnavailable
	}
	m.data = make(map[string]string)
	return nil
}
