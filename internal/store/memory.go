package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Memory keeps documents in process memory. Used for tests and local dev.
// Writes to one key are serialized by a per-key mutex; reads only take the
// map lock.
type Memory struct {
	mu    sync.RWMutex
	data  map[string]map[string][]byte
	locks sync.Map // collection + "/" + key -> *sync.Mutex
}

func NewMemory() *Memory {
	return &Memory{data: map[string]map[string][]byte{}}
}

func (m *Memory) keyLock(collection, key string) *sync.Mutex {
	l, _ := m.locks.LoadOrStore(collection+"/"+key, &sync.Mutex{})
	return l.(*sync.Mutex)
}

func (m *Memory) read(collection, key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.data[collection][key]
	return b, ok
}

func (m *Memory) write(collection, key string, b []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, ok := m.data[collection]
	if !ok {
		coll = map[string][]byte{}
		m.data[collection] = coll
	}
	coll[key] = b
}

func (m *Memory) Get(_ context.Context, collection, key string, dst interface{}) (bool, error) {
	b, ok := m.read(collection, key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return true, fmt.Errorf("decode %s/%s: %w", collection, key, err)
	}
	return true, nil
}

func (m *Memory) Set(_ context.Context, collection, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, key, err)
	}
	l := m.keyLock(collection, key)
	l.Lock()
	defer l.Unlock()
	m.write(collection, key, b)
	return nil
}

func (m *Memory) Merge(ctx context.Context, collection, key string, fields map[string]interface{}) error {
	return m.Update(ctx, collection, key, func(current []byte, _ bool) (interface{}, error) {
		return MergeFields(current, fields)
	})
}

func (m *Memory) Create(_ context.Context, collection, key string, v interface{}) (bool, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("encode %s/%s: %w", collection, key, err)
	}
	l := m.keyLock(collection, key)
	l.Lock()
	defer l.Unlock()
	if _, exists := m.read(collection, key); exists {
		return false, nil
	}
	m.write(collection, key, b)
	return true, nil
}

func (m *Memory) Update(_ context.Context, collection, key string, fn UpdateFunc) error {
	l := m.keyLock(collection, key)
	l.Lock()
	defer l.Unlock()

	current, exists := m.read(collection, key)
	next, err := fn(current, exists)
	if errors.Is(err, ErrSkipWrite) {
		return nil
	}
	if err != nil {
		return err
	}
	b, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, key, err)
	}
	m.write(collection, key, b)
	return nil
}

func (m *Memory) Delete(_ context.Context, collection, key string) error {
	l := m.keyLock(collection, key)
	l.Lock()
	defer l.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[collection], key)
	return nil
}

func (m *Memory) Query(_ context.Context, collection string, filters ...Filter) ([]Document, error) {
	m.mu.RLock()
	snapshot := make([]Document, 0, len(m.data[collection]))
	for k, b := range m.data[collection] {
		snapshot = append(snapshot, Document{Key: k, Data: b})
	}
	m.mu.RUnlock()

	// map order is random; keep scans deterministic
	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].Key < snapshot[j].Key })

	out := snapshot[:0]
	for _, d := range snapshot {
		ok, err := Matches(d.Data, filters)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
