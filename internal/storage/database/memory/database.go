// Package memory provides an in-process database backend for tests and
// ephemeral nodes.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/LeJamon/goOracled/internal/storage/database"
)

// DB implements database.DB over a map.
type DB struct {
	data     map[string][]byte
	mu       sync.RWMutex
	isClosed bool
}

func New() *DB {
	return &DB{
		data: make(map[string][]byte),
	}
}

func (m *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.isClosed {
		return nil, database.ErrDBClosed
	}
	if value, ok := m.data[string(key)]; ok {
		return bytes.Clone(value), nil
	}
	return nil, database.ErrKeyNotFound
}

func (m *DB) Write(ctx context.Context, key []byte, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.isClosed {
		return database.ErrDBClosed
	}
	m.data[string(key)] = bytes.Clone(value)
	return nil
}

func (m *DB) Delete(ctx context.Context, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.isClosed {
		return database.ErrDBClosed
	}
	delete(m.data, string(key))
	return nil
}

func (m *DB) Batch(ctx context.Context, ops []database.BatchOperation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.isClosed {
		return database.ErrDBClosed
	}
	for _, op := range ops {
		if op.Type != database.BatchPut && op.Type != database.BatchDelete {
			return fmt.Errorf("unknown batch operation type: %d", op.Type)
		}
	}
	for _, op := range ops {
		switch op.Type {
		case database.BatchPut:
			m.data[string(op.Key)] = bytes.Clone(op.Value)
		case database.BatchDelete:
			delete(m.data, string(op.Key))
		}
	}
	return nil
}

// Len returns the number of stored keys.
func (m *DB) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *DB) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.isClosed = true
	return nil
}

// Iterator works on a sorted snapshot taken when it is created.
type Iterator struct {
	keys     [][]byte
	values   [][]byte
	position int
}

func (m *DB) Iterator(ctx context.Context, start, end []byte) (database.Iterator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.isClosed {
		return nil, database.ErrDBClosed
	}

	keys := make([]string, 0)
	for k := range m.data {
		key := []byte(k)
		if (start == nil || bytes.Compare(key, start) >= 0) &&
			(end == nil || bytes.Compare(key, end) < 0) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	it := &Iterator{position: -1}
	for _, k := range keys {
		it.keys = append(it.keys, []byte(k))
		it.values = append(it.values, bytes.Clone(m.data[k]))
	}
	return it, nil
}

func (it *Iterator) Next() bool {
	it.position++
	return it.position < len(it.keys)
}

func (it *Iterator) Key() []byte {
	if it.position >= 0 && it.position < len(it.keys) {
		return it.keys[it.position]
	}
	return nil
}

func (it *Iterator) Value() []byte {
	if it.position >= 0 && it.position < len(it.values) {
		return it.values[it.position]
	}
	return nil
}

func (it *Iterator) Error() error {
	return nil
}

func (it *Iterator) Close() error {
	return nil
}
