// Package storage opens the key-value backend selected by configuration.
package storage

import (
	"fmt"
	"os"
	"strings"

	"github.com/LeJamon/goOracled/internal/storage/database"
	"github.com/LeJamon/goOracled/internal/storage/database/leveldb"
	"github.com/LeJamon/goOracled/internal/storage/database/memory"
	"github.com/LeJamon/goOracled/internal/storage/database/pebble"
)

const (
	BackendPebble  = "pebble"
	BackendLevelDB = "leveldb"
	BackendMemory  = "memory"
)

// Backends lists the accepted backend names.
func Backends() []string {
	return []string{BackendPebble, BackendLevelDB, BackendMemory}
}

// Open opens the named backend rooted at path. The memory backend ignores path.
func Open(backend, path string) (database.DB, error) {
	switch strings.ToLower(backend) {
	case BackendMemory:
		return memory.New(), nil
	case BackendPebble, BackendLevelDB:
	default:
		return nil, fmt.Errorf("%w: %s", database.ErrUnknownBackend, backend)
	}

	if path == "" {
		return nil, fmt.Errorf("%s backend requires a path", backend)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	if strings.ToLower(backend) == BackendPebble {
		return pebble.Open(path)
	}
	return leveldb.Open(path)
}
