// Package snapshot persists serialized world state under a key. It is the storage collaborator of
// the engine: it only moves bytes and knows nothing about what they contain.
package snapshot

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrSnapshotNotFound is returned by Load when nothing is stored under the key.
var ErrSnapshotNotFound = eris.New("snapshot not found")

// Storage provides persistence for world snapshots.
type Storage interface {
	// Store saves data under key, replacing any existing snapshot.
	Store(ctx context.Context, key string, data []byte) error

	// Load returns the snapshot stored under key, or ErrSnapshotNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Close releases any connection held by the storage.
	Close() error
}

// StorageType defines the type of snapshot storage to use.
type StorageType uint8

const (
	StorageTypeUndefined StorageType = iota
	StorageTypeNop
	StorageTypeMemory
	StorageTypeRedis
)

const (
	nopStorageString       = "NOP"
	memoryStorageString    = "MEMORY"
	redisStorageString     = "REDIS"
	undefinedStorageString = "UNDEFINED"
)

func (s StorageType) String() string {
	switch s {
	case StorageTypeUndefined:
		return undefinedStorageString
	case StorageTypeNop:
		return nopStorageString
	case StorageTypeMemory:
		return memoryStorageString
	case StorageTypeRedis:
		return redisStorageString
	default:
		return undefinedStorageString
	}
}

func (s StorageType) IsValid() bool {
	return s == StorageTypeNop || s == StorageTypeMemory || s == StorageTypeRedis
}

func ParseStorageType(s string) (StorageType, error) {
	switch strings.ToUpper(s) {
	case nopStorageString:
		return StorageTypeNop, nil
	case memoryStorageString:
		return StorageTypeMemory, nil
	case redisStorageString:
		return StorageTypeRedis, nil
	default:
		return StorageTypeUndefined, eris.Errorf("invalid snapshot storage type: %s", s)
	}
}
