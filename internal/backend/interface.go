// Package backend builds the storage repository selected by configuration.
package backend

import (
	"context"

	"expenses/internal/storage"
)

type CleanupFunc func() error

// Result is a ready repository and the function that releases it.
type Result struct {
	Repository storage.Repository
	Cleanup    CleanupFunc
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

type Config struct {
	Type BackendType

	SQLiteDBPath string
	DatabaseURL  string

	// Memory backend reads seed_categories.txt from here when present.
	DataDirectory string
}

type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
