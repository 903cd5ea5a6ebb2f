package backend

import (
	"context"
	"fmt"
	"log/slog"

	"expenses/internal/storage"
	"expenses/internal/storage/memory"
	"expenses/internal/storage/postgres"
)

type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return &Result{Repository: repo, Cleanup: repo.Close}, nil

	case PostgresBackend:
		repo, err := postgres.New(ctx, config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL repository: %w", err)
		}
		f.logger.Info("Initialized PostgreSQL backend")
		return &Result{Repository: repo, Cleanup: repo.Close}, nil

	case MemoryBackend:
		dataDir := config.DataDirectory
		if dataDir == "" {
			dataDir = "data"
		}
		store := memory.NewFromFiles(dataDir)
		f.logger.Info("Initialized memory backend", "data_directory", dataDir)
		return &Result{Repository: store, Cleanup: store.Close}, nil
	}

	return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
}
