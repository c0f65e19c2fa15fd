package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	applog "fintrack/internal/log"
	"fintrack/internal/storage"
	"fintrack/internal/storage/postgres"
	"fintrack/internal/store/memory"
)

// ErrNoSchema is returned by Migrate for backends without a schema.
var ErrNoSchema = errors.New("backend has no schema to migrate")

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(applog.FieldComponent, applog.ComponentBackend)
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case PostgresBackend:
		return f.createPostgresBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// Migrate implements Factory.Migrate
func (f *DefaultFactory) Migrate(ctx context.Context, config Config) (uint, error) {
	if err := config.Validate(); err != nil {
		return 0, err
	}

	var (
		version uint
		err     error
	)
	switch config.Type {
	case SQLiteBackend:
		version, err = storage.RunMigrations(config.SQLiteDBPath)
	case PostgresBackend:
		version, err = postgres.RunMigrations(config.PostgresURL)
	default:
		return 0, fmt.Errorf("%w: %s", ErrNoSchema, config.Type)
	}
	if err != nil {
		return 0, fmt.Errorf("migrate %s: %w", config.Type, err)
	}
	f.logger.InfoContext(ctx, "Migrations applied", "backend", config.Type.String(), "version", version)
	return version, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:   repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := postgres.Connect(ctx, config.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Postgres repository: %w", err)
	}

	f.logger.Info("Initialized Postgres backend")

	return &BackendResult{
		Store:   repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	var st *memory.Store
	if config.CategoriesFile != "" {
		st = memory.NewFromFile(config.CategoriesFile)
	} else {
		st = memory.NewDefault()
	}

	f.logger.Info("Initialized memory backend", "categories_file", config.CategoriesFile)

	return &BackendResult{
		Store:   st,
		Cleanup: nil, // No cleanup needed for memory backend
	}, nil
}
