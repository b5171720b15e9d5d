package storage

import (
	"fmt"
	"path/filepath"

	"github.com/toM7x7/LLM-mindmap/pkg/log"
	"github.com/toM7x7/LLM-mindmap/pkg/model"
)

// Storage represents the main storage implementation.
type Storage struct {
	db     Database
	logger *log.Logger
	UserStore
	MindmapStore
	CreditStore
	SnapshotStore
}

// NewStorage creates a new Storage instance and initializes the database.
func NewStorage(config *model.Config, logger *log.Logger) (*Storage, error) {
	dbDriver, err := validateDBDriver(config.DatabaseType)
	if err != nil {
		return nil, fmt.Errorf("invalid database driver '%s': %w", config.DatabaseType, err)
	}

	db, err := NewDatabase(dbDriver, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create database instance: %w", err)
	}

	dataSourceName := config.DatabaseDSN
	if dbDriver == SQLite {
		dataSourceName = filepath.Join(config.DatabaseDir, config.DatabaseFile)
	}

	if err := db.Open(dataSourceName); err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	return NewStorageWithDatabase(db, logger)
}

// NewStorageWithDatabase builds the stores over an already opened database and ensures the schema.
func NewStorageWithDatabase(db Database, logger *log.Logger) (*Storage, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if err := db.InitSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	storage := &Storage{db: db, logger: logger}
	storage.UserStore = NewUserStorage(storage)
	storage.MindmapStore = NewMindmapStorage(storage)
	storage.CreditStore = NewCreditStorage(storage)
	storage.SnapshotStore = NewSnapshotStorage(storage)
	return storage, nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}

// GetDatabase returns the database instance
func (s *Storage) GetDatabase() Database {
	return s.db
}
