package storage

import (
	"context"
	"time"

	"github.com/toM7x7/LLM-mindmap/pkg/log"
)

// SnapshotStore keeps small keyed documents such as the last editor state.
type SnapshotStore interface {
	SnapshotSave(ctx context.Context, key, value string) error
	SnapshotLoad(ctx context.Context, key string) (string, error)
	SnapshotDelete(ctx context.Context, key string) error
}

// SnapshotStorage implements SnapshotStore on the snapshots table.
type SnapshotStorage struct {
	storage *Storage
	logger  *log.Logger
}

// NewSnapshotStorage creates a new SnapshotStorage instance.
func NewSnapshotStorage(storage *Storage) *SnapshotStorage {
	return &SnapshotStorage{storage: storage, logger: storage.logger}
}

// SnapshotSave inserts or replaces the value stored under key.
func (s *SnapshotStorage) SnapshotSave(ctx context.Context, key, value string) error {
	_, err := s.storage.GetDatabase().Exec(ctx,
		`INSERT INTO snapshots (snapshot_key, value, updated) VALUES (?, ?, ?)
		ON CONFLICT (snapshot_key) DO UPDATE SET value = excluded.value, updated = excluded.updated`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		s.logger.Error(ctx, "Failed to save snapshot", log.Fields{"error": err, "key": key})
		return classify("save snapshot", err)
	}
	return nil
}

// SnapshotLoad returns the value stored under key, or a not-found error.
func (s *SnapshotStorage) SnapshotLoad(ctx context.Context, key string) (string, error) {
	var value string
	err := s.storage.GetDatabase().QueryRow(ctx, "SELECT value FROM snapshots WHERE snapshot_key = ?", key).Scan(&value)
	if err != nil {
		return "", classify("load snapshot", err)
	}
	return value, nil
}

// SnapshotDelete removes key if present.
func (s *SnapshotStorage) SnapshotDelete(ctx context.Context, key string) error {
	if _, err := s.storage.GetDatabase().Exec(ctx, "DELETE FROM snapshots WHERE snapshot_key = ?", key); err != nil {
		return classify("delete snapshot", err)
	}
	return nil
}
