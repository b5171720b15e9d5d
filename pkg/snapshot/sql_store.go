package snapshot

import (
	"context"

	"github.com/toM7x7/LLM-mindmap/pkg/storage"
)

// SQLStore adapts the snapshots table of the relational storage to Store.
type SQLStore struct {
	store storage.SnapshotStore
}

// NewSQLStore wraps a storage.SnapshotStore.
func NewSQLStore(store storage.SnapshotStore) *SQLStore {
	return &SQLStore{store: store}
}

func (s *SQLStore) Save(ctx context.Context, key, value string) error {
	return s.store.SnapshotSave(ctx, key, value)
}

func (s *SQLStore) Load(ctx context.Context, key string) (string, error) {
	return s.store.SnapshotLoad(ctx, key)
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	return s.store.SnapshotDelete(ctx, key)
}
