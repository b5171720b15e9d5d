package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/toM7x7/LLM-mindmap/pkg/log"
	"github.com/toM7x7/LLM-mindmap/pkg/model"
)

// MindmapStore defines the interface for mindmap-related storage operations.
// Every lookup is scoped to the owning user.
type MindmapStore interface {
	MindmapAdd(ctx context.Context, newMindmap model.MindmapInfo) (int, error)
	MindmapGet(ctx context.Context, userID, mindmapID int) (*model.Mindmap, error)
	MindmapList(ctx context.Context, userID, skip, limit int) ([]*model.Mindmap, error)
	MindmapUpdate(ctx context.Context, mindmap *model.Mindmap, mindmapUpdateInfo model.MindmapInfo, mindmapFilter model.MindmapFilter) error
	MindmapDelete(ctx context.Context, mindmap *model.Mindmap) error
	MindmapDeleteByUser(ctx context.Context, userID int) (int, error)
}

// MindmapStorage implements the MindmapStore interface.
type MindmapStorage struct {
	storage *Storage
	logger  *log.Logger
}

// NewMindmapStorage creates a new MindmapStorage instance.
func NewMindmapStorage(storage *Storage) *MindmapStorage {
	return &MindmapStorage{
		storage: storage,
		logger:  storage.logger,
	}
}

const mindmapColumns = "id, user_id, title, data, created, updated"

// MindmapAdd adds a new mindmap to the database.
func (s *MindmapStorage) MindmapAdd(ctx context.Context, newMindmap model.MindmapInfo) (int, error) {
	now := time.Now().UTC()
	id, err := s.storage.GetDatabase().Insert(ctx,
		"INSERT INTO mindmaps (user_id, title, data, created, updated) VALUES (?, ?, ?, ?, ?)",
		newMindmap.UserID, newMindmap.Title, string(newMindmap.Data), now, now,
	)
	if err != nil {
		s.logger.Error(ctx, "Failed to add mindmap", log.Fields{"error": err, "userID": newMindmap.UserID})
		return 0, classify("add mindmap", err)
	}

	s.logger.Info(ctx, "Mindmap added", log.Fields{"mindmapID": id, "userID": newMindmap.UserID})
	return id, nil
}

// MindmapGet retrieves one mindmap owned by userID.
func (s *MindmapStorage) MindmapGet(ctx context.Context, userID, mindmapID int) (*model.Mindmap, error) {
	row := s.storage.GetDatabase().QueryRow(ctx,
		"SELECT "+mindmapColumns+" FROM mindmaps WHERE id = ? AND user_id = ?",
		mindmapID, userID,
	)
	m, err := scanMindmap(row.Scan)
	if err != nil {
		return nil, classify("get mindmap", err)
	}
	return m, nil
}

// MindmapList returns the mindmaps of userID ordered by id, paginated by skip and limit.
func (s *MindmapStorage) MindmapList(ctx context.Context, userID, skip, limit int) ([]*model.Mindmap, error) {
	rows, err := s.storage.GetDatabase().Query(ctx,
		"SELECT "+mindmapColumns+" FROM mindmaps WHERE user_id = ? ORDER BY id LIMIT ? OFFSET ?",
		userID, limit, skip,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query mindmaps: %w", err)
	}
	defer rows.Close()

	mindmaps := []*model.Mindmap{}
	for rows.Next() {
		m, err := scanMindmap(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mindmap row: %w", err)
		}
		mindmaps = append(mindmaps, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mindmap rows: %w", err)
	}
	return mindmaps, nil
}

// MindmapUpdate updates the fields selected by mindmapFilter and refreshes mindmap in place.
func (s *MindmapStorage) MindmapUpdate(ctx context.Context, mindmap *model.Mindmap, mindmapUpdateInfo model.MindmapInfo, mindmapFilter model.MindmapFilter) error {
	now := time.Now().UTC()
	sets := []string{"updated = ?"}
	args := []interface{}{now}

	if mindmapFilter.Title {
		sets = append(sets, "title = ?")
		args = append(args, mindmapUpdateInfo.Title)
	}
	if mindmapFilter.Data {
		sets = append(sets, "data = ?")
		args = append(args, string(mindmapUpdateInfo.Data))
	}
	args = append(args, mindmap.ID, mindmap.UserID)

	result, err := s.storage.GetDatabase().Exec(ctx,
		"UPDATE mindmaps SET "+strings.Join(sets, ", ")+" WHERE id = ? AND user_id = ?",
		args...,
	)
	if err != nil {
		s.logger.Error(ctx, "Failed to update mindmap", log.Fields{"error": err, "mindmapID": mindmap.ID})
		return classify("update mindmap", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return model.NewError(model.ErrNotFound, "update mindmap", "mindmap %d not found", mindmap.ID)
	}

	if mindmapFilter.Title {
		mindmap.Title = mindmapUpdateInfo.Title
	}
	if mindmapFilter.Data {
		mindmap.Data = mindmapUpdateInfo.Data
	}
	mindmap.Updated = now
	return nil
}

// MindmapDelete removes a mindmap from the database.
func (s *MindmapStorage) MindmapDelete(ctx context.Context, mindmap *model.Mindmap) error {
	result, err := s.storage.GetDatabase().Exec(ctx,
		"DELETE FROM mindmaps WHERE id = ? AND user_id = ?",
		mindmap.ID, mindmap.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete mindmap: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return model.NewError(model.ErrNotFound, "delete mindmap", "mindmap %d not found", mindmap.ID)
	}
	s.logger.Info(ctx, "Mindmap deleted", log.Fields{"mindmapID": mindmap.ID})
	return nil
}

// MindmapDeleteByUser removes every mindmap owned by userID and returns how many were removed.
func (s *MindmapStorage) MindmapDeleteByUser(ctx context.Context, userID int) (int, error) {
	result, err := s.storage.GetDatabase().Exec(ctx, "DELETE FROM mindmaps WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete mindmaps of user %d: %w", userID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(n), nil
}

func scanMindmap(scan func(dest ...interface{}) error) (*model.Mindmap, error) {
	var (
		m    model.Mindmap
		data string
	)
	if err := scan(&m.ID, &m.UserID, &m.Title, &data, &m.Created, &m.Updated); err != nil {
		return nil, err
	}
	m.Data = json.RawMessage(data)
	return &m, nil
}
