// Package data provides data management functionality for the mind-map backend.
// This file contains operations related to persisted mindmap documents.
package data

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/toM7x7/LLM-mindmap/pkg/event"
	"github.com/toM7x7/LLM-mindmap/pkg/log"
	"github.com/toM7x7/LLM-mindmap/pkg/model"
	"github.com/toM7x7/LLM-mindmap/pkg/storage"
	"github.com/toM7x7/LLM-mindmap/pkg/tree"
)

// Paging limits of MindmapList.
const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// MindmapManager handles the mindmap documents of a user.
type MindmapManager struct {
	mindmapStore storage.MindmapStore
	eventManager *event.EventManager
	logger       *log.Logger
}

// NewMindmapManager creates a new MindmapManager instance.
func NewMindmapManager(mindmapStore storage.MindmapStore, eventManager *event.EventManager, logger *log.Logger) (*MindmapManager, error) {
	if mindmapStore == nil {
		return nil, fmt.Errorf("mindmapStore not initialized")
	}
	if eventManager == nil {
		return nil, fmt.Errorf("eventManager not initialized")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger not initialized")
	}

	return &MindmapManager{
		mindmapStore: mindmapStore,
		eventManager: eventManager,
		logger:       logger,
	}, nil
}

// validateMindmapData checks that data decodes as a node tree.
func validateMindmapData(data json.RawMessage) error {
	if len(data) == 0 {
		return model.NewError(model.ErrValidation, "validate mindmap", "data is required")
	}
	if _, err := tree.Deserialize(string(data)); err != nil {
		return model.WrapError(model.ErrValidation, "validate mindmap", err)
	}
	return nil
}

func validateMindmapTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", model.NewError(model.ErrValidation, "validate mindmap", "title is required")
	}
	return title, nil
}

// MindmapAdd stores a new mindmap for userID.
func (mm *MindmapManager) MindmapAdd(ctx context.Context, userID int, title string, data json.RawMessage) (*model.Mindmap, error) {
	title, err := validateMindmapTitle(title)
	if err != nil {
		return nil, err
	}
	if err := validateMindmapData(data); err != nil {
		return nil, err
	}

	mm.logger.Info(ctx, "Adding new mindmap", log.Fields{"userID": userID, "title": title})
	id, err := mm.mindmapStore.MindmapAdd(ctx, model.MindmapInfo{UserID: userID, Title: title, Data: data})
	if err != nil {
		return nil, fmt.Errorf("failed to add mindmap: %w", err)
	}

	mindmap, err := mm.mindmapStore.MindmapGet(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload mindmap: %w", err)
	}

	mm.eventManager.Publish(event.Event{Type: event.MindmapCreated, Data: mindmap})
	return mindmap, nil
}

// MindmapGet returns mindmap id when it belongs to userID.
func (mm *MindmapManager) MindmapGet(ctx context.Context, userID, id int) (*model.Mindmap, error) {
	mindmap, err := mm.mindmapStore.MindmapGet(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get mindmap: %w", err)
	}
	return mindmap, nil
}

// MindmapList returns a page of the mindmaps of userID.
func (mm *MindmapManager) MindmapList(ctx context.Context, userID, skip, limit int) ([]*model.Mindmap, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	mindmaps, err := mm.mindmapStore.MindmapList(ctx, userID, skip, limit)
	if err != nil {
		mm.logger.Error(ctx, "Failed to list mindmaps", log.Fields{"error": err, "userID": userID})
		return nil, fmt.Errorf("failed to list mindmaps: %w", err)
	}
	return mindmaps, nil
}

// MindmapUpdate replaces the title and data of mindmap id.
func (mm *MindmapManager) MindmapUpdate(ctx context.Context, userID, id int, title string, data json.RawMessage) (*model.Mindmap, error) {
	title, err := validateMindmapTitle(title)
	if err != nil {
		return nil, err
	}
	if err := validateMindmapData(data); err != nil {
		return nil, err
	}

	mindmap, err := mm.MindmapGet(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	mm.logger.Info(ctx, "Updating mindmap", log.Fields{"mindmapID": id})
	err = mm.mindmapStore.MindmapUpdate(ctx, mindmap,
		model.MindmapInfo{Title: title, Data: data},
		model.MindmapFilter{Title: true, Data: true})
	if err != nil {
		return nil, fmt.Errorf("failed to update mindmap: %w", err)
	}

	mm.eventManager.Publish(event.Event{Type: event.MindmapUpdated, Data: mindmap})
	return mindmap, nil
}

// MindmapDelete removes mindmap id of userID.
func (mm *MindmapManager) MindmapDelete(ctx context.Context, userID, id int) error {
	mindmap, err := mm.MindmapGet(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := mm.mindmapStore.MindmapDelete(ctx, mindmap); err != nil {
		return fmt.Errorf("failed to delete mindmap: %w", err)
	}

	mm.eventManager.Publish(event.Event{Type: event.MindmapDeleted, Data: mindmap})
	return nil
}

// handleUserDeleted removes the remaining mindmaps of a deleted user.
func (mm *MindmapManager) handleUserDeleted(e event.Event) {
	user, ok := e.Data.(*model.User)
	if !ok {
		return
	}
	ctx := background()
	n, err := mm.mindmapStore.MindmapDeleteByUser(ctx, user.ID)
	if err != nil {
		mm.logger.Error(ctx, "Failed to delete mindmaps of deleted user", log.Fields{"error": err, "userID": user.ID})
		return
	}
	mm.logger.Info(ctx, "Mindmaps of deleted user removed", log.Fields{"userID": user.ID, "count": n})
}
