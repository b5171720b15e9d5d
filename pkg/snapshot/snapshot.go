// Package snapshot persists the working editor document between runs.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/toM7x7/LLM-mindmap/pkg/model"
)

// Keys under which the tree and the chat transcript are stored.
const (
	DataKey = "mindmap-data"
	ChatKey = "mindmap-chat"
)

// Store is a string key-value store. Load reports a missing key with model.ErrNotFound.
type Store interface {
	Save(ctx context.Context, key, value string) error
	Load(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Namespaced prefixes every key with ns so several owners can share one store.
func Namespaced(store Store, ns string) Store {
	if ns == "" {
		return store
	}
	return &namespaced{store: store, prefix: ns + ":"}
}

type namespaced struct {
	store  Store
	prefix string
}

func (n *namespaced) Save(ctx context.Context, key, value string) error {
	return n.store.Save(ctx, n.prefix+key, value)
}

func (n *namespaced) Load(ctx context.Context, key string) (string, error) {
	return n.store.Load(ctx, n.prefix+key)
}

func (n *namespaced) Delete(ctx context.Context, key string) error {
	return n.store.Delete(ctx, n.prefix+key)
}

// Document is the persisted editor state.
type Document struct {
	Tree string
	Chat []model.ChatMessage
}

// SaveDocument writes the serialized tree and the chat transcript.
func SaveDocument(ctx context.Context, store Store, doc Document) error {
	if err := store.Save(ctx, DataKey, doc.Tree); err != nil {
		return fmt.Errorf("failed to save mindmap data: %w", err)
	}

	chat := doc.Chat
	if chat == nil {
		chat = []model.ChatMessage{}
	}
	data, err := json.Marshal(chat)
	if err != nil {
		return fmt.Errorf("failed to marshal chat: %w", err)
	}
	if err := store.Save(ctx, ChatKey, string(data)); err != nil {
		return fmt.Errorf("failed to save chat: %w", err)
	}
	return nil
}

// LoadDocument reads a previously saved document. A missing tree yields model.ErrNotFound;
// a missing or unreadable chat transcript yields an empty one.
func LoadDocument(ctx context.Context, store Store) (Document, error) {
	text, err := store.Load(ctx, DataKey)
	if err != nil {
		return Document{}, err
	}

	doc := Document{Tree: text, Chat: []model.ChatMessage{}}
	raw, err := store.Load(ctx, ChatKey)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return doc, nil
	case err != nil:
		return Document{}, fmt.Errorf("failed to load chat: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &doc.Chat); err != nil {
		doc.Chat = []model.ChatMessage{}
	}
	return doc, nil
}
