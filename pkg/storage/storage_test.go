package storage

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toM7x7/LLM-mindmap/pkg/model"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	db, err := NewDatabase(SQLite, nil)
	require.NoError(t, err)
	require.NoError(t, db.Open(filepath.Join(t.TempDir(), "test.db")))

	s, err := NewStorageWithDatabase(db, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func addUser(t *testing.T, s *Storage, email string) *model.User {
	t.Helper()
	ctx := context.Background()
	id, err := s.UserAdd(ctx, model.UserInfo{
		Email:        email,
		Username:     "user",
		PasswordHash: []byte("hash"),
		Active:       true,
	}, model.InitialCredits)
	require.NoError(t, err)

	users, err := s.UserGet(ctx, model.UserInfo{ID: id}, model.UserFilter{ID: true})
	require.NoError(t, err)
	require.Len(t, users, 1)
	return users[0]
}

func TestRebind(t *testing.T) {
	q := "UPDATE credits SET amount = amount - ? WHERE user_id = ? AND amount >= ?"
	assert.Equal(t, q, rebind(SQLite, q))
	assert.Equal(t, "UPDATE credits SET amount = amount - $1 WHERE user_id = $2 AND amount >= $3", rebind(PostgreSQL, q))
}

func TestNewDatabase_UnknownDriver(t *testing.T) {
	_, err := NewDatabase("oracle", nil)
	assert.Error(t, err)

	_, err = validateDBDriver("postgres")
	assert.NoError(t, err)
}

func TestUserStore(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	u := addUser(t, s, "a@example.com")
	assert.Equal(t, "a@example.com", u.Email)
	assert.True(t, u.Active)
	assert.False(t, u.Created.IsZero())

	_, err := s.UserAdd(ctx, model.UserInfo{Email: "a@example.com", PasswordHash: []byte("x")}, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrConflict))

	credit, err := s.CreditGet(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InitialCredits, credit.Amount)

	require.NoError(t, s.UserUpdate(ctx, u,
		model.UserInfo{Username: "renamed", PasswordHash: []byte("new")},
		model.UserFilter{Username: true, PasswordHash: true}))

	users, err := s.UserGet(ctx, model.UserInfo{Email: "a@example.com"}, model.UserFilter{Email: true})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "renamed", users[0].Username)
	assert.Equal(t, []byte("new"), users[0].PasswordHash)

	err = s.UserUpdate(ctx, &model.User{ID: 999}, model.UserInfo{Username: "x"}, model.UserFilter{Username: true})
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestMindmapStore(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	owner := addUser(t, s, "owner@example.com")
	other := addUser(t, s, "other@example.com")

	var ids []int
	for _, title := range []string{"one", "two", "three"} {
		id, err := s.MindmapAdd(ctx, model.MindmapInfo{
			UserID: owner.ID,
			Title:  title,
			Data:   json.RawMessage(`{"id":0,"title":"` + title + `","children":[]}`),
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	page, err := s.MindmapList(ctx, owner.ID, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "two", page[0].Title)

	none, err := s.MindmapList(ctx, other.ID, 0, 100)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = s.MindmapGet(ctx, other.ID, ids[0])
	assert.True(t, errors.Is(err, model.ErrNotFound), "mindmaps are scoped to their owner")

	m, err := s.MindmapGet(ctx, owner.ID, ids[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":0,"title":"one","children":[]}`, string(m.Data))

	require.NoError(t, s.MindmapUpdate(ctx, m, model.MindmapInfo{Title: "uno"}, model.MindmapFilter{Title: true}))
	assert.Equal(t, "uno", m.Title)
	reloaded, err := s.MindmapGet(ctx, owner.ID, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "uno", reloaded.Title)
	assert.JSONEq(t, string(m.Data), string(reloaded.Data))

	require.NoError(t, s.MindmapDelete(ctx, m))
	err = s.MindmapDelete(ctx, m)
	assert.True(t, errors.Is(err, model.ErrNotFound))

	n, err := s.MindmapDeleteByUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestUserDelete_CascadesOwnedRows(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	u := addUser(t, s, "gone@example.com")
	_, err := s.MindmapAdd(ctx, model.MindmapInfo{UserID: u.ID, Title: "m", Data: json.RawMessage(`{}`)})
	require.NoError(t, err)

	require.NoError(t, s.UserDelete(ctx, u))

	_, err = s.CreditGet(ctx, u.ID)
	assert.True(t, errors.Is(err, model.ErrNotFound))
	maps, err := s.MindmapList(ctx, u.ID, 0, 100)
	require.NoError(t, err)
	assert.Empty(t, maps)
}

func TestCreditStore_ConsumeAndAdd(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	u := addUser(t, s, "c@example.com")

	remaining, err := s.CreditConsume(ctx, u.ID, 1, "chat")
	require.NoError(t, err)
	assert.Equal(t, model.InitialCredits-1, remaining)

	_, err = s.CreditConsume(ctx, u.ID, 100, "too much")
	assert.True(t, errors.Is(err, model.ErrInsufficientCredits))

	balance, err := s.CreditAdd(ctx, u.ID, 50, model.TransactionPurchase, "Standard pack")
	require.NoError(t, err)
	assert.Equal(t, model.InitialCredits-1+50, balance)

	_, err = s.CreditAdd(ctx, u.ID, 0, model.TransactionPurchase, "")
	assert.True(t, errors.Is(err, model.ErrValidation))

	txs, err := s.TransactionList(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, model.TransactionPurchase, txs[0].Type, "newest first")
	assert.Equal(t, 50, txs[0].Amount)
	assert.Equal(t, model.TransactionUsage, txs[1].Type)
}

func TestCreditStore_ConcurrentConsumeNeverOverdraws(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	u := addUser(t, s, "race@example.com")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		refused   int
	)
	for i := 0; i < 2*model.InitialCredits; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreditConsume(ctx, u.ID, 1, "chat")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if errors.Is(err, model.ErrInsufficientCredits) {
				refused++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, model.InitialCredits, succeeded)
	assert.Equal(t, model.InitialCredits, refused)
	credit, err := s.CreditGet(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, credit.Amount)
}

func TestSnapshotStore(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_, err := s.SnapshotLoad(ctx, "mindmap-data")
	assert.True(t, errors.Is(err, model.ErrNotFound))

	require.NoError(t, s.SnapshotSave(ctx, "mindmap-data", "v1"))
	require.NoError(t, s.SnapshotSave(ctx, "mindmap-data", "v2"))
	got, err := s.SnapshotLoad(ctx, "mindmap-data")
	require.NoError(t, err)
	assert.Equal(t, "v2", got)

	require.NoError(t, s.SnapshotDelete(ctx, "mindmap-data"))
	_, err = s.SnapshotLoad(ctx, "mindmap-data")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}
