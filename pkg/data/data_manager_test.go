package data

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/toM7x7/LLM-mindmap/pkg/metrics"
	"github.com/toM7x7/LLM-mindmap/pkg/model"
	"github.com/toM7x7/LLM-mindmap/pkg/storage"
)

func newTestManager(t *testing.T) *DataManager {
	t.Helper()
	db, err := storage.NewDatabase(storage.SQLite, nil)
	require.NoError(t, err)
	require.NoError(t, db.Open(filepath.Join(t.TempDir(), "data.db")))
	s, err := storage.NewStorageWithDatabase(db, nil)
	require.NoError(t, err)

	m, err := NewDataManagerFromStorage(s, nil)
	require.NoError(t, err)
	m.UserManager.SetHashCost(bcrypt.MinCost)
	t.Cleanup(func() {
		m.Close()
		s.Close()
	})
	return m
}

func TestUserManager_RegisterAndAuthenticate(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	user, err := m.UserManager.UserAdd(ctx, " ann@example.com ", "ann", "secret")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.NotEqual(t, []byte("secret"), user.PasswordHash)

	_, err = m.UserManager.UserAdd(ctx, "ann@example.com", "other", "x")
	assert.True(t, errors.Is(err, model.ErrConflict))

	_, err = m.UserManager.UserAdd(ctx, "not-an-email", "x", "x")
	assert.True(t, errors.Is(err, model.ErrValidation))

	credit, err := m.CreditManager.CreditGet(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InitialCredits, credit.Amount)

	authed, err := m.UserManager.UserAuthenticate(ctx, "ann@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	_, err = m.UserManager.UserAuthenticate(ctx, "ann@example.com", "wrong")
	assert.True(t, errors.Is(err, model.ErrUnauthorized))
	_, err = m.UserManager.UserAuthenticate(ctx, "nobody@example.com", "secret")
	assert.True(t, errors.Is(err, model.ErrUnauthorized))

	newName, newPass := "annie", "changed"
	updated, err := m.UserManager.UserUpdate(ctx, user, &newName, &newPass)
	require.NoError(t, err)
	assert.Equal(t, "annie", updated.Username)
	_, err = m.UserManager.UserAuthenticate(ctx, "ann@example.com", "changed")
	assert.NoError(t, err)
}

func TestMindmapManager(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	owner, err := m.UserManager.UserAdd(ctx, "o@example.com", "o", "pw")
	require.NoError(t, err)
	stranger, err := m.UserManager.UserAdd(ctx, "s@example.com", "s", "pw")
	require.NoError(t, err)

	data := json.RawMessage(`{"id":0,"title":"Plan","children":[{"id":1,"title":"A"}]}`)
	created, err := m.MindmapManager.MindmapAdd(ctx, owner.ID, "Plan", data)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, created.UserID)

	_, err = m.MindmapManager.MindmapAdd(ctx, owner.ID, "Bad", json.RawMessage(`[1,2,3]`))
	assert.True(t, errors.Is(err, model.ErrValidation))
	_, err = m.MindmapManager.MindmapAdd(ctx, owner.ID, "  ", data)
	assert.True(t, errors.Is(err, model.ErrValidation))

	_, err = m.MindmapManager.MindmapGet(ctx, stranger.ID, created.ID)
	assert.True(t, errors.Is(err, model.ErrNotFound))

	updated, err := m.MindmapManager.MindmapUpdate(ctx, owner.ID, created.ID, "Plan v2", json.RawMessage(`{"title":"Plan v2"}`))
	require.NoError(t, err)
	assert.Equal(t, "Plan v2", updated.Title)

	_, err = m.MindmapManager.MindmapUpdate(ctx, stranger.ID, created.ID, "hijack", data)
	assert.True(t, errors.Is(err, model.ErrNotFound))

	list, err := m.MindmapManager.MindmapList(ctx, owner.ID, -5, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, m.MindmapManager.MindmapDelete(ctx, owner.ID, created.ID))
	err = m.MindmapManager.MindmapDelete(ctx, owner.ID, created.ID)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestUserDelete_RemovesMindmaps(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	user, err := m.UserManager.UserAdd(ctx, "d@example.com", "d", "pw")
	require.NoError(t, err)
	_, err = m.MindmapManager.MindmapAdd(ctx, user.ID, "m", json.RawMessage(`{"title":"m"}`))
	require.NoError(t, err)

	require.NoError(t, m.UserManager.UserDelete(ctx, user))
	m.EventManager.Wait()

	list, err := m.MindmapManager.MindmapList(ctx, user.ID, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, list)
	_, err = m.UserManager.UserGet(ctx, user.ID)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestCreditManager(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	user, err := m.UserManager.UserAdd(ctx, "c@example.com", "c", "pw")
	require.NoError(t, err)

	usedBefore := testutil.ToFloat64(metrics.CreditEvents.WithLabelValues(string(model.TransactionUsage)))

	for i := model.InitialCredits - 1; i >= 0; i-- {
		remaining, err := m.CreditManager.CreditConsume(ctx, user.ID, "chat")
		require.NoError(t, err)
		assert.Equal(t, i, remaining)
	}
	_, err = m.CreditManager.CreditConsume(ctx, user.ID, "chat")
	assert.True(t, errors.Is(err, model.ErrInsufficientCredits))

	balance, err := m.CreditManager.CreditRefund(ctx, user.ID, "failed call")
	require.NoError(t, err)
	assert.Equal(t, 1, balance)

	credit, err := m.CreditManager.CreditPurchase(ctx, user.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 11, credit.Amount)

	_, err = m.CreditManager.CreditPurchase(ctx, user.ID, 42)
	assert.True(t, errors.Is(err, model.ErrNotFound))

	txs, err := m.CreditManager.Transactions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, txs, model.InitialCredits+2)
	assert.Equal(t, model.TransactionPurchase, txs[0].Type)
	assert.Equal(t, model.TransactionRefund, txs[1].Type)

	m.EventManager.Wait()
	usedAfter := testutil.ToFloat64(metrics.CreditEvents.WithLabelValues(string(model.TransactionUsage)))
	assert.Equal(t, float64(model.InitialCredits), usedAfter-usedBefore)

	pkgs := m.CreditManager.Packages()
	require.Len(t, pkgs, 3)
	pkgs[0].Amount = 0
	assert.Equal(t, 10, model.CreditPackages[0].Amount, "catalogue is returned by copy")
}
