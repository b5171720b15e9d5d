package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/toM7x7/LLM-mindmap/pkg/ai"
	"github.com/toM7x7/LLM-mindmap/pkg/auth"
	"github.com/toM7x7/LLM-mindmap/pkg/data"
	"github.com/toM7x7/LLM-mindmap/pkg/model"
	"github.com/toM7x7/LLM-mindmap/pkg/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubCompleter struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []ai.CompletionRequest
}

func (s *stubCompleter) Complete(_ context.Context, req ai.CompletionRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return s.reply, s.err
}

type testEnv struct {
	server    *Server
	completer *stubCompleter
	handler   http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := storage.NewDatabase(storage.SQLite, nil)
	require.NoError(t, err)
	require.NoError(t, db.Open(filepath.Join(t.TempDir(), "api.db")))
	store, err := storage.NewStorageWithDatabase(db, nil)
	require.NoError(t, err)

	dm, err := data.NewDataManagerFromStorage(store, nil)
	require.NoError(t, err)
	dm.UserManager.SetHashCost(bcrypt.MinCost)
	t.Cleanup(func() {
		dm.Close()
		store.Close()
	})

	completer := &stubCompleter{reply: "assistant reply"}
	bridge, err := ai.NewBridge(completer, nil)
	require.NoError(t, err)
	authority, err := auth.NewHMACAuthority("test-secret", time.Hour, nil)
	require.NoError(t, err)

	srv, err := NewServer(Options{
		Data:        dm,
		Bridge:      bridge,
		Issuer:      authority,
		Verifier:    authority,
		Health:      store.GetDatabase().Ping,
		CORSOrigins: []string{"http://localhost:3000"},
	})
	require.NoError(t, err)
	return &testEnv{server: srv, completer: completer, handler: srv.Handler()}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(t *testing.T, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"username": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

// signup registers a user and returns its bearer token.
func (e *testEnv) signup(t *testing.T, email string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/users/", "", map[string]string{
		"email": email, "username": "tester", "password": "pw-123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.login(t, email, "pw-123")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var tok struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tok))
	require.Equal(t, "bearer", tok.TokenType)
	return tok.AccessToken
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestUsers(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "ann@example.com")

	w := env.do(t, http.MethodPost, "/users/", "", map[string]string{
		"email": "ann@example.com", "username": "again", "password": "x",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, problemContentType, w.Header().Get("Content-Type"))
	var problem ProblemDetail
	decode(t, w, &problem)
	assert.Equal(t, "Email already registered", problem.Detail)

	w = env.do(t, http.MethodPost, "/users/", "", map[string]string{"email": "nope", "username": "x", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.login(t, "ann@example.com", "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))

	w = env.do(t, http.MethodGet, "/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.do(t, http.MethodGet, "/users/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me map[string]interface{}
	decode(t, w, &me)
	assert.Equal(t, "ann@example.com", me["email"])
	assert.Equal(t, true, me["is_active"])
	assert.NotContains(t, me, "PasswordHash")

	w = env.do(t, http.MethodPut, "/users/me", token, map[string]string{"username": "annie"})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &me)
	assert.Equal(t, "annie", me["username"])

	w = env.do(t, http.MethodPut, "/users/me", token, map[string]string{"password": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMindmaps(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signup(t, "owner@example.com")
	stranger := env.signup(t, "stranger@example.com")

	doc := map[string]interface{}{
		"title": "Launch plan",
		"data":  map[string]interface{}{"id": 0, "title": "Launch", "children": []interface{}{}},
	}
	w := env.do(t, http.MethodPost, "/mindmaps/", owner, doc)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created model.Mindmap
	decode(t, w, &created)
	assert.Equal(t, "Launch plan", created.Title)
	assert.JSONEq(t, `{"id":0,"title":"Launch","children":[]}`, string(created.Data))

	w = env.do(t, http.MethodPost, "/mindmaps/", owner, map[string]interface{}{"title": "Bad", "data": []int{1}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(t, http.MethodPost, "/mindmaps/", owner, map[string]interface{}{"data": doc["data"]})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	path := "/mindmaps/" + strconv.Itoa(created.ID)
	w = env.do(t, http.MethodGet, path, stranger, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/mindmaps/?skip=0&limit=10", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []model.Mindmap
	decode(t, w, &list)
	assert.Len(t, list, 1)

	w = env.do(t, http.MethodGet, "/mindmaps/", stranger, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = env.do(t, http.MethodGet, "/mindmaps/?limit=ten", owner, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	doc["title"] = "Launch plan v2"
	w = env.do(t, http.MethodPut, path, owner, doc)
	require.Equal(t, http.StatusOK, w.Code)
	var updated model.Mindmap
	decode(t, w, &updated)
	assert.Equal(t, "Launch plan v2", updated.Title)

	w = env.do(t, http.MethodPut, path, stranger, doc)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodDelete, path, owner, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, http.MethodGet, path, owner, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodGet, "/mindmaps/abc", owner, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteMe(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "gone@example.com")

	w := env.do(t, http.MethodGet, "/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me model.User
	decode(t, w, &me)

	w = env.do(t, http.MethodPost, "/mindmaps/", token, map[string]interface{}{
		"title": "Soon gone",
		"data":  map[string]interface{}{"title": "Root", "children": []interface{}{}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodDelete, "/users/me", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/users/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.login(t, "gone@example.com", "pw-123")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	dm := env.server.data
	dm.EventManager.Wait()
	list, err := dm.MindmapManager.MindmapList(context.Background(), me.ID, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, list)

	env.signup(t, "gone@example.com")
}

func TestCredits(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "c@example.com")

	w := env.do(t, http.MethodGet, "/credits/", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var credit model.Credit
	decode(t, w, &credit)
	assert.Equal(t, model.InitialCredits, credit.Amount)

	w = env.do(t, http.MethodGet, "/credits/packages", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pkgs []model.CreditPackage
	decode(t, w, &pkgs)
	require.Len(t, pkgs, 3)
	assert.Equal(t, 200, pkgs[2].Amount)
	assert.Equal(t, 6000, pkgs[2].Price)

	w = env.do(t, http.MethodPost, "/credits/purchase", token, map[string]int{"package_id": 2})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &credit)
	assert.Equal(t, model.InitialCredits+50, credit.Amount)

	w = env.do(t, http.MethodPost, "/credits/purchase", token, map[string]int{"package_id": 9})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodPost, "/credits/purchase", token, map[string]int{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/credits/transactions", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var txs []model.Transaction
	decode(t, w, &txs)
	require.Len(t, txs, 1)
	assert.Equal(t, model.TransactionPurchase, txs[0].Type)
	assert.Equal(t, "Standard pack", txs[0].Description)
}

func TestAIChat(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "ai@example.com")

	w := env.do(t, http.MethodPost, "/ai/chat", token, map[string]interface{}{
		"prompt":  "Plan a trip",
		"type":    "mindmap_generation",
		"context": map[string]string{"title": "Trip"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp aiChatResponse
	decode(t, w, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "assistant reply", resp.Response)
	assert.Equal(t, model.InitialCredits-1, resp.RemainingCredits)

	env.completer.mu.Lock()
	msgs := env.completer.requests[len(env.completer.requests)-1].Messages
	env.completer.mu.Unlock()
	require.Len(t, msgs, 3)
	assert.Equal(t, "Plan a trip", msgs[1].Content)
	assert.Contains(t, msgs[2].Content, `"title":"Trip"`)

	w = env.do(t, http.MethodPost, "/ai/chat", token, map[string]string{"prompt": "x", "type": "poetry"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(t, http.MethodPost, "/ai/chat", token, map[string]string{"type": "chat"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.completer.mu.Lock()
	env.completer.err = model.NewError(model.ErrLLMUnavailable, "complete", "provider down")
	env.completer.mu.Unlock()

	w = env.do(t, http.MethodPost, "/ai/chat", token, map[string]string{"prompt": "hello"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	decode(t, w, &resp)
	assert.False(t, resp.Success)
	assert.Equal(t, "provider down", resp.Error)
	assert.Equal(t, model.InitialCredits-1, resp.RemainingCredits, "failed calls are refunded")

	env.completer.mu.Lock()
	env.completer.err = nil
	env.completer.mu.Unlock()
	for i := 0; i < model.InitialCredits-1; i++ {
		w = env.do(t, http.MethodPost, "/ai/chat", token, map[string]string{"prompt": "hello"})
		require.Equal(t, http.StatusOK, w.Code)
	}
	w = env.do(t, http.MethodPost, "/ai/chat", token, map[string]string{"prompt": "hello"})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}

func TestHealthMetricsAndCORS(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))

	w = env.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mindmap_http_requests_total")

	req = httptest.NewRequest(http.MethodOptions, "/mindmaps/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{model.NewError(model.ErrValidation, "op", "bad"), http.StatusBadRequest},
		{model.NewError(model.ErrConflict, "op", "dup"), http.StatusBadRequest},
		{model.NewError(model.ErrUnauthorized, "op", "no"), http.StatusUnauthorized},
		{model.NewError(model.ErrInsufficientCredits, "op", "empty"), http.StatusPaymentRequired},
		{model.NewError(model.ErrNotFound, "op", "gone"), http.StatusNotFound},
		{model.NewError(model.ErrLLMRateLimited, "op", "slow down"), http.StatusTooManyRequests},
		{model.NewError(model.ErrLLMMalformedResponse, "op", "junk"), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
