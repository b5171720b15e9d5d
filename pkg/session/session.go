package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/toM7x7/LLM-mindmap/pkg/ai"
	"github.com/toM7x7/LLM-mindmap/pkg/editor"
	"github.com/toM7x7/LLM-mindmap/pkg/log"
	"github.com/toM7x7/LLM-mindmap/pkg/metrics"
	"github.com/toM7x7/LLM-mindmap/pkg/model"
	"github.com/toM7x7/LLM-mindmap/pkg/snapshot"
	"github.com/toM7x7/LLM-mindmap/pkg/tree"
)

// CommandHandler is a function type for command handlers
type CommandHandler func(ctx context.Context, s *Session, cmd model.Command) (interface{}, error)

// Session represents an individual editing session
type Session struct {
	ID    string
	Owner string

	mu       sync.Mutex
	editor   *editor.Editor
	bridge   *ai.Bridge
	store    snapshot.Store
	autoSave bool
	proposal *Proposal
	// requestSeq identifies the most recent AI request; older replies are superseded.
	requestSeq uint64

	lastActivity    atomic.Int64
	commandHandlers map[string]map[string]CommandHandler
	logger          *log.Logger
}

// Proposal is an AI update waiting for confirmation.
type Proposal struct {
	Root        *model.Node
	Changes     []model.ChangeRecord
	BaseVersion uint64
}

// MapView is a detached copy of the map for display.
type MapView struct {
	Root       *model.Node
	SelectedID int
}

// NewSession creates a new Session instance. store may be nil, which disables save and load.
func NewSession(id, owner string, historyDepth int, bridge *ai.Bridge, store snapshot.Store, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	s := &Session{
		ID:     id,
		Owner:  owner,
		editor: editor.New(historyDepth),
		bridge: bridge,
		store:  store,
		logger: logger,
	}
	s.touch()
	s.initCommandHandlers()
	return s
}

// initCommandHandlers initializes the command handlers map
func (s *Session) initCommandHandlers() {
	s.commandHandlers = map[string]map[string]CommandHandler{
		"node":    initNodeCommandHandlers(),
		"map":     initMapCommandHandlers(),
		"history": initHistoryCommandHandlers(),
		"chat":    initChatCommandHandlers(),
		"ai":      initAICommandHandlers(),
	}
}

// CommandRun executes a command within the session context. Commands of one session
// never run in parallel; AI handlers give up the lock only while waiting for the model.
func (s *Session) CommandRun(ctx context.Context, cmd model.Command) (result interface{}, err error) {
	s.touch()
	defer func() {
		metrics.EditorCommands.WithLabelValues(cmd.Scope, cmd.Operation, metrics.Result(err)).Inc()
	}()

	scopeHandlers, ok := s.commandHandlers[cmd.Scope]
	if !ok {
		return nil, model.NewError(model.ErrValidation, "run command", "invalid command scope %q", cmd.Scope)
	}
	handler, ok := scopeHandlers[cmd.Operation]
	if !ok {
		return nil, model.NewError(model.ErrValidation, "run command", "invalid command operation %q for scope %q", cmd.Operation, cmd.Scope)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	version, chatLen := s.editor.Version(), len(s.editor.Chat())
	result, err = handler(ctx, s, cmd)
	if err == nil && s.autoSave && (s.editor.Version() != version || len(s.editor.Chat()) != chatLen) {
		if saveErr := s.save(ctx); saveErr != nil {
			s.logger.Warn(ctx, "Autosave failed", log.Fields{"sessionID": s.ID, "error": saveErr})
		}
	}
	return result, err
}

// LastActivity returns the time of the last command.
func (s *Session) LastActivity() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

func (s *Session) touch() {
	s.lastActivity.Store(time.Now().UnixNano())
}

// View returns a detached copy of the current map.
func (s *Session) View() *MapView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

func (s *Session) view() *MapView {
	v := &MapView{Root: tree.Clone(s.editor.Root()), SelectedID: -1}
	tree.RebuildParentReferences(v.Root)
	if sel := s.editor.Selected(); sel != nil {
		v.SelectedID = sel.ID
	}
	return v
}

// Restore loads the saved document, if any. A missing document is not an error.
func (s *Session) Restore(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.load(ctx)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *Session) save(ctx context.Context) error {
	if s.store == nil {
		return model.NewError(model.ErrValidation, "save", "no snapshot store is configured")
	}
	text, err := s.editor.Serialize()
	if err != nil {
		return err
	}
	return snapshot.SaveDocument(ctx, s.store, snapshot.Document{Tree: text, Chat: s.editor.Chat()})
}

func (s *Session) load(ctx context.Context) error {
	if s.store == nil {
		return model.NewError(model.ErrValidation, "load", "no snapshot store is configured")
	}
	doc, err := snapshot.LoadDocument(ctx, s.store)
	if err != nil {
		return err
	}
	if err := s.editor.Restore(doc.Tree, doc.Chat); err != nil {
		return fmt.Errorf("failed to restore saved map: %w", err)
	}
	s.proposal = nil
	return nil
}

// request captures the state an AI call was issued against.
type request struct {
	seq     uint64
	version uint64
	mode    ai.Mode
}

func (s *Session) beginRequest(mode ai.Mode) request {
	s.requestSeq++
	return request{seq: s.requestSeq, version: s.editor.Version(), mode: mode}
}

// unlocked runs fn without holding the session lock. The caller must hold it.
func (s *Session) unlocked(fn func()) {
	s.mu.Unlock()
	defer s.mu.Lock()
	fn()
}

// superseded reports a reply whose request was followed by a newer one.
func (s *Session) superseded(req request) error {
	if req.seq != s.requestSeq {
		metrics.StaleResponses.WithLabelValues(string(req.mode)).Inc()
		return model.NewError(model.ErrStaleResponse, string(req.mode), "a newer AI request replaced this one")
	}
	return nil
}

// stale reports a reply that no longer matches the map it was computed from.
func (s *Session) stale(req request) error {
	if err := s.superseded(req); err != nil {
		return err
	}
	if req.version != s.editor.Version() {
		metrics.StaleResponses.WithLabelValues(string(req.mode)).Inc()
		return model.NewError(model.ErrStaleResponse, string(req.mode), "the map changed while the AI was working")
	}
	return nil
}

func (s *Session) requireBridge(op string) error {
	if s.bridge == nil {
		return model.NewError(model.ErrLLMUnavailable, op, "no language model is configured")
	}
	return nil
}
