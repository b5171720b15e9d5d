// Package session runs editor commands against per-user editing sessions.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/toM7x7/LLM-mindmap/pkg/ai"
	"github.com/toM7x7/LLM-mindmap/pkg/event"
	"github.com/toM7x7/LLM-mindmap/pkg/log"
	"github.com/toM7x7/LLM-mindmap/pkg/metrics"
	"github.com/toM7x7/LLM-mindmap/pkg/model"
	"github.com/toM7x7/LLM-mindmap/pkg/snapshot"
)

const (
	defaultCleanupInterval = 5 * time.Minute
	defaultSessionTimeout  = 30 * time.Minute
)

// Options configures a SessionManager.
type Options struct {
	Bridge       *ai.Bridge
	Store        snapshot.Store
	Events       *event.EventManager
	HistoryDepth int
	// AutoSave writes the document after every command that changed it.
	AutoSave bool
	// RestoreOnOpen loads the owner's saved document into new sessions.
	RestoreOnOpen   bool
	CleanupInterval time.Duration
	SessionTimeout  time.Duration
	Logger          *log.Logger
}

// SessionManager manages multiple concurrent sessions
type SessionManager struct {
	mu            sync.RWMutex
	sessions      map[string]*Session
	opts          Options
	cleanupTicker *time.Ticker
	done          chan struct{}
	stopOnce      sync.Once
	logger        *log.Logger
}

// NewSessionManager starts the cleanup goroutine
func NewSessionManager(opts Options) *SessionManager {
	if opts.Logger == nil {
		opts.Logger = log.NewNopLogger()
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	if opts.SessionTimeout <= 0 {
		opts.SessionTimeout = defaultSessionTimeout
	}
	ctx := context.Background()
	opts.Logger.Info(ctx, "Creating new SessionManager", nil)

	sm := &SessionManager{
		sessions: make(map[string]*Session),
		opts:     opts,
		done:     make(chan struct{}),
		logger:   opts.Logger,
	}
	sm.startCleanupRoutine()
	return sm
}

// SessionAdd creates a new session for owner and returns its ID. The owner names the
// snapshot namespace of the session.
func (sm *SessionManager) SessionAdd(ctx context.Context, owner string) (string, error) {
	sessionID := uuid.NewString()

	var store snapshot.Store
	if sm.opts.Store != nil {
		store = snapshot.Namespaced(sm.opts.Store, owner)
	}
	s := NewSession(sessionID, owner, sm.opts.HistoryDepth, sm.opts.Bridge, store, sm.logger)
	s.autoSave = sm.opts.AutoSave && store != nil

	if sm.opts.RestoreOnOpen && store != nil {
		restored, err := s.Restore(ctx)
		if err != nil {
			sm.logger.Warn(ctx, "Failed to restore saved map", log.Fields{"sessionID": sessionID, "error": err})
		} else if restored {
			sm.logger.Info(ctx, "Restored saved map", log.Fields{"sessionID": sessionID})
		}
	}

	sm.mu.Lock()
	sm.sessions[sessionID] = s
	sm.mu.Unlock()

	metrics.ActiveSessions.Inc()
	if sm.opts.Events != nil {
		sm.opts.Events.Publish(event.Event{Type: event.SessionOpened, Data: sessionID})
	}
	sm.logger.Info(ctx, "New session added", log.Fields{"sessionID": sessionID, "owner": owner})
	return sessionID, nil
}

// SessionGet retrieves a session by its ID
func (sm *SessionManager) SessionGet(sessionID string) (*Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, exists := sm.sessions[sessionID]
	return s, exists
}

// SessionDelete removes a session
func (sm *SessionManager) SessionDelete(sessionID string) {
	ctx := context.Background()

	sm.mu.Lock()
	_, exists := sm.sessions[sessionID]
	delete(sm.sessions, sessionID)
	sm.mu.Unlock()

	if !exists {
		sm.logger.Warn(ctx, "Attempted to delete non-existent session", log.Fields{"sessionID": sessionID})
		return
	}
	metrics.ActiveSessions.Dec()
	if sm.opts.Events != nil {
		sm.opts.Events.Publish(event.Event{Type: event.SessionClosed, Data: sessionID})
	}
	sm.logger.Info(ctx, "Session deleted", log.Fields{"sessionID": sessionID})
}

// SessionCount returns the number of open sessions.
func (sm *SessionManager) SessionCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// SessionRun executes a command for a specific session
func (sm *SessionManager) SessionRun(ctx context.Context, sessionID string, cmd model.Command) (interface{}, error) {
	s, exists := sm.SessionGet(sessionID)
	if !exists {
		return nil, model.NewError(model.ErrNotFound, "run command", "session not found")
	}

	sm.logger.Command(ctx, "Command received", log.Fields{
		"sessionID": sessionID,
		"scope":     cmd.Scope,
		"operation": cmd.Operation,
		"args":      cmd.Args,
	})

	result, err := s.CommandRun(ctx, cmd)
	if err != nil {
		sm.logger.Error(ctx, "Command execution failed", log.Fields{"sessionID": sessionID, "scope": cmd.Scope, "operation": cmd.Operation, "error": err})
		return nil, err
	}
	sm.logger.Debug(ctx, "Command executed successfully", log.Fields{"sessionID": sessionID})
	return result, nil
}

// startCleanupRoutine starts a goroutine that periodically cleans up inactive sessions
func (sm *SessionManager) startCleanupRoutine() {
	sm.cleanupTicker = time.NewTicker(sm.opts.CleanupInterval)
	go func() {
		for {
			select {
			case <-sm.cleanupTicker.C:
				sm.cleanupInactiveSessions(time.Now())
			case <-sm.done:
				sm.cleanupTicker.Stop()
				return
			}
		}
	}()
}

// Stop ends the cleanup routine and closes every session.
func (sm *SessionManager) Stop() {
	sm.stopOnce.Do(func() {
		close(sm.done)
		sm.mu.RLock()
		ids := make([]string, 0, len(sm.sessions))
		for id := range sm.sessions {
			ids = append(ids, id)
		}
		sm.mu.RUnlock()
		for _, id := range ids {
			sm.SessionDelete(id)
		}
		sm.logger.Info(context.Background(), "SessionManager stopped", nil)
	})
}

// cleanupInactiveSessions removes sessions idle for longer than the timeout
func (sm *SessionManager) cleanupInactiveSessions(now time.Time) {
	sm.mu.RLock()
	var idle []string
	for id, s := range sm.sessions {
		if now.Sub(s.LastActivity()) > sm.opts.SessionTimeout {
			idle = append(idle, id)
		}
	}
	sm.mu.RUnlock()

	for _, id := range idle {
		sm.logger.Info(context.Background(), "Removing inactive session", log.Fields{"sessionID": id})
		sm.SessionDelete(id)
	}
}
