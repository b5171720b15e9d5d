// Package event handles triggering of operations without direct dependency
package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/toM7x7/LLM-mindmap/pkg/log"
)

// EventType represents the type of event
type EventType int

const (
	UserCreated EventType = iota
	UserDeleted
	MindmapCreated
	MindmapUpdated
	MindmapDeleted
	CreditsPurchased
	CreditsUsed
	CreditsRefunded
	SessionOpened
	SessionClosed
)

var eventNames = map[EventType]string{
	UserCreated:      "user_created",
	UserDeleted:      "user_deleted",
	MindmapCreated:   "mindmap_created",
	MindmapUpdated:   "mindmap_updated",
	MindmapDeleted:   "mindmap_deleted",
	CreditsPurchased: "credits_purchased",
	CreditsUsed:      "credits_used",
	CreditsRefunded:  "credits_refunded",
	SessionOpened:    "session_opened",
	SessionClosed:    "session_closed",
}

func (t EventType) String() string {
	if name, ok := eventNames[t]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", int(t))
}

// Event represents an event with its type and associated data
type Event struct {
	Type EventType
	Data interface{}
}

// CreditChange is the payload of the credit events
type CreditChange struct {
	UserID int
	Amount int
}

// EventHandler is a function type for event handlers
type EventHandler func(Event)

// EventManager manages event subscriptions and publications
type EventManager struct {
	subscribers map[EventType][]EventHandler
	mu          sync.RWMutex
	inflight    sync.WaitGroup
	logger      *log.Logger
}

// NewEventManager creates a new EventManager instance
func NewEventManager(logger *log.Logger) *EventManager {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &EventManager{
		subscribers: make(map[EventType][]EventHandler),
		logger:      logger,
	}
}

// Subscribe adds a new event handler for a specific event type
func (em *EventManager) Subscribe(eventType EventType, handler EventHandler) {
	em.mu.Lock()
	defer em.mu.Unlock()
	em.subscribers[eventType] = append(em.subscribers[eventType], handler)
}

// Publish sends an event to all subscribed handlers, each in its own goroutine
func (em *EventManager) Publish(event Event) {
	em.mu.RLock()
	defer em.mu.RUnlock()
	for _, handler := range em.subscribers[event.Type] {
		em.inflight.Add(1)
		go func(h EventHandler) {
			defer em.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					em.logger.Error(context.Background(), "Panic in event handler", log.Fields{
						"event": event.Type.String(),
						"panic": fmt.Sprint(r),
					})
				}
			}()
			h(event)
		}(handler)
	}
}

// Wait blocks until every handler started by Publish has returned
func (em *EventManager) Wait() {
	em.inflight.Wait()
}
