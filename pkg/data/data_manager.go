// Package data provides data management functionality for the mind-map backend.
// It coordinates operations between the user, mindmap and credit managers.
package data

import (
	"context"
	"fmt"

	"github.com/toM7x7/LLM-mindmap/pkg/event"
	"github.com/toM7x7/LLM-mindmap/pkg/log"
	"github.com/toM7x7/LLM-mindmap/pkg/metrics"
	"github.com/toM7x7/LLM-mindmap/pkg/model"
	"github.com/toM7x7/LLM-mindmap/pkg/storage"
)

// DataManager is the main struct that coordinates all data operations
type DataManager struct {
	UserManager    *UserManager
	MindmapManager *MindmapManager
	CreditManager  *CreditManager
	EventManager   *event.EventManager
	Logger         *log.Logger
}

// NewDataManager creates a new DataManager instance
func NewDataManager(userStore storage.UserStore, mindmapStore storage.MindmapStore, creditStore storage.CreditStore, logger *log.Logger) (*DataManager, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	eventManager := event.NewEventManager(logger)
	m := &DataManager{
		EventManager: eventManager,
		Logger:       logger,
	}

	var err error
	m.UserManager, err = NewUserManager(userStore, eventManager, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create UserManager: %w", err)
	}

	m.MindmapManager, err = NewMindmapManager(mindmapStore, eventManager, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create MindmapManager: %w", err)
	}

	m.CreditManager, err = NewCreditManager(creditStore, eventManager, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create CreditManager: %w", err)
	}

	// Remove owned mindmaps when a user goes away
	eventManager.Subscribe(event.UserDeleted, m.MindmapManager.handleUserDeleted)

	// Credit movements feed the metrics
	eventManager.Subscribe(event.CreditsPurchased, recordCreditEvent(model.TransactionPurchase))
	eventManager.Subscribe(event.CreditsUsed, recordCreditEvent(model.TransactionUsage))
	eventManager.Subscribe(event.CreditsRefunded, recordCreditEvent(model.TransactionRefund))

	return m, nil
}

// NewDataManagerFromStorage wires the managers to the stores of s.
func NewDataManagerFromStorage(s *storage.Storage, logger *log.Logger) (*DataManager, error) {
	return NewDataManager(s.UserStore, s.MindmapStore, s.CreditStore, logger)
}

// Close waits for pending event handlers.
func (m *DataManager) Close() {
	m.EventManager.Wait()
}

func recordCreditEvent(txType model.TransactionType) event.EventHandler {
	return func(e event.Event) {
		change, ok := e.Data.(event.CreditChange)
		if !ok {
			return
		}
		metrics.CreditEvents.WithLabelValues(string(txType)).Inc()
		metrics.CreditAmount.WithLabelValues(string(txType)).Add(float64(change.Amount))
	}
}

// background is used by event handlers that outlive the triggering request.
func background() context.Context {
	return context.Background()
}
