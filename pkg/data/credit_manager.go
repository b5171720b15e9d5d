package data

import (
	"context"
	"fmt"

	"github.com/toM7x7/LLM-mindmap/pkg/event"
	"github.com/toM7x7/LLM-mindmap/pkg/log"
	"github.com/toM7x7/LLM-mindmap/pkg/model"
	"github.com/toM7x7/LLM-mindmap/pkg/storage"
)

// CreditManager meters AI usage against per-user credit balances.
type CreditManager struct {
	creditStore  storage.CreditStore
	eventManager *event.EventManager
	logger       *log.Logger
}

// NewCreditManager creates a new CreditManager instance.
func NewCreditManager(creditStore storage.CreditStore, eventManager *event.EventManager, logger *log.Logger) (*CreditManager, error) {
	if creditStore == nil {
		return nil, fmt.Errorf("creditStore not initialized")
	}
	if eventManager == nil {
		return nil, fmt.Errorf("eventManager not initialized")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger not initialized")
	}
	return &CreditManager{creditStore: creditStore, eventManager: eventManager, logger: logger}, nil
}

// CreditGet returns the balance of userID.
func (cm *CreditManager) CreditGet(ctx context.Context, userID int) (*model.Credit, error) {
	credit, err := cm.creditStore.CreditGet(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get credits: %w", err)
	}
	return credit, nil
}

// CreditConsume takes one credit from userID and returns the remaining balance.
// It fails with model.ErrInsufficientCredits when the balance is empty.
func (cm *CreditManager) CreditConsume(ctx context.Context, userID int, description string) (int, error) {
	remaining, err := cm.creditStore.CreditConsume(ctx, userID, 1, description)
	if err != nil {
		cm.logger.Warn(ctx, "Credit consumption refused", log.Fields{"userID": userID, "error": err})
		return 0, err
	}

	cm.eventManager.Publish(event.Event{Type: event.CreditsUsed, Data: event.CreditChange{UserID: userID, Amount: 1}})
	return remaining, nil
}

// CreditRefund returns one credit to userID after a failed metered call.
func (cm *CreditManager) CreditRefund(ctx context.Context, userID int, description string) (int, error) {
	balance, err := cm.creditStore.CreditAdd(ctx, userID, 1, model.TransactionRefund, description)
	if err != nil {
		cm.logger.Error(ctx, "Failed to refund credit", log.Fields{"userID": userID, "error": err})
		return 0, fmt.Errorf("failed to refund credit: %w", err)
	}

	cm.eventManager.Publish(event.Event{Type: event.CreditsRefunded, Data: event.CreditChange{UserID: userID, Amount: 1}})
	return balance, nil
}

// CreditPurchase adds the credits of the catalogue package packageID to userID.
func (cm *CreditManager) CreditPurchase(ctx context.Context, userID, packageID int) (*model.Credit, error) {
	pkg, ok := model.CreditPackageByID(packageID)
	if !ok {
		return nil, model.NewError(model.ErrNotFound, "purchase credits", "credit package %d not found", packageID)
	}

	if _, err := cm.creditStore.CreditAdd(ctx, userID, pkg.Amount, model.TransactionPurchase, pkg.Name); err != nil {
		return nil, fmt.Errorf("failed to purchase credits: %w", err)
	}
	cm.logger.Info(ctx, "Credits purchased", log.Fields{"userID": userID, "package": pkg.Name})

	cm.eventManager.Publish(event.Event{Type: event.CreditsPurchased, Data: event.CreditChange{UserID: userID, Amount: pkg.Amount}})
	return cm.CreditGet(ctx, userID)
}

// Packages returns the purchasable credit packages.
func (cm *CreditManager) Packages() []model.CreditPackage {
	out := make([]model.CreditPackage, len(model.CreditPackages))
	copy(out, model.CreditPackages)
	return out
}

// Transactions returns the credit history of userID, newest first.
func (cm *CreditManager) Transactions(ctx context.Context, userID int) ([]*model.Transaction, error) {
	txs, err := cm.creditStore.TransactionList(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}
