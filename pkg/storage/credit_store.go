package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/toM7x7/LLM-mindmap/pkg/log"
	"github.com/toM7x7/LLM-mindmap/pkg/model"
)

// CreditStore defines the interface for credit balances and their transaction log.
type CreditStore interface {
	CreditGet(ctx context.Context, userID int) (*model.Credit, error)
	// CreditConsume deducts amount only when the balance covers it, returning the new balance.
	CreditConsume(ctx context.Context, userID, amount int, description string) (int, error)
	// CreditAdd raises the balance by amount and records a transaction of kind txType.
	CreditAdd(ctx context.Context, userID, amount int, txType model.TransactionType, description string) (int, error)
	TransactionList(ctx context.Context, userID int) ([]*model.Transaction, error)
}

// CreditStorage implements the CreditStore interface.
type CreditStorage struct {
	storage *Storage
	logger  *log.Logger
}

// NewCreditStorage creates a new CreditStorage instance.
func NewCreditStorage(storage *Storage) *CreditStorage {
	return &CreditStorage{storage: storage, logger: storage.logger}
}

// CreditGet returns the balance of userID.
func (s *CreditStorage) CreditGet(ctx context.Context, userID int) (*model.Credit, error) {
	var c model.Credit
	err := s.storage.GetDatabase().QueryRow(ctx,
		"SELECT id, user_id, amount, created, updated FROM credits WHERE user_id = ?",
		userID,
	).Scan(&c.ID, &c.UserID, &c.Amount, &c.Created, &c.Updated)
	if err != nil {
		return nil, classify("get credits", err)
	}
	return &c, nil
}

// CreditConsume atomically deducts amount from the balance of userID.
func (s *CreditStorage) CreditConsume(ctx context.Context, userID, amount int, description string) (int, error) {
	var remaining int
	err := s.storage.GetDatabase().Transact(ctx, func(q Querier) error {
		now := time.Now().UTC()
		result, err := q.Exec(ctx,
			"UPDATE credits SET amount = amount - ?, updated = ? WHERE user_id = ? AND amount >= ?",
			amount, now, userID, amount,
		)
		if err != nil {
			return fmt.Errorf("failed to deduct credits: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check deducted credits: %w", err)
		}
		if n == 0 {
			return model.NewError(model.ErrInsufficientCredits, "consume credits", "not enough credits")
		}

		if err := recordTransaction(ctx, q, userID, model.TransactionUsage, amount, description, now); err != nil {
			return err
		}
		return q.QueryRow(ctx, "SELECT amount FROM credits WHERE user_id = ?", userID).Scan(&remaining)
	})
	if err != nil {
		return 0, err
	}

	s.logger.Debug(ctx, "Credits consumed", log.Fields{"userID": userID, "amount": amount, "remaining": remaining})
	return remaining, nil
}

// CreditAdd credits amount to userID.
func (s *CreditStorage) CreditAdd(ctx context.Context, userID, amount int, txType model.TransactionType, description string) (int, error) {
	if amount <= 0 {
		return 0, model.NewError(model.ErrValidation, "add credits", "amount must be positive, got %d", amount)
	}

	var balance int
	err := s.storage.GetDatabase().Transact(ctx, func(q Querier) error {
		now := time.Now().UTC()
		result, err := q.Exec(ctx,
			"UPDATE credits SET amount = amount + ?, updated = ? WHERE user_id = ?",
			amount, now, userID,
		)
		if err != nil {
			return fmt.Errorf("failed to add credits: %w", err)
		}
		if n, err := result.RowsAffected(); err == nil && n == 0 {
			return model.NewError(model.ErrNotFound, "add credits", "no credit balance for user %d", userID)
		}

		if err := recordTransaction(ctx, q, userID, txType, amount, description, now); err != nil {
			return err
		}
		return q.QueryRow(ctx, "SELECT amount FROM credits WHERE user_id = ?", userID).Scan(&balance)
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info(ctx, "Credits added", log.Fields{"userID": userID, "amount": amount, "type": string(txType)})
	return balance, nil
}

// TransactionList returns the transactions of userID, newest first.
func (s *CreditStorage) TransactionList(ctx context.Context, userID int) ([]*model.Transaction, error) {
	rows, err := s.storage.GetDatabase().Query(ctx,
		"SELECT id, user_id, type, amount, description, created FROM transactions WHERE user_id = ? ORDER BY id DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	txs := []*model.Transaction{}
	for rows.Next() {
		var t model.Transaction
		var kind string
		if err := rows.Scan(&t.ID, &t.UserID, &kind, &t.Amount, &t.Description, &t.Created); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		t.Type = model.TransactionType(kind)
		txs = append(txs, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return txs, nil
}

func recordTransaction(ctx context.Context, q Querier, userID int, txType model.TransactionType, amount int, description string, at time.Time) error {
	_, err := q.Exec(ctx,
		"INSERT INTO transactions (user_id, type, amount, description, created) VALUES (?, ?, ?, ?, ?)",
		userID, string(txType), amount, description, at,
	)
	if err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}
	return nil
}
