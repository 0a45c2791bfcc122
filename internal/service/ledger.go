package service

import (
	"context"
	"strings"
	"time"

	"budgetbot/internal/models"
	"budgetbot/internal/storage"
)

// AddTransaction validates and appends a ledger entry to the caller's active
// budget, attributed with their current display name. The created entry is
// returned with its assigned ID and timestamp.
func (t *Tracker) AddTransaction(ctx context.Context, telegramID int64, tType models.TransactionType, amount float64, description, category string) (*models.Transaction, error) {
	if !tType.Valid() {
		return nil, ErrInvalidType
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	user, err := t.store.GetUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	tx := &models.Transaction{
		BudgetID:    user.ActiveBudget,
		Type:        tType,
		Amount:      amount,
		Description: strings.TrimSpace(description),
		AddedBy:     user.DisplayName,
		Category:    strings.TrimSpace(category),
	}
	if err := t.store.AddTransaction(ctx, tx); err != nil {
		return nil, err
	}
	t.logger.Info("transaction added",
		"user_id", telegramID,
		"budget_id", tx.BudgetID,
		"type", tType,
		"amount", amount,
	)
	return tx, nil
}

// EditTransaction rewrites amount, description and category of an entry in
// the caller's active budget. Entries outside that scope report not found.
func (t *Tracker) EditTransaction(ctx context.Context, telegramID, transactionID int64, amount float64, description, category string) (bool, error) {
	if amount <= 0 {
		return false, ErrInvalidAmount
	}
	user, err := t.store.GetUser(ctx, telegramID)
	if err != nil {
		return false, err
	}
	return t.store.UpdateTransaction(ctx, user.ActiveBudget, transactionID,
		amount, strings.TrimSpace(description), strings.TrimSpace(category))
}

// PeriodSummary sums and counts entries of one type over the trailing window
// of days.
func (t *Tracker) PeriodSummary(ctx context.Context, telegramID int64, tType models.TransactionType, days int) (float64, int, error) {
	if !tType.Valid() {
		return 0, 0, ErrInvalidType
	}
	if days <= 0 {
		return 0, 0, ErrInvalidPeriod
	}
	user, err := t.store.GetUser(ctx, telegramID)
	if err != nil {
		return 0, 0, err
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	return t.store.PeriodSummary(ctx, user.ActiveBudget, tType, since)
}

// rangeListLimit caps how many entries a windowed aggregation walks.
const rangeListLimit = 500

// RangeSummary totals entries of one type within an arbitrary window.
func (t *Tracker) RangeSummary(ctx context.Context, telegramID int64, tType models.TransactionType, start, end *time.Time) (float64, int, error) {
	txs, err := t.ListTransactions(ctx, telegramID, tType, start, end, rangeListLimit)
	if err != nil {
		return 0, 0, err
	}
	var total float64
	for _, tx := range txs {
		total += tx.Amount
	}
	return total, len(txs), nil
}

// RecentTransactions returns the newest entries of one type in the caller's
// active budget.
func (t *Tracker) RecentTransactions(ctx context.Context, telegramID int64, tType models.TransactionType, limit int) ([]models.Transaction, error) {
	if !tType.Valid() {
		return nil, ErrInvalidType
	}
	user, err := t.store.GetUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	return t.store.RecentTransactions(ctx, user.ActiveBudget, tType, limit)
}

// ListTransactions returns entries of one type within the window, newest
// first.
func (t *Tracker) ListTransactions(ctx context.Context, telegramID int64, tType models.TransactionType, start, end *time.Time, limit int) ([]models.Transaction, error) {
	if !tType.Valid() {
		return nil, ErrInvalidType
	}
	user, err := t.store.GetUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	return t.store.ListTransactions(ctx, user.ActiveBudget, tType, storage.TransactionFilter{
		Start: start,
		End:   end,
		Limit: limit,
	})
}

// ListCategories returns the distinct categories used by one type in the
// caller's active budget.
func (t *Tracker) ListCategories(ctx context.Context, telegramID int64, tType models.TransactionType) ([]string, error) {
	if !tType.Valid() {
		return nil, ErrInvalidType
	}
	user, err := t.store.GetUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	return t.store.ListCategories(ctx, user.ActiveBudget, tType)
}

// CategorySummary groups entries of one type by category, largest bucket
// first.
func (t *Tracker) CategorySummary(ctx context.Context, telegramID int64, tType models.TransactionType, start, end *time.Time) ([]models.CategoryTotal, error) {
	if !tType.Valid() {
		return nil, ErrInvalidType
	}
	user, err := t.store.GetUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	return t.store.CategorySummary(ctx, user.ActiveBudget, tType, storage.TransactionFilter{
		Start: start,
		End:   end,
	})
}
