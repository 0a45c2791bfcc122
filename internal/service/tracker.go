// Package service implements the budget tracker's operation surface on top
// of storage.Store. Both front ends (the Telegram bot and the HTTP API) call
// into Tracker after authenticating the external user identifier.
//
// Error discipline: validation failures surface as the exported Err*
// sentinels before any mutation; authorization-style refusals (not owner,
// used code, no shared budget) are boolean results; storage faults propagate
// unmodified.
package service

import (
	"context"
	"errors"
	"log/slog"

	"budgetbot/internal/models"
	"budgetbot/internal/storage"
)

// Validation errors, rejected before any mutation.
var (
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrInvalidPeriod = errors.New("invalid period")
	ErrTitleRequired = errors.New("title required")
)

// Tracker is the stateless request-scoped core. All shared state lives in
// the store; concurrent requests coordinate only through its transactions.
type Tracker struct {
	store  storage.Store
	logger *slog.Logger
}

// New creates a Tracker backed by the given store.
func New(store storage.Store, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{store: store, logger: logger}
}

// Resolve maps an external identity to a user record, creating it on first
// contact. Every inbound action calls this before anything else.
func (t *Tracker) Resolve(ctx context.Context, telegramID int64, displayName string) (*models.User, error) {
	return t.store.GetOrCreateUser(ctx, telegramID, displayName)
}

// Balance returns the signed sum over the user's active budget.
func (t *Tracker) Balance(ctx context.Context, telegramID int64) (float64, error) {
	user, err := t.store.GetUser(ctx, telegramID)
	if err != nil {
		return 0, err
	}
	return t.store.Balance(ctx, user.ActiveBudget)
}

// State describes a user's current budget standing.
type State struct {
	ActiveBudget   int64
	PersonalBudget int64
	SharedBudget   *int64
	Mode           models.BudgetMode
	HasShared      bool
	IsOwner        bool
}

// State reports which budgets the user holds and whether they own the one
// currently active.
func (t *Tracker) State(ctx context.Context, telegramID int64) (*State, error) {
	user, err := t.store.GetUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	ownerID, ok, err := t.store.BudgetOwner(ctx, user.ActiveBudget)
	if err != nil {
		return nil, err
	}
	return &State{
		ActiveBudget:   user.ActiveBudget,
		PersonalBudget: user.PersonalBudget,
		SharedBudget:   user.SharedBudget,
		Mode:           user.Mode(),
		HasShared:      user.HasShared(),
		IsOwner:        ok && ownerID == telegramID,
	}, nil
}

// Switch re-points the user's active budget to the personal or shared slot.
// It never moves existing transactions.
func (t *Tracker) Switch(ctx context.Context, telegramID int64, mode models.BudgetMode) (bool, error) {
	ok, err := t.store.SwitchBudget(ctx, telegramID, mode)
	if err != nil {
		return false, err
	}
	if ok {
		t.logger.Info("budget switched", "user_id", telegramID, "mode", mode)
	}
	return ok, nil
}

// Members lists the users of the caller's shared budget, or of their
// personal budget when shared is false.
func (t *Tracker) Members(ctx context.Context, telegramID int64, shared bool) ([]models.Member, error) {
	user, err := t.store.GetUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if shared {
		if user.SharedBudget == nil {
			return nil, nil
		}
		return t.store.SharedMembers(ctx, *user.SharedBudget)
	}
	if user.PersonalBudget == 0 {
		return nil, nil
	}
	return t.store.ActiveMembers(ctx, user.PersonalBudget)
}
