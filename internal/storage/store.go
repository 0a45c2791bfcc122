// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"budgetbot/internal/models"
)

// ErrUserNotFound is returned by read operations that require an existing
// user row.
var ErrUserNotFound = errors.New("user not found")

// TransactionFilter narrows windowed ledger queries. Nil bounds are open.
type TransactionFilter struct {
	Start *time.Time
	End   *time.Time
	Limit int
}

// Store defines the interface for budget, ledger and plan persistence.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the service layer.
//
// Authorization-style outcomes (not owner, code already used, no shared
// budget) are reported as a false bool with a nil error; errors are reserved
// for storage faults.
type Store interface {
	// GetOrCreateUser resolves an external identity, creating the user and
	// their personal budget on first contact. A non-empty displayName
	// overwrites the stored one. Legacy rows without a personal budget are
	// backfilled with their active budget.
	GetOrCreateUser(ctx context.Context, telegramID int64, displayName string) (*models.User, error)

	// GetUser fetches an existing user or ErrUserNotFound.
	GetUser(ctx context.Context, telegramID int64) (*models.User, error)

	// BudgetOwner returns the recorded owner of a budget. ok is false when
	// the budget does not exist or has no recorded owner.
	BudgetOwner(ctx context.Context, budgetID int64) (ownerID int64, ok bool, err error)

	// SwitchBudget re-points the user's active budget to the requested slot.
	// Switching to personal lazily allocates one if absent; switching to
	// shared fails when no shared budget is bound. Existing transactions
	// never move.
	SwitchBudget(ctx context.Context, telegramID int64, mode models.BudgetMode) (bool, error)

	// LeaveBudget re-points the user to their personal budget (creating one
	// if never materialized) and clears their shared binding.
	LeaveBudget(ctx context.Context, telegramID int64) error

	// RemoveMember evicts target from the owner's active budget. It succeeds
	// only when owner is the recorded owner of their own active budget,
	// target's active budget is that same budget, and target is not owner.
	RemoveMember(ctx context.Context, ownerID, targetID int64) (bool, error)

	// RemoveMemberByName resolves target by case-insensitive display name
	// within the owner's active budget, then evicts. Zero or ambiguous
	// matches fail closed.
	RemoveMemberByName(ctx context.Context, ownerID int64, name string) (bool, error)

	// ActiveMembers lists users whose active budget is budgetID.
	ActiveMembers(ctx context.Context, budgetID int64) ([]models.Member, error)

	// SharedMembers lists users whose shared budget is budgetID.
	SharedMembers(ctx context.Context, budgetID int64) ([]models.Member, error)

	// CreateInvite mints a fresh single-use code bound to the user's active
	// budget. If the user's shared budget is unset it is pinned to the
	// active budget first; the pin is idempotent and irreversible.
	CreateInvite(ctx context.Context, telegramID int64) (string, error)

	// RedeemInvite consumes a live code, re-pointing the redeemer's active
	// and shared budgets to the bound budget. Marking the code used and
	// re-pointing happen in one transaction, so a code redeems exactly once.
	RedeemInvite(ctx context.Context, telegramID int64, code string) (bool, error)

	// AddTransaction appends a ledger entry. ID and CreatedAt are populated
	// by the store.
	AddTransaction(ctx context.Context, tx *models.Transaction) error

	// Balance returns the signed sum over a budget: income minus expense.
	// An empty budget yields 0.
	Balance(ctx context.Context, budgetID int64) (float64, error)

	// PeriodSummary sums and counts entries of one type created at or after
	// since.
	PeriodSummary(ctx context.Context, budgetID int64, tType models.TransactionType, since time.Time) (total float64, count int, err error)

	// RecentTransactions returns the newest entries of one type, newest
	// first.
	RecentTransactions(ctx context.Context, budgetID int64, tType models.TransactionType, limit int) ([]models.Transaction, error)

	// ListTransactions returns entries of one type within the filter window,
	// newest first.
	ListTransactions(ctx context.Context, budgetID int64, tType models.TransactionType, filter TransactionFilter) ([]models.Transaction, error)

	// UpdateTransaction rewrites amount, description and category of an
	// entry in place, scoped to the given budget. Type and CreatedAt are
	// untouched. Returns false when no row matches.
	UpdateTransaction(ctx context.Context, budgetID, transactionID int64, amount float64, description, category string) (bool, error)

	// ListCategories returns the distinct non-empty categories used by one
	// type, sorted ascending.
	ListCategories(ctx context.Context, budgetID int64, tType models.TransactionType) ([]string, error)

	// CategorySummary groups entries of one type by category and sums
	// amounts per bucket, largest first. Untagged entries bucket under
	// models.UncategorizedLabel.
	CategorySummary(ctx context.Context, budgetID int64, tType models.TransactionType, filter TransactionFilter) ([]models.CategoryTotal, error)

	// CreatePlan persists a new savings plan. ID and CreatedAt are populated
	// by the store.
	CreatePlan(ctx context.Context, plan *models.Plan) error

	// ListPlans returns a budget's plans, newest first.
	ListPlans(ctx context.Context, budgetID int64) ([]models.Plan, error)

	// GetPlan fetches one plan scoped to the budget, nil when absent.
	GetPlan(ctx context.Context, budgetID, planID int64) (*models.Plan, error)

	// UpdatePlan rewrites title, description and target. Returns false when
	// no row matches.
	UpdatePlan(ctx context.Context, budgetID, planID int64, title, description string, targetAmount float64) (bool, error)

	// DepositPlan increments a plan's accumulated amount. Returns false when
	// no row matches.
	DepositPlan(ctx context.Context, budgetID, planID int64, amount float64) (bool, error)

	// Close releases any resources held by the store.
	Close() error
}
