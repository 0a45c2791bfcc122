package service

import (
	"context"
	"strings"

	"budgetbot/internal/models"
)

// CreatePlan records a savings goal on the caller's active budget.
func (t *Tracker) CreatePlan(ctx context.Context, telegramID int64, title, description string, targetAmount float64) (*models.Plan, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if targetAmount <= 0 {
		return nil, ErrInvalidAmount
	}
	user, err := t.store.GetUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	plan := &models.Plan{
		BudgetID:     user.ActiveBudget,
		Title:        title,
		Description:  strings.TrimSpace(description),
		TargetAmount: targetAmount,
		CreatedBy:    user.DisplayName,
	}
	if err := t.store.CreatePlan(ctx, plan); err != nil {
		return nil, err
	}
	t.logger.Info("plan created", "user_id", telegramID, "budget_id", plan.BudgetID, "plan_id", plan.ID)
	return plan, nil
}

// ListPlans returns the caller's active budget plans, newest first.
func (t *Tracker) ListPlans(ctx context.Context, telegramID int64) ([]models.Plan, error) {
	user, err := t.store.GetUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	return t.store.ListPlans(ctx, user.ActiveBudget)
}

// GetPlan fetches one plan in the caller's active budget, nil when absent or
// out of scope.
func (t *Tracker) GetPlan(ctx context.Context, telegramID, planID int64) (*models.Plan, error) {
	user, err := t.store.GetUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	return t.store.GetPlan(ctx, user.ActiveBudget, planID)
}

// UpdatePlan rewrites a plan's title, description and target.
func (t *Tracker) UpdatePlan(ctx context.Context, telegramID, planID int64, title, description string, targetAmount float64) (bool, error) {
	if targetAmount <= 0 {
		return false, ErrInvalidAmount
	}
	user, err := t.store.GetUser(ctx, telegramID)
	if err != nil {
		return false, err
	}
	return t.store.UpdatePlan(ctx, user.ActiveBudget, planID,
		strings.TrimSpace(title), strings.TrimSpace(description), targetAmount)
}

// DepositPlan adds to a plan's accumulated amount. Deposits only increase it.
func (t *Tracker) DepositPlan(ctx context.Context, telegramID, planID int64, amount float64) (bool, error) {
	if amount <= 0 {
		return false, ErrInvalidAmount
	}
	user, err := t.store.GetUser(ctx, telegramID)
	if err != nil {
		return false, err
	}
	return t.store.DepositPlan(ctx, user.ActiveBudget, planID, amount)
}
