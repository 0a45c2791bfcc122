package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"budgetbot/internal/models"
)

// CreatePlan persists a new savings plan with a zero accumulated amount.
func (s *SQLiteStore) CreatePlan(ctx context.Context, p *models.Plan) error {
	if p.CreatedAt == 0 {
		p.CreatedAt = now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO plans (budget_id, title, description, target_amount, current_amount, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.BudgetID, p.Title, p.Description, p.TargetAmount, p.CurrentAmount,
		nullString(p.CreatedBy), p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert plan: %w", err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read plan id: %w", err)
	}
	return nil
}

// ListPlans returns a budget's plans, newest first.
func (s *SQLiteStore) ListPlans(ctx context.Context, budgetID int64) ([]models.Plan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, budget_id, title, description, target_amount, current_amount, COALESCE(created_by, ''), created_at
		FROM plans
		WHERE budget_id = ?
		ORDER BY id DESC`,
		budgetID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []models.Plan
	for rows.Next() {
		var p models.Plan
		if err := rows.Scan(&p.ID, &p.BudgetID, &p.Title, &p.Description, &p.TargetAmount, &p.CurrentAmount, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plans: %w", err)
	}
	return plans, nil
}

// GetPlan fetches one plan scoped to the budget, nil when absent.
func (s *SQLiteStore) GetPlan(ctx context.Context, budgetID, planID int64) (*models.Plan, error) {
	var p models.Plan
	err := s.db.QueryRowContext(ctx, `
		SELECT id, budget_id, title, description, target_amount, current_amount, COALESCE(created_by, ''), created_at
		FROM plans
		WHERE budget_id = ? AND id = ?`,
		budgetID, planID,
	).Scan(&p.ID, &p.BudgetID, &p.Title, &p.Description, &p.TargetAmount, &p.CurrentAmount, &p.CreatedBy, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return &p, nil
}

// UpdatePlan rewrites title, description and target. The accumulated amount
// is only ever changed through DepositPlan.
func (s *SQLiteStore) UpdatePlan(ctx context.Context, budgetID, planID int64, title, description string, targetAmount float64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE plans
		SET title = ?, description = ?, target_amount = ?
		WHERE id = ? AND budget_id = ?`,
		title, description, targetAmount, planID, budgetID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update plan: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected > 0, nil
}

// DepositPlan increments a plan's accumulated amount.
func (s *SQLiteStore) DepositPlan(ctx context.Context, budgetID, planID int64, amount float64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE plans
		SET current_amount = current_amount + ?
		WHERE id = ? AND budget_id = ?`,
		amount, planID, budgetID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to deposit into plan: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected > 0, nil
}
