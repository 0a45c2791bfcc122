package sqlite

import (
	"context"
	"fmt"
	"time"

	"budgetbot/internal/models"
	"budgetbot/internal/storage"
)

// AddTransaction appends a ledger entry, stamping it with the server clock.
func (s *SQLiteStore) AddTransaction(ctx context.Context, t *models.Transaction) error {
	if t.CreatedAt == 0 {
		t.CreatedAt = now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (budget_id, t_type, amount, description, added_by, category, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.BudgetID, string(t.Type), t.Amount, t.Description,
		nullString(t.AddedBy), nullString(t.Category), t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	t.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read transaction id: %w", err)
	}
	return nil
}

// Balance returns the signed sum over a budget's full history.
func (s *SQLiteStore) Balance(ctx context.Context, budgetID int64) (float64, error) {
	var balance float64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN t_type = 'income' THEN amount ELSE -amount END), 0)
		FROM transactions WHERE budget_id = ?`,
		budgetID,
	).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// PeriodSummary sums and counts entries of one type created at or after since.
func (s *SQLiteStore) PeriodSummary(ctx context.Context, budgetID int64, tType models.TransactionType, since time.Time) (float64, int, error) {
	var (
		total float64
		count int
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0), COUNT(*)
		FROM transactions
		WHERE budget_id = ? AND t_type = ? AND created_at >= ?`,
		budgetID, string(tType), since.Unix(),
	).Scan(&total, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get period summary: %w", err)
	}
	return total, count, nil
}

// RecentTransactions returns the newest entries of one type, newest first.
func (s *SQLiteStore) RecentTransactions(ctx context.Context, budgetID int64, tType models.TransactionType, limit int) ([]models.Transaction, error) {
	return s.queryTransactions(ctx, `
		SELECT id, budget_id, t_type, amount, description, COALESCE(added_by, ''), COALESCE(category, ''), created_at
		FROM transactions
		WHERE budget_id = ? AND t_type = ?
		ORDER BY id DESC LIMIT ?`,
		budgetID, string(tType), limit,
	)
}

// ListTransactions returns entries of one type within the filter window,
// newest first.
func (s *SQLiteStore) ListTransactions(ctx context.Context, budgetID int64, tType models.TransactionType, filter storage.TransactionFilter) ([]models.Transaction, error) {
	query := `
		SELECT id, budget_id, t_type, amount, description, COALESCE(added_by, ''), COALESCE(category, ''), created_at
		FROM transactions
		WHERE budget_id = ? AND t_type = ?`
	args := []any{budgetID, string(tType)}
	if filter.Start != nil {
		query += " AND created_at >= ?"
		args = append(args, filter.Start.Unix())
	}
	if filter.End != nil {
		query += " AND created_at <= ?"
		args = append(args, filter.End.Unix())
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, filter.Limit)
	return s.queryTransactions(ctx, query, args...)
}

func (s *SQLiteStore) queryTransactions(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var tType string
		if err := rows.Scan(&t.ID, &t.BudgetID, &tType, &t.Amount, &t.Description, &t.AddedBy, &t.Category, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.Type = models.TransactionType(tType)
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txs, nil
}

// UpdateTransaction rewrites amount, description and category in place,
// scoped to the given budget. Type and CreatedAt are untouched.
func (s *SQLiteStore) UpdateTransaction(ctx context.Context, budgetID, transactionID int64, amount float64, description, category string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET amount = ?, description = ?, category = ?
		WHERE id = ? AND budget_id = ?`,
		amount, description, nullString(category), transactionID, budgetID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected > 0, nil
}

// ListCategories returns the distinct non-empty categories used by one type.
func (s *SQLiteStore) ListCategories(ctx context.Context, budgetID int64, tType models.TransactionType) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT category
		FROM transactions
		WHERE budget_id = ? AND t_type = ? AND category IS NOT NULL AND category != ''
		ORDER BY category ASC`,
		budgetID, string(tType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	return categories, nil
}

// CategorySummary groups entries of one type by category, untagged entries
// bucketed under the sentinel label, ordered by total descending.
func (s *SQLiteStore) CategorySummary(ctx context.Context, budgetID int64, tType models.TransactionType, filter storage.TransactionFilter) ([]models.CategoryTotal, error) {
	query := `
		SELECT COALESCE(NULLIF(category, ''), ?) AS cat, SUM(amount)
		FROM transactions
		WHERE budget_id = ? AND t_type = ?`
	args := []any{models.UncategorizedLabel, budgetID, string(tType)}
	if filter.Start != nil {
		query += " AND created_at >= ?"
		args = append(args, filter.Start.Unix())
	}
	if filter.End != nil {
		query += " AND created_at <= ?"
		args = append(args, filter.End.Unix())
	}
	query += " GROUP BY cat ORDER BY SUM(amount) DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query category summary: %w", err)
	}
	defer rows.Close()

	var totals []models.CategoryTotal
	for rows.Next() {
		var ct models.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		totals = append(totals, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category totals: %w", err)
	}
	return totals, nil
}
