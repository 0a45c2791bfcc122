package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"budgetbot/internal/models"
	"budgetbot/internal/storage"
)

// GetOrCreateUser resolves an external identity to a user row.
// First contact allocates a fresh budget and points both the active and
// personal slots at it. Repeat contact refreshes the display name (last
// writer wins) and backfills the personal pointer on rows that predate the
// personal/shared split.
func (s *SQLiteStore) GetOrCreateUser(ctx context.Context, telegramID int64, displayName string) (*models.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		activeBudget   int64
		personalBudget sql.NullInt64
	)
	err = tx.QueryRowContext(ctx,
		"SELECT budget_id, personal_budget_id FROM users WHERE telegram_id = ?",
		telegramID,
	).Scan(&activeBudget, &personalBudget)
	switch {
	case err == sql.ErrNoRows:
		budgetID, err := createBudget(ctx, tx, telegramID)
		if err != nil {
			return nil, err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO users (telegram_id, budget_id, display_name, personal_budget_id, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			telegramID, budgetID, nullString(displayName), budgetID, now(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert user: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to get user: %w", err)
	default:
		if displayName != "" {
			_, err = tx.ExecContext(ctx,
				"UPDATE users SET display_name = ? WHERE telegram_id = ?",
				displayName, telegramID,
			)
			if err != nil {
				return nil, fmt.Errorf("failed to update display name: %w", err)
			}
		}
		if !personalBudget.Valid {
			_, err = tx.ExecContext(ctx,
				"UPDATE users SET personal_budget_id = ? WHERE telegram_id = ?",
				activeBudget, telegramID,
			)
			if err != nil {
				return nil, fmt.Errorf("failed to backfill personal budget: %w", err)
			}
		}
	}

	user, err := getUser(ctx, tx, telegramID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return user, nil
}

// GetUser fetches an existing user row.
func (s *SQLiteStore) GetUser(ctx context.Context, telegramID int64) (*models.User, error) {
	return getUser(ctx, s.db, telegramID)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getUser(ctx context.Context, q querier, telegramID int64) (*models.User, error) {
	var (
		user     models.User
		name     sql.NullString
		personal sql.NullInt64
		shared   sql.NullInt64
	)
	err := q.QueryRowContext(ctx, `
		SELECT telegram_id, budget_id, display_name, personal_budget_id, shared_budget_id, created_at
		FROM users WHERE telegram_id = ?`,
		telegramID,
	).Scan(&user.TelegramID, &user.ActiveBudget, &name, &personal, &shared, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.DisplayName = name.String
	user.PersonalBudget = personal.Int64
	if shared.Valid {
		user.SharedBudget = &shared.Int64
	}
	return &user, nil
}

// SwitchBudget re-points the user's active budget to the requested slot.
func (s *SQLiteStore) SwitchBudget(ctx context.Context, telegramID int64, mode models.BudgetMode) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var personal, shared sql.NullInt64
	err = tx.QueryRowContext(ctx,
		"SELECT personal_budget_id, shared_budget_id FROM users WHERE telegram_id = ?",
		telegramID,
	).Scan(&personal, &shared)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get budget state: %w", err)
	}

	switch mode {
	case models.ModePersonal:
		personalID := personal.Int64
		if !personal.Valid {
			// Defensive; a resolved user always has one.
			personalID, err = createBudget(ctx, tx, telegramID)
			if err != nil {
				return false, err
			}
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE users SET budget_id = ?, personal_budget_id = ? WHERE telegram_id = ?",
			personalID, personalID, telegramID,
		)
		if err != nil {
			return false, fmt.Errorf("failed to switch budget: %w", err)
		}
	case models.ModeShared:
		if !shared.Valid {
			return false, nil
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE users SET budget_id = ? WHERE telegram_id = ?",
			shared.Int64, telegramID,
		)
		if err != nil {
			return false, fmt.Errorf("failed to switch budget: %w", err)
		}
	default:
		return false, nil
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// LeaveBudget re-points the user to their personal budget and clears the
// shared binding. Self-service; succeeds whenever the user exists.
func (s *SQLiteStore) LeaveBudget(ctx context.Context, telegramID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := evict(ctx, tx, telegramID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// evict re-points telegramID to their personal budget, allocating one if it
// never materialized, and clears the shared binding. Shared by LeaveBudget
// and RemoveMember; the caller owns the transaction.
func evict(ctx context.Context, tx *sql.Tx, telegramID int64) error {
	var personal sql.NullInt64
	err := tx.QueryRowContext(ctx,
		"SELECT personal_budget_id FROM users WHERE telegram_id = ?",
		telegramID,
	).Scan(&personal)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get personal budget: %w", err)
	}

	personalID := personal.Int64
	if !personal.Valid {
		personalID, err = createBudget(ctx, tx, telegramID)
		if err != nil {
			return err
		}
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE users
		SET budget_id = ?, personal_budget_id = ?, shared_budget_id = NULL
		WHERE telegram_id = ?`,
		personalID, personalID, telegramID,
	)
	if err != nil {
		return fmt.Errorf("failed to re-point user: %w", err)
	}
	return nil
}

// ownedActiveBudget returns the owner's active budget if they are also its
// recorded owner. ok is false otherwise; the caller fails closed.
func ownedActiveBudget(ctx context.Context, tx *sql.Tx, ownerID int64) (int64, bool, error) {
	var budgetID int64
	err := tx.QueryRowContext(ctx,
		"SELECT budget_id FROM users WHERE telegram_id = ?", ownerID,
	).Scan(&budgetID)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get owner budget: %w", err)
	}

	var recorded sql.NullInt64
	err = tx.QueryRowContext(ctx,
		"SELECT owner_id FROM budgets WHERE id = ?", budgetID,
	).Scan(&recorded)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get budget owner: %w", err)
	}
	if !recorded.Valid || recorded.Int64 != ownerID {
		return 0, false, nil
	}
	return budgetID, true, nil
}

// RemoveMember evicts target from the owner's active budget.
func (s *SQLiteStore) RemoveMember(ctx context.Context, ownerID, targetID int64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ok, err := removeMember(ctx, tx, ownerID, targetID)
	if err != nil || !ok {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

func removeMember(ctx context.Context, tx *sql.Tx, ownerID, targetID int64) (bool, error) {
	budgetID, ok, err := ownedActiveBudget(ctx, tx, ownerID)
	if err != nil || !ok {
		return false, err
	}
	if targetID == ownerID {
		// Owners leave through LeaveBudget, never evict themselves.
		return false, nil
	}

	var targetBudget int64
	err = tx.QueryRowContext(ctx,
		"SELECT budget_id FROM users WHERE telegram_id = ?", targetID,
	).Scan(&targetBudget)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get target budget: %w", err)
	}
	if targetBudget != budgetID {
		return false, nil
	}

	if err := evict(ctx, tx, targetID); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveMemberByName resolves the target by case-insensitive display name
// within the owner's active budget. An ambiguous name (more than one match)
// fails closed rather than guessing.
func (s *SQLiteStore) RemoveMemberByName(ctx context.Context, ownerID int64, name string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	budgetID, ok, err := ownedActiveBudget(ctx, tx, ownerID)
	if err != nil || !ok {
		return false, err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT telegram_id FROM users
		WHERE budget_id = ? AND LOWER(COALESCE(display_name, '')) = LOWER(?)
		LIMIT 2`,
		budgetID, name,
	)
	if err != nil {
		return false, fmt.Errorf("failed to resolve member name: %w", err)
	}
	var matches []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return false, fmt.Errorf("failed to scan member: %w", err)
		}
		matches = append(matches, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("failed to iterate members: %w", err)
	}
	if len(matches) != 1 {
		return false, nil
	}

	ok, err = removeMember(ctx, tx, ownerID, matches[0])
	if err != nil || !ok {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// ActiveMembers lists users whose active budget is budgetID.
func (s *SQLiteStore) ActiveMembers(ctx context.Context, budgetID int64) ([]models.Member, error) {
	return s.members(ctx, "budget_id", budgetID)
}

// SharedMembers lists users whose shared budget is budgetID.
func (s *SQLiteStore) SharedMembers(ctx context.Context, budgetID int64) ([]models.Member, error) {
	return s.members(ctx, "shared_budget_id", budgetID)
}

func (s *SQLiteStore) members(ctx context.Context, column string, budgetID int64) ([]models.Member, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT telegram_id, COALESCE(display_name, '')
		FROM users WHERE `+column+` = ?
		ORDER BY telegram_id ASC`,
		budgetID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.TelegramID, &m.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
