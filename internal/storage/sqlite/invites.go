package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"

	"budgetbot/internal/storage"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 8
)

// generateCode returns a random invite code drawn uniformly from an
// uppercase alphanumeric alphabet.
func generateCode() (string, error) {
	buf := make([]byte, codeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate invite code: %w", err)
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// CreateInvite mints a single-use code bound to the user's active budget.
//
// Minting is the moment a budget becomes shareable: if the user's shared
// budget is still unset it is pinned to the current active budget first. The
// pin is idempotent, so repeat invites from the same user bind the same
// budget. Code generation retries on the unlikely collision with a live code.
func (s *SQLiteStore) CreateInvite(ctx context.Context, telegramID int64) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var budgetID int64
	err = tx.QueryRowContext(ctx,
		"SELECT budget_id FROM users WHERE telegram_id = ?", telegramID,
	).Scan(&budgetID)
	if err == sql.ErrNoRows {
		return "", storage.ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get user budget: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE users SET shared_budget_id = ? WHERE telegram_id = ? AND shared_budget_id IS NULL",
		budgetID, telegramID,
	)
	if err != nil {
		return "", fmt.Errorf("failed to pin shared budget: %w", err)
	}

	var code string
	for {
		code, err = generateCode()
		if err != nil {
			return "", err
		}
		var exists bool
		err = tx.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM invites WHERE code = ?)", code,
		).Scan(&exists)
		if err != nil {
			return "", fmt.Errorf("failed to check invite code: %w", err)
		}
		if !exists {
			break
		}
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO invites (code, budget_id, created_at) VALUES (?, ?, ?)",
		code, budgetID, now(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert invite: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}
	return code, nil
}

// RedeemInvite consumes a live code and merges the redeemer into its budget.
//
// Marking the code used and re-pointing the redeemer happen inside one
// transaction, and the mark is guarded by `used_by IS NULL`, so of two
// concurrent redemptions exactly one succeeds. Redeeming a second invite
// overwrites the redeemer's previous shared binding; the abandoned budget's
// rows are untouched.
func (s *SQLiteStore) RedeemInvite(ctx context.Context, telegramID int64, code string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		budgetID int64
		usedBy   sql.NullInt64
	)
	err = tx.QueryRowContext(ctx,
		"SELECT budget_id, used_by FROM invites WHERE code = ?", code,
	).Scan(&budgetID, &usedBy)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get invite: %w", err)
	}
	if usedBy.Valid {
		return false, nil
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE invites SET used_by = ?, used_at = ? WHERE code = ? AND used_by IS NULL",
		telegramID, now(), code,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark invite used: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		// Lost the race to a concurrent redemption.
		return false, nil
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE users SET budget_id = ?, shared_budget_id = ? WHERE telegram_id = ?",
		budgetID, budgetID, telegramID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to re-point redeemer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}
