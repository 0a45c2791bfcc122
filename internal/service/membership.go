package service

import (
	"context"
	"strings"
)

// CreateInvite mints a single-use code for the caller's active budget,
// pinning it as their shared budget if not already pinned.
func (t *Tracker) CreateInvite(ctx context.Context, telegramID int64) (string, error) {
	code, err := t.store.CreateInvite(ctx, telegramID)
	if err != nil {
		return "", err
	}
	t.logger.Info("invite created", "user_id", telegramID)
	return code, nil
}

// RedeemInvite merges the caller into the budget bound to the code. Codes
// are case-insensitive on input; lookup and mutation are atomic in the
// store, so a code redeems at most once.
func (t *Tracker) RedeemInvite(ctx context.Context, telegramID int64, code string) (bool, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return false, nil
	}
	ok, err := t.store.RedeemInvite(ctx, telegramID, code)
	if err != nil {
		return false, err
	}
	if ok {
		t.logger.Info("invite redeemed", "user_id", telegramID)
	}
	return ok, nil
}

// Leave re-points the caller to their personal budget and clears their
// shared binding. Self-service; no authorization needed.
func (t *Tracker) Leave(ctx context.Context, telegramID int64) error {
	if err := t.store.LeaveBudget(ctx, telegramID); err != nil {
		return err
	}
	t.logger.Info("left shared budget", "user_id", telegramID)
	return nil
}

// RemoveMember evicts target from the owner's active budget. The refusal
// reason is deliberately not surfaced so a non-owner cannot probe membership.
func (t *Tracker) RemoveMember(ctx context.Context, ownerID, targetID int64) (bool, error) {
	ok, err := t.store.RemoveMember(ctx, ownerID, targetID)
	if err != nil {
		return false, err
	}
	if ok {
		t.logger.Info("member removed", "owner_id", ownerID, "target_id", targetID)
	} else {
		t.logger.Warn("member removal denied", "owner_id", ownerID, "target_id", targetID)
	}
	return ok, nil
}

// RemoveMemberByName is the display-name variant of RemoveMember. The match
// is case-insensitive within the owner's budget and fails closed on zero or
// ambiguous matches.
func (t *Tracker) RemoveMemberByName(ctx context.Context, ownerID int64, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, nil
	}
	ok, err := t.store.RemoveMemberByName(ctx, ownerID, name)
	if err != nil {
		return false, err
	}
	if ok {
		t.logger.Info("member removed", "owner_id", ownerID, "target_name", name)
	} else {
		t.logger.Warn("member removal denied", "owner_id", ownerID, "target_name", name)
	}
	return ok, nil
}
