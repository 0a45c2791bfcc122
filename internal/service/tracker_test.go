package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetbot/internal/models"
	"budgetbot/internal/storage"
	"budgetbot/internal/storage/sqlite"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(store, nil)
}

func resolve(t *testing.T, tracker *Tracker, id int64, name string) *models.User {
	t.Helper()
	user, err := tracker.Resolve(context.Background(), id, name)
	require.NoError(t, err)
	return user
}

func TestAddTransactionValidation(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()
	resolve(t, tracker, 1, "@alice")

	tests := []struct {
		name    string
		tType   models.TransactionType
		amount  float64
		wantErr error
	}{
		{"unknown type", models.TransactionType("transfer"), 10, ErrInvalidType},
		{"empty type", models.TransactionType(""), 10, ErrInvalidType},
		{"zero amount", models.TypeExpense, 0, ErrInvalidAmount},
		{"negative amount", models.TypeIncome, -5, ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tracker.AddTransaction(ctx, 1, tt.tType, tt.amount, "x", "")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// Rejected adds leave the ledger untouched.
	balance, err := tracker.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestAddTransactionAttribution(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()
	resolve(t, tracker, 1, "@alice")

	tx, err := tracker.AddTransaction(ctx, 1, models.TypeExpense, 12.5, "  lunch  ", "  food ")
	require.NoError(t, err)
	assert.NotZero(t, tx.ID)
	assert.Equal(t, "@alice", tx.AddedBy)
	assert.Equal(t, "lunch", tx.Description)
	assert.Equal(t, "food", tx.Category)

	balance, err := tracker.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, -12.5, balance)
}

func TestAddTransactionUnknownUser(t *testing.T) {
	tracker := newTestTracker(t)
	_, err := tracker.AddTransaction(context.Background(), 404, models.TypeExpense, 10, "x", "")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestEditTransactionValidation(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()
	resolve(t, tracker, 1, "@alice")

	_, err := tracker.EditTransaction(ctx, 1, 1, -1, "x", "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	ok, err := tracker.EditTransaction(ctx, 1, 999, 10, "x", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPeriodSummaryValidation(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()
	resolve(t, tracker, 1, "@alice")

	_, _, err := tracker.PeriodSummary(ctx, 1, models.TypeExpense, 0)
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	_, _, err = tracker.PeriodSummary(ctx, 1, models.TransactionType("bad"), 7)
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = tracker.AddTransaction(ctx, 1, models.TypeExpense, 30, "groceries", "")
	require.NoError(t, err)
	total, count, err := tracker.PeriodSummary(ctx, 1, models.TypeExpense, 7)
	require.NoError(t, err)
	assert.Equal(t, 30.0, total)
	assert.Equal(t, 1, count)
}

func TestRangeSummary(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()
	resolve(t, tracker, 1, "@alice")

	for _, amount := range []float64{10, 20, 30} {
		_, err := tracker.AddTransaction(ctx, 1, models.TypeExpense, amount, "entry", "")
		require.NoError(t, err)
	}
	_, err := tracker.AddTransaction(ctx, 1, models.TypeIncome, 500, "ignored type", "")
	require.NoError(t, err)

	start := time.Now().UTC().Add(-time.Hour)
	end := time.Now().UTC().Add(time.Hour)
	total, count, err := tracker.RangeSummary(ctx, 1, models.TypeExpense, &start, &end)
	require.NoError(t, err)
	assert.Equal(t, 60.0, total)
	assert.Equal(t, 3, count)

	// Open-ended window works too.
	total, count, err = tracker.RangeSummary(ctx, 1, models.TypeExpense, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 60.0, total)
	assert.Equal(t, 3, count)
}

func TestRedeemInviteNormalization(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()
	resolve(t, tracker, 1, "@alice")
	resolve(t, tracker, 2, "@bob")

	code, err := tracker.CreateInvite(ctx, 1)
	require.NoError(t, err)

	joined, err := tracker.RedeemInvite(ctx, 2, "  "+code+" ")
	require.NoError(t, err)
	assert.True(t, joined, "surrounding whitespace is tolerated")

	joined, err = tracker.RedeemInvite(ctx, 2, "")
	require.NoError(t, err)
	assert.False(t, joined)
}

func TestStateReportsOwnership(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()
	resolve(t, tracker, 1, "@alice")
	resolve(t, tracker, 2, "@bob")

	state, err := tracker.State(ctx, 1)
	require.NoError(t, err)
	assert.True(t, state.IsOwner)
	assert.False(t, state.HasShared)
	assert.Equal(t, models.ModePersonal, state.Mode)

	code, err := tracker.CreateInvite(ctx, 1)
	require.NoError(t, err)
	joined, err := tracker.RedeemInvite(ctx, 2, code)
	require.NoError(t, err)
	require.True(t, joined)

	state, err = tracker.State(ctx, 2)
	require.NoError(t, err)
	assert.False(t, state.IsOwner, "bob joined a budget alice owns")
	assert.True(t, state.HasShared)
	assert.Equal(t, models.ModeShared, state.Mode)

	ok, err := tracker.Switch(ctx, 2, models.ModePersonal)
	require.NoError(t, err)
	require.True(t, ok)
	state, err = tracker.State(ctx, 2)
	require.NoError(t, err)
	assert.True(t, state.IsOwner)
	assert.Equal(t, models.ModePersonal, state.Mode)
	assert.True(t, state.HasShared, "the binding survives switching away")
}

func TestRemoveMemberByNameBlankName(t *testing.T) {
	tracker := newTestTracker(t)
	resolve(t, tracker, 1, "@alice")

	ok, err := tracker.RemoveMemberByName(context.Background(), 1, "   ")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPlanValidation(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()
	resolve(t, tracker, 1, "@alice")

	_, err := tracker.CreatePlan(ctx, 1, "   ", "desc", 100)
	assert.ErrorIs(t, err, ErrTitleRequired)

	_, err = tracker.CreatePlan(ctx, 1, "Vacation", "desc", 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	plan, err := tracker.CreatePlan(ctx, 1, " Vacation ", " two weeks ", 1000)
	require.NoError(t, err)
	assert.Equal(t, "Vacation", plan.Title)
	assert.Equal(t, "two weeks", plan.Description)
	assert.Equal(t, "@alice", plan.CreatedBy)

	_, err = tracker.DepositPlan(ctx, 1, plan.ID, -5)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	ok, err := tracker.DepositPlan(ctx, 1, plan.ID, 100)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := tracker.GetPlan(ctx, 1, plan.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 100.0, got.CurrentAmount)

	_, err = tracker.UpdatePlan(ctx, 1, plan.ID, "Vacation", "desc", -1)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestMembersWithoutShared(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()
	resolve(t, tracker, 1, "@alice")

	members, err := tracker.Members(ctx, 1, true)
	require.NoError(t, err)
	assert.Empty(t, members)

	members, err = tracker.Members(ctx, 1, false)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "@alice", members[0].DisplayName)
}
