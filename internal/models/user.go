package models

// BudgetMode selects which of a user's budget slots an operation targets.
type BudgetMode string

const (
	ModePersonal BudgetMode = "personal"
	ModeShared   BudgetMode = "shared"
)

// User is a person known to the tracker, keyed by their Telegram ID.
//
// Membership in a budget is not materialized anywhere; it is derived from the
// three budget pointers below. ActiveBudget is where the user's next read or
// write lands. PersonalBudget always exists after the first Resolve (legacy
// rows are backfilled lazily). SharedBudget is set once the user mints or
// redeems an invite and cleared when they leave or are removed.
type User struct {
	// TelegramID is the stable external identifier.
	TelegramID int64

	// ActiveBudget is the budget targeted by reads and writes.
	ActiveBudget int64

	// PersonalBudget is the user's own budget, the fallback after leaving a
	// shared one. Zero means the row predates the personal/shared split and
	// has not been resolved yet.
	PersonalBudget int64

	// SharedBudget is the shared budget the user currently has standing in,
	// nil if none.
	SharedBudget *int64

	// DisplayName is best-effort attribution text, refreshed on every
	// contact. Last writer wins.
	DisplayName string

	// CreatedAt is the Unix timestamp of first contact.
	CreatedAt int64
}

// Mode reports whether the user is currently operating in their shared or
// personal budget.
func (u *User) Mode() BudgetMode {
	if u.SharedBudget != nil && u.ActiveBudget == *u.SharedBudget {
		return ModeShared
	}
	return ModePersonal
}

// HasShared reports whether the user has standing in a shared budget.
func (u *User) HasShared() bool {
	return u.SharedBudget != nil
}

// Member is a user's public identity within a budget.
type Member struct {
	TelegramID  int64
	DisplayName string
}
