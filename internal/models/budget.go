package models

// Budget is a pure accounting container. It has no member list of its own;
// users point at it via their budget slots.
type Budget struct {
	// ID is the surrogate identifier (autoincrement).
	ID int64

	// OwnerID is the Telegram ID of the creator. Fixed at creation, never
	// reassigned. Only the owner may remove other members.
	OwnerID int64

	// CreatedAt is the Unix timestamp of creation.
	CreatedAt int64
}

// Invite is a single-use code binding a redeemer to an existing budget.
// A code transitions from unused to used exactly once; used codes stay
// around but are permanently inert.
type Invite struct {
	Code      string
	BudgetID  int64
	CreatedAt int64

	// UsedBy and UsedAt record redemption, nil while the code is live.
	UsedBy *int64
	UsedAt *int64
}
