package models

// Plan is a budget-scoped savings goal. Deposits only ever increase
// CurrentAmount; there is no withdrawal operation.
type Plan struct {
	ID            int64
	BudgetID      int64
	Title         string
	Description   string
	TargetAmount  float64
	CurrentAmount float64
	CreatedBy     string
	CreatedAt     int64
}
