package models

// TransactionType discriminates ledger entries.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Valid reports whether t is one of the recognized transaction types.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Transaction is a single ledger entry. Entries are append-only: an explicit
// edit may rewrite Amount, Description and Category, but Type, BudgetID and
// CreatedAt never change and rows are never deleted.
type Transaction struct {
	ID          int64
	BudgetID    int64
	Type        TransactionType
	Amount      float64
	Description string

	// AddedBy is the display name of the author at write time, kept for
	// attribution inside shared budgets.
	AddedBy string

	// Category is free text, empty when untagged.
	Category string

	// CreatedAt is the Unix timestamp assigned by the server at write time.
	CreatedAt int64
}

// CategoryTotal is one bucket of a category summary.
type CategoryTotal struct {
	Category string
	Total    float64
}

// UncategorizedLabel is the sentinel bucket for transactions without a
// category.
const UncategorizedLabel = "Uncategorized"
