package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist. Columns added after the first
// release (budget ownership, the personal/shared pointer split, transaction
// attribution and categories) are backfilled additively below so existing
// databases keep working.
const schema = `
CREATE TABLE IF NOT EXISTS budgets (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    owner_id INTEGER,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
    telegram_id INTEGER PRIMARY KEY,
    budget_id INTEGER NOT NULL,
    display_name TEXT,
    personal_budget_id INTEGER,
    shared_budget_id INTEGER,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (budget_id) REFERENCES budgets(id)
);

CREATE TABLE IF NOT EXISTS transactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    budget_id INTEGER NOT NULL,
    t_type TEXT NOT NULL,
    amount REAL NOT NULL,
    description TEXT NOT NULL,
    added_by TEXT,
    category TEXT,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (budget_id) REFERENCES budgets(id)
);

CREATE TABLE IF NOT EXISTS invites (
    code TEXT PRIMARY KEY,
    budget_id INTEGER NOT NULL,
    created_at INTEGER NOT NULL,
    used_by INTEGER,
    used_at INTEGER,
    FOREIGN KEY (budget_id) REFERENCES budgets(id)
);

CREATE TABLE IF NOT EXISTS plans (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    budget_id INTEGER NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    target_amount REAL NOT NULL,
    current_amount REAL NOT NULL DEFAULT 0,
    created_by TEXT,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (budget_id) REFERENCES budgets(id)
);

CREATE INDEX IF NOT EXISTS idx_transactions_budget_type ON transactions(budget_id, t_type, created_at);
CREATE INDEX IF NOT EXISTS idx_users_budget ON users(budget_id);
CREATE INDEX IF NOT EXISTS idx_users_shared_budget ON users(shared_budget_id);
CREATE INDEX IF NOT EXISTS idx_invites_budget ON invites(budget_id);
CREATE INDEX IF NOT EXISTS idx_plans_budget ON plans(budget_id);
`

// backfillColumns are additive schema changes for databases created before
// the column existed. CREATE TABLE IF NOT EXISTS does not add columns to an
// existing table, so each is applied individually when missing.
var backfillColumns = []struct {
	table, column, decl string
}{
	{"budgets", "owner_id", "INTEGER"},
	{"users", "display_name", "TEXT"},
	{"users", "personal_budget_id", "INTEGER"},
	{"users", "shared_budget_id", "INTEGER"},
	{"transactions", "added_by", "TEXT"},
	{"transactions", "category", "TEXT"},
	{"plans", "current_amount", "REAL NOT NULL DEFAULT 0"},
}

// runMigrations executes the schema setup and additive backfills.
func runMigrations(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return err
	}

	for _, c := range backfillColumns {
		has, err := hasColumn(db, c.table, c.column)
		if err != nil {
			return err
		}
		if !has {
			if _, err := db.Exec("ALTER TABLE " + c.table + " ADD COLUMN " + c.column + " " + c.decl); err != nil {
				return err
			}
		}
	}

	// Budgets created before ownership existed adopt their first member as
	// owner.
	_, err := db.Exec(`
		UPDATE budgets
		SET owner_id = (
			SELECT telegram_id FROM users WHERE users.budget_id = budgets.id LIMIT 1
		)
		WHERE owner_id IS NULL
	`)
	return err
}

func hasColumn(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
