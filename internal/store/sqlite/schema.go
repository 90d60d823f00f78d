package sqlite

// Schema is applied on every open; statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS transactions (
	transaction_id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	amount TEXT NOT NULL,
	kind TEXT NOT NULL CHECK (kind IN ('income', 'expense')),
	date DATETIME NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions(user_id, date);

CREATE TABLE IF NOT EXISTS allocation_splits (
	user_id TEXT PRIMARY KEY,
	owner_pay INTEGER NOT NULL,
	reinvestment INTEGER NOT NULL,
	savings INTEGER NOT NULL,
	tax_reserve INTEGER NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS goals (
	goal_id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL,
	target TEXT NOT NULL,
	deadline DATETIME,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_goals_user ON goals(user_id);
`
