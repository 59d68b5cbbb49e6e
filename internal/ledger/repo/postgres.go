package repo

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	email      TEXT UNIQUE NOT NULL,
	name       TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS user_settings (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	bankroll_name    TEXT NOT NULL DEFAULT 'Main Bankroll',
	initial_bankroll NUMERIC(14,2) NOT NULL DEFAULT 0,
	is_premium       BOOLEAN NOT NULL DEFAULT FALSE,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS bets (
	id          TEXT PRIMARY KEY,
	seq         BIGSERIAL,
	user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	bankroll_id TEXT REFERENCES user_settings(id) ON DELETE CASCADE,
	date        DATE NOT NULL,
	sport       TEXT NOT NULL,
	match_name  TEXT NOT NULL,
	bet_type    TEXT NOT NULL,
	bookmaker   TEXT NOT NULL DEFAULT 'Other',
	odds        NUMERIC(10,3) NOT NULL,
	stake       NUMERIC(14,2) NOT NULL,
	result      TEXT NOT NULL DEFAULT 'pending',
	profit      NUMERIC(14,2) NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

const postgresIndexes = `
CREATE INDEX IF NOT EXISTS idx_bets_user_id ON bets(user_id);
CREATE INDEX IF NOT EXISTS idx_bets_date ON bets(date DESC);
CREATE INDEX IF NOT EXISTS idx_bets_result ON bets(result);
CREATE INDEX IF NOT EXISTS idx_bets_bankroll_id ON bets(bankroll_id);
CREATE INDEX IF NOT EXISTS idx_user_settings_user_id ON user_settings(user_id);
`

var postgresDialect = dialect{
	name:           "postgres",
	insertionOrder: "seq",
	dateSelect:     "to_char(date, 'YYYY-MM-DD') AS date",
	schema:         postgresSchema,
	indexes:        postgresIndexes,
	evolutions: []evolution{
		{"bets", "seq", `ALTER TABLE bets ADD COLUMN IF NOT EXISTS seq BIGSERIAL`},
		{"bets", "bookmaker", `ALTER TABLE bets ADD COLUMN IF NOT EXISTS bookmaker TEXT NOT NULL DEFAULT 'Other'`},
		{"user_settings", "bankroll_name", `ALTER TABLE user_settings ADD COLUMN IF NOT EXISTS bankroll_name TEXT NOT NULL DEFAULT 'Main Bankroll'`},
		{"user_settings", "is_premium", `ALTER TABLE user_settings ADD COLUMN IF NOT EXISTS is_premium BOOLEAN NOT NULL DEFAULT FALSE`},
		{"bets", "bankroll_id", `ALTER TABLE bets ADD COLUMN IF NOT EXISTS bankroll_id TEXT REFERENCES user_settings(id) ON DELETE CASCADE`},
	},
	columns:           postgresColumns,
	isUniqueViolation: pqUnique,
	isForeignKey:      pqForeignKey,
}

// NewPostgres aplica as migrações no banco remoto gerenciado e devolve o Store
func NewPostgres(ctx context.Context, db *sql.DB, log *zap.Logger) (*SQLStore, error) {
	s := newSQLStore(db, postgresDialect, log)
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	s.log.Info("postgres store ready")
	return s, nil
}

func postgresColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT column_name FROM information_schema.columns
		 WHERE table_schema = current_schema() AND table_name = $1`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
