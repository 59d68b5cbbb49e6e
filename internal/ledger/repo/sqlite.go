package repo

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	email      TEXT UNIQUE NOT NULL,
	name       TEXT NOT NULL DEFAULT '',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS user_settings (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	bankroll_name    TEXT NOT NULL DEFAULT 'Main Bankroll',
	initial_bankroll REAL DEFAULT 0,
	is_premium       BOOLEAN DEFAULT FALSE,
	created_at       DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at       DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS bets (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	bankroll_id TEXT,
	date        TEXT NOT NULL,
	sport       TEXT NOT NULL,
	match_name  TEXT NOT NULL,
	bet_type    TEXT NOT NULL,
	bookmaker   TEXT NOT NULL DEFAULT 'Other',
	odds        REAL NOT NULL,
	stake       REAL NOT NULL,
	result      TEXT DEFAULT 'pending',
	profit      REAL DEFAULT 0,
	created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
	FOREIGN KEY (bankroll_id) REFERENCES user_settings(id) ON DELETE CASCADE
);
`

const sqliteIndexes = `
CREATE INDEX IF NOT EXISTS idx_bets_user_id ON bets(user_id);
CREATE INDEX IF NOT EXISTS idx_bets_date ON bets(date DESC);
CREATE INDEX IF NOT EXISTS idx_bets_result ON bets(result);
CREATE INDEX IF NOT EXISTS idx_bets_bankroll_id ON bets(bankroll_id);
CREATE INDEX IF NOT EXISTS idx_user_settings_user_id ON user_settings(user_id);
`

var sqliteDialect = dialect{
	name:           "sqlite",
	insertionOrder: "rowid",
	dateSelect:     "date",
	schema:         sqliteSchema,
	indexes:        sqliteIndexes,
	evolutions: []evolution{
		{"bets", "bookmaker", `ALTER TABLE bets ADD COLUMN bookmaker TEXT NOT NULL DEFAULT 'Other'`},
		{"user_settings", "bankroll_name", `ALTER TABLE user_settings ADD COLUMN bankroll_name TEXT NOT NULL DEFAULT 'Main Bankroll'`},
		{"user_settings", "is_premium", `ALTER TABLE user_settings ADD COLUMN is_premium BOOLEAN DEFAULT FALSE`},
		{"bets", "bankroll_id", `ALTER TABLE bets ADD COLUMN bankroll_id TEXT REFERENCES user_settings(id)`},
	},
	columns:           sqliteColumns,
	isUniqueViolation: sqliteUnique,
	isForeignKey:      sqliteForeignKey,
}

// NewSQLite aplica as migrações no banco embarcado e devolve o Store.
// O *sql.DB vem de db.OpenSQLite (WAL, foreign keys ligadas).
func NewSQLite(ctx context.Context, db *sql.DB, log *zap.Logger) (*SQLStore, error) {
	s := newSQLStore(db, sqliteDialect, log)
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	s.log.Info("sqlite store ready")
	return s, nil
}

// sqliteColumns lê os nomes de coluna via PRAGMA table_info
func sqliteColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `PRAGMA table_info(`+table+`)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := map[string]bool{}
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
