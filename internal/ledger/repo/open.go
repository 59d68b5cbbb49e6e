package repo

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/bet-ledger/internal/shared/db"
)

// Open conecta no driver escolhido e aplica as migrações.
// sqlite usa dataDir; postgres usa dsn.
func Open(ctx context.Context, driver, dataDir, dsn string, log *zap.Logger) (*SQLStore, error) {
	switch driver {
	case "", "sqlite":
		conn, err := db.OpenSQLite(ctx, dataDir)
		if err != nil {
			return nil, err
		}
		s, err := NewSQLite(ctx, conn, log)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		return s, nil
	case "postgres":
		conn, err := db.ConnectPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		s, err := NewPostgres(ctx, conn, log)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", driver)
}
