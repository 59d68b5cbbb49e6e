package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/radieske/bet-ledger/internal/ledger/repo"
	"github.com/radieske/bet-ledger/internal/shared/config"
	"github.com/radieske/bet-ledger/internal/shared/logger"
)

func register(c *subcommands.Commander) {
	c.Register(&migrateCmd{}, "store")
	c.Register(&exportCmd{}, "backup")
	c.Register(&importCmd{}, "backup")
	c.Register(&statsCmd{}, "reports")
	c.Register(&syncCmd{}, "sync")
}

// CLI de vida curta: flags globais em variáveis de pacote, defaults vindos do ambiente
var (
	cfg = config.Load()

	driver   = flag.String("driver", cfg.StoreDriver, "store driver (sqlite, postgres)")
	dataDir  = flag.String("data-dir", cfg.DataDir, "folder holding the sqlite database")
	dsn      = flag.String("dsn", cfg.PostgresDSN, "postgres DSN when -driver=postgres")
	logLevel = flag.String("log-level", "warn", "log level (debug, info, warn, error)")
)

func newLogger() *zap.Logger {
	log, err := logger.New("ledgerctl", cfg.Env, *logLevel)
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// openStore abre o repositório local com as migrações aplicadas
func openStore(ctx context.Context, log *zap.Logger) (*repo.SQLStore, error) {
	return repo.Open(ctx, *driver, *dataDir, *dsn, log)
}

func fail(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	return subcommands.ExitFailure
}
