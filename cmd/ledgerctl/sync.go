package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/radieske/bet-ledger/internal/ledger/repo"
	ledgersync "github.com/radieske/bet-ledger/internal/ledger/sync"
	"github.com/radieske/bet-ledger/internal/shared/config"
)

type syncCmd struct {
	email  string
	remote string
}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "push a user's local bets and bankroll to the remote database" }
func (*syncCmd) Usage() string {
	return `ledgerctl sync -email <email> [-remote <postgres dsn>]

  Inserts local bets missing on the remote, never overwriting remote rows.
  The local initial bankroll is pushed only when the remote one is zero.
  The user must already exist on the remote.
`
}

func (c *syncCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "email", "", "user email")
	f.StringVar(&c.remote, "remote", cfg.RemotePostgresDSN, "remote postgres DSN")
}

func (c *syncCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.email == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}

	log := newLogger()
	defer log.Sync()

	local, err := openStore(ctx, log.Named("local"))
	if err != nil {
		return fail("%v", err)
	}
	defer local.Close()

	remote, err := repo.Open(ctx, config.DriverPostgres, "", c.remote, log.Named("remote"))
	if err != nil {
		return fail("remote: %v", err)
	}
	defer remote.Close()

	merger := ledgersync.NewMerger(ledgersync.NewStoreSource(local), remote, nil, log)
	rep, err := merger.Sync(ctx, c.email)
	if errors.Is(err, ledgersync.ErrNotMigrated) {
		return fail("%s has no account on the remote yet", c.email)
	}
	if err != nil {
		return fail("sync: %v", err)
	}

	fmt.Printf("synced %s: %d inserted, %d already present, %d ids regenerated, bankroll pushed: %t\n",
		rep.Email, rep.Inserted, rep.Skipped, rep.Regenerated, rep.BankrollPushed)
	return subcommands.ExitSuccess
}
