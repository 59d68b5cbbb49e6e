package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/radieske/bet-ledger/internal/ledger/model"
)

type exportCmd struct {
	out string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write a full JSON backup of the ledger" }
func (*exportCmd) Usage() string {
	return `ledgerctl export [-o <file>]

  Writes every user, bankroll and bet as a single JSON document.
  Without -o the document goes to stdout.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.out, "o", "", "output file (defaults to stdout)")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := newLogger()
	defer log.Sync()

	store, err := openStore(ctx, log)
	if err != nil {
		return fail("%v", err)
	}
	defer store.Close()

	doc, err := store.Export(ctx)
	if err != nil {
		return fail("export: %v", err)
	}

	var w io.Writer = os.Stdout
	if c.out != "" {
		f, err := os.Create(c.out)
		if err != nil {
			return fail("create %q: %v", c.out, err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fail("write backup: %v", err)
	}

	if c.out != "" {
		fmt.Fprintf(os.Stderr, "exported %d users, %d bankrolls, %d bets to %s\n", len(doc.Users), len(doc.Settings), len(doc.Bets), c.out)
	}
	return subcommands.ExitSuccess
}

type importCmd struct {
	in  string
	yes bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "replace the whole ledger with a JSON backup" }
func (*importCmd) Usage() string {
	return `ledgerctl import -i <file> -yes

  Destructive restore: every existing user, bankroll and bet is deleted
  and replaced by the content of the backup, in a single transaction.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.in, "i", "", "backup file to restore")
	f.BoolVar(&c.yes, "yes", false, "confirm the destructive restore")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.in == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	if !c.yes {
		fmt.Fprintln(os.Stderr, "import deletes all existing data; pass -yes to confirm")
		return subcommands.ExitUsageError
	}

	file, err := os.Open(c.in)
	if err != nil {
		return fail("open %q: %v", c.in, err)
	}
	defer file.Close()

	doc, err := model.DecodeBackup(file)
	if err != nil {
		return fail("%v", err)
	}

	log := newLogger()
	defer log.Sync()

	store, err := openStore(ctx, log)
	if err != nil {
		return fail("%v", err)
	}
	defer store.Close()

	if err := store.Import(ctx, doc); err != nil {
		return fail("import: %v", err)
	}

	fmt.Printf("imported %d users, %d bankrolls, %d bets\n", len(doc.Users), len(doc.Settings), len(doc.Bets))
	return subcommands.ExitSuccess
}
