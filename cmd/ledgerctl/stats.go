package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/Rhymond/go-money"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/radieske/bet-ledger/internal/ledger/accounting"
	"github.com/radieske/bet-ledger/internal/ledger/model"
)

type statsCmd struct {
	email    string
	bankroll string
	sport    string
	result   string
	currency string
}

func (*statsCmd) Name() string     { return "stats" }
func (*statsCmd) Synopsis() string { return "print bankroll and performance figures for a user" }
func (*statsCmd) Usage() string {
	return `ledgerctl stats -email <email> [-bankroll <id>] [-sport <sport>] [-result <result>] [-currency BRL]

  Prints current bankroll, profit, win rate, ROI and a per-sport breakdown.
`
}

func (c *statsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "email", "", "user email")
	f.StringVar(&c.bankroll, "bankroll", "", "restrict to one bankroll id")
	f.StringVar(&c.sport, "sport", "", "restrict to one sport")
	f.StringVar(&c.result, "result", "", "restrict to pending, won or lost")
	f.StringVar(&c.currency, "currency", "BRL", "ISO 4217 code used to format amounts")
}

func (c *statsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.email == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	if money.GetCurrency(c.currency) == nil {
		return fail("unknown currency %q", c.currency)
	}

	log := newLogger()
	defer log.Sync()

	store, err := openStore(ctx, log)
	if err != nil {
		return fail("%v", err)
	}
	defer store.Close()

	u, err := store.GetUserByEmail(ctx, c.email)
	if err != nil {
		return fail("%v", err)
	}

	initial := decimal.Zero
	if c.bankroll == "" {
		bs, err := store.GetUserSettings(ctx, u.ID)
		switch {
		case err == nil:
			initial = bs.InitialBankroll
		case !errors.Is(err, model.ErrNotFound):
			return fail("%v", err)
		}
	} else {
		list, err := store.ListBankrolls(ctx, u.ID)
		if err != nil {
			return fail("%v", err)
		}
		found := false
		for _, bs := range list {
			if bs.ID == c.bankroll {
				initial, found = bs.InitialBankroll, true
			}
		}
		if !found {
			return fail("bankroll %s not found for %s", c.bankroll, u.Email)
		}
	}

	bets, err := store.GetBetsByUserID(ctx, u.ID)
	if err != nil {
		return fail("%v", err)
	}
	filter := accounting.Filter{Sport: c.sport, Result: model.Result(c.result), BankrollID: c.bankroll}

	printStats(os.Stdout, accounting.Summarize(initial, filter.Apply(bets)), c.currency)
	return subcommands.ExitSuccess
}

func printStats(out io.Writer, st accounting.Stats, currency string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Initial bankroll\t%s\n", formatMoney(st.InitialBankroll, currency))
	fmt.Fprintf(w, "Current bankroll\t%s\n", formatMoney(st.CurrentBankroll, currency))
	fmt.Fprintf(w, "Total profit\t%s\n", formatMoney(st.TotalProfit, currency))
	fmt.Fprintf(w, "Total staked\t%s\n", formatMoney(st.TotalStaked, currency))
	fmt.Fprintf(w, "Pending exposure\t%s\n", formatMoney(st.PendingExposure, currency))
	fmt.Fprintf(w, "Bets\t%d (won %d, lost %d, pending %d)\n", st.TotalBets, st.WonBets, st.LostBets, st.PendingBets)
	fmt.Fprintf(w, "Win rate\t%.1f%%\n", st.WinRate)
	fmt.Fprintf(w, "ROI\t%.1f%%\n", st.ROI)

	if len(st.BySport) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Sport\tBets\tWin rate\tProfit")
		for _, s := range st.BySport {
			fmt.Fprintf(w, "%s\t%d\t%.1f%%\t%s\n", s.Sport, s.Bets, s.WinRate, formatMoney(s.Profit, currency))
		}
	}
	_ = w.Flush()
}

// formatMoney formata um valor decimal na moeda informada (ex.: "R$1.234,50")
func formatMoney(amount decimal.Decimal, currency string) string {
	cur := money.New(0, currency).Currency()
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}
