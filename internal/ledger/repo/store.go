package repo

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/radieske/bet-ledger/internal/ledger/model"
)

// Store é a interface única de persistência do ledger.
// Implementada pelo banco embarcado (SQLite) e pelo remoto gerenciado (Postgres).
type Store interface {
	CreateUser(ctx context.Context, email, name string) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	GetUserByID(ctx context.Context, id string) (model.User, error)

	// CreateBet sempre atribui um id novo
	CreateBet(ctx context.Context, b *model.Bet) (string, error)
	// InsertBet preserva b.ID quando informado (usado pelo sync)
	InsertBet(ctx context.Context, b *model.Bet) error
	GetBetsByUserID(ctx context.Context, userID string) ([]model.Bet, error)
	GetBetsByBankrollID(ctx context.Context, userID, bankrollID string) ([]model.Bet, error)
	BetIDsByUserID(ctx context.Context, userID string) (map[string]struct{}, error)
	UpdateBet(ctx context.Context, b *model.Bet) error
	DeleteBet(ctx context.Context, betID, userID string) error

	GetUserSettings(ctx context.Context, userID string) (model.BankrollSettings, error)
	ListBankrolls(ctx context.Context, userID string) ([]model.BankrollSettings, error)
	CreateOrUpdateUserSettings(ctx context.Context, userID string, initial decimal.Decimal, name string) error
	CreateBankroll(ctx context.Context, userID, name string, initial decimal.Decimal) (model.BankrollSettings, error)
	IsPremium(ctx context.Context, userID string) (bool, error)

	Export(ctx context.Context) (model.Backup, error)
	Import(ctx context.Context, doc model.Backup) error

	Ping(ctx context.Context) error
	Close() error
}

var _ Store = (*SQLStore)(nil)
