package sync

import (
	"context"

	"github.com/radieske/bet-ledger/internal/ledger/model"
	"github.com/radieske/bet-ledger/internal/ledger/repo"
)

// StoreSource usa o banco embarcado como lado local do merge
type StoreSource struct {
	Store repo.Store
}

func NewStoreSource(s repo.Store) StoreSource { return StoreSource{Store: s} }

func (s StoreSource) UserByEmail(ctx context.Context, email string) (model.User, error) {
	return s.Store.GetUserByEmail(ctx, email)
}

func (s StoreSource) Bets(ctx context.Context, userID string) ([]model.Bet, error) {
	return s.Store.GetBetsByUserID(ctx, userID)
}

func (s StoreSource) Settings(ctx context.Context, userID string) (model.BankrollSettings, error) {
	return s.Store.GetUserSettings(ctx, userID)
}

var _ RemoteStore = (repo.Store)(nil)
