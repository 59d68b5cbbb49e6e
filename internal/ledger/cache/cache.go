// Package cache mantém uma cópia por usuário das apostas e da banca no Redis.
// O repositório continua sendo a fonte da verdade.
package cache

import (
	"context"

	"github.com/radieske/bet-ledger/internal/ledger/model"
)

// Cache é o contrato usado pelo servidor HTTP
type Cache interface {
	GetBets(ctx context.Context, userID string) ([]model.Bet, bool, error)
	SetBets(ctx context.Context, userID string, bets []model.Bet) error
	GetSettings(ctx context.Context, userID string) (model.BankrollSettings, bool, error)
	SetSettings(ctx context.Context, userID string, bs model.BankrollSettings) error
	SetUser(ctx context.Context, u model.User) error
	Invalidate(ctx context.Context, userID string) error
	Flush(ctx context.Context) error
}

var (
	_ Cache = (*RedisCache)(nil)
	_ Cache = Nop{}
)

// Nop não guarda nada; usado quando REDIS_ADDR está vazio e nos testes
type Nop struct{}

func (Nop) GetBets(context.Context, string) ([]model.Bet, bool, error) { return nil, false, nil }
func (Nop) SetBets(context.Context, string, []model.Bet) error         { return nil }
func (Nop) GetSettings(context.Context, string) (model.BankrollSettings, bool, error) {
	return model.BankrollSettings{}, false, nil
}
func (Nop) SetSettings(context.Context, string, model.BankrollSettings) error { return nil }
func (Nop) SetUser(context.Context, model.User) error                         { return nil }
func (Nop) Invalidate(context.Context, string) error                          { return nil }
func (Nop) Flush(context.Context) error                                       { return nil }
