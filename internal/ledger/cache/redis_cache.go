package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/bet-ledger/internal/ledger/model"
)

// RedisCache guarda, por usuário, a lista de apostas e a banca principal
// (cache-aside). Também mantém email -> usuário para o sync em modo cache.
// Client: cliente Redis
// TTL: tempo de expiração dos registros
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisCache cria uma instância de cache Redis com TTL configurável
func NewRedisCache(c *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

func keyBets(userID string) string     { return "ledger:bets:" + userID }
func keySettings(userID string) string { return "ledger:settings:" + userID }
func keyUser(email string) string      { return "ledger:user:" + model.NormalizeEmail(email) }

func (r *RedisCache) get(ctx context.Context, key string, dst any) (bool, error) {
	b, err := r.Client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

func (r *RedisCache) set(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, key, b, r.TTL).Err()
}

func (r *RedisCache) GetBets(ctx context.Context, userID string) ([]model.Bet, bool, error) {
	var bets []model.Bet
	ok, err := r.get(ctx, keyBets(userID), &bets)
	return bets, ok, err
}

func (r *RedisCache) SetBets(ctx context.Context, userID string, bets []model.Bet) error {
	return r.set(ctx, keyBets(userID), bets)
}

func (r *RedisCache) GetSettings(ctx context.Context, userID string) (model.BankrollSettings, bool, error) {
	var bs model.BankrollSettings
	ok, err := r.get(ctx, keySettings(userID), &bs)
	return bs, ok, err
}

func (r *RedisCache) SetSettings(ctx context.Context, userID string, bs model.BankrollSettings) error {
	return r.set(ctx, keySettings(userID), bs)
}

func (r *RedisCache) SetUser(ctx context.Context, u model.User) error {
	return r.set(ctx, keyUser(u.Email), u)
}

// Invalidate remove apostas e banca do usuário; chamado após toda mutação
func (r *RedisCache) Invalidate(ctx context.Context, userID string) error {
	return r.Client.Del(ctx, keyBets(userID), keySettings(userID)).Err()
}

// Flush remove todas as chaves do ledger (após import do backup)
func (r *RedisCache) Flush(ctx context.Context) error {
	iter := r.Client.Scan(ctx, 0, "ledger:*", 200).Iterator()
	for iter.Next(ctx) {
		if err := r.Client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// ---------- sync.Source ----------

// UserByEmail resolve a identidade a partir do cache
func (r *RedisCache) UserByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	ok, err := r.get(ctx, keyUser(email), &u)
	if err != nil {
		return model.User{}, err
	}
	if !ok {
		return model.User{}, fmt.Errorf("cached user %s: %w", email, model.ErrNotFound)
	}
	return u, nil
}

func (r *RedisCache) Bets(ctx context.Context, userID string) ([]model.Bet, error) {
	bets, _, err := r.GetBets(ctx, userID)
	return bets, err
}

func (r *RedisCache) Settings(ctx context.Context, userID string) (model.BankrollSettings, error) {
	bs, ok, err := r.GetSettings(ctx, userID)
	if err != nil {
		return model.BankrollSettings{}, err
	}
	if !ok {
		return model.BankrollSettings{}, fmt.Errorf("cached settings %s: %w", userID, model.ErrNotFound)
	}
	return bs, nil
}
