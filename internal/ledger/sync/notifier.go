package sync

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/bet-ledger/pkg/contracts/events"
)

// Notifier entrega o aviso passivo de resultado do sync
type Notifier interface {
	Notify(ctx context.Context, n events.SyncNotice) error
}

// RedisNotifier publica no canal lido pelo hub de websocket do ledger-service
type RedisNotifier struct {
	r       *redis.Client
	channel string
}

func NewRedisNotifier(r *redis.Client, channel string) *RedisNotifier {
	return &RedisNotifier{r: r, channel: channel}
}

func (p *RedisNotifier) Notify(ctx context.Context, n events.SyncNotice) error {
	b, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return p.r.Publish(ctx, p.channel, b).Err()
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, events.SyncNotice) error { return nil }
