package sync

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	sharedkafka "github.com/radieske/bet-ledger/internal/shared/kafka"
	"github.com/radieske/bet-ledger/pkg/contracts/events"
)

// Consumer lê eventos do ledger no Kafka e executa o merge do usuário afetado.
// Callbacks de métricas são opcionais.
type Consumer struct {
	Log    *zap.Logger
	Reader *kafka.Reader
	Merger *Merger
	DLQ    sharedkafka.MessageWriter // eventos ilegíveis ou cujo sync falhou; opcional

	OnConsumed func()       // métricas (counter++)
	OnSynced   func(Report) // métricas
	OnRun      func(string) // status do sync (SYNCED, FAILED, NOT_MIGRATED)
	OnError    func(string) // métricas por fase
}

// Run inicia o loop de consumo; só retorna quando o contexto é cancelado
func (c *Consumer) Run(ctx context.Context) error {
	for {
		m, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.Log.Warn("kafka read failed", zap.Error(err))
			c.fail("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		c.process(ctx, m)
	}
}

// process trata uma mensagem já lida do tópico
func (c *Consumer) process(ctx context.Context, m kafka.Message) {
	if c.OnConsumed != nil {
		c.OnConsumed()
	}

	var ev events.LedgerEvent
	if err := json.Unmarshal(m.Value, &ev); err != nil || ev.Email == "" {
		c.Log.Warn("invalid ledger event", zap.ByteString("value", m.Value), zap.Error(err))
		c.fail("decode")
		c.deadLetter(ctx, m)
		return
	}

	rep, err := c.Merger.Sync(ctx, ev.Email)
	switch {
	case err == nil:
		c.run(events.SyncOK)
		if c.OnSynced != nil {
			c.OnSynced(rep)
		}
	case errors.Is(err, ErrNotMigrated):
		c.Log.Info("user not migrated yet", zap.String("email", ev.Email))
		c.run(events.SyncNotMigrated)
	default:
		c.Log.Warn("sync failed", zap.String("email", ev.Email), zap.String("type", ev.Type), zap.Error(err))
		c.run(events.SyncFailed)
		c.fail("sync")
		c.deadLetter(ctx, m)
	}
}

// deadLetter copia a mensagem original para a DLQ
func (c *Consumer) deadLetter(ctx context.Context, m kafka.Message) {
	if c.DLQ == nil {
		return
	}
	if err := sharedkafka.WriteJSON(ctx, c.DLQ, string(m.Key), m.Value); err != nil {
		c.Log.Warn("dlq write failed", zap.Error(err))
		c.fail("dlq")
	}
}

func (c *Consumer) run(status string) {
	if c.OnRun != nil {
		c.OnRun(status)
	}
}

func (c *Consumer) fail(stage string) {
	if c.OnError != nil {
		c.OnError(stage)
	}
}
