package producer

import (
	"context"
	"encoding/json"
	"time"

	sharedkafka "github.com/radieske/bet-ledger/internal/shared/kafka"
	"github.com/radieske/bet-ledger/pkg/contracts/events"
)

// Publisher publica eventos de alteração do ledger
type Publisher interface {
	Publish(ctx context.Context, e events.LedgerEvent) error
}

// KafkaPublisher espera um writer assíncrono (sharedkafka.NewAsyncWriter)
// para não segurar a resposta HTTP
type KafkaPublisher struct {
	Writer  sharedkafka.MessageWriter
	Timeout time.Duration // teto para enfileirar (metadata do tópico inclusa)
}

func NewKafkaPublisher(w sharedkafka.MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{Writer: w, Timeout: 2 * time.Second}
}

// Publish usa o userId como chave: eventos do mesmo usuário ficam ordenados na partição
func (p *KafkaPublisher) Publish(ctx context.Context, e events.LedgerEvent) error {
	e.TsUnixMs = time.Now().UnixMilli()
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	return sharedkafka.WriteJSON(ctx, p.Writer, e.UserID, b)
}

// Nop descarta eventos (KAFKA_BROKERS vazio)
type Nop struct{}

func (Nop) Publish(context.Context, events.LedgerEvent) error { return nil }
