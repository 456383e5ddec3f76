// Package events publishes sync lifecycle events to Kafka so downstream
// consumers (notifications, exports) can react to fresh data. The publisher
// is optional: a nil *KafkaPublisher is a no-op.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Event types.
const (
	TypeSyncCompleted = "sync.completed"
	TypeSyncFailed    = "sync.failed"
)

// SyncEvent describes one bank sync outcome.
type SyncEvent struct {
	Type            string    `json:"type"`
	BankID          string    `json:"bank_id"`
	BankCode        string    `json:"bank_code"`
	Accounts        int       `json:"accounts"`
	NewTransactions int       `json:"new_transactions"`
	Error           string    `json:"error,omitempty"`
	At              time.Time `json:"at"`
}

// KafkaPublisher writes sync events to a topic.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    zerolog.Logger
}

// NewKafkaPublisher builds a publisher. Returns nil when no brokers are
// configured, which callers treat as disabled.
func NewKafkaPublisher(brokers []string, topic string, log zerolog.Logger) *KafkaPublisher {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 100 * time.Millisecond,
		},
		log: log.With().Str("pkg", "events").Logger(),
	}
}

// Publish sends one event, keyed by bank code. Failures are logged, not
// returned: a broker outage must not fail a sync.
func (p *KafkaPublisher) Publish(ctx context.Context, ev SyncEvent) {
	if p == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		p.log.Error().Err(err).Msg("marshal sync event")
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.BankCode),
		Value: body,
	}); err != nil {
		p.log.Warn().Err(err).Str("bank", ev.BankCode).Msg("publish sync event failed")
	}
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
