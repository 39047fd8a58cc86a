// Package events consumes order-status events from Kafka and feeds paid
// orders into commission generation.
package events

import (
	"context"
	"encoding/json"
	"time"

	"mlm/internal/models"
	"mlm/internal/services/commission"
	"mlm/internal/services/orders"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const (
	defaultAttempts = 3
	defaultBackoff  = 500 * time.Millisecond
)

// OrderEvent is the payload published on the order topic.
type OrderEvent struct {
	EventID    string    `json:"event_id"`
	OrderID    string    `json:"order_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PaymentConfirmer moves an order into processing and generates its commissions.
type PaymentConfirmer interface {
	ConfirmPayment(ctx context.Context, id string) (*orders.StatusChange, error)
}

// MessageReader is the subset of *kafka.Reader the consumer uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewReader builds a consumer-group reader with manual commits.
func NewReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        time.Second,
		CommitInterval: 0,
		StartOffset:    kafka.FirstOffset,
	})
}

type Consumer struct {
	reader   MessageReader
	orders   PaymentConfirmer
	log      zerolog.Logger
	attempts int
	backoff  time.Duration
}

func NewConsumer(reader MessageReader, orders PaymentConfirmer, log zerolog.Logger) *Consumer {
	if reader == nil {
		panic("message reader is required")
	}
	if orders == nil {
		panic("payment confirmer is required")
	}
	return &Consumer{
		reader:   reader,
		orders:   orders,
		log:      log,
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
	}
}

// Run fetches and handles messages until ctx is cancelled. Every message is
// committed after handling; a message that keeps failing is logged and
// skipped so one bad order cannot stall the partition.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info().Msg("order event consumer started")
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.log.Warn().Err(err).Msg("failed to close kafka reader")
		}
		c.log.Info().Msg("order event consumer stopped")
	}()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Error().Err(err).Msg("could not fetch message, retrying")
			if !sleep(ctx, time.Second) {
				return nil
			}
			continue
		}

		if err := c.Handle(ctx, msg); err != nil {
			c.log.Error().Err(err).
				Int("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("order event dropped")
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.log.Error().Err(err).Int64("offset", msg.Offset).Msg("failed to commit message")
		}
	}
}

// Handle processes one message. Malformed payloads and statuses other than
// processing are ignored.
func (c *Consumer) Handle(ctx context.Context, msg kafka.Message) error {
	var event OrderEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.log.Warn().Err(err).Int64("offset", msg.Offset).Msg("malformed order event skipped")
		return nil
	}
	if event.OrderID == "" || event.Status != models.OrderStatusProcessing {
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		change, err := c.orders.ConfirmPayment(ctx, event.OrderID)
		if err == nil {
			ev := c.log.Info().Str("event_id", event.EventID).Str("order_id", event.OrderID)
			if change != nil && change.Generation != nil {
				ev = ev.Str("outcome", string(change.Generation.Outcome)).Int("created", change.Generation.Created)
			}
			ev.Msg("order event handled")
			return nil
		}
		if permanent(err) {
			return errors.Wrapf(err, "order %s", event.OrderID)
		}

		lastErr = err
		c.log.Warn().Err(err).Str("order_id", event.OrderID).Int("attempt", attempt).Msg("order event failed, retrying")
		if attempt < c.attempts && !sleep(ctx, c.backoff*time.Duration(attempt)) {
			return ctx.Err()
		}
	}
	return errors.Wrapf(lastErr, "order %s after %d attempts", event.OrderID, c.attempts)
}

func permanent(err error) bool {
	return errors.Is(err, orders.ErrOrderNotFound) ||
		errors.Is(err, orders.ErrOrderCancelled) ||
		errors.Is(err, orders.ErrInvalidTransition) ||
		errors.Is(err, commission.ErrGraphCorruption) ||
		errors.Is(err, commission.ErrInvalidOrder) ||
		errors.Is(err, commission.ErrOrderNotEligible)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
