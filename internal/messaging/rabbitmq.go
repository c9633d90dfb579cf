// Package messaging fans cache invalidations out to the other web shell
// instances over RabbitMQ.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"eduplatform-web/internal/observability"
	"eduplatform-web/internal/querycache"
)

// InvalidationExchange is the fanout exchange every instance binds a private queue to
const InvalidationExchange = "eduplatform.cache.invalidations"

type RabbitMQ struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	instanceID string
	logger     *slog.Logger
}

// Invalidation is the message published when a mutation invalidates a key prefix
type Invalidation struct {
	Origin    string         `json:"origin"`
	Prefix    querycache.Key `json:"prefix"`
	Timestamp int64          `json:"timestamp"`
}

func NewRabbitMQ(url string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	rmq := &RabbitMQ{
		conn:       conn,
		channel:    ch,
		instanceID: uuid.NewString(),
		logger:     observability.Logger(),
	}

	if err := rmq.Setup(); err != nil {
		rmq.Close()
		return nil, err
	}

	return rmq, nil
}

// NewRabbitMQWithRetry keeps dialing until the broker accepts the
// connection or ctx expires, doubling the wait up to 10s
func NewRabbitMQWithRetry(ctx context.Context, url string) (*RabbitMQ, error) {
	delay := 500 * time.Millisecond
	for attempt := 1; ; attempt++ {
		rmq, err := NewRabbitMQ(url)
		if err == nil {
			return rmq, nil
		}

		observability.Logger().Warn("rabbitmq not ready, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("giving up on RabbitMQ after %d attempts: %w", attempt, err)
		case <-time.After(delay):
		}
		delay = min(delay*2, 10*time.Second)
	}
}

func (r *RabbitMQ) Setup() error {
	if err := r.channel.ExchangeDeclare(
		InvalidationExchange, // name
		"fanout",             // type
		true,                 // durable
		false,                // auto-deleted
		false,                // internal
		false,                // no-wait
		nil,                  // arguments
	); err != nil {
		return fmt.Errorf("failed to declare invalidation exchange: %w", err)
	}

	r.logger.Info("rabbitmq setup completed successfully",
		slog.String("exchange", InvalidationExchange),
		slog.String("instance_id", r.instanceID))
	return nil
}

// InstanceID identifies this process on the exchange. Consumers drop
// messages carrying their own id.
func (r *RabbitMQ) InstanceID() string {
	return r.instanceID
}

// PublishInvalidation implements querycache.Broadcaster
func (r *RabbitMQ) PublishInvalidation(ctx context.Context, prefix querycache.Key) error {
	body, err := json.Marshal(Invalidation{
		Origin:    r.instanceID,
		Prefix:    prefix,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal invalidation: %w", err)
	}

	err = r.channel.PublishWithContext(
		ctx,
		InvalidationExchange,
		"",
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			// Invalidations are only useful to instances that are up right now
			DeliveryMode: amqp.Transient,
			Expiration:   "30000",
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish invalidation: %w", err)
	}

	r.logger.Debug("published cache invalidation", slog.String("prefix", prefix.String()))
	return nil
}

func (r *RabbitMQ) IsClosed() bool {
	return r.conn == nil || r.conn.IsClosed()
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
