package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"eduplatform-web/internal/querycache"
)

// Invalidator applies invalidations received from peers
type Invalidator interface {
	ApplyRemoteInvalidation(prefix querycache.Key) int
}

// InvalidationConsumer applies the invalidations published by the other
// instances to the local cache
type InvalidationConsumer struct {
	rmq   *RabbitMQ
	cache Invalidator
}

func NewInvalidationConsumer(rmq *RabbitMQ, cache Invalidator) *InvalidationConsumer {
	return &InvalidationConsumer{rmq: rmq, cache: cache}
}

func (c *InvalidationConsumer) Start(ctx context.Context) error {
	queue, err := c.rmq.channel.QueueDeclare(
		"",    // auto-generated name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare invalidation queue: %w", err)
	}

	if err := c.rmq.channel.QueueBind(
		queue.Name,           // queue name
		"",                   // routing key
		InvalidationExchange, // exchange
		false,
		nil,
	); err != nil {
		return fmt.Errorf("failed to bind invalidation queue: %w", err)
	}

	msgs, err := c.rmq.channel.Consume(
		queue.Name, // queue
		"",         // consumer
		true,       // auto-ack
		false,      // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	logger := c.rmq.logger
	logger.Info("started consuming cache invalidations",
		slog.String("queue", queue.Name),
		slog.String("exchange", InvalidationExchange))

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Info("stopping invalidation consumer")
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Warn("invalidation consumer channel closed")
					return
				}
				c.process(msg.Body)
			}
		}
	}()

	return nil
}

// process applies one message and reports how many cache entries it marked
// stale. Messages from this instance and unreadable bodies are skipped.
func (c *InvalidationConsumer) process(body []byte) int {
	var inv Invalidation
	if err := json.Unmarshal(body, &inv); err != nil {
		c.rmq.logger.Error("error unmarshaling invalidation",
			slog.String("error", err.Error()),
			slog.String("body", string(body)))
		return 0
	}
	if inv.Origin == c.rmq.instanceID || inv.Prefix.IsZero() {
		return 0
	}

	n := c.cache.ApplyRemoteInvalidation(inv.Prefix)
	c.rmq.logger.Debug("applied remote invalidation",
		slog.String("origin", inv.Origin),
		slog.String("prefix", inv.Prefix.String()),
		slog.Int("entries", n))
	return n
}
