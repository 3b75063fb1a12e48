package consumer

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"storefront/internal/client"
	"storefront/internal/events"
)

// MessageReader is the part of *kafka.Reader the consumer uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer drops cached GraphQL results when another gateway instance
// reports an order change.
type Consumer struct {
	reader MessageReader
	cache  client.Cache
}

func NewConsumer(reader MessageReader, cache client.Cache) *Consumer {
	return &Consumer{reader: reader, cache: cache}
}

// Run reads the order topic until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	defer c.reader.Close()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				log.Info().Msg("Order consumer stopped")
				return
			}
			log.Error().Msgf("Error reading message: %v", err)
			continue
		}

		c.processMessage(ctx, msg)
	}
}

// processMessage invalidates the tags the event makes stale.
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) {
	ev, err := events.Decode(msg)
	if err != nil {
		log.Error().Msgf("Error unmarshalling message: %v", err)
		return
	}

	// key -> "order-created-12" or "order-cancel-12"
	parts := strings.SplitN(string(msg.Key), "-", 3)
	if len(parts) != 3 || parts[0] != "order" {
		log.Error().Msgf("Unknown event key: %s", msg.Key)
		return
	}
	if ev.Kind == "" {
		ev.Kind = parts[1]
	}

	tags := TagsFor(ev)
	if err := c.cache.Invalidate(ctx, tags...); err != nil {
		log.Error().Msgf("Error invalidating %v for %s: %v", tags, msg.Key, err)
	}
}

// TagsFor lists the cache tags an order event makes stale.
func TagsFor(ev events.OrderEvent) []string {
	tags := []string{client.TagOrders}
	if ev.TouchesStock() {
		tags = append(tags, client.TagInventory, client.TagProducts)
	}
	if ev.Kind == events.KindCreated {
		tags = append(tags, client.TagCart)
	}
	return tags
}
