// Package events announces confirmed order changes on the order topic.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"storefront/internal/entity"
	"storefront/internal/workflow"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Event kinds besides the workflow actions.
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
	KindStatus  = "status"
	KindStock   = "stock"
)

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type OrderEvent struct {
	Kind          string               `json:"kind"`
	OrderID       int                  `json:"orderId"`
	UserID        int                  `json:"userId"`
	Status        entity.OrderStatus   `json:"status,omitempty"`
	PaymentStatus entity.PaymentStatus `json:"paymentStatus,omitempty"`
	TotalAmount   decimal.Decimal      `json:"totalAmount"`
	ProductIDs    []int                `json:"productIds,omitempty"`
	Effects       []workflow.Effect    `json:"effects,omitempty"`
	OccurredAt    time.Time            `json:"occurredAt"`
}

// Key is order-<kind>-<id>, e.g. order-ship-12.
func (e OrderEvent) Key() string {
	return fmt.Sprintf("order-%s-%d", e.Kind, e.OrderID)
}

// TouchesStock reports whether the event moves inventory.
func (e OrderEvent) TouchesStock() bool {
	if e.Kind == KindCreated || e.Kind == KindDeleted || e.Kind == KindStock {
		return true
	}
	for _, eff := range e.Effects {
		if eff == workflow.EffectInventoryRelease {
			return true
		}
	}
	return false
}

func NewOrderEvent(kind string, order *entity.Order) OrderEvent {
	ev := OrderEvent{
		Kind:          kind,
		OrderID:       order.ID,
		UserID:        order.UserID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		TotalAmount:   order.TotalAmount,
		OccurredAt:    time.Now().UTC(),
	}
	for _, item := range order.Items {
		ev.ProductIDs = append(ev.ProductIDs, item.ProductID)
	}
	if action, err := workflow.ParseAction(kind); err == nil {
		ev.Effects = workflow.SideEffects(action)
	}
	return ev
}

type Publisher struct {
	writer MessageWriter
}

func NewPublisher(w MessageWriter) *Publisher {
	return &Publisher{writer: w}
}

func (p *Publisher) PublishOrder(ctx context.Context, kind string, order *entity.Order) error {
	return p.Publish(ctx, NewOrderEvent(kind, order))
}

func (p *Publisher) Publish(ctx context.Context, ev OrderEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.Key()),
		Value: value,
	})
	if err != nil {
		logger.Error().Err(err).Msgf("Error publishing %s", ev.Key())
		return err
	}
	return nil
}

// Decode parses a message written by Publish.
func Decode(msg kafka.Message) (OrderEvent, error) {
	var ev OrderEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return ev, fmt.Errorf("decode %s: %w", msg.Key, err)
	}
	return ev, nil
}
