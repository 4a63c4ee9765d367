package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"pos-system/internal/logger"
	"pos-system/internal/models"
)

// Publisher handles message publishing to RabbitMQ
type Publisher struct {
	conn   *Connection
	logger *logger.Logger
}

// NewPublisher creates a new message publisher
func NewPublisher(conn *Connection, log *logger.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: log,
	}
}

// PublishKitchenTicket publishes a kitchen ticket, routed by order type.
func (p *Publisher) PublishKitchenTicket(ctx context.Context, ticket *models.KitchenTicket) error {
	routingKey := fmt.Sprintf("kitchen.%s", ticket.OrderType)
	return p.publishMessage(ctx, OrdersExchange, routingKey, ticket, true)
}

// PublishStatusUpdate publishes a lifecycle update to the notifications fanout.
func (p *Publisher) PublishStatusUpdate(ctx context.Context, update *models.StatusUpdate) error {
	return p.publishMessage(ctx, NotificationsExchange, "", update, false)
}

func (p *Publisher) publishMessage(ctx context.Context, exchange, routingKey string, message interface{}, persistent bool) error {
	if p.conn.IsClosed() {
		if err := p.conn.Reconnect(); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	deliveryMode := amqp091.Transient
	if persistent {
		deliveryMode = amqp091.Persistent
	}

	pub := amqp091.Publishing{
		DeliveryMode: uint8(deliveryMode),
		ContentType:  "application/json",
		Body:         body,
		Timestamp:    time.Now().UTC(),
	}

	if err := p.conn.Channel().PublishWithContext(ctx, exchange, routingKey, false, false, pub); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", exchange, err)
	}

	return nil
}
