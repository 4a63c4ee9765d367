package messaging

import (
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"pos-system/internal/config"
	"pos-system/internal/logger"
)

const (
	// OrdersExchange carries kitchen tickets, routed by order type.
	OrdersExchange = "orders_topic"
	// NotificationsExchange fans lifecycle updates out to every subscriber.
	NotificationsExchange = "notifications_fanout"
)

// Connection wraps a RabbitMQ connection with reconnection logic
type Connection struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	logger  *logger.Logger
	url     string
}

// New creates a new RabbitMQ connection
func New(cfg *config.Config, log *logger.Logger) (*Connection, error) {
	conn := &Connection{
		logger: log,
		url:    cfg.RabbitMQURL(),
	}

	if err := conn.connect(); err != nil {
		return nil, fmt.Errorf("failed to establish initial connection: %w", err)
	}

	return conn, nil
}

// connect establishes the connection with retry and declares the topology.
func (c *Connection) connect() error {
	maxRetries := 5
	var err error

	for i := 0; i < maxRetries; i++ {
		c.conn, err = amqp091.Dial(c.url)
		if err == nil {
			c.channel, err = c.conn.Channel()
			if err == nil {
				if setupErr := c.setupTopology(); setupErr != nil {
					c.logger.Error("rabbitmq_setup_failed", "Failed to set up topology", "startup", setupErr, nil)
					c.close()
					err = setupErr
				} else {
					return nil
				}
			} else {
				c.conn.Close()
			}
		}

		if i < maxRetries-1 {
			waitTime := time.Duration(i+1) * 2 * time.Second
			c.logger.Error("rabbitmq_connection_failed",
				fmt.Sprintf("Failed to connect to RabbitMQ, retrying in %v", waitTime),
				"startup", err, nil)
			time.Sleep(waitTime)
		}
	}

	return fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxRetries, err)
}

// setupTopology declares exchanges and kitchen queues.
func (c *Connection) setupTopology() error {
	if err := c.channel.ExchangeDeclare(OrdersExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare %s exchange: %w", OrdersExchange, err)
	}

	if err := c.channel.ExchangeDeclare(NotificationsExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare %s exchange: %w", NotificationsExchange, err)
	}

	queues := map[string]string{
		"kitchen_queue":             "kitchen.*",
		"kitchen_dine_in_queue":     "kitchen.dine_in",
		"kitchen_takeout_queue":     "kitchen.takeout",
		"kitchen_delivery_queue":    "kitchen.delivery",
		"kitchen_phone_order_queue": "kitchen.phone_order",
	}

	for queueName, bindingKey := range queues {
		_, err := c.channel.QueueDeclare(queueName, true, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", queueName, err)
		}
		if err := c.channel.QueueBind(queueName, bindingKey, OrdersExchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s: %w", queueName, err)
		}
	}

	return nil
}

// IsClosed reports whether the underlying connection has dropped.
func (c *Connection) IsClosed() bool {
	return c.conn == nil || c.conn.IsClosed()
}

// Reconnect re-establishes the connection after a drop.
func (c *Connection) Reconnect() error {
	c.close()
	return c.connect()
}

// Channel exposes the AMQP channel for publishing.
func (c *Connection) Channel() *amqp091.Channel {
	return c.channel
}

// Close shuts down the channel and connection.
func (c *Connection) Close() {
	c.close()
}

func (c *Connection) close() {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}
