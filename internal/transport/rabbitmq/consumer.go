package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Handler receives every delivery routed to the consumer queue.
type Handler func(routingKey string, payload []byte)

// Consumer binds a durable queue to the topic exchange with a catch-all
// pattern and feeds deliveries to a handler on a background goroutine.
type Consumer struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  string
	logger *zap.Logger
}

// NewConsumer dials the broker and binds queue to exchange with the `#`
// wildcard so it observes the full event stream.
func NewConsumer(url, exchange, queue string, logger *zap.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}

	if err := ch.QueueBind(queue, "#", exchange, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("bind queue %s: %w", queue, err)
	}

	return &Consumer{conn: conn, ch: ch, queue: queue, logger: logger}, nil
}

// Run consumes deliveries until the channel closes, invoking handler for each.
// It is meant to be launched as a long-lived goroutine from main.
func (c *Consumer) Run(handler Handler) error {
	deliveries, err := c.ch.Consume(c.queue, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}

	c.logger.Info("consumer started", zap.String("queue", c.queue))
	for d := range deliveries {
		handler(d.RoutingKey, d.Body)
	}
	c.logger.Warn("consumer channel closed", zap.String("queue", c.queue))
	return nil
}

// Close shuts down the channel and connection.
func (c *Consumer) Close() {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}
