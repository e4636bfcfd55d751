package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Channel is the subset of *amqp.Channel the client uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// Client holds the RabbitMQ connection and channel for product events.
type Client struct {
	conn     *amqp.Connection
	channel  Channel
	exchange string
	logger   *zap.Logger
	mu       sync.Mutex
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL      string
	Exchange string
}

// NewClient connects to RabbitMQ, opens a channel and declares the fanout
// exchange every instance publishes product events to.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	c, err := newClient(ch, cfg.Exchange, logger)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	c.conn = conn
	return c, nil
}

// NewClientWithChannel builds a client on an already open channel.
func NewClientWithChannel(ch Channel, exchange string, logger *zap.Logger) (*Client, error) {
	return newClient(ch, exchange, logger)
}

func newClient(ch Channel, exchange string, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	err := ch.ExchangeDeclare(
		exchange, // name
		"fanout", // kind
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	logger.Named("rabbitmq").Info("connected", zap.String("exchange", exchange))
	return &Client{channel: ch, exchange: exchange, logger: logger.Named("rabbitmq")}, nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// Publish sends a JSON event to the product exchange.
func (c *Client) Publish(ctx context.Context, routingKey string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// amqp channels are not safe for concurrent publishing.
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.channel.Publish(
		c.exchange, // exchange
		routingKey, // routing key, informational on a fanout exchange
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Transient,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	c.logger.Debug("sent product event", zap.String("routing_key", routingKey))
	return nil
}

// Consume binds a private, auto-deleted queue to the exchange and hands
// every delivery to handler until the channel closes or ctx is done.
// Messages the handler rejects are dropped, not requeued.
func (c *Client) Consume(ctx context.Context, handler func(ctx context.Context, body []byte) error) error {
	queue, err := c.channel.QueueDeclare(
		"",    // name: server generated
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue for consuming: %w", err)
	}
	if err := c.channel.QueueBind(queue.Name, "", c.exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", queue.Name, err)
	}

	msgs, err := c.channel.Consume(
		queue.Name, // queue
		"",         // consumer tag
		false,      // auto-ack
		true,       // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go c.dispatch(ctx, msgs, handler)
	return nil
}

func (c *Client) dispatch(ctx context.Context, msgs <-chan amqp.Delivery, handler func(ctx context.Context, body []byte) error) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				c.logger.Warn("delivery channel closed")
				return
			}
			if err := handler(ctx, msg.Body); err != nil {
				c.logger.Warn("error processing message", zap.Uint64("delivery_tag", msg.DeliveryTag), zap.Error(err))
				if nackErr := msg.Nack(false, false); nackErr != nil {
					c.logger.Warn("error nacking message", zap.Uint64("delivery_tag", msg.DeliveryTag), zap.Error(nackErr))
				}
				continue
			}
			if ackErr := msg.Ack(false); ackErr != nil {
				c.logger.Warn("error acking message", zap.Uint64("delivery_tag", msg.DeliveryTag), zap.Error(ackErr))
			}
		}
	}
}
