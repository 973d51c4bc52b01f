package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/ElPacho21/ecommerce-questions-microservice/internal/infra/config"
)

// Exchange names shared with the auth, catalog and stats services. All are
// fanout exchanges; the auth exchange is transient because invalidation events
// only matter while a subscriber is live.
const (
	AuthExchange           = "auth"
	ArticleDeletedExchange = "article_deleted"
	StatsExchange          = "stats"
)

// Handler processes a single delivered message body.
type Handler func(ctx context.Context, body []byte) error

// Client owns the single AMQP connection and channel shared by the publisher
// and all subscribers. Connect is idempotent; a broker-initiated close
// invalidates the pair and the next Connect call re-establishes both. The
// client never reconnects in the background on its own.
type Client struct {
	url    string
	logger *zap.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewClient constructs the connection manager. No connection is made until
// the first publish or subscribe call.
func NewClient(cfg config.RabbitSettings, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{url: cfg.URL, logger: logger}
}

// Connect returns the shared channel, dialing the broker and opening a
// channel if needed. Concurrent callers observe exactly one underlying
// connection/channel pair.
func (c *Client) Connect() (*amqp.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil {
		return c.channel, nil
	}

	if c.conn == nil {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			return nil, fmt.Errorf("dial rabbitmq: %w", err)
		}
		c.conn = conn

		closed := make(chan *amqp.Error, 1)
		conn.NotifyClose(closed)
		go c.watchClose(closed)

		c.logger.Info("RabbitMQ connection established")
	}

	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	c.channel = ch

	return ch, nil
}

// watchClose invalidates the connection/channel pair once the broker closes
// the connection. Reconnection happens lazily on the next Connect call.
func (c *Client) watchClose(closed chan *amqp.Error) {
	err := <-closed

	c.mu.Lock()
	c.conn = nil
	c.channel = nil
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("RabbitMQ connection closed, will reconnect on next use", zap.Error(err))
	}
}

// Publish declares the destination fanout exchange and publishes the JSON
// serialized message with no delivery confirmation.
func (c *Client) Publish(ctx context.Context, exchange string, durable bool, message any) error {
	ch, err := c.Connect()
	if err != nil {
		return err
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, durable, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal message for %s: %w", exchange, err)
	}

	if err := ch.PublishWithContext(ctx, exchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	}); err != nil {
		return fmt.Errorf("publish to %s: %w", exchange, err)
	}

	return nil
}

// Subscribe declares the fanout exchange, binds an exclusive anonymous queue
// to it and starts a delivery loop invoking handler once per message with
// auto-ack. Handler errors and panics are logged per delivery and never stop
// the loop. The loop ends when ctx is done or the channel closes.
func (c *Client) Subscribe(ctx context.Context, exchange string, durable bool, handler Handler) error {
	ch, err := c.Connect()
	if err != nil {
		return err
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, durable, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	queue, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue for %s: %w", exchange, err)
	}

	if err := ch.QueueBind(queue.Name, "", exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue to %s: %w", exchange, err)
	}

	deliveries, err := ch.Consume(queue.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume from %s: %w", exchange, err)
	}

	go c.consume(ctx, exchange, deliveries, handler)

	c.logger.Info("subscribed to exchange", zap.String("exchange", exchange), zap.Bool("durable", durable))
	return nil
}

// SubscribeWithRetry attempts Subscribe up to retries+1 times, sleeping
// backoff between attempts. With retries == 0 a failed connect is logged and
// the subscription abandoned, matching the historical behavior.
func (c *Client) SubscribeWithRetry(ctx context.Context, exchange string, durable bool, handler Handler, retries int, backoff time.Duration) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = c.Subscribe(ctx, exchange, durable, handler); err == nil {
			return nil
		}

		if attempt >= retries {
			return err
		}

		c.logger.Warn("subscribe failed, retrying",
			zap.String("exchange", exchange),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func (c *Client) consume(ctx context.Context, exchange string, deliveries <-chan amqp.Delivery, handler Handler) {
	for {
		select {
		case <-ctx.Done():
			return
		case delivery, ok := <-deliveries:
			if !ok {
				c.logger.Warn("delivery channel closed", zap.String("exchange", exchange))
				return
			}
			if len(delivery.Body) == 0 {
				continue
			}
			c.dispatch(ctx, exchange, delivery.Body, handler)
		}
	}
}

// dispatch isolates one handler invocation: errors are logged and panics
// recovered, so a bad message cannot take the subscription down.
func (c *Client) dispatch(ctx context.Context, exchange string, body []byte, handler Handler) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("message handler panicked",
				zap.String("exchange", exchange),
				zap.Any("panic", r),
			)
		}
	}()

	if err := handler(ctx, body); err != nil {
		c.logger.Error("message handler failed",
			zap.String("exchange", exchange),
			zap.Error(err),
		)
	}
}

// Close shuts the channel and connection down.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil {
		_ = c.channel.Close()
		c.channel = nil
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.conn = nil
			return fmt.Errorf("close rabbitmq connection: %w", err)
		}
		c.conn = nil
	}

	return nil
}
