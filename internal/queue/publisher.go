// Package queue publishes call-detail records to the exchange the rating
// engine consumes from.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mkazancev/brt-harness/internal/cdr"
)

const (
	Exchange   = "cdr-exchange"
	RoutingKey = "cdr-routing-key"

	dialAttempts = 3
	dialDelay    = 5 * time.Second
)

// ErrEmptyBatch is returned when there is nothing to publish.
var ErrEmptyBatch = errors.New("cdr batch is empty")

// publishCloser is the slice of the AMQP channel the publisher needs.
type publishCloser interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends CDR batches to RabbitMQ with persistent delivery.
type Publisher struct {
	url  string
	log  *slog.Logger
	dial func(url string) (publishCloser, error)
}

func NewPublisher(url string, log *slog.Logger) *Publisher {
	return &Publisher{
		url:  url,
		log:  log,
		dial: dialChannel,
	}
}

// Publish sends the whole batch as one persistent JSON message.
func (p *Publisher) Publish(ctx context.Context, records []cdr.Record) error {
	if len(records) == 0 {
		return ErrEmptyBatch
	}

	body, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode cdr batch: %w", err)
	}

	ch, err := p.connect()
	if err != nil {
		return err
	}
	defer ch.Close()

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, Exchange, RoutingKey, false, false, msg); err != nil {
		return fmt.Errorf("publish cdr batch: %w", err)
	}

	p.log.Info("cdr batch published", "records", len(records), "exchange", Exchange)
	return nil
}

// connect dials the broker with a bounded retry, matching the connection
// policy of the rating pipeline's own clients.
func (p *Publisher) connect() (publishCloser, error) {
	var lastErr error
	for attempt := 1; attempt <= dialAttempts; attempt++ {
		ch, err := p.dial(p.url)
		if err == nil {
			return ch, nil
		}
		lastErr = err
		p.log.Warn("rabbitmq dial failed", "attempt", attempt, "error", err)
		if attempt < dialAttempts {
			time.Sleep(dialDelay)
		}
	}
	return nil, fmt.Errorf("connect to rabbitmq: %w", lastErr)
}

type amqpChannel struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func (c *amqpChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return c.ch.PublishWithContext(ctx, exchange, key, mandatory, immediate, msg)
}

func (c *amqpChannel) Close() error {
	if err := c.ch.Close(); err != nil {
		c.conn.Close()
		return err
	}
	return c.conn.Close()
}

func dialChannel(url string) (publishCloser, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &amqpChannel{conn: conn, ch: ch}, nil
}
