package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/platform/logger"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DefaultFixQueue = "driver.location"
	prefetchCount   = 16
)

// FixRecorder is the part of the delivery service the consumer needs.
type FixRecorder interface {
	RecordFix(ctx context.Context, fix domain.GpsFix) (domain.GpsFix, error)
}

// FixMessage is the wire format of a driver location update.
type FixMessage struct {
	DriverID   string    `json:"driver_id"`
	OrderID    string    `json:"order_id,omitempty"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	RecordedAt time.Time `json:"recorded_at"`
}

type disposition int

const (
	ack disposition = iota
	reject
	requeue
)

func (d disposition) String() string {
	switch d {
	case ack:
		return "ack"
	case reject:
		return "reject"
	default:
		return "requeue"
	}
}

// FixConsumer feeds GPS fixes from a RabbitMQ queue into a FixRecorder.
type FixConsumer struct {
	ch       *amqp.Channel
	queue    string
	recorder FixRecorder
	log      logger.ILogger
}

// NewFixConsumer opens a channel, declares the durable queue and applies the
// prefetch limit.
func NewFixConsumer(conn *amqp.Connection, queue string, recorder FixRecorder, log logger.ILogger) (*FixConsumer, error) {
	if queue == "" {
		queue = DefaultFixQueue
	}
	if log == nil {
		log = logger.Nop()
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("fix consumer: open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("fix consumer: declare queue %q: %w", queue, err)
	}
	if err := ch.Qos(prefetchCount, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("fix consumer: set qos: %w", err)
	}

	return &FixConsumer{ch: ch, queue: queue, recorder: recorder, log: log}, nil
}

// Run consumes until ctx is cancelled or the delivery channel closes.
func (c *FixConsumer) Run(ctx context.Context) error {
	msgs, err := c.ch.Consume(
		c.queue,
		"",
		false, // manual acknowledgment
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("fix consumer: consume %q: %w", c.queue, err)
	}

	c.log.Info("fix consumer started", logger.String("queue", c.queue))
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("fix consumer: delivery channel closed")
			}
			c.settle(msg, c.process(ctx, msg.Body))
		}
	}
}

func (c *FixConsumer) Close() error {
	return c.ch.Close()
}

func (c *FixConsumer) settle(msg amqp.Delivery, d disposition) {
	var err error
	switch d {
	case ack:
		err = msg.Ack(false)
	case reject:
		err = msg.Reject(false)
	default:
		err = msg.Nack(false, true)
	}
	if err != nil {
		c.log.Error("settle delivery failed", logger.String("disposition", d.String()), logger.Error(err))
	}
}

// process decodes and records one message. Bad input is dropped; anything
// else that fails is retried.
func (c *FixConsumer) process(ctx context.Context, body []byte) disposition {
	var m FixMessage
	if err := json.Unmarshal(body, &m); err != nil {
		c.log.Warning("malformed fix message", logger.Error(err))
		return reject
	}

	fix := domain.GpsFix{
		DriverID:   m.DriverID,
		Location:   domain.GeoPoint{Lat: m.Lat, Lng: m.Lng},
		RecordedAt: m.RecordedAt,
	}
	if id := strings.TrimSpace(m.OrderID); id != "" {
		fix.OrderID = &id
	}

	if _, err := c.recorder.RecordFix(ctx, fix); err != nil {
		switch {
		case domain.IsValidation(err),
			errors.Is(err, domain.ErrNotFound),
			errors.Is(err, domain.ErrInvalidTransition):
			c.log.Warning("fix rejected",
				logger.String("driver_id", m.DriverID),
				logger.Error(err),
			)
			return reject
		default:
			c.log.Error("record fix failed",
				logger.String("driver_id", m.DriverID),
				logger.Error(err),
			)
			return requeue
		}
	}
	return ack
}
