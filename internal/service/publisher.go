package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/house-rental-booking/internal/queue"
)

// EventPublisher delivers status-change events after a change commits.
// Failures are reported to the caller, which logs them; they never undo
// the committed change.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingStatusChangedEvent) error
}

// NopPublisher drops every event.  It is used when EVENTS_ENABLED=false.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.BookingStatusChangedEvent) error { return nil }

// AMQPPublisher publishes events as persistent JSON messages to the
// booking.status_changed queue on the default exchange.  The connection
// is opened on first use and re-dialled after any failure.
type AMQPPublisher struct {
	url string
	log logrus.FieldLogger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPPublisher returns a publisher for the broker at url.  No
// connection is made until the first Publish.
func NewAMQPPublisher(url string, log logrus.FieldLogger) *AMQPPublisher {
	return &AMQPPublisher{url: url, log: log.WithField("component", "amqp-publisher")}
}

func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	// Bounded dial: Publish runs on the request path.
	conn, err := amqp.DialConfig(p.url, amqp.Config{Heartbeat: 10 * time.Second, Locale: "en_US", Dial: amqp.DefaultDial(2 * time.Second)})
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queue.StatusChangedQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	p.log.Debug("connected to broker")
	return ch, nil
}

func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

// Publish sends ev.  Any failure drops the cached connection so the next
// call dials again.
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.BookingStatusChangedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.channel()
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx,
		"",                       // default exchange
		queue.StatusChangedQueue, // routing key = queue name
		false,                    // mandatory
		false,                    // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			MessageId:    ev.BookingID + ":" + ev.To,
			Type:         "booking.status_changed",
			Body:         body,
		},
	)
	if err != nil {
		p.reset()
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

// Close releases the broker connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}
