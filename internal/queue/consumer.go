package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/house-rental-booking/internal/metrics"
)

// LogPath is where the consumer appends one line per event.
var LogPath = filepath.Join("logs", "booking.log")

// StartStatusConsumer connects to RabbitMQ, declares the status queue
// (durable) and appends every event to LogPath.  It reconnects with
// exponential backoff capped at 30s and returns only when ctx is done.
// Malformed messages are rejected without requeue so the loop never
// spins on a poison message.
func StartStatusConsumer(ctx context.Context, url string, log logrus.FieldLogger) error {
	log = log.WithField("component", "status-consumer")
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.WithError(err).Warnf("failed to dial broker; retrying in %s", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Warn("consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, log logrus.FieldLogger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.WithError(err).Warn("set QoS failed")
	}
	if _, err := ch.QueueDeclare(StatusChangedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(StatusChangedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := handleMessage(d.Body); err != nil {
				log.WithError(err).Error("handle message failed")
				metrics.EventsConsumed.WithLabelValues("rejected").Inc()
				_ = d.Nack(false, false)
				continue
			}
			metrics.EventsConsumed.WithLabelValues("ok").Inc()
			_ = d.Ack(false)
		}
	}
}

func handleMessage(body []byte) error {
	var ev BookingStatusChangedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.BookingID == "" || ev.To == "" {
		return errors.New("event missing booking_id or to")
	}
	if err := os.MkdirAll(filepath.Dir(LogPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	return writeLine(f, ev)
}

// writeLine formats one event as a single human-readable line.
func writeLine(w io.Writer, ev BookingStatusChangedEvent) error {
	from := ev.From
	if from == "" {
		from = "-"
	}
	line := fmt.Sprintf("[%s] Booking %s -> %s | booking_id=%s | house_id=%d | tenant_id=%d | owner_id=%d | actor=%s | dates=%s..%s | total=%s",
		ev.ChangedAt, from, ev.To, ev.BookingID, ev.HouseID, ev.TenantID, ev.OwnerID, ev.Actor, ev.StartDate, ev.EndDate, ev.TotalAmount)
	if ev.RejectionReason != "" {
		line += fmt.Sprintf(" | reason=%q", ev.RejectionReason)
	}
	if _, err := io.WriteString(w, line+"\n"); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
