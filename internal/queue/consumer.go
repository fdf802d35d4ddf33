package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// AuditConsumer drains the notification queue and appends one line per
// message to an audit log file.
type AuditConsumer struct {
	url     string
	queue   string
	logPath string
	log     *zerolog.Logger
}

// NewAuditConsumer builds a consumer.  An empty queue name uses
// DefaultQueueName.
func NewAuditConsumer(url, queueName, logPath string, log *zerolog.Logger) *AuditConsumer {
	if queueName == "" {
		queueName = DefaultQueueName
	}
	return &AuditConsumer{url: url, queue: queueName, logPath: logPath, log: log}
}

// Run connects to RabbitMQ and consumes until ctx is cancelled.  Broker
// failures are retried with exponential backoff capped at 30s.
func (a *AuditConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(a.url)
		if err != nil {
			a.log.Warn().Err(err).Dur("retry_in", backoff).Msg("audit-consumer: failed to dial broker")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = a.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.log.Warn().Err(err).Msg("audit-consumer: consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (a *AuditConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		a.log.Warn().Err(err).Msg("audit-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(a.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(a.queue, "", false, false, false, false, nil)
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
			if err := a.Handle(d.Body); err != nil {
				a.log.Error().Err(err).Msg("audit-consumer: handle message failed")
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one message body and appends it to the audit file.
func (a *AuditConsumer) Handle(body []byte) error {
	var n Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if n.Kind == "" || n.EventID == 0 {
		return errors.New("notification without kind or event id")
	}
	if dir := filepath.Dir(a.logPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(a.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatAuditLine(n)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatAuditLine renders n as a single human-friendly line.
func FormatAuditLine(n Notification) string {
	line := fmt.Sprintf("[%s] %s | id=%s | event_id=%d | title=%q | status=%s",
		n.OccurredAt.UTC().Format(time.RFC3339), n.Kind, n.ID, n.EventID, n.Title, n.Status)
	if n.ActorID != 0 {
		line += fmt.Sprintf(" | actor_id=%d", n.ActorID)
	}
	if n.RecipientUserID != 0 {
		line += fmt.Sprintf(" | recipient_user_id=%d", n.RecipientUserID)
	}
	if n.Reason != "" {
		line += fmt.Sprintf(" | reason=%q", n.Reason)
	}
	return line + "\n"
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
