package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Publisher sends notifications to a durable RabbitMQ queue.  A connection
// is opened per message; notifications are infrequent and this keeps the
// publisher free of reconnect state.
type Publisher struct {
	url   string
	queue string
	log   *zerolog.Logger
}

// NewPublisher returns a Publisher for url.  An empty queue name uses
// DefaultQueueName.
func NewPublisher(url, queueName string, log *zerolog.Logger) *Publisher {
	if queueName == "" {
		queueName = DefaultQueueName
	}
	return &Publisher{url: url, queue: queueName, log: log}
}

// Notify publishes n as persistent JSON.  Errors are logged and returned so
// the caller can choose to ignore them.
func (p *Publisher) Notify(ctx context.Context, n Notification) error {
	if p.url == "" {
		return errors.New("rabbitmq: empty url")
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn().Err(err).Msg("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn().Err(err).Msg("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		p.queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		p.log.Warn().Err(err).Str("queue", p.queue).Msg("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(n)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		MessageId:    n.ID,
		Type:         string(n.Kind),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		pub,
	); err != nil {
		p.log.Warn().Err(err).Str("kind", string(n.Kind)).Msg("rabbitmq: publish failed")
		return err
	}
	return nil
}
