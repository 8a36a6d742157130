package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const resetQueueName = "auth.password_reset"

// Publisher enqueues PasswordResetRequested events on RabbitMQ.  It
// implements the service.ResetNotifier contract.  Dispatch is fire and
// forget: the broker round trip runs in a background goroutine so its
// latency never rides on the reset-request response, where it would make
// known emails distinguishable from unknown ones.  Failures are logged and
// dropped; the stored ticket is the source of truth either way.
type Publisher struct {
	URL string
}

func NewPublisher(url string) *Publisher { return &Publisher{URL: url} }

// NotifyPasswordReset hands the event to a background publish and returns
// immediately.  The caller's context is not used: the request finishes long
// before the broker does.
func (p *Publisher) NotifyPasswordReset(_ context.Context, email, name, resetURL string) error {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := p.publish(ctx, email, name, resetURL); err != nil {
			log.Printf("rabbitmq: reset event dropped for %s: %v", email, err)
		}
	}()
	return nil
}

// publish declares the queue and submits one persistent message.  The
// declare is idempotent so publisher and consumer can start in any order;
// durable queue plus persistent delivery mode survive a broker restart.
func (p *Publisher) publish(ctx context.Context, email, name, resetURL string) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		resetQueueName, // name
		true,           // durable
		false,          // autoDelete
		false,          // exclusive
		false,          // noWait
		nil,            // args
	); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	body, err := json.Marshal(PasswordResetRequested{
		Email:       email,
		Name:        name,
		ResetURL:    resetURL,
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",             // default exchange
		resetQueueName, // routing key = queue name
		false,          // mandatory
		false,          // immediate
		pub,
	); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}
