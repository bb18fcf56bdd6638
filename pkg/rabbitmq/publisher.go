package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

var (
	ErrNotConfirmed   = errors.New("rabbitmq: broker did not confirm message")
	ErrConfirmTimeout = errors.New("rabbitmq: publish confirms timeout")
)

type Publisher struct {
	mu         sync.Mutex                  // one batch in flight, confirms are matched in order
	ch         *amqp091.Channel
	confirms   <-chan amqp091.Confirmation
	exchange   string
	routingKey string
	timeout    time.Duration
}

func NewPublisher(conn *amqp091.Connection, exchange, routingKey string) (*Publisher, error) {

	if conn == nil {
		return nil, errors.New("AMQP connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		ch.Close()
		return nil, err
	}

	confirms := ch.NotifyPublish(make(chan amqp091.Confirmation, 100))

	return &Publisher{
		ch:         ch,
		confirms:   confirms,
		exchange:   exchange,
		routingKey: routingKey,
		timeout:    5 * time.Second,
	}, nil
}

// PublishEvents marshals events and publishes them as one confirmed batch.
func (p *Publisher) PublishEvents(ctx context.Context, events ...EventPayload) error {
	bodies := make([][]byte, 0, len(events))
	for _, e := range events {
		body, err := json.Marshal(e)
		if err != nil {
			return err
		}
		bodies = append(bodies, body)
	}
	return p.PublishBatch(ctx, bodies)
}

func (p *Publisher) PublishBatch(ctx context.Context, bodies [][]byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, body := range bodies {
		if err := p.publish(ctx, body); err != nil {
			return err
		}
	}

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	for range bodies {
		select {
		case confirm, ok := <-p.confirms:
			if !ok || !confirm.Ack {
				return ErrNotConfirmed
			}
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return ErrConfirmTimeout
		}
	}

	return nil
}

func (p *Publisher) publish(ctx context.Context, body []byte) error {

	if p.ch == nil {
		return errors.New("AMQP channel is nil")
	}

	return p.ch.PublishWithContext(
		ctx,
		p.exchange,
		p.routingKey,
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		return p.ch.Close()
	}
	return nil
}
