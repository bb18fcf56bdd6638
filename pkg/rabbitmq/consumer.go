package rabbitmq

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
	"uptimeline/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// deliveryChannel is the part of *amqp091.Channel the consumer drives.
type deliveryChannel interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp091.Table) (<-chan amqp091.Delivery, error)
	Cancel(consumer string, noWait bool) error
	Close() error
}

type Consumer struct {
	ch             deliveryChannel
	queueName      string
	workers        int
	sem            chan struct{}
	wg             sync.WaitGroup
	started        atomic.Bool
	stopped        chan struct{} // closed when Consume returns
	consumerTag    string
	handlerTimeout time.Duration
	logger         *zerolog.Logger
}

func NewConsumer(conn *amqp091.Connection, queueName string, workers int, logger *zerolog.Logger) (*Consumer, error) {
	if conn == nil {
		return nil, errors.New("AMQP connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	// Backpressure
	if err := ch.Qos(workers, 0, false); err != nil {
		ch.Close()
		return nil, err
	}

	return newConsumer(ch, queueName, workers, logger), nil
}

func newConsumer(ch deliveryChannel, queueName string, workers int, logger *zerolog.Logger) *Consumer {
	return &Consumer{
		ch:             ch,
		queueName:      queueName,
		workers:        workers,
		sem:            make(chan struct{}, workers),
		stopped:        make(chan struct{}),
		consumerTag:    "uptimeline-" + uuid.NewString(),
		handlerTimeout: 5 * time.Second,
		logger:         logger,
	}
}

// Consume blocks until the delivery channel closes, then waits for in-flight
// handlers. It is the only goroutine that adds to or waits on the worker
// group, and it must be called at most once.
func (c *Consumer) Consume(ctx context.Context, handler *EventHandler) error {
	c.started.Store(true)
	defer close(c.stopped)

	msgs, err := c.ch.Consume(
		c.queueName,
		c.consumerTag,
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	go func() {
		select {
		case <-ctx.Done():
			_ = c.ch.Cancel(c.consumerTag, false) // stop new deliveries
		case <-c.stopped:
		}
	}()

	c.logger.Info().Str("queue", c.queueName).Int("workers", c.workers).Msg("consumer started")

	for msg := range msgs {
		c.sem <- struct{}{}
		c.wg.Add(1)

		go func(m amqp091.Delivery) {
			defer c.wg.Done()
			defer func() { <-c.sem }()

			// handlers finish their unit of work even while shutting down
			msgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.handlerTimeout)
			defer cancel()

			if err := handler.Handle(msgCtx, m); err != nil {
				requeue := shouldRequeue(err, m.Redelivered)
				c.logger.Error().
					Err(err).
					Uint64("delivery_tag", m.DeliveryTag).
					Bool("redelivered", m.Redelivered).
					Bool("requeue", requeue).
					Msg("message failed")
				_ = m.Nack(false, requeue)
				return
			}

			_ = m.Ack(false)
		}(msg)
	}

	c.wg.Wait()
	c.logger.Info().Str("queue", c.queueName).Msg("consumer stopped")
	return nil
}

// shouldRequeue gives a failed delivery one more attempt unless the payload
// itself is bad. Inserts are idempotent, so a retry never duplicates rows.
func shouldRequeue(err error, redelivered bool) bool {
	if redelivered {
		return false
	}
	return !apperror.IsKind(err, apperror.InvalidInput)
}

// Shutdown stops deliveries and waits for Consume to drain its handlers.
func (c *Consumer) Shutdown(ctx context.Context) error {
	_ = c.ch.Cancel(c.consumerTag, false)

	if !c.started.Load() {
		return c.ch.Close()
	}

	select {
	case <-c.stopped:
		return c.ch.Close()
	case <-ctx.Done():
		return ctx.Err()
	}
}
