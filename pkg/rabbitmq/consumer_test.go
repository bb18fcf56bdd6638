package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"uptimeline/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// fakeChannel hands out a delivery channel that Cancel closes, the way the
// broker ends a consumer.
type fakeChannel struct {
	deliveries chan amqp091.Delivery
	cancelOnce sync.Once
	closed     atomic.Bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{deliveries: make(chan amqp091.Delivery, 16)}
}

func (f *fakeChannel) Consume(string, string, bool, bool, bool, bool, amqp091.Table) (<-chan amqp091.Delivery, error) {
	return f.deliveries, nil
}

func (f *fakeChannel) Cancel(string, bool) error {
	f.cancelOnce.Do(func() { close(f.deliveries) })
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed.Store(true)
	return nil
}

type ackRecorder struct {
	mu    sync.Mutex
	acked map[uint64]bool
	nacks map[uint64]bool // tag -> requeue
}

func newAckRecorder() *ackRecorder {
	return &ackRecorder{acked: map[uint64]bool{}, nacks: map[uint64]bool{}}
}

func (a *ackRecorder) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked[tag] = true
	return nil
}

func (a *ackRecorder) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacks[tag] = requeue
	return nil
}

func (a *ackRecorder) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func checkDelivery(t *testing.T, acks *ackRecorder, tag uint64, redelivered bool, payload any) amqp091.Delivery {
	t.Helper()
	event, err := NewEvent(EventCheckCompleted, payload)
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	d := delivery(t, event)
	d.Acknowledger = acks
	d.DeliveryTag = tag
	d.Redelivered = redelivered
	return d
}

func waitConsuming(t *testing.T, c *Consumer) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !c.started.Load() {
		if time.Now().After(deadline) {
			t.Fatal("Consume did not start")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestConsumer_ShutdownWaitsForHandlers(t *testing.T) {
	logger := zerolog.Nop()
	ch := newFakeChannel()
	c := newConsumer(ch, "checks", 3, &logger)
	acks := newAckRecorder()

	started := make(chan struct{}, 3)
	release := make(chan struct{})
	handler := NewEventHandler(&logger).On(EventCheckCompleted, func(context.Context, uuid.UUID, json.RawMessage) error {
		started <- struct{}{}
		<-release
		return nil
	})

	consumed := make(chan error, 1)
	go func() { consumed <- c.Consume(context.Background(), handler) }()

	for tag := uint64(1); tag <= 3; tag++ {
		ch.deliveries <- checkDelivery(t, acks, tag, false, struct{}{})
	}
	for i := 0; i < 3; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("handlers did not start")
		}
	}

	shutdown := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdown <- c.Shutdown(ctx)
	}()

	select {
	case err := <-shutdown:
		t.Fatalf("Shutdown returned %v with handlers still running", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	if err := <-shutdown; err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := <-consumed; err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if !ch.closed.Load() {
		t.Error("channel not closed after Shutdown")
	}
	if len(acks.acked) != 3 {
		t.Errorf("acked = %v, want 3 deliveries", acks.acked)
	}
}

func TestConsumer_ShutdownTimesOut(t *testing.T) {
	logger := zerolog.Nop()
	ch := newFakeChannel()
	c := newConsumer(ch, "checks", 1, &logger)
	acks := newAckRecorder()

	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	handler := NewEventHandler(&logger).On(EventCheckCompleted, func(context.Context, uuid.UUID, json.RawMessage) error {
		close(started)
		<-release
		return nil
	})

	go func() { _ = c.Consume(context.Background(), handler) }()
	ch.deliveries <- checkDelivery(t, acks, 1, false, struct{}{})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := c.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Shutdown = %v, want context.DeadlineExceeded", err)
	}
}

func TestConsumer_ShutdownBeforeConsume(t *testing.T) {
	logger := zerolog.Nop()
	ch := newFakeChannel()
	c := newConsumer(ch, "checks", 1, &logger)

	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !ch.closed.Load() {
		t.Error("channel not closed")
	}
}

func TestConsumer_NackRequeuesOnlyTransientFirstFailures(t *testing.T) {
	logger := zerolog.Nop()
	ch := newFakeChannel()
	c := newConsumer(ch, "checks", 4, &logger)
	acks := newAckRecorder()

	handler := NewEventHandler(&logger).On(EventCheckCompleted, func(_ context.Context, _ uuid.UUID, payload json.RawMessage) error {
		var p struct{ Outcome string }
		_ = json.Unmarshal(payload, &p)
		switch p.Outcome {
		case "transient":
			return fmt.Errorf("insert: %w", errors.New("connection reset"))
		case "invalid":
			return apperror.New(apperror.InvalidInput, "service.checks.process_completed", errors.New("bad batch"))
		}
		return nil
	})

	consumed := make(chan error, 1)
	go func() { consumed <- c.Consume(context.Background(), handler) }()

	ch.deliveries <- checkDelivery(t, acks, 1, false, map[string]string{"Outcome": "ok"})
	ch.deliveries <- checkDelivery(t, acks, 2, false, map[string]string{"Outcome": "transient"})
	ch.deliveries <- checkDelivery(t, acks, 3, true, map[string]string{"Outcome": "transient"})
	ch.deliveries <- checkDelivery(t, acks, 4, false, map[string]string{"Outcome": "invalid"})
	ch.deliveries <- amqp091.Delivery{Acknowledger: acks, DeliveryTag: 5, Body: []byte("{not json")}
	waitConsuming(t, c)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := <-consumed; err != nil {
		t.Fatalf("Consume: %v", err)
	}

	if !acks.acked[1] {
		t.Error("successful delivery not acked")
	}
	want := map[uint64]bool{2: true, 3: false, 4: false, 5: false}
	for tag, requeue := range want {
		got, ok := acks.nacks[tag]
		if !ok {
			t.Errorf("delivery %d was not nacked", tag)
			continue
		}
		if got != requeue {
			t.Errorf("delivery %d requeue = %v, want %v", tag, got, requeue)
		}
	}
}

func TestShouldRequeue(t *testing.T) {
	transient := errors.New("timeout")
	invalid := fmt.Errorf("process: %w", apperror.New(apperror.InvalidInput, "op", nil))

	cases := []struct {
		err         error
		redelivered bool
		want        bool
	}{
		{transient, false, true},
		{transient, true, false},
		{invalid, false, false},
		{invalid, true, false},
	}
	for _, tc := range cases {
		if got := shouldRequeue(tc.err, tc.redelivered); got != tc.want {
			t.Errorf("shouldRequeue(%v, %v) = %v, want %v", tc.err, tc.redelivered, got, tc.want)
		}
	}
}
