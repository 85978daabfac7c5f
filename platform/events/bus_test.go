package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type pingEvent struct{ BaseEvent }

func (pingEvent) EventName() string { return "test.ping" }

func TestInMemoryBusPublishSyncJoinsErrors(t *testing.T) {
	bus := NewInMemoryBus(nil)
	var calls int32
	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}))
	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("handler failed")
	}))

	err := bus.PublishSync(context.Background(), pingEvent{NewBaseEvent(time.Now())})
	if err == nil {
		t.Fatalf("expected joined handler error")
	}
	if calls != 2 {
		t.Fatalf("expected 2 handler calls, got %d", calls)
	}
}

func TestInMemoryBusPublishAsync(t *testing.T) {
	bus := NewInMemoryBus(nil)
	var calls int32
	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}))

	bus.Publish(context.Background(), pingEvent{NewBaseEvent(time.Now())})
	bus.Wait()

	if calls != 1 {
		t.Fatalf("expected 1 handler call, got %d", calls)
	}
}
