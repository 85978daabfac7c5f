package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"dealer_crm_backend/internal/events"
	"dealer_crm_backend/internal/notification/sse"
	"dealer_crm_backend/platform/logger"
)

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []sse.Event
}

func (b *recordingBroadcaster) Broadcast(event sse.Event) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return 1
}

func (b *recordingBroadcaster) snapshot() []sse.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]sse.Event(nil), b.events...)
}

func waitForSubscriber(t *testing.T, client *redis.Client) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		counts, err := client.PubSubNumSub(context.Background(), LiveChannel).Result()
		if err == nil && counts[LiveChannel] > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("relay never subscribed to %s", LiveChannel)
}

func waitForEvents(t *testing.T, b *recordingBroadcaster, n int) []sse.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := b.snapshot(); len(got) >= n {
			return got
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d relayed events, got %d", n, len(b.snapshot()))
	return nil
}

func TestRelayCarriesSchedulerEventsToAPIStream(t *testing.T) {
	mr := miniredis.RunT(t)
	apiClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer apiClient.Close()
	workerClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer workerClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dashboard := &recordingBroadcaster{}
	done := make(chan error, 1)
	go func() { done <- NewRedisRelay(apiClient, logger.Discard()).Run(ctx, dashboard) }()
	waitForSubscriber(t, workerClient)

	// The scheduler process has no SSE clients of its own.
	worker := New(&testSender{}, nil, testNotificationConfig{}, logger.Discard())
	worker.PublishLiveTo(NewRedisRelay(workerClient, logger.Discard()))

	if err := worker.Handle(ctx, breach("L7")); err != nil {
		t.Fatalf("handle breach: %v", err)
	}
	if err := worker.Handle(ctx, events.AppointmentReminderDue{
		AppointmentID: "A1",
		LeadID:        "L8",
		LeadName:      "Bo Li",
		Location:      "taylor",
		StartsAt:      time.Date(2025, 5, 21, 15, 30, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("handle reminder: %v", err)
	}

	got := waitForEvents(t, dashboard, 2)
	if got[0].Type != sse.EventSLABreach || got[0].LeadID != "L7" || got[0].Location != "wayne" {
		t.Fatalf("unexpected first event %+v", got[0])
	}
	if got[1].Type != sse.EventAppointmentReminder || got[1].LeadID != "L8" || got[1].Location != "taylor" {
		t.Fatalf("unexpected second event %+v", got[1])
	}
	if worker.SSE().ClientCount() != 0 {
		t.Fatalf("worker stream must stay unused")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("relay returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("relay did not stop on cancel")
	}
}

func TestModuleBroadcastsLocallyByDefault(t *testing.T) {
	m := New(&testSender{}, nil, testNotificationConfig{}, logger.Discard())
	local := &recordingBroadcaster{}
	m.live = localFeed{dst: local}

	if err := m.Handle(context.Background(), events.LeadCreated{LeadID: "L1", RoutedLocation: "wayne"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := local.snapshot()
	if len(got) != 1 || got[0].Type != sse.EventLeadCreated {
		t.Fatalf("unexpected events %+v", got)
	}
}
