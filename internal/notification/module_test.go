package notification

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"dealer_crm_backend/internal/email"
	"dealer_crm_backend/internal/events"
	"dealer_crm_backend/platform/logger"
)

type testNotificationConfig struct {
	manager string
}

func (c testNotificationConfig) GetAppBaseURL() string             { return "https://crm.example.com" }
func (c testNotificationConfig) GetManagerAlertEmail() string      { return c.manager }
func (c testNotificationConfig) GetSLAAlertCooloff() time.Duration { return 30 * time.Minute }

type testSender struct {
	alerts    []email.SLAAlert
	reminders []email.AppointmentReminder
	to        []string
}

func (s *testSender) SendAppointmentReminder(_ context.Context, to string, r email.AppointmentReminder) error {
	s.to = append(s.to, to)
	s.reminders = append(s.reminders, r)
	return nil
}

func (s *testSender) SendSLAAlert(_ context.Context, to string, alert email.SLAAlert) error {
	s.to = append(s.to, to)
	s.alerts = append(s.alerts, alert)
	return nil
}

func breach(leadID string) events.SLABreachDetected {
	return events.SLABreachDetected{
		BaseEvent:      events.NewBaseEvent(time.Date(2025, 5, 20, 16, 0, 0, 0, time.UTC)),
		LeadID:         leadID,
		LeadName:       "Ana Diaz",
		LeadPhone:      "3135550142",
		Location:       "wayne",
		Severity:       "critical",
		MinutesWaiting: 31,
	}
}

func TestSLABreachEmailsManagerOncePerCooloff(t *testing.T) {
	sender := &testSender{}
	m := New(sender, nil, testNotificationConfig{manager: "gm@example.com"}, logger.Discard())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := m.Handle(ctx, breach("L1")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := m.Handle(ctx, breach("L2")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sender.alerts) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(sender.alerts))
	}
	if sender.to[0] != "gm@example.com" {
		t.Fatalf("unexpected recipient %q", sender.to[0])
	}
	if sender.alerts[0].LeadURL != "https://crm.example.com/leads/L1" {
		t.Fatalf("unexpected lead url %q", sender.alerts[0].LeadURL)
	}
	if sender.alerts[0].Phone != "+13135550142" {
		t.Fatalf("expected E.164 phone, got %q", sender.alerts[0].Phone)
	}
}

func TestSLABreachWithoutManagerSkipsEmail(t *testing.T) {
	sender := &testSender{}
	m := New(sender, nil, testNotificationConfig{}, logger.Discard())
	if err := m.Handle(context.Background(), breach("L1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.alerts) != 0 {
		t.Fatalf("expected no email, got %d", len(sender.alerts))
	}
}

func TestRedisThrottle(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	th := NewRedisThrottle(client)
	ctx := context.Background()

	ok, err := th.Allow(ctx, slaThrottleKey("L1"), 30*time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first alert allowed, got %v %v", ok, err)
	}
	ok, _ = th.Allow(ctx, slaThrottleKey("L1"), 30*time.Minute)
	if ok {
		t.Fatalf("expected second alert throttled")
	}

	mr.FastForward(31 * time.Minute)
	ok, _ = th.Allow(ctx, slaThrottleKey("L1"), 30*time.Minute)
	if !ok {
		t.Fatalf("expected alert allowed after cooloff")
	}
}

func TestMemoryThrottleExpires(t *testing.T) {
	th := NewMemoryThrottle()
	now := time.Date(2025, 5, 20, 16, 0, 0, 0, time.UTC)
	th.now = func() time.Time { return now }
	ctx := context.Background()

	if ok, _ := th.Allow(ctx, "k", time.Minute); !ok {
		t.Fatalf("expected first call allowed")
	}
	if ok, _ := th.Allow(ctx, "k", time.Minute); ok {
		t.Fatalf("expected second call throttled")
	}
	now = now.Add(2 * time.Minute)
	if ok, _ := th.Allow(ctx, "k", time.Minute); !ok {
		t.Fatalf("expected call allowed after expiry")
	}
}

func TestAppointmentReminderEmailsDesk(t *testing.T) {
	sender := &testSender{}
	m := New(sender, nil, testNotificationConfig{manager: "desk@example.com"}, logger.Discard())
	err := m.Handle(context.Background(), events.AppointmentReminderDue{
		AppointmentID: "A1",
		LeadID:        "L1",
		LeadName:      "Bo Li",
		VehicleLabel:  "2021 Honda CR-V EX",
		StartsAt:      time.Date(2025, 5, 21, 15, 30, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.reminders) != 1 || sender.reminders[0].VehicleLabel != "2021 Honda CR-V EX" {
		t.Fatalf("unexpected reminders %+v", sender.reminders)
	}
}
