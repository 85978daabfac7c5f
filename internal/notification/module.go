// Package notification reacts to domain events: it emails managers about SLA
// breaches and pushes live updates to staff dashboards.
package notification

import (
	"context"
	"fmt"

	"dealer_crm_backend/internal/email"
	"dealer_crm_backend/internal/events"
	apphttp "dealer_crm_backend/internal/http"
	"dealer_crm_backend/internal/notification/sse"
	"dealer_crm_backend/platform/config"
	"dealer_crm_backend/platform/contact"
	"dealer_crm_backend/platform/logger"
)

// Module handles all notification-related event subscriptions.
type Module struct {
	sender   email.Sender
	throttle Throttle
	cfg      config.NotificationConfig
	sse      *sse.Service
	live     LiveFeed
	log      *logger.Logger
}

// New creates a new notification module. A nil throttle uses the in-process
// one.
func New(sender email.Sender, throttle Throttle, cfg config.NotificationConfig, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	if throttle == nil {
		throttle = NewMemoryThrottle()
	}
	stream := sse.New(log)
	return &Module{
		sender:   sender,
		throttle: throttle,
		cfg:      cfg,
		sse:      stream,
		live:     localFeed{dst: stream},
		log:      log,
	}
}

// PublishLiveTo routes dashboard updates through feed instead of straight to
// this process's stream.
func (m *Module) PublishLiveTo(feed LiveFeed) {
	m.live = feed
}

func (m *Module) publishLive(ctx context.Context, event sse.Event) {
	if err := m.live.Publish(ctx, event); err != nil {
		m.log.Warn("failed to publish live update", "type", event.Type, "leadId", event.LeadID, "error", err)
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "notification" }

// RegisterRoutes mounts the live event stream.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/stream", m.sse.Handler())
}

// SSE exposes the broadcaster.
func (m *Module) SSE() *sse.Service { return m.sse }

// RegisterHandlers subscribes to all relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadCreated{}.EventName(), m)
	bus.Subscribe(events.LeadIntakeMerged{}.EventName(), m)
	bus.Subscribe(events.OpportunityStageChanged{}.EventName(), m)
	bus.Subscribe(events.SLABreachDetected{}.EventName(), m)
	bus.Subscribe(events.AppointmentReminderDue{}.EventName(), m)
}

// Handle routes events to the appropriate handler.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadCreated:
		m.publishLive(ctx, sse.Event{
			Type:     sse.EventLeadCreated,
			LeadID:   e.LeadID,
			Location: e.RoutedLocation,
			Data:     e,
		})
		return nil
	case events.LeadIntakeMerged:
		m.publishLive(ctx, sse.Event{
			Type:     sse.EventLeadMerged,
			LeadID:   e.LeadID,
			Location: e.RoutedLocation,
			Data:     e,
		})
		return nil
	case events.OpportunityStageChanged:
		m.publishLive(ctx, sse.Event{
			Type:    sse.EventStageChanged,
			LeadID:  e.LeadID,
			Message: fmt.Sprintf("%s -> %s", e.OldStage, e.NewStage),
			Data:    e,
		})
		return nil
	case events.SLABreachDetected:
		return m.handleSLABreach(ctx, e)
	case events.AppointmentReminderDue:
		return m.handleAppointmentReminder(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleSLABreach(ctx context.Context, e events.SLABreachDetected) error {
	m.publishLive(ctx, sse.Event{
		Type:     sse.EventSLABreach,
		LeadID:   e.LeadID,
		Location: e.Location,
		Message:  fmt.Sprintf("%s waiting %d min", e.LeadName, e.MinutesWaiting),
		Data:     e,
	})

	to := m.cfg.GetManagerAlertEmail()
	if to == "" {
		return nil
	}
	allowed, err := m.throttle.Allow(ctx, slaThrottleKey(e.LeadID), m.cfg.GetSLAAlertCooloff())
	if err != nil {
		return fmt.Errorf("sla alert throttle: %w", err)
	}
	if !allowed {
		m.log.Debug("sla alert throttled", "leadId", e.LeadID)
		return nil
	}

	err = m.sender.SendSLAAlert(ctx, to, email.SLAAlert{
		LeadID:         e.LeadID,
		LeadName:       e.LeadName,
		Phone:          contact.FormatE164(e.LeadPhone),
		Location:       e.Location,
		Severity:       e.Severity,
		MinutesWaiting: e.MinutesWaiting,
		DetectedAt:     e.OccurredAt(),
		LeadURL:        m.cfg.GetAppBaseURL() + "/leads/" + e.LeadID,
	})
	if err != nil {
		m.log.Error("failed to send sla alert email", "leadId", e.LeadID, "error", err)
		return err
	}
	m.log.Info("sla alert email sent", "leadId", e.LeadID, "to", to)
	return nil
}

func (m *Module) handleAppointmentReminder(ctx context.Context, e events.AppointmentReminderDue) error {
	m.publishLive(ctx, sse.Event{
		Type:     sse.EventAppointmentReminder,
		LeadID:   e.LeadID,
		Location: e.Location,
		Message:  fmt.Sprintf("%s test drive at %s", e.LeadName, e.StartsAt.Format("3:04 PM")),
		Data:     e,
	})

	to := m.cfg.GetManagerAlertEmail()
	if to == "" {
		return nil
	}
	err := m.sender.SendAppointmentReminder(ctx, to, email.AppointmentReminder{
		LeadName:     e.LeadName,
		Location:     e.Location,
		VehicleLabel: e.VehicleLabel,
		StartsAt:     e.StartsAt,
		LeadURL:      m.cfg.GetAppBaseURL() + "/leads/" + e.LeadID,
	})
	if err != nil {
		m.log.Error("failed to send appointment reminder", "appointmentId", e.AppointmentID, "error", err)
		return err
	}
	return nil
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
