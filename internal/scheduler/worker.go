package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"dealer_crm_backend/internal/command"
	"dealer_crm_backend/internal/domain"
	"dealer_crm_backend/internal/events"
	"dealer_crm_backend/internal/store"
	"dealer_crm_backend/platform/config"
	"dealer_crm_backend/platform/logger"
)

// AlertSource computes the current first-response alerts.
type AlertSource interface {
	SLAAlerts(ctx context.Context, now time.Time) ([]command.SLAAlert, error)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	alerts AlertSource
	store  store.Store
	bus    events.Bus
	log    *logger.Logger
	now    func() time.Time
}

func NewWorker(cfg config.SchedulerConfig, alerts AlertSource, st store.Store, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := newWorker(alerts, st, bus, log)
	w.server = server
	return w, nil
}

func newWorker(alerts AlertSource, st store.Store, bus events.Bus, log *logger.Logger) *Worker {
	mux := asynq.NewServeMux()
	w := &Worker{
		mux:    mux,
		alerts: alerts,
		store:  st,
		bus:    bus,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}

	mux.HandleFunc(TaskSLASweep, w.handleSLASweep)
	mux.HandleFunc(TaskAppointmentReminder, w.handleAppointmentReminder)
	return w
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleSLASweep publishes a breach event for every critical alert. Delivery
// throttling belongs to the subscribers.
func (w *Worker) handleSLASweep(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseSLASweepPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	now := w.now()
	alerts, err := w.alerts.SLAAlerts(ctx, now)
	if err != nil {
		return err
	}

	critical := 0
	for _, alert := range alerts {
		if alert.Severity != command.SeverityCritical {
			continue
		}
		critical++
		w.log.SLABreach(alert.LeadID, string(alert.Severity), alert.MinutesWaiting)
		if w.bus == nil {
			continue
		}
		if err := w.bus.PublishSync(ctx, events.SLABreachDetected{
			BaseEvent:      events.NewBaseEvent(now),
			LeadID:         alert.LeadID,
			LeadName:       alert.LeadName,
			LeadPhone:      alert.Phone,
			Location:       string(alert.Location),
			Severity:       string(alert.Severity),
			MinutesWaiting: alert.MinutesWaiting,
		}); err != nil {
			w.log.Warn("sla breach handler failed", "leadId", alert.LeadID, "error", err)
		}
	}

	w.log.Info("sla sweep finished", "triggeredBy", payload.TriggeredBy, "alerts", len(alerts), "critical", critical)
	return nil
}

func (w *Worker) handleAppointmentReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseAppointmentReminderPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	var appt domain.Appointment
	if err := w.store.Get(ctx, store.Appointments, payload.AppointmentID, &appt); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	if appt.Status != domain.AppointmentBooked && appt.Status != domain.AppointmentConfirmed {
		return nil
	}
	if !appt.StartsAt.After(w.now()) {
		return nil
	}

	leadName := "customer"
	var lead domain.Lead
	if err := w.store.Get(ctx, store.Leads, appt.LeadID, &lead); err == nil {
		if name := strings.TrimSpace(lead.FirstName + " " + lead.LastName); name != "" {
			leadName = name
		}
	}

	if w.bus == nil {
		return nil
	}

	w.bus.Publish(ctx, events.AppointmentReminderDue{
		BaseEvent:     events.NewBaseEvent(w.now()),
		AppointmentID: appt.ID,
		LeadID:        appt.LeadID,
		LeadName:      leadName,
		Location:      string(appt.Location),
		VehicleLabel:  appt.VehicleLabel,
		StartsAt:      appt.StartsAt,
	})

	return nil
}
