// Package service implements test-drive booking.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dealer_crm_backend/internal/domain"
	"dealer_crm_backend/internal/pipeline"
	"dealer_crm_backend/internal/scheduler"
	"dealer_crm_backend/internal/store"
	"dealer_crm_backend/platform/apperr"
	"dealer_crm_backend/platform/logger"
)

const (
	msgAppointmentNotFound = "appointment not found"
	msgLeadNotFound        = "lead not found"

	// reminderLeadTime is how long before the start the desk is reminded.
	reminderLeadTime = 2 * time.Hour
)

// StageAdvancer moves a lead through the stage gate.
type StageAdvancer interface {
	TransitionLead(ctx context.Context, leadID string, target domain.Stage, now time.Time) (pipeline.TransitionResult, error)
}

// CreateInput books a test drive.
type CreateInput struct {
	LeadID       string
	Location     domain.Location
	VehicleLabel string
	StartsAt     time.Time
}

// StatusInput changes a booking status.
type StatusInput struct {
	Status   domain.AppointmentStatus
	StartsAt *time.Time
}

// ListFilter narrows List. Empty fields match everything.
type ListFilter struct {
	LeadID   string
	Status   domain.AppointmentStatus
	Location domain.Location
}

// Service handles appointment business logic.
type Service struct {
	store     store.Store
	stages    StageAdvancer
	reminders scheduler.ReminderScheduler
	log       *logger.Logger
	newID     func() string
}

// New creates a new appointments service. reminders may be nil.
func New(st store.Store, stages StageAdvancer, reminders scheduler.ReminderScheduler, log *logger.Logger) *Service {
	return &Service{store: st, stages: stages, reminders: reminders, log: log, newID: uuid.NewString}
}

// Create books a test drive, advances the lead to appointment_set when it is
// earlier in the pipeline, and queues the desk reminder.
func (s *Service) Create(ctx context.Context, in CreateInput, now time.Time) (domain.Appointment, error) {
	var lead domain.Lead
	if err := s.store.Get(ctx, store.Leads, in.LeadID, &lead); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Appointment{}, apperr.NotFound(msgLeadNotFound)
		}
		return domain.Appointment{}, fmt.Errorf("get lead: %w", err)
	}

	location := in.Location
	if location == "" {
		location = lead.LocationIntent
	}

	appt := domain.Appointment{
		ID:           s.newID(),
		LeadID:       lead.ID,
		Location:     location,
		VehicleLabel: in.VehicleLabel,
		StartsAt:     in.StartsAt.UTC(),
		Status:       domain.AppointmentBooked,
		CreatedAt:    now,
	}
	if err := s.store.Insert(ctx, store.Appointments, appt.ID, appt); err != nil {
		s.log.DatabaseError("appointments.insert", err)
		return domain.Appointment{}, fmt.Errorf("insert appointment: %w", err)
	}

	if err := s.advance(ctx, lead, domain.StageAppointmentSet, now); err != nil {
		return domain.Appointment{}, err
	}
	s.scheduleReminder(ctx, appt, now)
	return appt, nil
}

// UpdateStatus moves a booking along. Showed, no-show and cancelled are final.
func (s *Service) UpdateStatus(ctx context.Context, id string, in StatusInput, now time.Time) (domain.Appointment, error) {
	appt, err := s.Get(ctx, id)
	if err != nil {
		return domain.Appointment{}, err
	}
	if isFinal(appt.Status) {
		return domain.Appointment{}, apperr.Conflict(fmt.Sprintf("appointment is already %s", appt.Status))
	}

	fields := map[string]any{"status": in.Status}
	if in.Status == domain.AppointmentRescheduled {
		if in.StartsAt == nil {
			return domain.Appointment{}, apperr.Validation("starts_at is required when rescheduling")
		}
		appt.StartsAt = in.StartsAt.UTC()
		fields["starts_at"] = appt.StartsAt
	}
	if err := s.store.Patch(ctx, store.Appointments, id, fields); err != nil {
		s.log.DatabaseError("appointments.patch_status", err)
		return domain.Appointment{}, fmt.Errorf("patch appointment: %w", err)
	}
	appt.Status = in.Status

	switch in.Status {
	case domain.AppointmentShowed:
		var lead domain.Lead
		if err := s.store.Get(ctx, store.Leads, appt.LeadID, &lead); err == nil {
			if err := s.advance(ctx, lead, domain.StageAppointmentShowed, now); err != nil {
				return domain.Appointment{}, err
			}
		}
	case domain.AppointmentRescheduled:
		s.scheduleReminder(ctx, appt, now)
	}
	return appt, nil
}

// Get retrieves one appointment.
func (s *Service) Get(ctx context.Context, id string) (domain.Appointment, error) {
	var appt domain.Appointment
	if err := s.store.Get(ctx, store.Appointments, id, &appt); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Appointment{}, apperr.NotFound(msgAppointmentNotFound)
		}
		return domain.Appointment{}, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

// List returns appointments in booking order.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Appointment, error) {
	var all []domain.Appointment
	if err := s.store.ListAll(ctx, store.Appointments, &all); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	out := make([]domain.Appointment, 0, len(all))
	for _, a := range all {
		if f.LeadID != "" && a.LeadID != f.LeadID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.Location != "" && a.Location != f.Location {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// advance moves the lead forward only. Closed leads and leads already at or
// past target are left alone.
func (s *Service) advance(ctx context.Context, lead domain.Lead, target domain.Stage, now time.Time) error {
	if s.stages == nil || lead.Status.IsClosed() || lead.Status.Rank() >= target.Rank() {
		return nil
	}
	res, err := s.stages.TransitionLead(ctx, lead.ID, target, now)
	if err != nil {
		return err
	}
	if !res.Allowed {
		s.log.Warn("lead stage not advanced", "leadId", lead.ID, "target", target, "reasons", res.Reasons)
	}
	return nil
}

func (s *Service) scheduleReminder(ctx context.Context, appt domain.Appointment, now time.Time) {
	if s.reminders == nil {
		return
	}
	runAt := appt.StartsAt.Add(-reminderLeadTime)
	if !runAt.After(now) {
		return
	}
	if err := s.reminders.ScheduleAppointmentReminder(ctx, scheduler.AppointmentReminderPayload{AppointmentID: appt.ID}, runAt); err != nil {
		s.log.Warn("failed to schedule appointment reminder", "appointmentId", appt.ID, "error", err)
	}
}

func isFinal(status domain.AppointmentStatus) bool {
	switch status {
	case domain.AppointmentShowed, domain.AppointmentNoShow, domain.AppointmentCancelled:
		return true
	}
	return false
}
