// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"dealer_crm_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Intake Domain Events
// =============================================================================

// LeadCreated is published when an intake submission creates a new lead.
type LeadCreated struct {
	BaseEvent
	LeadID         string `json:"lead_id"`
	OpportunityID  string `json:"opportunity_id"`
	Source         string `json:"source"`
	RoutedLocation string `json:"routed_location"`
	LeadScore      int    `json:"lead_score"`
}

func (e LeadCreated) EventName() string { return "intake.lead.created" }

// LeadIntakeMerged is published when a submission is folded into an existing lead.
type LeadIntakeMerged struct {
	BaseEvent
	LeadID         string `json:"lead_id"`
	Source         string `json:"source"`
	RoutedLocation string `json:"routed_location"`
}

func (e LeadIntakeMerged) EventName() string { return "intake.lead.merged" }

// =============================================================================
// Pipeline Domain Events
// =============================================================================

// OpportunityStageChanged is published after a gated transition is applied.
type OpportunityStageChanged struct {
	BaseEvent
	OpportunityID string `json:"opportunity_id"`
	LeadID        string `json:"lead_id"`
	OldStage      string `json:"old_stage"`
	NewStage      string `json:"new_stage"`
}

func (e OpportunityStageChanged) EventName() string { return "pipeline.stage.changed" }

// StageTransitionRejected is published when a gate refuses a transition.
type StageTransitionRejected struct {
	BaseEvent
	OpportunityID string   `json:"opportunity_id"`
	LeadID        string   `json:"lead_id"`
	TargetStage   string   `json:"target_stage"`
	Reasons       []string `json:"reasons"`
}

func (e StageTransitionRejected) EventName() string { return "pipeline.stage.rejected" }

// ConsentRecorded is published for every appended consent event.
type ConsentRecorded struct {
	BaseEvent
	LeadID    string `json:"lead_id"`
	Channel   string `json:"channel"`
	Consented bool   `json:"consented"`
	Proof     string `json:"proof"`
}

func (e ConsentRecorded) EventName() string { return "pipeline.consent.recorded" }

// =============================================================================
// SLA Domain Events
// =============================================================================

// SLABreachDetected is published by the SLA sweep for leads waiting past the
// critical response threshold.
type SLABreachDetected struct {
	BaseEvent
	LeadID         string `json:"lead_id"`
	LeadName       string `json:"lead_name"`
	LeadPhone      string `json:"lead_phone,omitempty"`
	Location       string `json:"location"`
	Severity       string `json:"severity"`
	MinutesWaiting int    `json:"minutes_waiting"`
}

func (e SLABreachDetected) EventName() string { return "sla.breach.detected" }

// =============================================================================
// Appointment Domain Events
// =============================================================================

// AppointmentReminderDue is published by the scheduler shortly before a
// booked test drive.
type AppointmentReminderDue struct {
	BaseEvent
	AppointmentID string    `json:"appointment_id"`
	LeadID        string    `json:"lead_id"`
	LeadName      string    `json:"lead_name"`
	Location      string    `json:"location"`
	VehicleLabel  string    `json:"vehicle_label"`
	StartsAt      time.Time `json:"starts_at"`
}

func (e AppointmentReminderDue) EventName() string { return "appointments.reminder.due" }
