// Package leads serves staff operations on existing leads: listing, contact
// logging, manual status changes and follow-up text suggestions.
package leads

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"dealer_crm_backend/internal/assistant"
	"dealer_crm_backend/internal/domain"
	"dealer_crm_backend/internal/pipeline"
	"dealer_crm_backend/internal/store"
	"dealer_crm_backend/platform/apperr"
	"dealer_crm_backend/platform/logger"
)

const msgLeadNotFound = "lead not found"

// StageChanger moves a lead through the stage gate.
type StageChanger interface {
	TransitionLead(ctx context.Context, leadID string, target domain.Stage, now time.Time) (pipeline.TransitionResult, error)
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Status   domain.Stage
	Location domain.Location
	Urgency  domain.Urgency
}

func (f Filter) matches(l domain.Lead) bool {
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	if f.Location != "" && l.LocationIntent != f.Location {
		return false
	}
	if f.Urgency != "" && l.Urgency != f.Urgency {
		return false
	}
	return true
}

// Suggestion is an opaque follow-up text.
type Suggestion struct {
	LeadID   string `json:"lead_id"`
	Text     string `json:"text"`
	Provider string `json:"provider"`
}

// Service handles lead operations.
type Service struct {
	store     store.Store
	stages    StageChanger
	suggester assistant.Suggester
	log       *logger.Logger
}

// NewService creates a new leads service. A nil suggester falls back to the
// static template.
func NewService(st store.Store, stages StageChanger, suggester assistant.Suggester, log *logger.Logger) *Service {
	if suggester == nil {
		suggester = assistant.StaticSuggester{}
	}
	return &Service{store: st, stages: stages, suggester: suggester, log: log}
}

// List returns leads in insertion order.
func (s *Service) List(ctx context.Context, f Filter) ([]domain.Lead, error) {
	var all []domain.Lead
	if err := s.store.ListAll(ctx, store.Leads, &all); err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	out := make([]domain.Lead, 0, len(all))
	for _, l := range all {
		if f.matches(l) {
			out = append(out, l)
		}
	}
	return out, nil
}

// Get retrieves a lead by id.
func (s *Service) Get(ctx context.Context, id string) (domain.Lead, error) {
	var lead domain.Lead
	if err := s.store.Get(ctx, store.Leads, id, &lead); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Lead{}, apperr.NotFound(msgLeadNotFound)
		}
		return domain.Lead{}, fmt.Errorf("get lead: %w", err)
	}
	return lead, nil
}

// LogContact records an outbound touch. The first contact is stamped once
// and never earlier than the lead's creation. A new lead becomes contacted.
func (s *Service) LogContact(ctx context.Context, id string, at time.Time) (domain.Lead, error) {
	lead, err := s.Get(ctx, id)
	if err != nil {
		return domain.Lead{}, err
	}

	fields := map[string]any{
		"last_contact_at": at,
		"updated_at":      at,
	}
	if lead.FirstContactAt == nil {
		first := at
		if first.Before(lead.CreatedAt) {
			first = lead.CreatedAt
		}
		fields["first_contact_at"] = first
	}
	if err := s.store.Patch(ctx, store.Leads, id, fields); err != nil {
		s.log.DatabaseError("leads.log_contact", err)
		return domain.Lead{}, fmt.Errorf("patch lead: %w", err)
	}

	if lead.Status == domain.StageNew {
		res, err := s.stages.TransitionLead(ctx, id, domain.StageContacted, at)
		if err != nil {
			return domain.Lead{}, err
		}
		if !res.Allowed {
			s.log.Warn("contact logged but status unchanged", "leadId", id, "reasons", res.Reasons)
		}
	}
	return s.Get(ctx, id)
}

// ChangeStatus applies a manual status change through the stage gate. A
// refusal is returned as a result, not an error.
func (s *Service) ChangeStatus(ctx context.Context, id string, target domain.Stage, now time.Time) (pipeline.TransitionResult, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return pipeline.TransitionResult{}, err
	}
	return s.stages.TransitionLead(ctx, id, target, now)
}

// SetUrgency sets the rep-assigned priority.
func (s *Service) SetUrgency(ctx context.Context, id string, urgency domain.Urgency, now time.Time) (domain.Lead, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return domain.Lead{}, err
	}
	if err := s.store.Patch(ctx, store.Leads, id, map[string]any{
		"urgency":    urgency,
		"updated_at": now,
	}); err != nil {
		s.log.DatabaseError("leads.set_urgency", err)
		return domain.Lead{}, fmt.Errorf("patch lead: %w", err)
	}
	return s.Get(ctx, id)
}

// SuggestText asks the assistant for a follow-up text.
func (s *Service) SuggestText(ctx context.Context, id string, now time.Time) (Suggestion, error) {
	lead, err := s.Get(ctx, id)
	if err != nil {
		return Suggestion{}, err
	}

	lastTouch := lead.CreatedAt
	if lead.LastContactAt != nil {
		lastTouch = *lead.LastContactAt
	}
	lc := assistant.LeadContext{
		FirstName:       lead.FirstName,
		Status:          string(lead.Status),
		Location:        string(lead.LocationIntent),
		VehicleInterest: lead.ClickedVehicle,
		LastMessage:     lead.Message,
		HoursSinceTouch: int(math.Max(0, now.Sub(lastTouch).Hours())),
	}

	text, err := s.suggester.Suggest(ctx, lc)
	if err != nil {
		return Suggestion{}, apperr.Unavailable("text suggestion unavailable")
	}
	return Suggestion{LeadID: lead.ID, Text: text, Provider: s.suggester.Provider()}, nil
}
