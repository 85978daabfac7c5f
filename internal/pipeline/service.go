package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dealer_crm_backend/internal/domain"
	"dealer_crm_backend/internal/events"
	"dealer_crm_backend/internal/store"
	"dealer_crm_backend/platform/apperr"
	"dealer_crm_backend/platform/logger"
)

const (
	msgOpportunityNotFound = "opportunity not found"
	msgLeadNotFound        = "lead not found"
)

// TransitionResult reports a stage request. Opportunity is set only when the
// transition was applied.
type TransitionResult struct {
	GateResult
	Opportunity *domain.Opportunity `json:"opportunity,omitempty"`
}

// ChecklistUpdate carries flags to raise. False and nil are both ignored.
type ChecklistUpdate struct {
	QuoteShared     *bool `json:"quote_shared"`
	DocsRequested   *bool `json:"docs_requested"`
	ConsentVerified *bool `json:"consent_verified"`
}

func (u ChecklistUpdate) asChecklist() domain.Checklist {
	return domain.Checklist{
		QuoteShared:     u.QuoteShared != nil && *u.QuoteShared,
		DocsRequested:   u.DocsRequested != nil && *u.DocsRequested,
		ConsentVerified: u.ConsentVerified != nil && *u.ConsentVerified,
	}
}

// ConsentInput is a staff-captured consent decision.
type ConsentInput struct {
	Channel   domain.ConsentChannel
	Consented bool
	Source    string
	Proof     string
}

// Service applies gated stage changes.
type Service struct {
	store store.Store
	bus   events.Bus
	log   *logger.Logger
	newID func() string
}

// NewService creates a new pipeline service.
func NewService(st store.Store, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: st, bus: bus, log: log, newID: uuid.NewString}
}

// GetOpportunity retrieves one opportunity.
func (s *Service) GetOpportunity(ctx context.Context, id string) (domain.Opportunity, error) {
	var opp domain.Opportunity
	if err := s.store.Get(ctx, store.Opportunities, id, &opp); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Opportunity{}, apperr.NotFound(msgOpportunityNotFound)
		}
		return domain.Opportunity{}, fmt.Errorf("get opportunity: %w", err)
	}
	return opp, nil
}

// ListOpportunities returns every opportunity, optionally filtered by stage.
func (s *Service) ListOpportunities(ctx context.Context, stage domain.Stage) ([]domain.Opportunity, error) {
	var all []domain.Opportunity
	if err := s.store.ListAll(ctx, store.Opportunities, &all); err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}
	if stage == "" {
		return all, nil
	}
	filtered := make([]domain.Opportunity, 0, len(all))
	for _, opp := range all {
		if opp.Stage == stage {
			filtered = append(filtered, opp)
		}
	}
	return filtered, nil
}

// Transition moves an opportunity to target when the gate allows it. A
// refusal is returned as a result with a nil error and nothing is written.
func (s *Service) Transition(ctx context.Context, opportunityID string, target domain.Stage, now time.Time) (TransitionResult, error) {
	opp, err := s.GetOpportunity(ctx, opportunityID)
	if err != nil {
		return TransitionResult{}, err
	}
	return s.transition(ctx, opp, target, now)
}

// TransitionLead moves the lead's opportunity through the gate, or sets the
// lead status directly when the lead has no opportunity.
func (s *Service) TransitionLead(ctx context.Context, leadID string, target domain.Stage, now time.Time) (TransitionResult, error) {
	var opp domain.Opportunity
	err := s.store.FindFirst(ctx, store.Opportunities, "lead_id", leadID, &opp)
	if err == nil {
		return s.transition(ctx, opp, target, now)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return TransitionResult{}, fmt.Errorf("find opportunity for lead: %w", err)
	}

	if !target.IsKnown() && target != domain.StageInterested {
		return TransitionResult{GateResult: GateResult{Reasons: []string{fmt.Sprintf("Unknown target stage %q.", target)}}}, nil
	}
	if err := s.patchLeadStatus(ctx, leadID, target, 0, now); err != nil {
		return TransitionResult{}, err
	}
	return TransitionResult{GateResult: GateResult{Allowed: true, Reasons: []string{}}}, nil
}

func (s *Service) transition(ctx context.Context, opp domain.Opportunity, target domain.Stage, now time.Time) (TransitionResult, error) {
	consents, err := s.consentsFor(ctx, opp.LeadID)
	if err != nil {
		return TransitionResult{}, err
	}

	gate := Evaluate(target, opp.Checklist, opp.LeadID, consents)
	if !gate.Allowed {
		s.log.StageRejected(opp.ID, string(target), gate.Reasons)
		if s.bus != nil {
			s.bus.Publish(ctx, events.StageTransitionRejected{
				BaseEvent:     events.NewBaseEvent(now),
				OpportunityID: opp.ID,
				LeadID:        opp.LeadID,
				TargetStage:   string(target),
				Reasons:       gate.Reasons,
			})
		}
		return TransitionResult{GateResult: gate}, nil
	}

	previous := opp.Stage
	if err := s.store.Patch(ctx, store.Opportunities, opp.ID, map[string]any{
		"stage":      target,
		"updated_at": now,
	}); err != nil {
		s.log.DatabaseError("pipeline.patch_opportunity", err)
		return TransitionResult{}, fmt.Errorf("patch opportunity: %w", err)
	}
	opp.Stage = target
	opp.UpdatedAt = now

	if err := s.patchLeadStatus(ctx, opp.LeadID, target, opp.ExpectedValue, now); err != nil {
		return TransitionResult{}, err
	}

	if s.bus != nil && previous != target {
		s.bus.Publish(ctx, events.OpportunityStageChanged{
			BaseEvent:     events.NewBaseEvent(now),
			OpportunityID: opp.ID,
			LeadID:        opp.LeadID,
			OldStage:      string(previous),
			NewStage:      string(target),
		})
	}
	return TransitionResult{GateResult: gate, Opportunity: &opp}, nil
}

// patchLeadStatus mirrors the stage onto the lead, stamping closed_at on
// closing stages and filling a missing deal value on a win.
func (s *Service) patchLeadStatus(ctx context.Context, leadID string, status domain.Stage, expectedValue float64, now time.Time) error {
	var lead domain.Lead
	if err := s.store.Get(ctx, store.Leads, leadID, &lead); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound(msgLeadNotFound)
		}
		return fmt.Errorf("get lead: %w", err)
	}

	fields := map[string]any{
		"status":     status,
		"updated_at": now,
	}
	if status.IsClosed() {
		fields["closed_at"] = now
	} else if lead.ClosedAt != nil {
		fields["closed_at"] = nil
	}
	if status == domain.StageClosedWon && lead.DealValue == nil && expectedValue > 0 {
		fields["deal_value"] = expectedValue
	}

	if err := s.store.Patch(ctx, store.Leads, leadID, fields); err != nil {
		s.log.DatabaseError("pipeline.patch_lead", err)
		return fmt.Errorf("patch lead: %w", err)
	}
	return nil
}

// UpdateChecklist raises checklist flags. Flags already true stay true.
func (s *Service) UpdateChecklist(ctx context.Context, opportunityID string, update ChecklistUpdate, now time.Time) (domain.Opportunity, error) {
	opp, err := s.GetOpportunity(ctx, opportunityID)
	if err != nil {
		return domain.Opportunity{}, err
	}

	merged := opp.Checklist.Merge(update.asChecklist())
	if merged == opp.Checklist {
		return opp, nil
	}
	if err := s.store.Patch(ctx, store.Opportunities, opp.ID, map[string]any{
		"checklist":  merged,
		"updated_at": now,
	}); err != nil {
		s.log.DatabaseError("pipeline.patch_checklist", err)
		return domain.Opportunity{}, fmt.Errorf("patch checklist: %w", err)
	}
	opp.Checklist = merged
	opp.UpdatedAt = now
	return opp, nil
}

// RecordConsent appends a consent event for a lead.
func (s *Service) RecordConsent(ctx context.Context, leadID string, in ConsentInput, now time.Time) (domain.ConsentEvent, error) {
	var lead domain.Lead
	if err := s.store.Get(ctx, store.Leads, leadID, &lead); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ConsentEvent{}, apperr.NotFound(msgLeadNotFound)
		}
		return domain.ConsentEvent{}, fmt.Errorf("get lead: %w", err)
	}

	ev := domain.ConsentEvent{
		ID:        s.newID(),
		LeadID:    leadID,
		Channel:   in.Channel,
		Consented: in.Consented,
		Source:    in.Source,
		Proof:     in.Proof,
		CreatedAt: now,
	}
	if err := s.store.Insert(ctx, store.ConsentEvents, ev.ID, ev); err != nil {
		s.log.DatabaseError("pipeline.insert_consent", err)
		return domain.ConsentEvent{}, fmt.Errorf("insert consent event: %w", err)
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.ConsentRecorded{
			BaseEvent: events.NewBaseEvent(now),
			LeadID:    ev.LeadID,
			Channel:   string(ev.Channel),
			Consented: ev.Consented,
			Proof:     ev.Proof,
		})
	}
	return ev, nil
}

// ListConsent returns the consent history of a lead in append order.
func (s *Service) ListConsent(ctx context.Context, leadID string) ([]domain.ConsentEvent, error) {
	return s.consentsFor(ctx, leadID)
}

func (s *Service) consentsFor(ctx context.Context, leadID string) ([]domain.ConsentEvent, error) {
	var all []domain.ConsentEvent
	if err := s.store.ListAll(ctx, store.ConsentEvents, &all); err != nil {
		return nil, fmt.Errorf("list consent events: %w", err)
	}
	out := make([]domain.ConsentEvent, 0)
	for _, ev := range all {
		if ev.LeadID == leadID {
			out = append(out, ev)
		}
	}
	return out, nil
}
