package intake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dealer_crm_backend/internal/domain"
	"dealer_crm_backend/internal/events"
	"dealer_crm_backend/internal/policy"
	"dealer_crm_backend/internal/store"
	"dealer_crm_backend/platform/apperr"
	"dealer_crm_backend/platform/logger"
)

// ProofStore archives the raw evidence behind a consent event and returns an
// opaque reference to it.
type ProofStore interface {
	Archive(ctx context.Context, proof ConsentProof) (string, error)
}

// ConsentProof is the evidence captured when a form opt-in is ticked.
type ConsentProof struct {
	LeadID    string                `json:"lead_id"`
	Channel   domain.ConsentChannel `json:"channel"`
	Source    string                `json:"source"`
	PageURL   string                `json:"page_url,omitempty"`
	Phone     string                `json:"phone,omitempty"`
	Email     string                `json:"email,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
}

// InlineProofs keeps the proof reference in the event itself.
type InlineProofs struct{}

// Archive returns a self-describing inline reference.
func (InlineProofs) Archive(_ context.Context, proof ConsentProof) (string, error) {
	return fmt.Sprintf("inline:%s:%s:%s@%s", proof.Source, proof.LeadID, proof.Channel, proof.CreatedAt.UTC().Format(time.RFC3339)), nil
}

// Result is returned to intake callers.
type Result struct {
	LeadID           string            `json:"lead_id"`
	RoutedLocation   domain.Location   `json:"routed_location"`
	DedupeMatchID    string            `json:"dedupe_match_id,omitempty"`
	MergeSuggestions []MergeSuggestion `json:"merge_suggestions"`
	CreatedNewLead   bool              `json:"created_new_lead"`
}

// Service applies intake decisions to the record store.
type Service struct {
	store  store.Store
	locker Locker
	proofs ProofStore
	bus    events.Bus
	policy policy.IntakePolicy
	log    *logger.Logger
	newID  func() string
}

// NewService wires the intake service. Nil locker and proofs fall back to
// a LocalLocker and InlineProofs.
func NewService(st store.Store, locker Locker, proofs ProofStore, bus events.Bus, p policy.IntakePolicy, log *logger.Logger) *Service {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if proofs == nil {
		proofs = InlineProofs{}
	}
	return &Service{
		store:  st,
		locker: locker,
		proofs: proofs,
		bus:    bus,
		policy: p,
		log:    log,
		newID:  uuid.NewString,
	}
}

// Submit ingests one submission at time now.
func (s *Service) Submit(ctx context.Context, sub Submission, now time.Time) (Result, error) {
	identity := Decide(s.policy, sub, nil, "")
	release, err := acquireAll(ctx, s.locker, lockKeys(identity.NormalizedPhone, identity.NormalizedEmail))
	if err != nil {
		return Result{}, err
	}
	defer release()

	var existing []domain.Lead
	if err := s.store.ListAll(ctx, store.Leads, &existing); err != nil {
		s.log.DatabaseError("intake.list_leads", err)
		return Result{}, fmt.Errorf("list leads: %w", err)
	}

	decision := Decide(s.policy, sub, existing, s.newID())

	if decision.CreatedNewLead {
		err = s.createLead(ctx, sub, decision, now)
	} else {
		err = s.mergeIntoLead(ctx, sub, decision, existing, now)
	}
	if err != nil {
		return Result{}, err
	}

	if err := s.recordConsent(ctx, sub, decision, now); err != nil {
		return Result{}, err
	}

	s.log.IntakeDecision(decision.LeadID, string(decision.RoutedLocation), decision.CreatedNewLead, len(decision.MergeSuggestions))

	return Result{
		LeadID:           decision.LeadID,
		RoutedLocation:   decision.RoutedLocation,
		DedupeMatchID:    decision.DedupeMatchID,
		MergeSuggestions: decision.MergeSuggestions,
		CreatedNewLead:   decision.CreatedNewLead,
	}, nil
}

func (s *Service) createLead(ctx context.Context, sub Submission, d Decision, now time.Time) error {
	urgency := sub.Urgency
	if urgency == "" {
		urgency = domain.UrgencyMedium
	}
	source := sub.Source
	if source == "" {
		source = domain.SourceWebsiteForm
	}

	lead := domain.Lead{
		ID:             d.LeadID,
		FirstName:      sub.FirstName,
		LastName:       sub.LastName,
		Email:          d.NormalizedEmail,
		Phone:          d.NormalizedPhone,
		Source:         source,
		Status:         domain.StageNew,
		Urgency:        urgency,
		LeadScore:      s.policy.BaselineScore,
		LocationIntent: d.RoutedLocation,
		Message:        sub.Message,
		PageURL:        sub.PageURL,
		UTM:            sub.UTM,
		ClickedVehicle: sub.ClickedVehicle,
		HasTradeIn:     sub.HasTradeIn,
		BudgetMin:      sub.BudgetMin,
		BudgetMax:      sub.BudgetMax,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Insert(ctx, store.Leads, lead.ID, lead); err != nil {
		s.log.DatabaseError("intake.insert_lead", err)
		return fmt.Errorf("insert lead: %w", err)
	}

	opp := domain.Opportunity{
		ID:            s.newID(),
		LeadID:        lead.ID,
		Stage:         domain.StageNew,
		ExpectedValue: lead.ExpectedValue(),
		Location:      d.RoutedLocation,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Insert(ctx, store.Opportunities, opp.ID, opp); err != nil {
		s.log.DatabaseError("intake.insert_opportunity", err)
		return fmt.Errorf("insert opportunity: %w", err)
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadCreated{
			BaseEvent:      events.NewBaseEvent(now),
			LeadID:         lead.ID,
			OpportunityID:  opp.ID,
			Source:         string(lead.Source),
			RoutedLocation: string(lead.LocationIntent),
			LeadScore:      lead.LeadScore,
		})
	}
	return nil
}

// mergeIntoLead refreshes contact-adjacent fields on an exact match. Score,
// creation time and status are left alone.
func (s *Service) mergeIntoLead(ctx context.Context, sub Submission, d Decision, existing []domain.Lead, now time.Time) error {
	fields := map[string]any{
		"location_intent": d.RoutedLocation,
		"updated_at":      now,
	}
	if sub.Source != "" {
		fields["source"] = sub.Source
	}
	if sub.Message != "" {
		fields["message"] = sub.Message
	}
	if sub.PageURL != "" {
		fields["page_url"] = sub.PageURL
	}
	if sub.UTM != (domain.UTM{}) {
		fields["utm"] = sub.UTM
	}
	if sub.ClickedVehicle != "" {
		fields["clicked_vehicle"] = sub.ClickedVehicle
	}

	for _, lead := range existing {
		if lead.ID != d.LeadID {
			continue
		}
		if lead.Email == "" && d.NormalizedEmail != "" {
			fields["email"] = d.NormalizedEmail
		}
		if lead.Phone == "" && d.NormalizedPhone != "" {
			fields["phone"] = d.NormalizedPhone
		}
		break
	}

	if err := s.store.Patch(ctx, store.Leads, d.LeadID, fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("lead not found")
		}
		s.log.DatabaseError("intake.patch_lead", err)
		return fmt.Errorf("patch lead: %w", err)
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadIntakeMerged{
			BaseEvent:      events.NewBaseEvent(now),
			LeadID:         d.LeadID,
			Source:         string(sub.Source),
			RoutedLocation: string(d.RoutedLocation),
		})
	}
	return nil
}

func (s *Service) recordConsent(ctx context.Context, sub Submission, d Decision, now time.Time) error {
	channels := make([]domain.ConsentChannel, 0, 3)
	if sub.Consent.SMS {
		channels = append(channels, domain.ChannelSMS)
	}
	if sub.Consent.Phone {
		channels = append(channels, domain.ChannelPhone)
	}
	if sub.Consent.Email {
		channels = append(channels, domain.ChannelEmail)
	}

	source := "intake:" + string(sub.Source)
	for _, channel := range channels {
		ref, err := s.proofs.Archive(ctx, ConsentProof{
			LeadID:    d.LeadID,
			Channel:   channel,
			Source:    source,
			PageURL:   sub.PageURL,
			Phone:     d.NormalizedPhone,
			Email:     d.NormalizedEmail,
			CreatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("archive consent proof: %w", err)
		}

		ev := domain.ConsentEvent{
			ID:        s.newID(),
			LeadID:    d.LeadID,
			Channel:   channel,
			Consented: true,
			Source:    source,
			Proof:     ref,
			CreatedAt: now,
		}
		if err := s.store.Insert(ctx, store.ConsentEvents, ev.ID, ev); err != nil {
			s.log.DatabaseError("intake.insert_consent", err)
			return fmt.Errorf("insert consent event: %w", err)
		}
		if s.bus != nil {
			s.bus.Publish(ctx, events.ConsentRecorded{
				BaseEvent: events.NewBaseEvent(now),
				LeadID:    ev.LeadID,
				Channel:   string(ev.Channel),
				Consented: true,
				Proof:     ev.Proof,
			})
		}
	}
	return nil
}

// MergeSuggestionsFor lists probable duplicates of an existing lead.
func (s *Service) MergeSuggestionsFor(ctx context.Context, leadID string) ([]MergeSuggestion, error) {
	var lead domain.Lead
	if err := s.store.Get(ctx, store.Leads, leadID, &lead); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("lead not found")
		}
		return nil, fmt.Errorf("get lead: %w", err)
	}

	var existing []domain.Lead
	if err := s.store.ListAll(ctx, store.Leads, &existing); err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return SuggestMerges(s.policy, lead.LastName, lead.Phone, existing, lead.ID), nil
}
