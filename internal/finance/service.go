// Package finance tracks credit applications and their missing paperwork.
package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dealer_crm_backend/internal/domain"
	"dealer_crm_backend/internal/pipeline"
	"dealer_crm_backend/internal/store"
	"dealer_crm_backend/platform/apperr"
	"dealer_crm_backend/platform/logger"
)

const (
	msgApplicationNotFound = "finance application not found"
	msgLeadNotFound        = "lead not found"
	msgOpenApplication     = "lead already has an open finance application"
)

// DefaultMissingItems is the paperwork every new application starts without.
var DefaultMissingItems = []string{"drivers_license", "proof_of_income", "proof_of_residence"}

// ChecklistUpdater raises opportunity checklist flags.
type ChecklistUpdater interface {
	UpdateChecklist(ctx context.Context, opportunityID string, update pipeline.ChecklistUpdate, now time.Time) (domain.Opportunity, error)
}

// ProgressInput updates an application. Nil fields are left unchanged.
type ProgressInput struct {
	Status            *domain.FinanceStatus
	CompletionPercent *int
	MissingItems      []string
}

// Service handles finance applications.
type Service struct {
	store     store.Store
	checklist ChecklistUpdater
	log       *logger.Logger
	newID     func() string
}

// NewService creates a new finance service. checklist may be nil.
func NewService(st store.Store, checklist ChecklistUpdater, log *logger.Logger) *Service {
	return &Service{store: st, checklist: checklist, log: log, newID: uuid.NewString}
}

// Create starts an application for a lead. A lead holds at most one open
// application; a declined one may be followed by a new one.
func (s *Service) Create(ctx context.Context, leadID string, now time.Time) (domain.FinanceApplication, error) {
	var lead domain.Lead
	if err := s.store.Get(ctx, store.Leads, leadID, &lead); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.FinanceApplication{}, apperr.NotFound(msgLeadNotFound)
		}
		return domain.FinanceApplication{}, fmt.Errorf("get lead: %w", err)
	}

	existing, err := s.ListForLead(ctx, leadID)
	if err != nil {
		return domain.FinanceApplication{}, err
	}
	for _, app := range existing {
		if app.Status != domain.FinanceDeclined {
			return domain.FinanceApplication{}, apperr.Conflict(msgOpenApplication).WithDetails(map[string]string{"application_id": app.ID})
		}
	}

	app := domain.FinanceApplication{
		ID:                s.newID(),
		LeadID:            leadID,
		Status:            domain.FinanceStarted,
		CompletionPercent: 0,
		MissingItems:      append([]string(nil), DefaultMissingItems...),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.Insert(ctx, store.FinanceApplications, app.ID, app); err != nil {
		s.log.DatabaseError("finance.insert", err)
		return domain.FinanceApplication{}, fmt.Errorf("insert finance application: %w", err)
	}
	return app, nil
}

// UpdateProgress records progress. Requesting documents raises the
// docs_requested flag on the lead's opportunity.
func (s *Service) UpdateProgress(ctx context.Context, id string, in ProgressInput, now time.Time) (domain.FinanceApplication, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return domain.FinanceApplication{}, err
	}

	if in.CompletionPercent != nil {
		if *in.CompletionPercent < 0 || *in.CompletionPercent > 100 {
			return domain.FinanceApplication{}, apperr.Validation("completion_percent must be between 0 and 100")
		}
		app.CompletionPercent = *in.CompletionPercent
	}
	if in.MissingItems != nil {
		app.MissingItems = in.MissingItems
	}
	app.Status = nextStatus(app, in.Status)
	app.UpdatedAt = now

	if err := s.store.Patch(ctx, store.FinanceApplications, id, map[string]any{
		"status":             app.Status,
		"completion_percent": app.CompletionPercent,
		"missing_items":      app.MissingItems,
		"updated_at":         now,
	}); err != nil {
		s.log.DatabaseError("finance.patch", err)
		return domain.FinanceApplication{}, fmt.Errorf("patch finance application: %w", err)
	}

	if app.Status == domain.FinanceNeedsDocs || app.Status == domain.FinanceSubmitted {
		s.markDocsRequested(ctx, app.LeadID, now)
	}
	return app, nil
}

// nextStatus applies an explicit status, otherwise moves a fresh application
// to incomplete once any progress is recorded. Decided applications keep
// their status.
func nextStatus(app domain.FinanceApplication, requested *domain.FinanceStatus) domain.FinanceStatus {
	if requested != nil {
		return *requested
	}
	switch app.Status {
	case domain.FinanceSubmitted, domain.FinanceApproved, domain.FinanceDeclined:
		return app.Status
	}
	if app.Status == domain.FinanceStarted && app.CompletionPercent > 0 {
		return domain.FinanceIncomplete
	}
	return app.Status
}

func (s *Service) markDocsRequested(ctx context.Context, leadID string, now time.Time) {
	if s.checklist == nil {
		return
	}
	var opp domain.Opportunity
	if err := s.store.FindFirst(ctx, store.Opportunities, "lead_id", leadID, &opp); err != nil {
		return
	}
	docs := true
	if _, err := s.checklist.UpdateChecklist(ctx, opp.ID, pipeline.ChecklistUpdate{DocsRequested: &docs}, now); err != nil {
		s.log.Warn("failed to raise docs_requested", "opportunityId", opp.ID, "error", err)
	}
}

// Get retrieves one application.
func (s *Service) Get(ctx context.Context, id string) (domain.FinanceApplication, error) {
	var app domain.FinanceApplication
	if err := s.store.Get(ctx, store.FinanceApplications, id, &app); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.FinanceApplication{}, apperr.NotFound(msgApplicationNotFound)
		}
		return domain.FinanceApplication{}, fmt.Errorf("get finance application: %w", err)
	}
	return app, nil
}

// ListForLead returns a lead's applications in creation order. An empty
// leadID returns every application.
func (s *Service) ListForLead(ctx context.Context, leadID string) ([]domain.FinanceApplication, error) {
	var all []domain.FinanceApplication
	if err := s.store.ListAll(ctx, store.FinanceApplications, &all); err != nil {
		return nil, fmt.Errorf("list finance applications: %w", err)
	}
	if leadID == "" {
		return all, nil
	}
	out := make([]domain.FinanceApplication, 0)
	for _, app := range all {
		if app.LeadID == leadID {
			out = append(out, app)
		}
	}
	return out, nil
}
