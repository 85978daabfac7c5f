package command

import (
	"context"
	"time"

	"dealer_crm_backend/internal/domain"
	"dealer_crm_backend/internal/policy"
	"dealer_crm_backend/internal/store"
	"dealer_crm_backend/platform/logger"
)

// Service loads a snapshot and evaluates the command views.
type Service struct {
	store  store.Store
	policy policy.Policy
	log    *logger.Logger
}

// NewService creates a new command service.
func NewService(st store.Store, p policy.Policy, log *logger.Logger) *Service {
	return &Service{store: st, policy: p, log: log}
}

// Actions returns the ranked actions, truncated to limit when limit > 0.
func (s *Service) Actions(ctx context.Context, now time.Time, limit int) ([]Action, error) {
	snap, err := store.LoadSnapshot(ctx, s.store)
	if err != nil {
		s.log.DatabaseError("command.load_snapshot", err)
		return nil, err
	}
	actions := Actions(s.policy, now, snap)
	if limit > 0 && len(actions) > limit {
		actions = actions[:limit]
	}
	return actions, nil
}

// SLAAlerts returns the current first-response alerts.
func (s *Service) SLAAlerts(ctx context.Context, now time.Time) ([]SLAAlert, error) {
	var leads []domain.Lead
	if err := s.store.ListAll(ctx, store.Leads, &leads); err != nil {
		s.log.DatabaseError("command.list_leads", err)
		return nil, err
	}
	return SLAAlerts(s.policy, now, leads), nil
}
