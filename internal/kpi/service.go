package kpi

import (
	"context"
	"time"

	"dealer_crm_backend/internal/policy"
	"dealer_crm_backend/internal/store"
	"dealer_crm_backend/platform/logger"
)

// Service loads a snapshot and computes KPI views.
type Service struct {
	store  store.Store
	policy policy.KPIPolicy
	log    *logger.Logger
}

// NewService creates a new KPI service.
func NewService(st store.Store, p policy.KPIPolicy, log *logger.Logger) *Service {
	return &Service{store: st, policy: p, log: log}
}

// Metrics computes the current KPI snapshot.
func (s *Service) Metrics(ctx context.Context, now time.Time) (Metrics, error) {
	snap, err := store.LoadSnapshot(ctx, s.store)
	if err != nil {
		s.log.DatabaseError("kpi.load_snapshot", err)
		return Metrics{}, err
	}
	return Compute(now, snap), nil
}

// Scorecard computes metrics and scores them against the guarantees.
func (s *Service) Scorecard(ctx context.Context, now time.Time) (Scorecard, error) {
	m, err := s.Metrics(ctx, now)
	if err != nil {
		return Scorecard{}, err
	}
	return BuildScorecard(s.policy, m), nil
}
