package finance

import (
	"context"
	"testing"
	"time"

	"dealer_crm_backend/internal/domain"
	"dealer_crm_backend/internal/pipeline"
	"dealer_crm_backend/internal/store"
	"dealer_crm_backend/internal/store/memory"
	"dealer_crm_backend/platform/apperr"
	"dealer_crm_backend/platform/logger"
)

var testNow = time.Date(2025, 5, 20, 16, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Service, store.Store) {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	if err := st.Insert(ctx, store.Leads, "L1", domain.Lead{ID: "L1", Status: domain.StageNegotiating}); err != nil {
		t.Fatalf("insert lead: %v", err)
	}
	if err := st.Insert(ctx, store.Opportunities, "O1", domain.Opportunity{ID: "O1", LeadID: "L1", Stage: domain.StageNegotiating}); err != nil {
		t.Fatalf("insert opportunity: %v", err)
	}
	return NewService(st, pipeline.NewService(st, nil, logger.Discard()), logger.Discard()), st
}

func ptr[T any](v T) *T { return &v }

func TestCreateStartsWithDefaultMissingItems(t *testing.T) {
	svc, _ := setup(t)
	app, err := svc.Create(context.Background(), "L1", testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if app.Status != domain.FinanceStarted || app.CompletionPercent != 0 || len(app.MissingItems) != 3 {
		t.Fatalf("unexpected application %+v", app)
	}
}

func TestCreateRejectsSecondOpenApplication(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	first, _ := svc.Create(ctx, "L1", testNow)

	if _, err := svc.Create(ctx, "L1", testNow); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	if _, err := svc.UpdateProgress(ctx, first.ID, ProgressInput{Status: ptr(domain.FinanceDeclined)}, testNow); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if _, err := svc.Create(ctx, "L1", testNow); err != nil {
		t.Fatalf("expected new application after decline, got %v", err)
	}
}

func TestProgressMovesToIncomplete(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	app, _ := svc.Create(ctx, "L1", testNow)

	got, err := svc.UpdateProgress(ctx, app.ID, ProgressInput{CompletionPercent: ptr(40), MissingItems: []string{"proof_of_income"}}, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.FinanceIncomplete || got.CompletionPercent != 40 || len(got.MissingItems) != 1 {
		t.Fatalf("unexpected application %+v", got)
	}

	if _, err := svc.UpdateProgress(ctx, app.ID, ProgressInput{CompletionPercent: ptr(101)}, testNow); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNeedsDocsRaisesChecklistFlag(t *testing.T) {
	svc, st := setup(t)
	ctx := context.Background()
	app, _ := svc.Create(ctx, "L1", testNow)

	if _, err := svc.UpdateProgress(ctx, app.ID, ProgressInput{Status: ptr(domain.FinanceNeedsDocs)}, testNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var opp domain.Opportunity
	if err := st.Get(ctx, store.Opportunities, "O1", &opp); err != nil {
		t.Fatalf("get opportunity: %v", err)
	}
	if !opp.Checklist.DocsRequested {
		t.Fatalf("expected docs_requested to be raised")
	}
}

func TestNextStatusKeepsDecisions(t *testing.T) {
	app := domain.FinanceApplication{Status: domain.FinanceApproved, CompletionPercent: 100}
	if got := nextStatus(app, nil); got != domain.FinanceApproved {
		t.Fatalf("expected approved to stick, got %s", got)
	}
}
