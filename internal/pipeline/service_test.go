package pipeline

import (
	"context"
	"testing"
	"time"

	"dealer_crm_backend/internal/domain"
	"dealer_crm_backend/internal/store"
	"dealer_crm_backend/internal/store/memory"
	"dealer_crm_backend/platform/apperr"
	"dealer_crm_backend/platform/logger"
)

var testNow = time.Date(2025, 5, 20, 16, 0, 0, 0, time.UTC)

func seed(t *testing.T, checklist domain.Checklist) (*Service, store.Store) {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	lead := domain.Lead{ID: "L1", LastName: "Diaz", Status: domain.StageAppointmentShowed, CreatedAt: testNow.Add(-48 * time.Hour)}
	opp := domain.Opportunity{ID: "O1", LeadID: "L1", Stage: domain.StageAppointmentShowed, ExpectedValue: 31000, Checklist: checklist}
	if err := st.Insert(ctx, store.Leads, lead.ID, lead); err != nil {
		t.Fatalf("insert lead: %v", err)
	}
	if err := st.Insert(ctx, store.Opportunities, opp.ID, opp); err != nil {
		t.Fatalf("insert opportunity: %v", err)
	}
	return NewService(st, nil, logger.Discard()), st
}

func TestTransitionRejectedLeavesStageUntouched(t *testing.T) {
	svc, st := seed(t, domain.Checklist{QuoteShared: true})
	ctx := context.Background()

	res, err := svc.Transition(ctx, "O1", domain.StageFinancingReview, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Allowed || len(res.Reasons) != 2 || res.Opportunity != nil {
		t.Fatalf("expected rejection with two reasons, got %+v", res)
	}

	var opp domain.Opportunity
	_ = st.Get(ctx, store.Opportunities, "O1", &opp)
	if opp.Stage != domain.StageAppointmentShowed || !opp.Checklist.QuoteShared {
		t.Fatalf("rejected transition must not write, got %+v", opp)
	}
}

func TestTransitionClosedWonMirrorsLead(t *testing.T) {
	svc, st := seed(t, domain.Checklist{QuoteShared: true, DocsRequested: true})
	ctx := context.Background()

	res, err := svc.Transition(ctx, "O1", domain.StageClosedWon, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Allowed || res.Opportunity == nil || res.Opportunity.Stage != domain.StageClosedWon {
		t.Fatalf("expected applied transition, got %+v", res)
	}

	var lead domain.Lead
	_ = st.Get(ctx, store.Leads, "L1", &lead)
	if lead.Status != domain.StageClosedWon {
		t.Fatalf("expected lead status closed_won, got %s", lead.Status)
	}
	if lead.ClosedAt == nil || !lead.ClosedAt.Equal(testNow) {
		t.Fatalf("expected closed_at stamped, got %v", lead.ClosedAt)
	}
	if lead.DealValue == nil || *lead.DealValue != 31000 {
		t.Fatalf("expected deal value from opportunity, got %v", lead.DealValue)
	}
}

func TestFinancingReviewAfterRemediation(t *testing.T) {
	svc, _ := seed(t, domain.Checklist{})
	ctx := context.Background()
	yes := true

	if _, err := svc.UpdateChecklist(ctx, "O1", ChecklistUpdate{DocsRequested: &yes, ConsentVerified: &yes}, testNow); err != nil {
		t.Fatalf("update checklist: %v", err)
	}
	res, _ := svc.Transition(ctx, "O1", domain.StageFinancingReview, testNow)
	if res.Allowed {
		t.Fatalf("expected rejection until an sms consent event exists")
	}

	if _, err := svc.RecordConsent(ctx, "L1", ConsentInput{Channel: domain.ChannelSMS, Consented: true, Source: "showroom", Proof: "signed-form-118"}, testNow); err != nil {
		t.Fatalf("record consent: %v", err)
	}
	res, err := svc.Transition(ctx, "O1", domain.StageFinancingReview, testNow)
	if err != nil || !res.Allowed {
		t.Fatalf("expected allowed after remediation, got %+v, %v", res, err)
	}
}

func TestUpdateChecklistIsMonotonic(t *testing.T) {
	svc, _ := seed(t, domain.Checklist{QuoteShared: true})
	no, yes := false, true

	opp, err := svc.UpdateChecklist(context.Background(), "O1", ChecklistUpdate{QuoteShared: &no, DocsRequested: &yes}, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !opp.Checklist.QuoteShared || !opp.Checklist.DocsRequested {
		t.Fatalf("expected flags to stay raised, got %+v", opp.Checklist)
	}
}

func TestTransitionUnknownOpportunity(t *testing.T) {
	svc, _ := seed(t, domain.Checklist{})
	if _, err := svc.Transition(context.Background(), "missing", domain.StageContacted, testNow); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTransitionLeadWithoutOpportunity(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	_ = st.Insert(ctx, store.Leads, "L7", domain.Lead{ID: "L7", Status: domain.StageNew})
	svc := NewService(st, nil, logger.Discard())

	res, err := svc.TransitionLead(ctx, "L7", domain.StageContacted, testNow)
	if err != nil || !res.Allowed {
		t.Fatalf("expected direct status change, got %+v, %v", res, err)
	}
	var lead domain.Lead
	_ = st.Get(ctx, store.Leads, "L7", &lead)
	if lead.Status != domain.StageContacted {
		t.Fatalf("expected contacted, got %s", lead.Status)
	}
}
