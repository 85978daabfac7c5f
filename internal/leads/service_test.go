package leads

import (
	"context"
	"errors"
	"testing"
	"time"

	"dealer_crm_backend/internal/assistant"
	"dealer_crm_backend/internal/domain"
	"dealer_crm_backend/internal/pipeline"
	"dealer_crm_backend/internal/store"
	"dealer_crm_backend/internal/store/memory"
	"dealer_crm_backend/platform/apperr"
	"dealer_crm_backend/platform/logger"
)

var testNow = time.Date(2025, 5, 20, 16, 0, 0, 0, time.UTC)

type failingSuggester struct{}

func (failingSuggester) Provider() string { return "broken" }
func (failingSuggester) Suggest(context.Context, assistant.LeadContext) (string, error) {
	return "", errors.New("down")
}

func newTestService(t *testing.T, suggester assistant.Suggester, leads ...domain.Lead) (*Service, store.Store) {
	t.Helper()
	st := memory.New()
	for _, l := range leads {
		if err := st.Insert(context.Background(), store.Leads, l.ID, l); err != nil {
			t.Fatalf("insert lead: %v", err)
		}
	}
	stages := pipeline.NewService(st, nil, logger.Discard())
	return NewService(st, stages, suggester, logger.Discard()), st
}

func TestLogContactStampsFirstContactOnce(t *testing.T) {
	created := testNow.Add(-2 * time.Hour)
	svc, _ := newTestService(t, nil, domain.Lead{ID: "L1", FirstName: "Ana", Status: domain.StageNew, CreatedAt: created})
	ctx := context.Background()

	lead, err := svc.LogContact(ctx, "L1", testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lead.FirstContactAt == nil || !lead.FirstContactAt.Equal(testNow) {
		t.Fatalf("expected first contact at %v, got %v", testNow, lead.FirstContactAt)
	}
	if lead.Status != domain.StageContacted {
		t.Fatalf("expected status contacted, got %s", lead.Status)
	}

	later := testNow.Add(3 * time.Hour)
	lead, err = svc.LogContact(ctx, "L1", later)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !lead.FirstContactAt.Equal(testNow) {
		t.Fatalf("first contact must not move, got %v", lead.FirstContactAt)
	}
	if lead.LastContactAt == nil || !lead.LastContactAt.Equal(later) {
		t.Fatalf("expected last contact at %v, got %v", later, lead.LastContactAt)
	}
}

func TestLogContactNeverBeforeCreation(t *testing.T) {
	svc, _ := newTestService(t, nil, domain.Lead{ID: "L1", Status: domain.StageContacted, CreatedAt: testNow})

	lead, err := svc.LogContact(context.Background(), "L1", testNow.Add(-time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !lead.FirstContactAt.Equal(testNow) {
		t.Fatalf("expected first contact clamped to creation, got %v", lead.FirstContactAt)
	}
	if lead.Status != domain.StageContacted {
		t.Fatalf("status should be unchanged, got %s", lead.Status)
	}
}

func TestLogContactMovesOpportunity(t *testing.T) {
	svc, st := newTestService(t, nil, domain.Lead{ID: "L1", Status: domain.StageNew, CreatedAt: testNow.Add(-time.Hour)})
	ctx := context.Background()
	if err := st.Insert(ctx, store.Opportunities, "O1", domain.Opportunity{ID: "O1", LeadID: "L1", Stage: domain.StageNew}); err != nil {
		t.Fatalf("insert opportunity: %v", err)
	}

	if _, err := svc.LogContact(ctx, "L1", testNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var opp domain.Opportunity
	if err := st.Get(ctx, store.Opportunities, "O1", &opp); err != nil {
		t.Fatalf("get opportunity: %v", err)
	}
	if opp.Stage != domain.StageContacted {
		t.Fatalf("expected opportunity contacted, got %s", opp.Stage)
	}
}

func TestChangeStatusGateRefusal(t *testing.T) {
	svc, st := newTestService(t, nil, domain.Lead{ID: "L1", Status: domain.StageAppointmentShowed, CreatedAt: testNow})
	ctx := context.Background()
	if err := st.Insert(ctx, store.Opportunities, "O1", domain.Opportunity{ID: "O1", LeadID: "L1", Stage: domain.StageAppointmentShowed}); err != nil {
		t.Fatalf("insert opportunity: %v", err)
	}

	res, err := svc.ChangeStatus(ctx, "L1", domain.StageClosedWon, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Allowed || len(res.Reasons) == 0 {
		t.Fatalf("expected gate refusal, got %+v", res)
	}
}

func TestChangeStatusUnknownLead(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.ChangeStatus(context.Background(), "nope", domain.StageContacted, testNow)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListFilters(t *testing.T) {
	svc, _ := newTestService(t, nil,
		domain.Lead{ID: "L1", Status: domain.StageNew, LocationIntent: domain.LocationWayne, Urgency: domain.UrgencyHigh},
		domain.Lead{ID: "L2", Status: domain.StageNew, LocationIntent: domain.LocationTaylor, Urgency: domain.UrgencyMedium},
		domain.Lead{ID: "L3", Status: domain.StageContacted, LocationIntent: domain.LocationWayne, Urgency: domain.UrgencyHigh},
	)

	got, err := svc.List(context.Background(), Filter{Status: domain.StageNew, Location: domain.LocationWayne})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "L1" {
		t.Fatalf("expected only L1, got %+v", got)
	}

	all, _ := svc.List(context.Background(), Filter{})
	if len(all) != 3 || all[2].ID != "L3" {
		t.Fatalf("expected all leads in insertion order, got %+v", all)
	}
}

func TestSetUrgency(t *testing.T) {
	svc, _ := newTestService(t, nil, domain.Lead{ID: "L1", Urgency: domain.UrgencyMedium})
	lead, err := svc.SetUrgency(context.Background(), "L1", domain.UrgencyHigh, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lead.Urgency != domain.UrgencyHigh {
		t.Fatalf("expected high urgency, got %s", lead.Urgency)
	}
}

func TestSuggestText(t *testing.T) {
	svc, _ := newTestService(t, nil, domain.Lead{ID: "L1", FirstName: "Ana", ClickedVehicle: "2022 Ford Escape", CreatedAt: testNow})
	got, err := svc.SuggestText(context.Background(), "L1", testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Provider != "template" || got.Text == "" || got.LeadID != "L1" {
		t.Fatalf("unexpected suggestion %+v", got)
	}
}

func TestSuggestTextProviderFailure(t *testing.T) {
	svc, _ := newTestService(t, failingSuggester{}, domain.Lead{ID: "L1"})
	_, err := svc.SuggestText(context.Background(), "L1", testNow)
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}
