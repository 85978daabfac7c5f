package command

import (
	"fmt"
	"testing"
	"time"

	"dealer_crm_backend/internal/domain"
	"dealer_crm_backend/internal/policy"
)

// Monday 14:00 UTC, inside business hours.
var now = time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)

func testPolicy() policy.Policy {
	p := policy.Default()
	p.BusinessHours.TimeZone = "UTC"
	return p
}

func ptrTime(t time.Time) *time.Time { return &t }
func ptrFloat(f float64) *float64    { return &f }

func TestHotUncontactedExample(t *testing.T) {
	snap := domain.Snapshot{Leads: []domain.Lead{{
		ID: "L1", FirstName: "Ava", LastName: "Stone", Status: domain.StageNew,
		LeadScore: 90, Urgency: domain.UrgencyHigh, CreatedAt: now.Add(-15 * time.Minute),
	}}}

	actions := Actions(testPolicy(), now, snap)
	if len(actions) != 1 {
		t.Fatalf("expected exactly one action, got %d: %+v", len(actions), actions)
	}
	a := actions[0]
	if a.Rule != RuleHotUncontacted || a.Severity != SeverityCritical || a.ActionKind != ActionCall {
		t.Fatalf("unexpected action %+v", a)
	}
	if a.ActionLabel != "Call" || a.ID != "hot_uncontacted:L1" {
		t.Fatalf("unexpected label or id: %q %q", a.ActionLabel, a.ID)
	}
	if !a.DueAt.Equal(now.Add(-5*time.Minute)) || a.DueLabel != "Overdue 5m" {
		t.Fatalf("unexpected due %v %q", a.DueAt, a.DueLabel)
	}
	if a.ImpactScore != 70 {
		t.Fatalf("expected impact 70, got %v", a.ImpactScore)
	}
}

func TestHotUncontactedThresholds(t *testing.T) {
	p := testPolicy().Command
	base := domain.Lead{ID: "L1", Status: domain.StageNew, LeadScore: 85, Urgency: domain.UrgencyMedium, CreatedAt: now.Add(-11 * time.Minute)}

	if a, ok := hotUncontacted(p, now, base); !ok || a.Severity != SeverityHigh {
		t.Fatalf("expected high severity for medium urgency, got %+v %v", a, ok)
	}

	fresh := base
	fresh.CreatedAt = now.Add(-10 * time.Minute)
	if _, ok := hotUncontacted(p, now, fresh); ok {
		t.Fatalf("expected no action at exactly ten minutes")
	}

	cold := base
	cold.LeadScore = 79
	if _, ok := hotUncontacted(p, now, cold); ok {
		t.Fatalf("expected no action below score 80")
	}

	contacted := base
	contacted.FirstContactAt = ptrTime(now.Add(-time.Minute))
	if _, ok := hotUncontacted(p, now, contacted); ok {
		t.Fatalf("expected no action once contacted")
	}
}

func TestDealAtRiskEnumeratesEveryReason(t *testing.T) {
	p := testPolicy().Command
	lead := domain.Lead{ID: "L2", Status: domain.StageNegotiating, CreatedAt: now.Add(-96 * time.Hour)}

	a, ok := dealAtRisk(p, now, lead)
	if !ok {
		t.Fatalf("expected deal at risk")
	}
	if a.Reason != "Missing deal value, recent follow-up, fresh activity" {
		t.Fatalf("unexpected reason %q", a.Reason)
	}
	if a.Severity != SeverityCritical || a.ActionKind != ActionReassign || !a.DueAt.Equal(now) {
		t.Fatalf("unexpected action %+v", a)
	}
}

func TestDealAtRiskFinancingReview(t *testing.T) {
	p := testPolicy().Command
	lastContact := now.Add(-2 * time.Hour)
	lead := domain.Lead{
		ID: "L3", Status: domain.StageFinancingReview, CreatedAt: now.Add(-24 * time.Hour),
		LastContactAt: &lastContact,
	}

	a, ok := dealAtRisk(p, now, lead)
	if !ok {
		t.Fatalf("expected deal at risk for missing deal value")
	}
	if a.Reason != "Missing deal value" || a.ActionKind != ActionRequestDocuments {
		t.Fatalf("unexpected action %+v", a)
	}
	if !a.DueAt.Equal(lastContact.Add(24 * time.Hour)) {
		t.Fatalf("expected due 24h after last contact, got %v", a.DueAt)
	}

	lead.DealValue = ptrFloat(42000)
	if _, ok := dealAtRisk(p, now, lead); ok {
		t.Fatalf("expected healthy deal to produce no action")
	}
}

func TestFollowUpOverdue(t *testing.T) {
	p := testPolicy().Command
	lead := domain.Lead{
		ID: "L4", Status: domain.StageContacted, Urgency: domain.UrgencyHigh,
		CreatedAt: now.Add(-72 * time.Hour), FirstContactAt: ptrTime(now.Add(-70 * time.Hour)),
		LastContactAt: ptrTime(now.Add(-30 * time.Hour)),
	}

	a, ok := followUpOverdue(p, now, lead)
	if !ok {
		t.Fatalf("expected follow-up action")
	}
	if a.Severity != SeverityHigh || a.ActionKind != ActionSendAIText || a.ActionKind.Label() != "Send AI Text" {
		t.Fatalf("unexpected action %+v", a)
	}
	if !a.DueAt.Equal(now.Add(-6*time.Hour)) || DueLabel(now, a.DueAt) != "Overdue 6h" {
		t.Fatalf("unexpected due %v", a.DueAt)
	}

	legacy := domain.Lead{ID: "L5", Status: domain.StageInterested, CreatedAt: now.Add(-25 * time.Hour)}
	if a, ok := followUpOverdue(p, now, legacy); !ok || a.Severity != SeverityMedium {
		t.Fatalf("expected legacy interested status to qualify, got %+v %v", a, ok)
	}

	negotiating := domain.Lead{ID: "L6", Status: domain.StageNegotiating, CreatedAt: now.Add(-100 * time.Hour)}
	if _, ok := followUpOverdue(p, now, negotiating); ok {
		t.Fatalf("expected negotiating lead to be skipped")
	}
}

func TestAgingInventory(t *testing.T) {
	p := testPolicy().Command
	tests := []struct {
		name     string
		unit     domain.InventoryUnit
		ok       bool
		severity Severity
	}{
		{"80 days", domain.InventoryUnit{ID: "U1", Status: domain.InventoryAvailable, InStockAt: now.AddDate(0, 0, -80)}, true, SeverityMedium},
		{"50 days", domain.InventoryUnit{ID: "U2", Status: domain.InventoryAvailable, InStockAt: now.AddDate(0, 0, -50)}, true, SeverityAdmin},
		{"45 days", domain.InventoryUnit{ID: "U3", Status: domain.InventoryAvailable, InStockAt: now.AddDate(0, 0, -45)}, true, SeverityAdmin},
		{"30 days", domain.InventoryUnit{ID: "U4", Status: domain.InventoryAvailable, InStockAt: now.AddDate(0, 0, -30)}, false, ""},
		{"sold", domain.InventoryUnit{ID: "U5", Status: domain.InventorySold, InStockAt: now.AddDate(0, 0, -100)}, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, ok := agingInventory(p, now, tt.unit)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && (a.Severity != tt.severity || a.ActionKind != ActionOpenInventory || a.LeadID != "") {
				t.Fatalf("unexpected action %+v", a)
			}
		})
	}
}

func TestImpactScore(t *testing.T) {
	p := testPolicy().Command
	tests := []struct {
		name     string
		severity Severity
		value    float64
		due      time.Time
		want     float64
	}{
		{"critical overdue no value", SeverityCritical, 0, now.Add(-time.Hour), 70},
		{"high capped value due soon", SeverityHigh, 90000, now.Add(48 * time.Hour), 65},
		{"medium partial value due later", SeverityMedium, 12500, now.Add(100 * time.Hour), 27.5},
		{"admin exactly 24h", SeverityAdmin, 0, now.Add(24 * time.Hour), 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ImpactScore(p, now, tt.severity, tt.value, tt.due); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestActionsSortedAndDeterministic(t *testing.T) {
	var leads []domain.Lead
	for i := 0; i < 30; i++ {
		status := []domain.Stage{domain.StageNew, domain.StageContacted, domain.StageNegotiating, domain.StageFinancingReview}[i%4]
		urgency := []domain.Urgency{domain.UrgencyHigh, domain.UrgencyMedium, domain.UrgencyLow}[i%3]
		lead := domain.Lead{
			ID:        fmt.Sprintf("L%02d", i),
			Status:    status,
			Urgency:   urgency,
			LeadScore: 60 + i,
			CreatedAt: now.Add(-time.Duration(i*7) * time.Hour),
		}
		if i%5 == 0 {
			lead.BudgetMax = ptrFloat(float64(i * 1500))
		}
		leads = append(leads, lead)
	}
	inventory := []domain.InventoryUnit{
		{ID: "U1", Status: domain.InventoryAvailable, ListPrice: 38000, InStockAt: now.AddDate(0, 0, -90)},
		{ID: "U2", Status: domain.InventoryAvailable, ListPrice: 21000, InStockAt: now.AddDate(0, 0, -46)},
	}
	snap := domain.Snapshot{Leads: leads, Inventory: inventory}

	first := Actions(testPolicy(), now, snap)
	if len(first) == 0 {
		t.Fatalf("expected actions")
	}
	for i := 1; i < len(first); i++ {
		prev, cur := first[i-1], first[i]
		if cur.ImpactScore > prev.ImpactScore {
			t.Fatalf("impact increased at %d: %v > %v", i, cur.ImpactScore, prev.ImpactScore)
		}
		if cur.ImpactScore == prev.ImpactScore && cur.DueAt.Before(prev.DueAt) {
			t.Fatalf("due date decreased on tie at %d", i)
		}
	}

	reversed := make([]domain.Lead, len(leads))
	for i := range leads {
		reversed[len(leads)-1-i] = leads[i]
	}
	second := Actions(testPolicy(), now, domain.Snapshot{Leads: reversed, Inventory: inventory})
	if len(second) != len(first) {
		t.Fatalf("expected same number of actions, got %d vs %d", len(second), len(first))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("order depends on input order at %d: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
}

func TestCriticalOutranksLowerSeverityAtEqualTiming(t *testing.T) {
	snap := domain.Snapshot{Leads: []domain.Lead{
		{ID: "follow", Status: domain.StageContacted, Urgency: domain.UrgencyLow, CreatedAt: now.Add(-48 * time.Hour), BudgetMax: ptrFloat(80000)},
		{ID: "hot", Status: domain.StageNew, LeadScore: 95, Urgency: domain.UrgencyHigh, CreatedAt: now.Add(-20 * time.Minute)},
	}}
	actions := Actions(testPolicy(), now, snap)
	if len(actions) < 2 || actions[0].LeadID != "hot" {
		t.Fatalf("expected critical hot lead first, got %+v", actions)
	}
}

func TestSLAAlerts(t *testing.T) {
	leads := []domain.Lead{
		{ID: "fresh", CreatedAt: now.Add(-3 * time.Minute)},
		{ID: "medium", CreatedAt: now.Add(-7 * time.Minute)},
		{ID: "high", CreatedAt: now.Add(-12 * time.Minute)},
		{ID: "critical", CreatedAt: now.Add(-25 * time.Minute)},
		{ID: "contacted", CreatedAt: now.Add(-60 * time.Minute), FirstContactAt: ptrTime(now.Add(-50 * time.Minute))},
		{ID: "closed", Status: domain.StageClosedLost, CreatedAt: now.Add(-90 * time.Minute)},
	}

	alerts := SLAAlerts(testPolicy(), now, leads)
	if len(alerts) != 3 {
		t.Fatalf("expected 3 alerts, got %+v", alerts)
	}
	want := []struct {
		id       string
		severity Severity
		minutes  int
	}{
		{"critical", SeverityCritical, 25},
		{"high", SeverityHigh, 12},
		{"medium", SeverityMedium, 7},
	}
	for i, w := range want {
		if alerts[i].LeadID != w.id || alerts[i].Severity != w.severity || alerts[i].MinutesWaiting != w.minutes {
			t.Fatalf("alert %d: expected %+v, got %+v", i, w, alerts[i])
		}
	}
}

func TestClosedLeadsSkipFirstResponseChecks(t *testing.T) {
	leads := []domain.Lead{
		{ID: "won", Status: domain.StageClosedWon, LeadScore: 95, Urgency: domain.UrgencyHigh, CreatedAt: now.Add(-40 * time.Minute)},
		{ID: "lost", Status: domain.StageClosedLost, LeadScore: 90, Urgency: domain.UrgencyHigh, CreatedAt: now.Add(-30 * time.Minute)},
	}
	p := testPolicy()

	if alerts := SLAAlerts(p, now, leads); len(alerts) != 0 {
		t.Fatalf("expected no SLA alerts for closed leads, got %+v", alerts)
	}
	for _, lead := range leads {
		if a, ok := hotUncontacted(p.Command, now, lead); ok {
			t.Fatalf("expected no call action for closed lead %s, got %+v", lead.ID, a)
		}
	}
	if actions := Actions(p, now, domain.Snapshot{Leads: leads}); len(actions) != 0 {
		t.Fatalf("expected no actions for closed leads, got %+v", actions)
	}

	reopened := leads[1]
	reopened.Status = domain.StageNew
	if _, ok := hotUncontacted(p.Command, now, reopened); !ok {
		t.Fatalf("expected the same lead to need a call while open")
	}
}

func TestSLAAlertsOutsideBusinessHours(t *testing.T) {
	leads := []domain.Lead{{ID: "waiting", CreatedAt: now.Add(-3 * time.Hour)}}
	p := testPolicy()

	sunday := time.Date(2025, 6, 8, 12, 0, 0, 0, time.UTC)
	if alerts := SLAAlerts(p, sunday, leads); len(alerts) != 0 {
		t.Fatalf("expected no alerts on Sunday, got %+v", alerts)
	}
	saturdayEvening := time.Date(2025, 6, 7, 18, 0, 0, 0, time.UTC)
	if alerts := SLAAlerts(p, saturdayEvening, leads); len(alerts) != 0 {
		t.Fatalf("expected no alerts after Saturday close, got %+v", alerts)
	}
}

func TestDueLabel(t *testing.T) {
	tests := []struct {
		due  time.Time
		want string
	}{
		{now, "Due now"},
		{now.Add(30 * time.Minute), "Due in 30m"},
		{now.Add(5 * time.Hour), "Due in 5h"},
		{now.Add(72 * time.Hour), "Due in 3d"},
		{now.Add(-90 * time.Minute), "Overdue 1h"},
	}
	for _, tt := range tests {
		if got := DueLabel(now, tt.due); got != tt.want {
			t.Fatalf("expected %q, got %q", tt.want, got)
		}
	}
}
