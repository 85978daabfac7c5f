package domain

import (
	"testing"
	"time"
)

func TestLeadExpectedValuePrefersDealValue(t *testing.T) {
	deal, budget := 30000.0, 25000.0
	tests := []struct {
		name string
		lead Lead
		want float64
	}{
		{"deal value", Lead{DealValue: &deal, BudgetMax: &budget}, 30000},
		{"budget only", Lead{BudgetMax: &budget}, 25000},
		{"nothing", Lead{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.lead.ExpectedValue(); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestChecklistMergeNeverClears(t *testing.T) {
	current := Checklist{QuoteShared: true}
	got := current.Merge(Checklist{DocsRequested: true})
	if !got.QuoteShared || !got.DocsRequested || got.ConsentVerified {
		t.Fatalf("unexpected merge result %+v", got)
	}
}

func TestStageHelpers(t *testing.T) {
	if !StageClosedLost.IsClosed() || StageNegotiating.IsClosed() {
		t.Fatalf("closed detection is wrong")
	}
	if StageInterested.IsKnown() {
		t.Fatalf("legacy status should not be a pipeline stage")
	}
	if !StageFinancingReview.IsKnown() {
		t.Fatalf("financing_review should be known")
	}
}

func TestDaysInStock(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	unit := InventoryUnit{InStockAt: now.Add(-46 * 24 * time.Hour)}
	if got := unit.DaysInStock(now); got != 46 {
		t.Fatalf("expected 46 days, got %d", got)
	}
	if got := (InventoryUnit{InStockAt: now.Add(time.Hour)}).DaysInStock(now); got != 0 {
		t.Fatalf("expected 0 for future stock date, got %d", got)
	}
}

func TestStageRank(t *testing.T) {
	if StageInterested.Rank() != StageContacted.Rank() {
		t.Fatalf("interested should rank with contacted")
	}
	if StageAppointmentSet.Rank() >= StageAppointmentShowed.Rank() {
		t.Fatalf("appointment_set should rank before appointment_showed")
	}
	if Stage("parked").Rank() != -1 {
		t.Fatalf("unknown stage should rank -1")
	}
}
