package inventory

import (
	"context"
	"testing"
	"time"

	"dealer_crm_backend/internal/domain"
	"dealer_crm_backend/internal/store/memory"
	"dealer_crm_backend/platform/apperr"
	"dealer_crm_backend/platform/logger"
)

var testNow = time.Date(2025, 5, 20, 16, 0, 0, 0, time.UTC)

func TestAddNormalizesAndRejectsDuplicates(t *testing.T) {
	svc := NewService(memory.New(), logger.Discard())
	ctx := context.Background()

	unit, err := svc.Add(ctx, AddInput{StockNo: " w1042 ", Label: "2019 Jeep Cherokee", Location: domain.LocationWayne, ListPrice: 18995}, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if unit.StockNo != "W1042" || unit.Status != domain.InventoryAvailable || !unit.InStockAt.Equal(testNow) {
		t.Fatalf("unexpected unit %+v", unit)
	}

	if _, err := svc.Add(ctx, AddInput{StockNo: "W1042", Label: "dup", Location: domain.LocationWayne}, testNow); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestMarkSoldIsFinal(t *testing.T) {
	svc := NewService(memory.New(), logger.Discard())
	ctx := context.Background()
	unit, _ := svc.Add(ctx, AddInput{StockNo: "T77", Label: "2020 Ram 1500", Location: domain.LocationTaylor}, testNow)

	if _, err := svc.SetStatus(ctx, unit.ID, domain.InventoryPending); err != nil {
		t.Fatalf("pending: %v", err)
	}
	sold, err := svc.MarkSold(ctx, unit.ID)
	if err != nil {
		t.Fatalf("sold: %v", err)
	}
	if sold.Status != domain.InventorySold {
		t.Fatalf("expected sold, got %s", sold.Status)
	}
	if _, err := svc.SetStatus(ctx, unit.ID, domain.InventoryAvailable); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict after sale, got %v", err)
	}
}

func TestListReportsAge(t *testing.T) {
	svc := NewService(memory.New(), logger.Discard())
	ctx := context.Background()
	_, _ = svc.Add(ctx, AddInput{StockNo: "W1", Label: "a", Location: domain.LocationWayne, InStockAt: testNow.Add(-50 * 24 * time.Hour)}, testNow)
	_, _ = svc.Add(ctx, AddInput{StockNo: "T1", Label: "b", Location: domain.LocationTaylor}, testNow)

	got, err := svc.List(ctx, "", domain.LocationWayne, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].DaysInStock != 50 {
		t.Fatalf("unexpected list %+v", got)
	}
}
