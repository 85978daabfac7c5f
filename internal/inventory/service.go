// Package inventory keeps the lot: units in stock, pending and sold.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"dealer_crm_backend/internal/domain"
	"dealer_crm_backend/internal/store"
	"dealer_crm_backend/platform/apperr"
	"dealer_crm_backend/platform/logger"
)

const (
	msgUnitNotFound   = "inventory unit not found"
	msgDuplicateStock = "stock number already exists"
	msgAlreadySold    = "unit is already sold"
)

// AddInput describes a unit arriving on the lot. A zero InStockAt means now.
type AddInput struct {
	StockNo   string
	Label     string
	Location  domain.Location
	ListPrice float64
	InStockAt time.Time
}

// UnitView is a unit with its age on the lot.
type UnitView struct {
	domain.InventoryUnit
	DaysInStock int `json:"days_in_stock"`
}

// Service handles inventory units.
type Service struct {
	store store.Store
	log   *logger.Logger
	newID func() string
}

// NewService creates a new inventory service.
func NewService(st store.Store, log *logger.Logger) *Service {
	return &Service{store: st, log: log, newID: uuid.NewString}
}

// Add puts a unit on the lot. Stock numbers are unique, compared without
// case.
func (s *Service) Add(ctx context.Context, in AddInput, now time.Time) (domain.InventoryUnit, error) {
	stockNo := strings.ToUpper(strings.TrimSpace(in.StockNo))

	var existing domain.InventoryUnit
	err := s.store.FindFirst(ctx, store.Inventory, "stock_no", stockNo, &existing)
	if err == nil {
		return domain.InventoryUnit{}, apperr.Conflict(msgDuplicateStock)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.InventoryUnit{}, fmt.Errorf("find stock number: %w", err)
	}

	inStockAt := in.InStockAt
	if inStockAt.IsZero() {
		inStockAt = now
	}
	unit := domain.InventoryUnit{
		ID:        s.newID(),
		StockNo:   stockNo,
		Label:     strings.TrimSpace(in.Label),
		Location:  in.Location,
		ListPrice: in.ListPrice,
		Status:    domain.InventoryAvailable,
		InStockAt: inStockAt.UTC(),
		CreatedAt: now,
	}
	if err := s.store.Insert(ctx, store.Inventory, unit.ID, unit); err != nil {
		s.log.DatabaseError("inventory.insert", err)
		return domain.InventoryUnit{}, fmt.Errorf("insert inventory unit: %w", err)
	}
	return unit, nil
}

// SetStatus marks a unit pending, available again, or sold. Sold is final.
func (s *Service) SetStatus(ctx context.Context, id string, status domain.InventoryStatus) (domain.InventoryUnit, error) {
	unit, err := s.Get(ctx, id)
	if err != nil {
		return domain.InventoryUnit{}, err
	}
	if unit.Status == domain.InventorySold {
		return domain.InventoryUnit{}, apperr.Conflict(msgAlreadySold)
	}
	if unit.Status == status {
		return unit, nil
	}
	if err := s.store.Patch(ctx, store.Inventory, id, map[string]any{"status": status}); err != nil {
		s.log.DatabaseError("inventory.patch_status", err)
		return domain.InventoryUnit{}, fmt.Errorf("patch inventory unit: %w", err)
	}
	unit.Status = status
	return unit, nil
}

// MarkSold takes a unit off the lot.
func (s *Service) MarkSold(ctx context.Context, id string) (domain.InventoryUnit, error) {
	return s.SetStatus(ctx, id, domain.InventorySold)
}

// Get retrieves one unit.
func (s *Service) Get(ctx context.Context, id string) (domain.InventoryUnit, error) {
	var unit domain.InventoryUnit
	if err := s.store.Get(ctx, store.Inventory, id, &unit); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.InventoryUnit{}, apperr.NotFound(msgUnitNotFound)
		}
		return domain.InventoryUnit{}, fmt.Errorf("get inventory unit: %w", err)
	}
	return unit, nil
}

// List returns units with their age, optionally narrowed by status and
// location.
func (s *Service) List(ctx context.Context, status domain.InventoryStatus, location domain.Location, now time.Time) ([]UnitView, error) {
	var all []domain.InventoryUnit
	if err := s.store.ListAll(ctx, store.Inventory, &all); err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	out := make([]UnitView, 0, len(all))
	for _, u := range all {
		if status != "" && u.Status != status {
			continue
		}
		if location != "" && u.Location != location {
			continue
		}
		out = append(out, UnitView{InventoryUnit: u, DaysInStock: u.DaysInStock(now)})
	}
	return out, nil
}
