package inventory

import "time"

// AddUnitRequest puts a unit on the lot.
type AddUnitRequest struct {
	StockNo   string     `json:"stock_no" validate:"required,max=32"`
	Label     string     `json:"label" validate:"required,max=200"`
	Location  string     `json:"location" validate:"required,location"`
	ListPrice float64    `json:"list_price" validate:"gte=0"`
	InStockAt *time.Time `json:"in_stock_at"`
}

// StatusRequest changes a unit's status.
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=available pending sold"`
}
