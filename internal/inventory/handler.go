package inventory

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dealer_crm_backend/internal/domain"
	"dealer_crm_backend/platform/httpkit"
	"dealer_crm_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles inventory HTTP requests.
type Handler struct {
	svc *Service
	val *validator.Validator
}

// NewHandler creates a new inventory handler.
func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List returns units filtered by ?status= and ?location=.
// GET /api/v1/inventory
func (h *Handler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(),
		domain.InventoryStatus(c.Query("status")),
		domain.Location(c.Query("location")),
		time.Now().UTC(),
	)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": items, "total": len(items)})
}

// Add puts a unit on the lot.
// POST /api/v1/inventory
func (h *Handler) Add(c *gin.Context) {
	var req AddUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	in := AddInput{
		StockNo:   req.StockNo,
		Label:     req.Label,
		Location:  domain.Location(req.Location),
		ListPrice: req.ListPrice,
	}
	if req.InStockAt != nil {
		in.InStockAt = *req.InStockAt
	}

	unit, err := h.svc.Add(c.Request.Context(), in, time.Now().UTC())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, unit)
}

// SetStatus changes a unit's status.
// PATCH /api/v1/inventory/:id/status
func (h *Handler) SetStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	unit, err := h.svc.SetStatus(c.Request.Context(), c.Param("id"), domain.InventoryStatus(req.Status))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, unit)
}

// MarkSold takes a unit off the lot.
// POST /api/v1/inventory/:id/sold
func (h *Handler) MarkSold(c *gin.Context) {
	unit, err := h.svc.MarkSold(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, unit)
}
