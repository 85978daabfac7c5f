package finance

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

// Handler handles finance HTTP requests.
type Handler struct {
	svc *Service
	val *validator.Validator
}

// NewHandler creates a new finance handler.
func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List returns applications, optionally for one ?lead_id=.
// GET /api/v1/finance-applications
func (h *Handler) List(c *gin.Context) {
	items, err := h.svc.ListForLead(c.Request.Context(), c.Query("lead_id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": items, "total": len(items)})
}

// Create starts an application.
// POST /api/v1/finance-applications
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	app, err := h.svc.Create(c.Request.Context(), req.LeadID, time.Now().UTC())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, app)
}

// Get returns one application.
// GET /api/v1/finance-applications/:id
func (h *Handler) Get(c *gin.Context) {
	app, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, app)
}

// UpdateProgress records progress and missing paperwork.
// PATCH /api/v1/finance-applications/:id
func (h *Handler) UpdateProgress(c *gin.Context) {
	var req ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	in := ProgressInput{CompletionPercent: req.CompletionPercent, MissingItems: req.MissingItems}
	if req.Status != nil {
		status := domain.FinanceStatus(*req.Status)
		in.Status = &status
	}

	app, err := h.svc.UpdateProgress(c.Request.Context(), c.Param("id"), in, time.Now().UTC())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, app)
}
