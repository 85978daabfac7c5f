package pipeline

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

// Handler handles pipeline HTTP requests.
type Handler struct {
	svc *Service
	val *validator.Validator
}

// NewHandler creates a new pipeline handler.
func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List returns opportunities, optionally filtered by ?stage=.
// GET /api/v1/opportunities
func (h *Handler) List(c *gin.Context) {
	items, err := h.svc.ListOpportunities(c.Request.Context(), domain.Stage(c.Query("stage")))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": items, "total": len(items)})
}

// Get returns one opportunity.
// GET /api/v1/opportunities/:id
func (h *Handler) Get(c *gin.Context) {
	opp, err := h.svc.GetOpportunity(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, opp)
}

// Transition requests a gated stage change. A refused gate answers 422 with
// the reasons to show the rep.
// POST /api/v1/opportunities/:id/stage
func (h *Handler) Transition(c *gin.Context) {
	var req StageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Transition(c.Request.Context(), c.Param("id"), domain.Stage(req.Stage), time.Now().UTC())
	if httpkit.HandleError(c, err) {
		return
	}
	if !result.Allowed {
		httpkit.JSON(c, http.StatusUnprocessableEntity, result)
		return
	}
	httpkit.OK(c, result)
}

// UpdateChecklist raises checklist flags.
// PATCH /api/v1/opportunities/:id/checklist
func (h *Handler) UpdateChecklist(c *gin.Context) {
	var req ChecklistUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	opp, err := h.svc.UpdateChecklist(c.Request.Context(), c.Param("id"), req, time.Now().UTC())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, opp)
}

// RecordConsent appends a consent event.
// POST /api/v1/leads/:id/consent
func (h *Handler) RecordConsent(c *gin.Context) {
	var req ConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	ev, err := h.svc.RecordConsent(c.Request.Context(), c.Param("id"), ConsentInput{
		Channel:   domain.ConsentChannel(req.Channel),
		Consented: *req.Consented,
		Source:    req.Source,
		Proof:     req.Proof,
	}, time.Now().UTC())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, ev)
}

// ListConsent returns a lead's consent history.
// GET /api/v1/leads/:id/consent
func (h *Handler) ListConsent(c *gin.Context) {
	items, err := h.svc.ListConsent(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": items})
}
