package leads

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

// Handler handles lead HTTP requests.
type Handler struct {
	svc *Service
	val *validator.Validator
}

// NewHandler creates a new leads handler.
func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List returns leads filtered by ?status=, ?location= and ?urgency=.
// GET /api/v1/leads
func (h *Handler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), Filter{
		Status:   domain.Stage(c.Query("status")),
		Location: domain.Location(c.Query("location")),
		Urgency:  domain.Urgency(c.Query("urgency")),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": items, "total": len(items)})
}

// Get returns one lead.
// GET /api/v1/leads/:id
func (h *Handler) Get(c *gin.Context) {
	lead, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

// LogContact records an outbound touch at request time.
// POST /api/v1/leads/:id/contact
func (h *Handler) LogContact(c *gin.Context) {
	lead, err := h.svc.LogContact(c.Request.Context(), c.Param("id"), time.Now().UTC())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

// ChangeStatus applies a manual status change. A refused gate answers 422.
// PATCH /api/v1/leads/:id/status
func (h *Handler) ChangeStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.ChangeStatus(c.Request.Context(), c.Param("id"), domain.Stage(req.Status), time.Now().UTC())
	if httpkit.HandleError(c, err) {
		return
	}
	if !result.Allowed {
		httpkit.JSON(c, http.StatusUnprocessableEntity, result)
		return
	}
	httpkit.OK(c, result)
}

// SetUrgency updates the rep-assigned priority.
// PATCH /api/v1/leads/:id/urgency
func (h *Handler) SetUrgency(c *gin.Context) {
	var req UrgencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.SetUrgency(c.Request.Context(), c.Param("id"), domain.Urgency(req.Urgency), time.Now().UTC())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

// SuggestText returns a follow-up text suggestion.
// POST /api/v1/leads/:id/ai-text
func (h *Handler) SuggestText(c *gin.Context) {
	suggestion, err := h.svc.SuggestText(c.Request.Context(), c.Param("id"), time.Now().UTC())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, suggestion)
}
