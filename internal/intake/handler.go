package intake

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dealer_crm_backend/platform/httpkit"
	"dealer_crm_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles intake HTTP requests.
type Handler struct {
	svc *Service
	val *validator.Validator
}

// NewHandler creates a new intake handler.
func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Submit ingests a public lead submission.
// POST /api/v1/intake
func (h *Handler) Submit(c *gin.Context) {
	var req IntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Submit(c.Request.Context(), req.ToSubmission(), time.Now().UTC())
	if httpkit.HandleError(c, err) {
		return
	}

	status := http.StatusOK
	if result.CreatedNewLead {
		status = http.StatusCreated
	}
	httpkit.JSON(c, status, result)
}

// MergeSuggestions lists probable duplicates of a lead.
// GET /api/v1/leads/:id/merge-suggestions
func (h *Handler) MergeSuggestions(c *gin.Context) {
	leadID := c.Param("id")
	suggestions, err := h.svc.MergeSuggestionsFor(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, MergeSuggestionsResponse{LeadID: leadID, Suggestions: suggestions})
}
