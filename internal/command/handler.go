package command

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"dealer_crm_backend/platform/httpkit"
)

const maxActionLimit = 200

// Handler serves the command views.
type Handler struct {
	svc *Service
}

// NewHandler creates a new command handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Actions returns ranked next-best actions.
// GET /api/v1/command/actions?limit=
func (h *Handler) Actions(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			httpkit.Error(c, http.StatusBadRequest, "limit must be a positive integer", nil)
			return
		}
		limit = min(parsed, maxActionLimit)
	}

	now := time.Now().UTC()
	actions, err := h.svc.Actions(c.Request.Context(), now, limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"generated_at": now, "items": actions})
}

// SLAAlerts returns first-response alerts.
// GET /api/v1/command/sla-alerts
func (h *Handler) SLAAlerts(c *gin.Context) {
	now := time.Now().UTC()
	alerts, err := h.svc.SLAAlerts(c.Request.Context(), now)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"generated_at": now, "items": alerts})
}
