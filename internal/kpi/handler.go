package kpi

import (
	"time"

	"github.com/gin-gonic/gin"

	apphttp "dealer_crm_backend/internal/http"
	"dealer_crm_backend/platform/httpkit"
)

// Handler serves KPI views.
type Handler struct {
	svc *Service
}

// Metrics returns the KPI snapshot.
// GET /api/v1/kpi
func (h *Handler) Metrics(c *gin.Context) {
	m, err := h.svc.Metrics(c.Request.Context(), time.Now().UTC())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, m)
}

// Scorecard returns the guarantee scorecard.
// GET /api/v1/kpi/scorecard
func (h *Handler) Scorecard(c *gin.Context) {
	card, err := h.svc.Scorecard(c.Request.Context(), time.Now().UTC())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, card)
}

// Module is the KPI module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates the KPI module.
func NewModule(svc *Service) *Module {
	return &Module{handler: &Handler{svc: svc}}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "kpi"
}

// RegisterRoutes mounts KPI routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/kpi", m.handler.Metrics)
	ctx.Protected.GET("/kpi/scorecard", m.handler.Scorecard)
}

var _ apphttp.Module = (*Module)(nil)
