package leads

import (
	apphttp "dealer_crm_backend/internal/http"
	"dealer_crm_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates the leads module.
func NewModule(svc *Service, val *validator.Validator) *Module {
	return &Module{handler: NewHandler(svc, val), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the service layer for external use.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	leads := ctx.Protected.Group("/leads")
	leads.GET("", m.handler.List)
	leads.GET("/:id", m.handler.Get)
	leads.POST("/:id/contact", m.handler.LogContact)
	leads.PATCH("/:id/status", m.handler.ChangeStatus)
	leads.PATCH("/:id/urgency", m.handler.SetUrgency)
	leads.POST("/:id/ai-text", m.handler.SuggestText)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
