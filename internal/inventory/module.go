package inventory

import (
	apphttp "dealer_crm_backend/internal/http"
	"dealer_crm_backend/platform/validator"
)

// Module is the inventory bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates the inventory module.
func NewModule(svc *Service, val *validator.Validator) *Module {
	return &Module{handler: NewHandler(svc, val), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "inventory"
}

// Service returns the service layer for external use.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts inventory routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	inv := ctx.Protected.Group("/inventory")
	inv.GET("", m.handler.List)
	inv.POST("", m.handler.Add)
	inv.PATCH("/:id/status", m.handler.SetStatus)
	inv.POST("/:id/sold", m.handler.MarkSold)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
