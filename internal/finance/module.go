package finance

import (
	apphttp "dealer_crm_backend/internal/http"
	"dealer_crm_backend/platform/validator"
)

// Module is the finance bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates the finance module.
func NewModule(svc *Service, val *validator.Validator) *Module {
	return &Module{handler: NewHandler(svc, val), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "finance"
}

// Service returns the service layer for external use.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts finance routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	apps := ctx.Protected.Group("/finance-applications")
	apps.GET("", m.handler.List)
	apps.POST("", m.handler.Create)
	apps.GET("/:id", m.handler.Get)
	apps.PATCH("/:id", m.handler.UpdateProgress)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
