package command

import (
	apphttp "dealer_crm_backend/internal/http"
)

// Module is the command-center module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates the command module.
func NewModule(svc *Service) *Module {
	return &Module{handler: NewHandler(svc), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "command"
}

// Service returns the service layer for the scheduler.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts command routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/command")
	group.GET("/actions", m.handler.Actions)
	group.GET("/sla-alerts", m.handler.SLAAlerts)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
