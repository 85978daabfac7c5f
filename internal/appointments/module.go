// Package appointments provides the test-drive booking module.
package appointments

import (
	"dealer_crm_backend/internal/appointments/handler"
	"dealer_crm_backend/internal/appointments/service"
	apphttp "dealer_crm_backend/internal/http"
	"dealer_crm_backend/internal/scheduler"
	"dealer_crm_backend/internal/store"
	"dealer_crm_backend/platform/logger"
	"dealer_crm_backend/platform/validator"
)

// Module represents the appointments domain module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new appointments module with all dependencies wired.
// reminders may be nil when no scheduler is configured.
func NewModule(st store.Store, stages service.StageAdvancer, reminders scheduler.ReminderScheduler, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(st, stages, reminders, log)
	return &Module{
		handler: handler.New(svc, val),
		Service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "appointments"
}

// RegisterRoutes registers the module's routes under /api/v1/appointments
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	appointments := ctx.Protected.Group("/appointments")
	m.handler.RegisterRoutes(appointments)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
