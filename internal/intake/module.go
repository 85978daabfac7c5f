package intake

import (
	apphttp "dealer_crm_backend/internal/http"
	"dealer_crm_backend/platform/validator"
)

// Module is the intake bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates the intake module around an already wired service.
func NewModule(svc *Service, val *validator.Validator) *Module {
	return &Module{handler: NewHandler(svc, val), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "intake"
}

// Service returns the service layer for external use.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts intake routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public, rate limited per IP
	ctx.V1.POST("/intake", ctx.IntakeRateLimit, m.handler.Submit)

	ctx.Protected.GET("/leads/:id/merge-suggestions", m.handler.MergeSuggestions)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
