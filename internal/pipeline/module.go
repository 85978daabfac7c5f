package pipeline

import (
	apphttp "dealer_crm_backend/internal/http"
	"dealer_crm_backend/platform/validator"
)

// Module is the pipeline bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates the pipeline module.
func NewModule(svc *Service, val *validator.Validator) *Module {
	return &Module{handler: NewHandler(svc, val), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "pipeline"
}

// Service returns the service layer for external use.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts pipeline routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	opps := ctx.Protected.Group("/opportunities")
	opps.GET("", m.handler.List)
	opps.GET("/:id", m.handler.Get)
	opps.POST("/:id/stage", m.handler.Transition)
	opps.PATCH("/:id/checklist", m.handler.UpdateChecklist)

	ctx.Protected.POST("/leads/:id/consent", m.handler.RecordConsent)
	ctx.Protected.GET("/leads/:id/consent", m.handler.ListConsent)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
