package forecast

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"dealer_crm_backend/internal/domain"
	apphttp "dealer_crm_backend/internal/http"
	"dealer_crm_backend/internal/policy"
	"dealer_crm_backend/internal/store"
	"dealer_crm_backend/platform/httpkit"
	"dealer_crm_backend/platform/logger"
)

// Service loads leads and computes the forecast.
type Service struct {
	store  store.Store
	policy policy.Policy
	log    *logger.Logger
}

// NewService creates a new forecast service.
func NewService(st store.Store, p policy.Policy, log *logger.Logger) *Service {
	return &Service{store: st, policy: p, log: log}
}

// Forecast computes the weighted pipeline at now.
func (s *Service) Forecast(ctx context.Context, now time.Time) (Forecast, error) {
	var leads []domain.Lead
	if err := s.store.ListAll(ctx, store.Leads, &leads); err != nil {
		s.log.DatabaseError("forecast.list_leads", err)
		return Forecast{}, err
	}
	return Compute(s.policy.Forecast, s.policy.BusinessHours.Location(), now, leads), nil
}

// Module is the forecast module implementing http.Module.
type Module struct {
	svc *Service
}

// NewModule creates the forecast module.
func NewModule(svc *Service) *Module {
	return &Module{svc: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "forecast"
}

// RegisterRoutes mounts forecast routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/forecast", m.get)
}

// GET /api/v1/forecast
func (m *Module) get(c *gin.Context) {
	f, err := m.svc.Forecast(c.Request.Context(), time.Now().UTC())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, f)
}

var _ apphttp.Module = (*Module)(nil)
