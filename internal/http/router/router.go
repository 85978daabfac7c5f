// Package router assembles the gin engine from the application's modules.
package router

import (
	"context"
	"net/http"
	"time"

	apphttp "dealer_crm_backend/internal/http"
	"dealer_crm_backend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

// New builds the engine, mounts the shared groups and lets each module register itself.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(cors.New(corsConfig(app.Config)))

	engine.GET("/api/health", healthHandler(app.Health))

	v1 := engine.Group("/api/v1")
	auth := httpkit.AuthRequired(app.Config)
	protected := v1.Group("")
	protected.Use(auth)
	admin := protected.Group("/admin")
	admin.Use(httpkit.RequireRole("admin"))

	ctx := &apphttp.RouterContext{
		Engine:          engine,
		V1:              v1,
		Protected:       protected,
		Admin:           admin,
		Config:          app.Config,
		AuthMiddleware:  auth,
		IntakeRateLimit: httpkit.NewIntakeRateLimiter(app.Logger).RateLimit(),
	}

	registerAdminRoutes(admin, app)

	for _, module := range app.Modules {
		module.RegisterRoutes(ctx)
		app.Logger.Info("module registered", "module", module.Name())
	}

	return engine
}

func corsConfig(cfg apphttp.RouterConfig) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: cfg.GetCORSAllowCreds(),
		MaxAge:           12 * time.Hour,
	}
	if cfg.GetCORSAllowAll() || len(cfg.GetCORSOrigins()) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.GetCORSOrigins()
	}
	return corsCfg
}

func healthHandler(health apphttp.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
			defer cancel()
			if err := health.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func registerAdminRoutes(admin *gin.RouterGroup, app *apphttp.App) {
	// GET /api/v1/admin/policy
	admin.GET("/policy", func(c *gin.Context) {
		httpkit.OK(c, app.Policy)
	})

	if app.Sweeps == nil {
		return
	}
	// POST /api/v1/admin/sla/sweep
	admin.POST("/sla/sweep", func(c *gin.Context) {
		identity := httpkit.GetIdentity(c)
		if err := app.Sweeps.EnqueueSLASweep(c.Request.Context(), "admin:"+identity.UserID().String()); err != nil {
			app.Logger.Error("failed to enqueue sla sweep", "error", err)
			httpkit.Error(c, http.StatusServiceUnavailable, "sweep could not be queued", nil)
			return
		}
		httpkit.JSON(c, http.StatusAccepted, gin.H{"queued": true})
	})
}
