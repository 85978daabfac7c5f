// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"dealer_crm_backend/internal/events"
	"dealer_crm_backend/internal/policy"
	"dealer_crm_backend/platform/config"
	"dealer_crm_backend/platform/logger"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// SweepTrigger enqueues an out-of-band SLA sweep.
type SweepTrigger interface {
	EnqueueSLASweep(ctx context.Context, triggeredBy string) error
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the router configuration (HTTP and JWT settings only).
	Config RouterConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Health is used for readiness checks. Nil means always healthy.
	Health HealthChecker
	// EventBus is the domain event bus for cross-module communication.
	EventBus events.Bus
	// Policy is the active dealership policy, exposed read-only to admins.
	Policy policy.Policy
	// Sweeps is optional; without it the manual sweep endpoint is not mounted.
	Sweeps SweepTrigger
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
