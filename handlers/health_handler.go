package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/upb/quote-gateway/utils"
	"go.uber.org/zap"
)

// Version is reported by the status endpoint
var Version = "0.1.0"

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// StatusResponse describes the running gateway
type StatusResponse struct {
	Version     string   `json:"version"`
	Environment string   `json:"environment"`
	Providers   []string `json:"providers"`
}

// ProviderLister lists registered carriers
type ProviderLister interface {
	List() []string
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db          *sql.DB
	providers   ProviderLister
	environment string
	logger      *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. db may be nil when the
// notification outbox is disabled.
func NewHealthHandler(db *sql.DB, providers ProviderLister, environment string, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:          db,
		providers:   providers,
		environment: environment,
		logger:      logger,
	}
}

// HandleHealth handles GET /healthz
// Basic health check - always returns 200 if service is running
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = utils.WriteOK(w, response)
}

// HandleReadiness handles GET /readyz
// Readiness check - validates that all dependencies are available
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	// Check database connectivity
	if h.db == nil {
		checks["database"] = "not_configured"
	} else if err := h.checkDatabase(ctx); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		checks["database"] = "unhealthy"
		allHealthy = false
	} else {
		checks["database"] = "healthy"
	}

	if h.providers == nil || len(h.providers.List()) == 0 {
		checks["providers"] = "none_configured"
	} else {
		checks["providers"] = "configured"
	}

	// Determine overall status
	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if err := utils.WriteJSON(w, httpStatus, utils.SuccessResponse{Data: response}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

// HandleStatus handles GET /status
func (h *HealthHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	providers := []string{}
	if h.providers != nil {
		providers = h.providers.List()
	}

	_ = utils.WriteOK(w, StatusResponse{
		Version:     Version,
		Environment: h.environment,
		Providers:   providers,
	})
}

// checkDatabase checks database connectivity
func (h *HealthHandler) checkDatabase(ctx context.Context) error {
	// Ping database with timeout
	if err := h.db.PingContext(ctx); err != nil {
		return err
	}

	// Check if we can execute a simple query
	var result int
	if err := h.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return err
	}

	return nil
}
