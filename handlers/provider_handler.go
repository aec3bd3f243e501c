package handlers

import (
	"net/http"

	"github.com/upb/quote-gateway/services/carriers"
	"github.com/upb/quote-gateway/utils"
	"go.uber.org/zap"
)

// ProviderRegistry is the read side of the carrier registry
type ProviderRegistry interface {
	List() []string
	Configured(name string) (carriers.ProviderConfig, error)
}

// ProviderInfo describes one registered carrier
type ProviderInfo struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
}

// ProviderHandler exposes the carrier registry
type ProviderHandler struct {
	registry ProviderRegistry
	logger   *zap.Logger
}

// NewProviderHandler creates a new ProviderHandler
func NewProviderHandler(registry ProviderRegistry, logger *zap.Logger) *ProviderHandler {
	return &ProviderHandler{
		registry: registry,
		logger:   logger,
	}
}

// HandleListProviders handles GET /providers
func (h *ProviderHandler) HandleListProviders(w http.ResponseWriter, r *http.Request) {
	names := h.registry.List()
	providers := make([]ProviderInfo, 0, len(names))
	for _, name := range names {
		_, err := h.registry.Configured(name)
		providers = append(providers, ProviderInfo{Name: name, Configured: err == nil})
	}

	if err := utils.WriteOK(w, providers); err != nil {
		h.logger.Error("failed to write providers response", zap.Error(err))
	}
}
