package routes

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/upb/quote-gateway/app"
	"github.com/upb/quote-gateway/handlers"
	gwmiddleware "github.com/upb/quote-gateway/middleware"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(gwmiddleware.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	var db *sql.DB
	if deps.DB != nil {
		db = deps.DB.DB
	}
	health := handlers.NewHealthHandler(db, deps.Registry, deps.Config.Environment, deps.Logger)
	providers := handlers.NewProviderHandler(deps.Registry, deps.Logger)
	quotes := handlers.NewQuoteHandler(deps.Quotes, deps.Logger)
	policies := handlers.NewPolicyHandler(deps.Policies, deps.Logger)
	webhooks := handlers.NewWebhookHandler(deps.Reconciler, deps.Logger)

	// Health check endpoints
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)
	r.Get("/status", health.HandleStatus)

	if deps.Config.Observability.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Get("/providers", providers.HandleListProviders)

	r.Route("/quotes", func(r chi.Router) {
		r.Post("/request", quotes.HandleRequestQuotes)
		r.Post("/{carrier}", quotes.HandleCarrierQuote)
	})

	r.Route("/policies", func(r chi.Router) {
		r.Post("/purchase", policies.HandlePurchasePolicy)
		r.Route("/{carrier}/{policyNumber}", func(r chi.Router) {
			r.Get("/", policies.HandleGetPolicy)
			r.Post("/cancel", policies.HandleCancelPolicy)
			r.Get("/documents", policies.HandleGetDocuments)
		})
	})

	// Carrier callbacks
	r.Post("/webhooks/{carrier}", webhooks.HandleWebhook)

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
