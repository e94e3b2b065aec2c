package routes

import (
	"net/http"

	"github.com/retrovault/storefront-backend/internal/api/handlers"
	"github.com/retrovault/storefront-backend/internal/api/middleware"
	"github.com/retrovault/storefront-backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	products *handlers.CatalogHandler
	events   *handlers.CatalogHandler

	analyticsHandler *handlers.AnalyticsHandler
	adminHandler     *handlers.AdminHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
	allowedOrigins  []string
}

// NewRouter creates a new router
func NewRouter(
	products *handlers.CatalogHandler,
	events *handlers.CatalogHandler,
	analyticsHandler *handlers.AnalyticsHandler,
	adminHandler *handlers.AdminHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
	allowedOrigins []string,
) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		products:         products,
		events:           events,
		analyticsHandler: analyticsHandler,
		adminHandler:     adminHandler,
		cacheMiddleware:  cacheMiddleware,
		metrics:          metrics,
		allowedOrigins:   allowedOrigins,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Ranked read surfaces, one route group per entity kind
	r.registerCatalog("products", r.products)
	r.registerCatalog("events", r.events)

	// Analytics endpoints
	r.mux.HandleFunc("GET /api/search/zero-results", r.analyticsHandler.ZeroResultQueries)

	// Admin endpoints: ranking reload plus the index hooks the CRUD layer calls
	r.mux.HandleFunc("POST /api/admin/ranking/reload", r.adminHandler.ReloadRanking)
	r.mux.HandleFunc("POST /api/admin/{kind}/{id}/reindex", r.adminHandler.ReindexEntity)
	r.mux.HandleFunc("DELETE /api/admin/{kind}/{id}/index", r.adminHandler.RemoveEntityIndex)

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}

func (r *Router) registerCatalog(prefix string, h *handlers.CatalogHandler) {
	r.mux.HandleFunc("GET /api/"+prefix+"/search", h.Search)
	r.mux.HandleFunc("GET /api/"+prefix+"/trending", h.Trending)
	r.mux.HandleFunc("GET /api/"+prefix+"/feed", h.Feed)
	r.mux.HandleFunc("GET /api/"+prefix+"/{id}", h.Get)
	r.mux.HandleFunc("POST /api/"+prefix+"/{id}/signals", h.RecordSignal)
	r.mux.HandleFunc("POST /api/"+prefix+"/impressions", h.Impressions)
	r.mux.HandleFunc("POST /api/"+prefix+"/{id}/click", h.Click)
}
