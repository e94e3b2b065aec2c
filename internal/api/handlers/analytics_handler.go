package handlers

import (
	"net/http"
	"strconv"

	"github.com/retrovault/storefront-backend/internal/application/services"
	"github.com/retrovault/storefront-backend/internal/domain/entities"
)

// AnalyticsHandler serves search telemetry reports.
type AnalyticsHandler struct {
	analytics *services.SearchAnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analytics *services.SearchAnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// ZeroResultQueries handles GET /api/search/zero-results
func (h *AnalyticsHandler) ZeroResultQueries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	kind := entities.EntityKindProduct
	if segment := q.Get("kind"); segment != "" {
		parsed, ok := kindFromPath(segment)
		if !ok {
			respondWithError(w, http.StatusBadRequest, "unknown entity kind")
			return
		}
		kind = parsed
	}

	limit, _ := strconv.Atoi(q.Get("limit"))

	queries, err := h.analytics.ZeroResultQueries(r.Context(), kind, limit)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"queries": queries,
		"count":   len(queries),
	})
}
