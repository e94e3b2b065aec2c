package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/retrovault/storefront-backend/internal/application/services"
	"github.com/retrovault/storefront-backend/internal/domain/entities"
	"github.com/retrovault/storefront-backend/internal/domain/repositories"
)

// CatalogHandler serves the ranked read surface for one entity kind. The
// products and events route groups each get their own instance.
type CatalogHandler struct {
	kind      entities.EntityKind
	searchSvc *services.SearchService
	trending  *services.TrendingService
	feed      *services.PersonalizationService
	signals   *services.SignalService
	analytics *services.SearchAnalyticsService
	getEntity func(r *http.Request) (interface{}, error)
	hydrate   Hydrator
}

// NewCatalogHandler creates a catalog handler for one kind.
func NewCatalogHandler(
	kind entities.EntityKind,
	searchSvc *services.SearchService,
	trending *services.TrendingService,
	feed *services.PersonalizationService,
	signals *services.SignalService,
	analytics *services.SearchAnalyticsService,
	getEntity func(r *http.Request) (interface{}, error),
	hydrate Hydrator,
) *CatalogHandler {
	return &CatalogHandler{
		kind:      kind,
		searchSvc: searchSvc,
		trending:  trending,
		feed:      feed,
		signals:   signals,
		analytics: analytics,
		getEntity: getEntity,
		hydrate:   hydrate,
	}
}

// Search handles GET /api/{kind}/search
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, perPage := parsePagination(q.Get("page"), q.Get("per_page"))

	ranked, err := h.searchSvc.Search(r.Context(), userID(r), q.Get("q"), parseFilter(r), page, perPage)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	h.respondRanked(w, r, ranked)
}

// Trending handles GET /api/{kind}/trending
func (h *CatalogHandler) Trending(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, perPage := parsePagination(q.Get("page"), q.Get("per_page"))

	ranked, err := h.trending.List(r.Context(), parseFilter(r), page, perPage)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	h.respondRanked(w, r, ranked)
}

// Feed handles GET /api/{kind}/feed
func (h *CatalogHandler) Feed(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondWithError(w, http.StatusUnauthorized, "X-User-ID header is required")
		return
	}

	q := r.URL.Query()
	page, perPage := parsePagination(q.Get("page"), q.Get("per_page"))

	ranked, err := h.feed.ListForUser(r.Context(), uid, parseFilter(r), page, perPage)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	h.respondRanked(w, r, ranked)
}

// Get handles GET /api/{kind}/{id}
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("id") == "" {
		respondWithError(w, http.StatusBadRequest, "entity ID is required")
		return
	}

	entity, err := h.getEntity(r)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, entity)
}

// RecordSignal handles POST /api/{kind}/{id}/signals
func (h *CatalogHandler) RecordSignal(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondWithError(w, http.StatusUnauthorized, "X-User-ID header is required")
		return
	}

	entityID := r.PathValue("id")
	if entityID == "" {
		respondWithError(w, http.StatusBadRequest, "entity ID is required")
		return
	}

	var body struct {
		Kind string `json:"kind"`
		Qty  int64  `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.signals.Record(r.Context(), uid, h.kind, entityID, entities.SignalKind(body.Kind), body.Qty)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Impressions handles POST /api/{kind}/impressions
func (h *CatalogHandler) Impressions(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondWithError(w, http.StatusUnauthorized, "X-User-ID header is required")
		return
	}

	var body struct {
		EntityIDs []string `json:"entity_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.signals.Impression(r.Context(), uid, h.kind, body.EntityIDs); err != nil {
		respondWithServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Click handles POST /api/{kind}/{id}/click. Fired from a best-effort
// browser beacon: it always answers 204, whatever happens.
func (h *CatalogHandler) Click(w http.ResponseWriter, r *http.Request) {
	entityID := r.PathValue("id")

	var body struct {
		Query  string `json:"q"`
		Source string `json:"source"`
	}
	// Malformed beacon payloads are dropped, not rejected.
	_ = json.NewDecoder(r.Body).Decode(&body)

	if entityID != "" {
		h.analytics.TrackClick(h.kind, entityID, body.Query, body.Source)
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) respondRanked(w http.ResponseWriter, r *http.Request, ranked *services.RankedPage) {
	items, err := h.hydrate(r.Context(), ranked.IDs)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load results")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"items":    items,
		"total":    ranked.Total,
		"page":     ranked.Page,
		"per_page": ranked.PerPage,
	})
}

// parseFilter reads the catalog filters from query parameters. Malformed
// values are treated as absent, never rejected.
func parseFilter(r *http.Request) repositories.CatalogFilter {
	q := r.URL.Query()
	return repositories.CatalogFilter{
		CategoryID: q.Get("category"),
		Status:     q.Get("status"),
		Condition:  q.Get("condition"),
	}
}

func parsePagination(pageStr, perPageStr string) (int, int) {
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	perPage, err := strconv.Atoi(perPageStr)
	if err != nil || perPage < 1 {
		perPage = 20
	}
	return page, perPage
}
