package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/retrovault/storefront-backend/internal/application/services"
	"github.com/retrovault/storefront-backend/internal/domain/entities"
	"github.com/retrovault/storefront-backend/pkg/config"
)

// AdminHandler exposes the index-maintenance hooks and the ranking config
// reload. These sit behind the gateway's admin policy, not end-user auth.
type AdminHandler struct {
	ranking  *config.RankingLoader
	indexers map[entities.EntityKind]*services.IndexingService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(ranking *config.RankingLoader, indexers map[entities.EntityKind]*services.IndexingService) *AdminHandler {
	return &AdminHandler{
		ranking:  ranking,
		indexers: indexers,
	}
}

// ReloadRanking handles POST /api/admin/ranking/reload. A failed reload
// keeps the previous snapshot active.
func (h *AdminHandler) ReloadRanking(w http.ResponseWriter, r *http.Request) {
	if err := h.ranking.Reload(); err != nil {
		log.Error().Err(err).Msg("ranking config reload failed")
		respondWithError(w, http.StatusInternalServerError, "reload failed, previous config still active")
		return
	}

	log.Info().Msg("ranking config reloaded")
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

// ReindexEntity handles POST /api/admin/{kind}/{id}/reindex — the
// saved-entity hook exposed for the external CRUD layer.
func (h *AdminHandler) ReindexEntity(w http.ResponseWriter, r *http.Request) {
	indexer, ok := h.indexerFromPath(r)
	if !ok {
		respondWithError(w, http.StatusNotFound, "unknown entity kind")
		return
	}
	entityID := r.PathValue("id")
	if entityID == "" {
		respondWithError(w, http.StatusBadRequest, "entity ID is required")
		return
	}

	if err := indexer.OnEntitySaved(r.Context(), entityID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "indexed", "id": entityID})
}

// RemoveEntityIndex handles DELETE /api/admin/{kind}/{id}/index — the
// deleted-entity hook.
func (h *AdminHandler) RemoveEntityIndex(w http.ResponseWriter, r *http.Request) {
	indexer, ok := h.indexerFromPath(r)
	if !ok {
		respondWithError(w, http.StatusNotFound, "unknown entity kind")
		return
	}
	entityID := r.PathValue("id")
	if entityID == "" {
		respondWithError(w, http.StatusBadRequest, "entity ID is required")
		return
	}

	if err := indexer.OnEntityDeleted(r.Context(), entityID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) indexerFromPath(r *http.Request) (*services.IndexingService, bool) {
	kind, ok := kindFromPath(r.PathValue("kind"))
	if !ok {
		return nil, false
	}
	indexer, ok := h.indexers[kind]
	return indexer, ok
}

// kindFromPath maps the plural route segment onto the entity kind.
func kindFromPath(segment string) (entities.EntityKind, bool) {
	switch segment {
	case "products":
		return entities.EntityKindProduct, true
	case "events":
		return entities.EntityKindEvent, true
	}
	return "", false
}
