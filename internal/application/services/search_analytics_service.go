package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/retrovault/storefront-backend/internal/adapters/search"
	"github.com/retrovault/storefront-backend/internal/domain/entities"
	"github.com/retrovault/storefront-backend/internal/domain/repositories"
)

// SearchAnalyticsService owns click tracking and zero-result query reporting
// over the append-only search telemetry tables.
type SearchAnalyticsService struct {
	logRepo  repositories.SearchLogRepository
	catalogs map[entities.EntityKind]repositories.CatalogRepository
	tok      *search.Tokenizer
}

func NewSearchAnalyticsService(logRepo repositories.SearchLogRepository, catalogs map[entities.EntityKind]repositories.CatalogRepository, tok *search.Tokenizer) *SearchAnalyticsService {
	return &SearchAnalyticsService{
		logRepo:  logRepo,
		catalogs: catalogs,
		tok:      tok,
	}
}

// TrackClick records one result click and bumps the entity's click counter.
// Fired from a best-effort browser beacon, so it runs in the background and
// never blocks or fails the request.
func (s *SearchAnalyticsService) TrackClick(kind entities.EntityKind, entityID, query, source string) {
	terms := s.tok.Terms(query)

	go func() {
		// Fresh context: the request context is gone by the time this runs.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := s.logRepo.LogClick(ctx, &entities.SearchClick{
			Kind:     kind,
			EntityID: entityID,
			Query:    query,
			Terms:    terms,
			Source:   source,
		})
		if err != nil {
			log.Warn().Err(err).Str("entity_id", entityID).Msg("failed to log search click")
		}

		if catalog, ok := s.catalogs[kind]; ok {
			if err := catalog.IncrementClicks(ctx, entityID); err != nil {
				log.Warn().Err(err).Str("entity_id", entityID).Msg("failed to increment click counter")
			}
		}
	}()
}

// ZeroResultQueries returns the most recent queries that matched nothing,
// the raw material for alias-table tuning.
func (s *SearchAnalyticsService) ZeroResultQueries(ctx context.Context, kind entities.EntityKind, limit int) ([]*entities.SearchQueryLog, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}
	return s.logRepo.ZeroResultQueries(ctx, kind, limit)
}
