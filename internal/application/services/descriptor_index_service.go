package services

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/retrovault/storefront-backend/internal/adapters/search"
	"github.com/retrovault/storefront-backend/internal/domain/entities"
	"github.com/retrovault/storefront-backend/internal/domain/repositories"
	"github.com/retrovault/storefront-backend/internal/infrastructure/observability"
	"github.com/retrovault/storefront-backend/pkg/config"
)

// DescriptorIndexService tags entities with weighted semantic descriptors
// derived from their text fields.
type DescriptorIndexService struct {
	tok     *search.Tokenizer
	mapper  *search.DescriptorMapper
	repo    repositories.DescriptorRepository
	catalog repositories.CatalogRepository
	cfg     *config.RankingLoader
}

func NewDescriptorIndexService(tok *search.Tokenizer, mapper *search.DescriptorMapper, repo repositories.DescriptorRepository, catalog repositories.CatalogRepository, cfg *config.RankingLoader) *DescriptorIndexService {
	return &DescriptorIndexService{
		tok:     tok,
		mapper:  mapper,
		repo:    repo,
		catalog: catalog,
		cfg:     cfg,
	}
}

// IndexEntity resolves every token of every weighted field to a descriptor
// key, accumulates field-boosted scores per key and replaces the entity's
// descriptor rows.
func (s *DescriptorIndexService) IndexEntity(ctx context.Context, doc *entities.Document) error {
	start := time.Now()

	scores := s.descriptorScores(doc)
	if err := s.repo.ReplaceEntityDescriptors(ctx, doc.Kind, doc.ID, scores); err != nil {
		return err
	}

	observability.RecordIndexMetric(ctx, "descriptor_index", time.Since(start))
	return nil
}

// RemoveEntity drops the entity's descriptor rows. Descriptor definitions
// themselves stay behind.
func (s *DescriptorIndexService) RemoveEntity(ctx context.Context, kind entities.EntityKind, entityID string) error {
	return s.repo.RemoveEntityDescriptors(ctx, kind, entityID)
}

// ReindexAll truncates the kind's descriptor rows and rebuilds them by
// streaming every entity in batches.
func (s *DescriptorIndexService) ReindexAll(ctx context.Context) error {
	kind := s.catalog.Kind()
	if err := s.repo.TruncateAll(ctx, kind); err != nil {
		return err
	}

	afterID := ""
	indexed := 0
	for {
		docs, err := s.catalog.ListDocuments(ctx, afterID, reindexBatchSize)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			break
		}

		for i := range docs {
			if err := s.IndexEntity(ctx, &docs[i]); err != nil {
				return err
			}
			indexed++
		}
		afterID = docs[len(docs)-1].ID
	}

	log.Info().
		Str("entity_type", string(kind)).
		Int("indexed", indexed).
		Msg("descriptor index rebuild complete")
	return nil
}

// descriptorScores buckets field-boosted scores per resolved descriptor key.
// Keys come back sorted so re-indexing the same document writes rows in a
// stable order.
func (s *DescriptorIndexService) descriptorScores(doc *entities.Document) []entities.DescriptorScore {
	boosts := s.cfg.Ranking().ForKind(string(doc.Kind)).DescriptorBoosts

	bucket := make(map[string]float64)
	accumulate := func(field string, boost float64) {
		for _, token := range s.tok.Terms(field) {
			res, ok := s.mapper.Resolve(token)
			if !ok {
				continue
			}
			bucket[res.Key] += boost
		}
	}
	accumulate(doc.Primary, boosts.Primary)
	accumulate(doc.Identifier, boosts.Identifier)
	accumulate(doc.Description, boosts.Description)

	keys := make([]string, 0, len(bucket))
	for key := range bucket {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	scores := make([]entities.DescriptorScore, 0, len(keys))
	for _, key := range keys {
		scores = append(scores, entities.DescriptorScore{Key: key, Score: bucket[key]})
	}
	return scores
}
