package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/retrovault/storefront-backend/internal/adapters/search"
	"github.com/retrovault/storefront-backend/internal/domain/entities"
	"github.com/retrovault/storefront-backend/internal/domain/repositories"
	"github.com/retrovault/storefront-backend/internal/infrastructure/observability"
)

const reindexBatchSize = 200

// TermIndexService maintains the inverted term index for one entity kind.
// Indexing is synchronous and inline with the entity write that triggered it.
type TermIndexService struct {
	tok     *search.Tokenizer
	repo    repositories.TermIndexRepository
	catalog repositories.CatalogRepository
}

func NewTermIndexService(tok *search.Tokenizer, repo repositories.TermIndexRepository, catalog repositories.CatalogRepository) *TermIndexService {
	return &TermIndexService{
		tok:     tok,
		repo:    repo,
		catalog: catalog,
	}
}

// IndexEntity tokenizes each weighted field of the document separately and
// replaces the entity's term links with fresh per-field occurrence counts.
func (s *TermIndexService) IndexEntity(ctx context.Context, doc *entities.Document) error {
	start := time.Now()

	counts := s.termCounts(doc)
	if err := s.repo.ReplaceEntityTerms(ctx, doc.Kind, doc.ID, counts); err != nil {
		return err
	}

	observability.RecordIndexMetric(ctx, "term_index", time.Since(start))
	return nil
}

// RemoveEntity drops the entity's term links and decrements document
// frequencies.
func (s *TermIndexService) RemoveEntity(ctx context.Context, kind entities.EntityKind, entityID string) error {
	return s.repo.RemoveEntityTerms(ctx, kind, entityID)
}

// ReindexAll truncates the kind's term links and rebuilds them by streaming
// every entity in batches. Offline path; idempotent and safe to re-run.
func (s *TermIndexService) ReindexAll(ctx context.Context) error {
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
		Msg("term index rebuild complete")
	return nil
}

// termCounts computes, for every term appearing in at least one field, its
// word-boundary occurrence count in each field. First-seen term order is
// preserved.
func (s *TermIndexService) termCounts(doc *entities.Document) []entities.TermCounts {
	var order []string
	seen := make(map[string]bool)
	for _, field := range []string{doc.Primary, doc.Identifier, doc.Description} {
		for _, term := range s.tok.Terms(field) {
			if !seen[term] {
				seen[term] = true
				order = append(order, term)
			}
		}
	}

	counts := make([]entities.TermCounts, 0, len(order))
	for _, term := range order {
		counts = append(counts, entities.TermCounts{
			Term:          term,
			InPrimary:     s.tok.Occurrences(doc.Primary, term),
			InIdentifier:  s.tok.Occurrences(doc.Identifier, term),
			InDescription: s.tok.Occurrences(doc.Description, term),
		})
	}
	return counts
}
