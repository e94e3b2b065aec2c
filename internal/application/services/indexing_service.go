package services

import (
	"context"

	"github.com/retrovault/storefront-backend/internal/domain/entities"
	"github.com/retrovault/storefront-backend/internal/domain/repositories"
)

// IndexingService is the hook surface the external CRUD layer calls after
// every entity save or delete. Both indexes are maintained synchronously so
// the caller observes either the old or the new index state.
type IndexingService struct {
	catalog     repositories.CatalogRepository
	terms       *TermIndexService
	descriptors *DescriptorIndexService
}

func NewIndexingService(catalog repositories.CatalogRepository, terms *TermIndexService, descriptors *DescriptorIndexService) *IndexingService {
	return &IndexingService{
		catalog:     catalog,
		terms:       terms,
		descriptors: descriptors,
	}
}

// OnEntitySaved re-indexes one entity into both the term and descriptor
// indexes.
func (s *IndexingService) OnEntitySaved(ctx context.Context, entityID string) error {
	doc, err := s.catalog.GetDocument(ctx, entityID)
	if err != nil {
		return err
	}
	if err := s.terms.IndexEntity(ctx, doc); err != nil {
		return err
	}
	return s.descriptors.IndexEntity(ctx, doc)
}

// OnEntityDeleted removes the entity from both indexes.
func (s *IndexingService) OnEntityDeleted(ctx context.Context, entityID string) error {
	kind := s.catalog.Kind()
	if err := s.terms.RemoveEntity(ctx, kind, entityID); err != nil {
		return err
	}
	return s.descriptors.RemoveEntity(ctx, kind, entityID)
}

// ReindexAll rebuilds both indexes for the kind from scratch. Offline path.
func (s *IndexingService) ReindexAll(ctx context.Context) error {
	if err := s.terms.ReindexAll(ctx); err != nil {
		return err
	}
	return s.descriptors.ReindexAll(ctx)
}

// Kind reports which entity kind this service indexes.
func (s *IndexingService) Kind() entities.EntityKind {
	return s.catalog.Kind()
}
