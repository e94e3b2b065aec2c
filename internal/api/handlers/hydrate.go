package handlers

import (
	"context"

	"github.com/retrovault/storefront-backend/internal/domain/repositories"
)

// Hydrator turns a ranked ID list into full records, preserving rank order.
// Entities that vanished since indexing are skipped silently; a stale index
// row must never fail the whole request.
type Hydrator func(ctx context.Context, ids []string) ([]interface{}, error)

// NewProductHydrator builds a Hydrator over the product repository.
func NewProductHydrator(repo repositories.ProductRepository) Hydrator {
	return func(ctx context.Context, ids []string) ([]interface{}, error) {
		if len(ids) == 0 {
			return []interface{}{}, nil
		}
		products, err := repo.ListByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		byID := make(map[string]interface{}, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}
		return inRankOrder(ids, byID), nil
	}
}

// NewEventHydrator builds a Hydrator over the event repository.
func NewEventHydrator(repo repositories.EventRepository) Hydrator {
	return func(ctx context.Context, ids []string) ([]interface{}, error) {
		if len(ids) == 0 {
			return []interface{}{}, nil
		}
		events, err := repo.ListByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		byID := make(map[string]interface{}, len(events))
		for _, e := range events {
			byID[e.ID] = e
		}
		return inRankOrder(ids, byID), nil
	}
}

func inRankOrder(ids []string, byID map[string]interface{}) []interface{} {
	items := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			items = append(items, item)
		}
	}
	return items
}
