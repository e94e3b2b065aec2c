package repositories

import (
	"context"

	"github.com/retrovault/storefront-backend/internal/domain/entities"
)

// DescriptorRepository owns the descriptors and entity_descriptors tables.
type DescriptorRepository interface {
	// ReplaceEntityDescriptors deletes the entity's descriptor rows,
	// find-or-creates each descriptor (label = capitalized key, weight 1.0)
	// and inserts the accumulated scores, atomically.
	ReplaceEntityDescriptors(ctx context.Context, kind entities.EntityKind, entityID string, scores []entities.DescriptorScore) error

	// RemoveEntityDescriptors deletes the entity's descriptor rows.
	RemoveEntityDescriptors(ctx context.Context, kind entities.EntityKind, entityID string) error

	// TruncateAll removes every entity-descriptor row of the kind. Offline
	// reindex path; descriptor rows themselves are never deleted.
	TruncateAll(ctx context.Context, kind entities.EntityKind) error

	// WeightedScoreSums returns, per entity, the total weight*score across all
	// of its descriptors. Entities with no descriptors are absent from the map.
	WeightedScoreSums(ctx context.Context, kind entities.EntityKind, entityIDs []string) (map[string]float64, error)

	// EntityDescriptorScores returns each entity's descriptor scores for the
	// personalization overlap computations.
	EntityDescriptorScores(ctx context.Context, kind entities.EntityKind, entityIDs []string) (map[string][]entities.DescriptorScore, error)

	// DescriptorScoresFor returns one entity's descriptor scores.
	DescriptorScoresFor(ctx context.Context, kind entities.EntityKind, entityID string) ([]entities.DescriptorScore, error)
}
