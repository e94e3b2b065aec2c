package database

import (
	"context"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/retrovault/storefront-backend/internal/domain/entities"
	"github.com/retrovault/storefront-backend/internal/domain/repositories"
	"github.com/retrovault/storefront-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/retrovault/storefront-backend/pkg/errors"
)

// DescriptorAdapter implements DescriptorRepository over the descriptors and
// entity_descriptors tables.
type DescriptorAdapter struct {
	client *postgres.Client
}

// NewDescriptorAdapter creates a new descriptor adapter
func NewDescriptorAdapter(client *postgres.Client) repositories.DescriptorRepository {
	return &DescriptorAdapter{client: client}
}

// ReplaceEntityDescriptors rewrites the entity's descriptor rows in one
// transaction, creating descriptors lazily on first occurrence.
func (a *DescriptorAdapter) ReplaceEntityDescriptors(ctx context.Context, kind entities.EntityKind, entityID string, scores []entities.DescriptorScore) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM entity_descriptors WHERE entity_type = $1 AND entity_id = $2`,
		kind, entityID,
	)
	if err != nil {
		return apperrors.NewInternalError("failed to clear entity descriptors", err)
	}

	now := time.Now()
	for _, s := range scores {
		var descriptorID int64
		err = tx.QueryRowContext(ctx, `
			INSERT INTO descriptors (key, label, weight)
			VALUES ($1, $2, 1.0)
			ON CONFLICT (key) DO UPDATE SET key = EXCLUDED.key
			RETURNING id
		`, s.Key, capitalize(s.Key)).Scan(&descriptorID)
		if err != nil {
			return apperrors.NewInternalError("failed to upsert descriptor", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO entity_descriptors (entity_type, entity_id, descriptor_id, score, source, indexed_at)
			VALUES ($1, $2, $3, $4, 'auto', $5)
		`, kind, entityID, descriptorID, s.Score, now)
		if err != nil {
			return apperrors.NewInternalError("failed to insert entity descriptor", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit descriptor index update", err)
	}
	return nil
}

// RemoveEntityDescriptors deletes the entity's descriptor rows.
func (a *DescriptorAdapter) RemoveEntityDescriptors(ctx context.Context, kind entities.EntityKind, entityID string) error {
	_, err := a.client.DB().ExecContext(ctx,
		`DELETE FROM entity_descriptors WHERE entity_type = $1 AND entity_id = $2`,
		kind, entityID,
	)
	if err != nil {
		return apperrors.NewInternalError("failed to remove entity descriptors", err)
	}
	return nil
}

// TruncateAll removes every entity-descriptor row of the kind. Descriptor
// rows themselves survive.
func (a *DescriptorAdapter) TruncateAll(ctx context.Context, kind entities.EntityKind) error {
	_, err := a.client.DB().ExecContext(ctx,
		`DELETE FROM entity_descriptors WHERE entity_type = $1`, kind,
	)
	if err != nil {
		return apperrors.NewInternalError("failed to truncate entity descriptors", err)
	}
	return nil
}

// WeightedScoreSums returns Σ(weight × score) per entity.
func (a *DescriptorAdapter) WeightedScoreSums(ctx context.Context, kind entities.EntityKind, entityIDs []string) (map[string]float64, error) {
	sums := make(map[string]float64)
	if len(entityIDs) == 0 {
		return sums, nil
	}

	rows, err := a.client.DB().QueryContext(ctx, `
		SELECT ed.entity_id, SUM(ed.score * d.weight)
		FROM entity_descriptors ed
		JOIN descriptors d ON d.id = ed.descriptor_id
		WHERE ed.entity_type = $1 AND ed.entity_id = ANY($2)
		GROUP BY ed.entity_id
	`, kind, pq.Array(entityIDs))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get descriptor score sums", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entityID string
		var sum float64
		if err := rows.Scan(&entityID, &sum); err != nil {
			return nil, apperrors.NewInternalError("failed to scan descriptor sum", err)
		}
		sums[entityID] = sum
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating descriptor sums", err)
	}

	return sums, nil
}

// EntityDescriptorScores returns each entity's descriptor scores.
func (a *DescriptorAdapter) EntityDescriptorScores(ctx context.Context, kind entities.EntityKind, entityIDs []string) (map[string][]entities.DescriptorScore, error) {
	result := make(map[string][]entities.DescriptorScore)
	if len(entityIDs) == 0 {
		return result, nil
	}

	rows, err := a.client.DB().QueryContext(ctx, `
		SELECT ed.entity_id, d.key, d.weight, ed.score
		FROM entity_descriptors ed
		JOIN descriptors d ON d.id = ed.descriptor_id
		WHERE ed.entity_type = $1 AND ed.entity_id = ANY($2)
	`, kind, pq.Array(entityIDs))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get entity descriptor scores", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entityID string
		var s entities.DescriptorScore
		if err := rows.Scan(&entityID, &s.Key, &s.Weight, &s.Score); err != nil {
			return nil, apperrors.NewInternalError("failed to scan descriptor score", err)
		}
		result[entityID] = append(result[entityID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating descriptor scores", err)
	}

	return result, nil
}

// DescriptorScoresFor returns one entity's descriptor scores.
func (a *DescriptorAdapter) DescriptorScoresFor(ctx context.Context, kind entities.EntityKind, entityID string) ([]entities.DescriptorScore, error) {
	byEntity, err := a.EntityDescriptorScores(ctx, kind, []string{entityID})
	if err != nil {
		return nil, err
	}
	return byEntity[entityID], nil
}

func capitalize(key string) string {
	if key == "" {
		return key
	}
	return strings.ToUpper(key[:1]) + key[1:]
}
