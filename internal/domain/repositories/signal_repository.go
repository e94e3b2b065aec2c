package repositories

import (
	"context"

	"github.com/retrovault/storefront-backend/internal/domain/entities"
)

// SignalRepository owns the user_signals and user_descriptor_affinity tables.
type SignalRepository interface {
	// UpsertSignal creates or increments the signal row for the interaction,
	// bumping the counter matching sig by qty and refreshing
	// last_interacted_at.
	UpsertSignal(ctx context.Context, userID string, kind entities.EntityKind, entityID string, sig entities.SignalKind, qty int64) error

	// BumpImpressions batch-upserts signal rows incrementing impressions only.
	BumpImpressions(ctx context.Context, userID string, kind entities.EntityKind, entityIDs []string) error

	// SignalsForUser returns the user's signal rows for the candidate set,
	// keyed by entity id.
	SignalsForUser(ctx context.Context, userID string, kind entities.EntityKind, entityIDs []string) (map[string]*entities.UserSignal, error)

	// AddAffinity applies the per-descriptor deltas to the user's affinity
	// profile, flooring every resulting score at zero.
	AddAffinity(ctx context.Context, userID string, deltas map[string]float64) error

	// AffinityProfile returns the user's full descriptor affinity map.
	AffinityProfile(ctx context.Context, userID string) (map[string]float64, error)
}
