package database

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/retrovault/storefront-backend/internal/domain/entities"
	"github.com/retrovault/storefront-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/retrovault/storefront-backend/pkg/errors"
)

// SignalAdapter implements SignalRepository over the user_signals and
// user_descriptor_affinity tables.
type SignalAdapter struct {
	client *postgres.Client
}

// NewSignalAdapter creates a new signal adapter
func NewSignalAdapter(client *postgres.Client) *SignalAdapter {
	return &SignalAdapter{client: client}
}

// signalColumn maps a signal kind to the counter it increments.
func signalColumn(sig entities.SignalKind) (string, error) {
	switch sig {
	case entities.SignalView:
		return "views", nil
	case entities.SignalAdd:
		return "adds", nil
	case entities.SignalPurchase:
		return "purchases", nil
	}
	return "", apperrors.NewValidationError(fmt.Sprintf("unknown signal kind %q", sig))
}

// UpsertSignal creates or increments the signal row for one interaction.
func (a *SignalAdapter) UpsertSignal(ctx context.Context, userID string, kind entities.EntityKind, entityID string, sig entities.SignalKind, qty int64) error {
	column, err := signalColumn(sig)
	if err != nil {
		return err
	}
	if qty <= 0 {
		qty = 1
	}

	query := fmt.Sprintf(`
		INSERT INTO user_signals (user_id, entity_type, entity_id, %[1]s, last_interacted_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id, entity_type, entity_id) DO UPDATE
		SET %[1]s = user_signals.%[1]s + $4, last_interacted_at = NOW()
	`, column)

	if _, err := a.client.DB().ExecContext(ctx, query, userID, string(kind), entityID, qty); err != nil {
		return apperrors.NewInternalError("failed to upsert user signal", err)
	}
	return nil
}

// BumpImpressions batch-upserts signal rows incrementing impressions only.
// Impressions do not touch last_interacted_at.
func (a *SignalAdapter) BumpImpressions(ctx context.Context, userID string, kind entities.EntityKind, entityIDs []string) error {
	if len(entityIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO user_signals (user_id, entity_type, entity_id, impressions)
		SELECT $1, $2, unnest($3::text[]), 1
		ON CONFLICT (user_id, entity_type, entity_id) DO UPDATE
		SET impressions = user_signals.impressions + 1
	`
	if _, err := a.client.DB().ExecContext(ctx, query, userID, string(kind), pq.Array(entityIDs)); err != nil {
		return apperrors.NewInternalError("failed to bump impressions", err)
	}
	return nil
}

// SignalsForUser returns the user's signal rows for the candidate set.
func (a *SignalAdapter) SignalsForUser(ctx context.Context, userID string, kind entities.EntityKind, entityIDs []string) (map[string]*entities.UserSignal, error) {
	signals := make(map[string]*entities.UserSignal)
	if len(entityIDs) == 0 {
		return signals, nil
	}

	rows, err := a.client.DB().QueryContext(ctx, `
		SELECT user_id, entity_type, entity_id, impressions, views, adds, purchases, last_interacted_at
		FROM user_signals
		WHERE user_id = $1 AND entity_type = $2 AND entity_id = ANY($3)
	`, userID, string(kind), pq.Array(entityIDs))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query user signals", err)
	}
	defer rows.Close()

	for rows.Next() {
		s := &entities.UserSignal{}
		err := rows.Scan(&s.UserID, &s.Kind, &s.EntityID, &s.Impressions,
			&s.Views, &s.Adds, &s.Purchases, &s.LastInteractedAt)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan user signal", err)
		}
		signals[s.EntityID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating user signals", err)
	}

	return signals, nil
}

// AddAffinity applies per-descriptor deltas to the user's affinity profile.
// Scores floor at zero so negative deltas can never drive a key below it.
func (a *SignalAdapter) AddAffinity(ctx context.Context, userID string, deltas map[string]float64) error {
	if len(deltas) == 0 {
		return nil
	}

	tx, err := a.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewInternalError("failed to begin affinity transaction", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO user_descriptor_affinity (user_id, descriptor_key, score, updated_at)
		VALUES ($1, $2, GREATEST(0, $3::numeric), NOW())
		ON CONFLICT (user_id, descriptor_key) DO UPDATE
		SET score = GREATEST(0, user_descriptor_affinity.score + $3), updated_at = NOW()
	`
	for key, delta := range deltas {
		if _, err := tx.ExecContext(ctx, query, userID, key, delta); err != nil {
			return apperrors.NewInternalError("failed to upsert descriptor affinity", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit affinity transaction", err)
	}
	return nil
}

// AffinityProfile returns the user's full descriptor affinity map.
func (a *SignalAdapter) AffinityProfile(ctx context.Context, userID string) (map[string]float64, error) {
	rows, err := a.client.DB().QueryContext(ctx, `
		SELECT descriptor_key, score
		FROM user_descriptor_affinity
		WHERE user_id = $1 AND score > 0
	`, userID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query affinity profile", err)
	}
	defer rows.Close()

	profile := make(map[string]float64)
	for rows.Next() {
		var key string
		var score float64
		if err := rows.Scan(&key, &score); err != nil {
			return nil, apperrors.NewInternalError("failed to scan affinity row", err)
		}
		profile[key] = score
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating affinity profile", err)
	}

	return profile, nil
}
