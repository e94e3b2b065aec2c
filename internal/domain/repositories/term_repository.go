package repositories

import (
	"context"

	"github.com/retrovault/storefront-backend/internal/domain/entities"
)

// TermIndexRepository owns the terms and entity_terms tables. All maintenance
// operations run inside a single transaction so a crash leaves either the old
// or the new index state, never a mix.
type TermIndexRepository interface {
	// ReplaceEntityTerms deletes every existing term link for the entity,
	// find-or-creates each term, inserts fresh links with per-field counts and
	// increments each term's document frequency, atomically.
	ReplaceEntityTerms(ctx context.Context, kind entities.EntityKind, entityID string, counts []entities.TermCounts) error

	// RemoveEntityTerms deletes the entity's term links and decrements each
	// linked term's document frequency, clamped at zero, atomically.
	RemoveEntityTerms(ctx context.Context, kind entities.EntityKind, entityID string) error

	// TruncateAll removes every term link of the kind and resets document
	// frequencies to zero. Offline reindex path.
	TruncateAll(ctx context.Context, kind entities.EntityKind) error

	// MatchingTerms returns the term rows for the given normalized tokens.
	MatchingTerms(ctx context.Context, kind entities.EntityKind, terms []string) ([]*entities.Term, error)

	// BumpSearchStats increments search_weight and refreshes last_searched_at
	// on every matching term row.
	BumpSearchStats(ctx context.Context, kind entities.EntityKind, terms []string) error

	// EntityTermHits returns the (entity, matched term) scoring rows for the
	// candidate set in one query.
	EntityTermHits(ctx context.Context, kind entities.EntityKind, entityIDs []string, termIDs []int64) ([]entities.TermHit, error)
}
