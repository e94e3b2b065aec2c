package repositories

import (
	"context"

	"github.com/retrovault/storefront-backend/internal/domain/entities"
)

// SearchLogRepository owns the append-only search telemetry tables.
type SearchLogRepository interface {
	// LogQuery inserts the query log row and returns its id so the results
	// count can be back-filled after scoring.
	LogQuery(ctx context.Context, log *entities.SearchQueryLog) (string, error)

	// SetResultsCount back-fills the logged query's result count.
	SetResultsCount(ctx context.Context, id string, count int) error

	// LogClick appends one click-tracking row.
	LogClick(ctx context.Context, click *entities.SearchClick) error

	// ZeroResultQueries returns the most recent queries that matched nothing.
	ZeroResultQueries(ctx context.Context, kind entities.EntityKind, limit int) ([]*entities.SearchQueryLog, error)
}
