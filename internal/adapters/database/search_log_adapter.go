package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/retrovault/storefront-backend/internal/domain/entities"
	"github.com/retrovault/storefront-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/retrovault/storefront-backend/pkg/errors"
)

// SearchLogAdapter implements SearchLogRepository over the search_queries and
// search_clicks tables.
type SearchLogAdapter struct {
	client *postgres.Client
}

// NewSearchLogAdapter creates a new search log adapter
func NewSearchLogAdapter(client *postgres.Client) *SearchLogAdapter {
	return &SearchLogAdapter{client: client}
}

// LogQuery inserts the query log row and returns its id.
func (a *SearchLogAdapter) LogQuery(ctx context.Context, log *entities.SearchQueryLog) (string, error) {
	id := uuid.New().String()
	_, err := a.client.DB().ExecContext(ctx, `
		INSERT INTO search_queries (id, entity_type, query, terms, results_count, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`, id, string(log.Kind), log.Query, pq.Array(log.Terms), log.ResultsCount)
	if err != nil {
		return "", apperrors.NewInternalError("failed to log search query", err)
	}
	return id, nil
}

// SetResultsCount back-fills the logged query's result count.
func (a *SearchLogAdapter) SetResultsCount(ctx context.Context, id string, count int) error {
	_, err := a.client.DB().ExecContext(ctx,
		`UPDATE search_queries SET results_count = $2 WHERE id = $1`, id, count)
	if err != nil {
		return apperrors.NewInternalError("failed to set results count", err)
	}
	return nil
}

// LogClick appends one click-tracking row.
func (a *SearchLogAdapter) LogClick(ctx context.Context, click *entities.SearchClick) error {
	_, err := a.client.DB().ExecContext(ctx, `
		INSERT INTO search_clicks (id, entity_type, entity_id, query, terms, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, uuid.New().String(), string(click.Kind), click.EntityID, click.Query,
		pq.Array(click.Terms), click.Source)
	if err != nil {
		return apperrors.NewInternalError("failed to log search click", err)
	}
	return nil
}

// ZeroResultQueries returns the most recent queries that matched nothing.
func (a *SearchLogAdapter) ZeroResultQueries(ctx context.Context, kind entities.EntityKind, limit int) ([]*entities.SearchQueryLog, error) {
	rows, err := a.client.DB().QueryContext(ctx, `
		SELECT id, entity_type, query, terms, results_count, created_at
		FROM search_queries
		WHERE entity_type = $1 AND results_count = 0
		ORDER BY created_at DESC
		LIMIT $2
	`, string(kind), limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query zero-result searches", err)
	}
	defer rows.Close()

	var logs []*entities.SearchQueryLog
	for rows.Next() {
		l := &entities.SearchQueryLog{}
		err := rows.Scan(&l.ID, &l.Kind, &l.Query, pq.Array(&l.Terms), &l.ResultsCount, &l.CreatedAt)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan search query log", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating search query logs", err)
	}

	return logs, nil
}
