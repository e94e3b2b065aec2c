package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"github.com/retrovault/storefront-backend/internal/domain/entities"
	"github.com/retrovault/storefront-backend/internal/domain/repositories"
	"github.com/retrovault/storefront-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/retrovault/storefront-backend/pkg/errors"
)

// TermIndexAdapter implements TermIndexRepository over the terms and
// entity_terms tables.
type TermIndexAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewTermIndexAdapter creates a new term index adapter
func NewTermIndexAdapter(client *postgres.Client) repositories.TermIndexRepository {
	return &TermIndexAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// ReplaceEntityTerms rewrites the entity's term links in one transaction:
// delete all, find-or-create each term, insert fresh per-field counts, bump
// document frequencies.
func (a *TermIndexAdapter) ReplaceEntityTerms(ctx context.Context, kind entities.EntityKind, entityID string, counts []entities.TermCounts) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM entity_terms WHERE entity_type = $1 AND entity_id = $2`,
		kind, entityID,
	)
	if err != nil {
		return apperrors.NewInternalError("failed to clear entity terms", err)
	}

	for _, c := range counts {
		var termID int64
		err = tx.QueryRowContext(ctx, `
			INSERT INTO terms (entity_type, term, df, search_weight)
			VALUES ($1, $2, 0, 0)
			ON CONFLICT (entity_type, term) DO UPDATE SET term = EXCLUDED.term
			RETURNING id
		`, kind, c.Term).Scan(&termID)
		if err != nil {
			return apperrors.NewInternalError("failed to upsert term", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO entity_terms (entity_type, entity_id, term_id, in_primary, in_identifier, in_description)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, kind, entityID, termID, c.InPrimary, c.InIdentifier, c.InDescription)
		if err != nil {
			return apperrors.NewInternalError("failed to insert entity term", err)
		}

		_, err = tx.ExecContext(ctx, `UPDATE terms SET df = df + 1 WHERE id = $1`, termID)
		if err != nil {
			return apperrors.NewInternalError("failed to increment term df", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit term index update", err)
	}
	return nil
}

// RemoveEntityTerms drops the entity's links and decrements each linked
// term's df, clamped at zero, in one transaction.
func (a *TermIndexAdapter) RemoveEntityTerms(ctx context.Context, kind entities.EntityKind, entityID string) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT term_id FROM entity_terms WHERE entity_type = $1 AND entity_id = $2`,
		kind, entityID,
	)
	if err != nil {
		return apperrors.NewInternalError("failed to collect entity term ids", err)
	}

	var termIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return apperrors.NewInternalError("failed to scan term id", err)
		}
		termIDs = append(termIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return apperrors.NewInternalError("error iterating term ids", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM entity_terms WHERE entity_type = $1 AND entity_id = $2`,
		kind, entityID,
	)
	if err != nil {
		return apperrors.NewInternalError("failed to delete entity terms", err)
	}

	if len(termIDs) > 0 {
		_, err = tx.ExecContext(ctx,
			`UPDATE terms SET df = GREATEST(df - 1, 0) WHERE id = ANY($1)`,
			pq.Array(termIDs),
		)
		if err != nil {
			return apperrors.NewInternalError("failed to decrement term df", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit term index removal", err)
	}
	return nil
}

// TruncateAll clears every link of the kind and zeroes document frequencies.
func (a *TermIndexAdapter) TruncateAll(ctx context.Context, kind entities.EntityKind) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entity_terms WHERE entity_type = $1`, kind); err != nil {
		return apperrors.NewInternalError("failed to truncate entity terms", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE terms SET df = 0 WHERE entity_type = $1`, kind); err != nil {
		return apperrors.NewInternalError("failed to reset term df", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit term index truncate", err)
	}
	return nil
}

// MatchingTerms returns the term rows for the given normalized tokens.
func (a *TermIndexAdapter) MatchingTerms(ctx context.Context, kind entities.EntityKind, terms []string) ([]*entities.Term, error) {
	if len(terms) == 0 {
		return []*entities.Term{}, nil
	}

	query, args, err := a.db.Select("id", "entity_type", "term", "df", "search_weight", "last_searched_at").
		From("terms").
		Where(goqu.Ex{"entity_type": string(kind)}, goqu.L("term = ANY(?)", pq.Array(terms))).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get matching terms", err)
	}
	defer rows.Close()

	var result []*entities.Term
	for rows.Next() {
		t := &entities.Term{}
		var lastSearched sql.NullTime
		if err := rows.Scan(&t.ID, &t.Kind, &t.Term, &t.DF, &t.SearchWeight, &lastSearched); err != nil {
			return nil, apperrors.NewInternalError("failed to scan term", err)
		}
		if lastSearched.Valid {
			t.LastSearchedAt = &lastSearched.Time
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating terms", err)
	}

	return result, nil
}

// BumpSearchStats increments search_weight and refreshes last_searched_at on
// every matching term.
func (a *TermIndexAdapter) BumpSearchStats(ctx context.Context, kind entities.EntityKind, terms []string) error {
	if len(terms) == 0 {
		return nil
	}

	_, err := a.client.DB().ExecContext(ctx, `
		UPDATE terms
		SET search_weight = search_weight + 1, last_searched_at = $3
		WHERE entity_type = $1 AND term = ANY($2)
	`, kind, pq.Array(terms), time.Now())
	if err != nil {
		return apperrors.NewInternalError("failed to bump term search stats", err)
	}
	return nil
}

// EntityTermHits returns the per-candidate scoring rows in one query.
func (a *TermIndexAdapter) EntityTermHits(ctx context.Context, kind entities.EntityKind, entityIDs []string, termIDs []int64) ([]entities.TermHit, error) {
	if len(entityIDs) == 0 || len(termIDs) == 0 {
		return []entities.TermHit{}, nil
	}

	rows, err := a.client.DB().QueryContext(ctx, `
		SELECT et.entity_id, et.term_id, t.term, t.search_weight,
		       et.in_primary, et.in_identifier, et.in_description
		FROM entity_terms et
		JOIN terms t ON t.id = et.term_id
		WHERE et.entity_type = $1
		  AND et.entity_id = ANY($2)
		  AND et.term_id = ANY($3)
	`, kind, pq.Array(entityIDs), pq.Array(termIDs))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get entity term hits", err)
	}
	defer rows.Close()

	var hits []entities.TermHit
	for rows.Next() {
		var h entities.TermHit
		err := rows.Scan(&h.EntityID, &h.TermID, &h.Term, &h.SearchWeight,
			&h.InPrimary, &h.InIdentifier, &h.InDescription)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan term hit", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating term hits", err)
	}

	return hits, nil
}
