package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/retrovault/storefront-backend/internal/domain/entities"
	"github.com/retrovault/storefront-backend/internal/domain/repositories"
	"github.com/retrovault/storefront-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/retrovault/storefront-backend/pkg/errors"
)

const eventColumns = `id, title, location, description, category_id, status, starts_at,
	searches_count, preferences_count, clicks_count, created_at, updated_at`

const eventCandidateColumns = `id, title, location, description, searches_count, preferences_count, clicks_count`

// EventAdapter implements CatalogRepository and EventRepository over the
// events table. Events have no catalog identifier, so the identifier
// candidate pass is a no-op for them.
type EventAdapter struct {
	client *postgres.Client
}

// NewEventAdapter creates a new event adapter
func NewEventAdapter(client *postgres.Client) *EventAdapter {
	return &EventAdapter{client: client}
}

// Kind returns the event entity kind.
func (a *EventAdapter) Kind() entities.EntityKind {
	return entities.EntityKindEvent
}

// GetByID retrieves an event by ID
func (a *EventAdapter) GetByID(ctx context.Context, id string) (*entities.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE id = $1`, eventColumns)

	e := &entities.Event{}
	err := a.client.DB().QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.Title, &e.Location, &e.Description, &e.CategoryID, &e.Status,
		&e.StartsAt, &e.SearchesCount, &e.PreferencesCount, &e.ClicksCount,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("event with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get event", err)
	}
	return e, nil
}

// ListByIDs retrieves events by IDs in no particular order.
func (a *EventAdapter) ListByIDs(ctx context.Context, ids []string) ([]*entities.Event, error) {
	if len(ids) == 0 {
		return []*entities.Event{}, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM events WHERE id = ANY($1)`, eventColumns)
	rows, err := a.client.DB().QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list events by ids", err)
	}
	defer rows.Close()

	var events []*entities.Event
	for rows.Next() {
		e := &entities.Event{}
		err := rows.Scan(
			&e.ID, &e.Title, &e.Location, &e.Description, &e.CategoryID, &e.Status,
			&e.StartsAt, &e.SearchesCount, &e.PreferencesCount, &e.ClicksCount,
			&e.CreatedAt, &e.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan event", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating events", err)
	}

	return events, nil
}

// GetDocument returns the indexing view of one event.
func (a *EventAdapter) GetDocument(ctx context.Context, id string) (*entities.Document, error) {
	doc := &entities.Document{Kind: entities.EntityKindEvent}
	err := a.client.DB().QueryRowContext(ctx,
		`SELECT id, title, location, description FROM events WHERE id = $1`, id,
	).Scan(&doc.ID, &doc.Primary, &doc.Identifier, &doc.Description)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("event with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get event document", err)
	}
	return doc, nil
}

// ListDocuments streams indexing views in stable id order for reindexing.
func (a *EventAdapter) ListDocuments(ctx context.Context, afterID string, limit int) ([]entities.Document, error) {
	rows, err := a.client.DB().QueryContext(ctx, `
		SELECT id, title, location, description
		FROM events
		WHERE id > $1
		ORDER BY id
		LIMIT $2
	`, afterID, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list event documents", err)
	}
	defer rows.Close()

	var docs []entities.Document
	for rows.Next() {
		doc := entities.Document{Kind: entities.EntityKindEvent}
		if err := rows.Scan(&doc.ID, &doc.Primary, &doc.Identifier, &doc.Description); err != nil {
			return nil, apperrors.NewInternalError("failed to scan event document", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating event documents", err)
	}

	return docs, nil
}

// FullTextCandidates retrieves candidates whose title, location or description
// prefix-match the terms.
func (a *EventAdapter) FullTextCandidates(ctx context.Context, terms []string, mode repositories.MatchMode, filter repositories.CatalogFilter, limit int) ([]repositories.Candidate, error) {
	if len(terms) == 0 {
		return []repositories.Candidate{}, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM events
		WHERE to_tsvector('simple', coalesce(title,'') || ' ' || coalesce(location,'') || ' ' || coalesce(description,''))
		      @@ to_tsquery('simple', $1)
	`, eventCandidateColumns)

	args := []interface{}{tsQuery(terms, mode)}
	query, args = appendEventFilters(query, args, filter)
	query += fmt.Sprintf(" ORDER BY id LIMIT $%d", len(args)+1)
	args = append(args, limit)

	return a.queryCandidates(ctx, query, args...)
}

// IdentifierCandidates is a no-op for events; they carry no SKU-like field.
func (a *EventAdapter) IdentifierCandidates(ctx context.Context, terms []string, filter repositories.CatalogFilter, limit int) ([]repositories.Candidate, error) {
	return []repositories.Candidate{}, nil
}

// TermJoinCandidates retrieves candidates through term index links.
func (a *EventAdapter) TermJoinCandidates(ctx context.Context, termIDs []int64, filter repositories.CatalogFilter, limit int) ([]repositories.Candidate, error) {
	if len(termIDs) == 0 {
		return []repositories.Candidate{}, nil
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT %s FROM events e
		JOIN entity_terms et ON et.entity_type = 'event' AND et.entity_id = e.id
		WHERE et.term_id = ANY($1)
	`, prefixColumns(eventCandidateColumns, "e"))

	args := []interface{}{pq.Array(termIDs)}
	query, args = appendPrefixedEventFilters(query, args, filter, "e")
	query += fmt.Sprintf(" ORDER BY e.id LIMIT $%d", len(args)+1)
	args = append(args, limit)

	return a.queryCandidates(ctx, query, args...)
}

// TopByPopularity returns the highest base-scored candidates under the filter.
func (a *EventAdapter) TopByPopularity(ctx context.Context, filter repositories.CatalogFilter, wPreferences, wSearches float64, limit int) ([]repositories.Candidate, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM events
		WHERE TRUE
	`, eventCandidateColumns)

	args := []interface{}{}
	query, args = appendEventFilters(query, args, filter)
	query += fmt.Sprintf(
		" ORDER BY (preferences_count * $%d + searches_count * $%d) DESC, id LIMIT $%d",
		len(args)+1, len(args)+2, len(args)+3,
	)
	args = append(args, wPreferences, wSearches, limit)

	return a.queryCandidates(ctx, query, args...)
}

// IncrementSearches bumps searches_count on the returned page of events.
func (a *EventAdapter) IncrementSearches(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := a.client.DB().ExecContext(ctx,
		`UPDATE events SET searches_count = searches_count + 1 WHERE id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return apperrors.NewInternalError("failed to increment event searches", err)
	}
	return nil
}

// IncrementClicks bumps clicks_count on one event.
func (a *EventAdapter) IncrementClicks(ctx context.Context, id string) error {
	_, err := a.client.DB().ExecContext(ctx,
		`UPDATE events SET clicks_count = clicks_count + 1 WHERE id = $1`, id,
	)
	if err != nil {
		return apperrors.NewInternalError("failed to increment event clicks", err)
	}
	return nil
}

func (a *EventAdapter) queryCandidates(ctx context.Context, query string, args ...interface{}) ([]repositories.Candidate, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query event candidates", err)
	}
	defer rows.Close()

	var candidates []repositories.Candidate
	for rows.Next() {
		var c repositories.Candidate
		err := rows.Scan(&c.ID, &c.Primary, &c.Identifier, &c.Description,
			&c.SearchesCount, &c.PreferencesCount, &c.ClicksCount)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan event candidate", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating event candidates", err)
	}

	return candidates, nil
}

func appendEventFilters(query string, args []interface{}, filter repositories.CatalogFilter) (string, []interface{}) {
	return appendPrefixedEventFilters(query, args, filter, "")
}

// appendPrefixedEventFilters applies the catalog filter; Condition does not
// apply to events and is ignored.
func appendPrefixedEventFilters(query string, args []interface{}, filter repositories.CatalogFilter, alias string) (string, []interface{}) {
	prefix := ""
	if alias != "" {
		prefix = alias + "."
	}
	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		query += fmt.Sprintf(" AND %scategory_id = $%d", prefix, len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND %sstatus = $%d", prefix, len(args))
	}
	return query, args
}
