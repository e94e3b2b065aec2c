package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/retrovault/storefront-backend/internal/domain/entities"
	"github.com/retrovault/storefront-backend/internal/domain/repositories"
	"github.com/retrovault/storefront-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/retrovault/storefront-backend/pkg/errors"
)

const productColumns = `id, sku, name, description, category_id, condition, status, price_cents,
	searches_count, preferences_count, clicks_count, created_at, updated_at`

const productCandidateColumns = `id, name, sku, description, searches_count, preferences_count, clicks_count`

// ProductAdapter implements CatalogRepository and ProductRepository over the
// products table.
type ProductAdapter struct {
	client *postgres.Client
}

// NewProductAdapter creates a new product adapter
func NewProductAdapter(client *postgres.Client) *ProductAdapter {
	return &ProductAdapter{
		client: client,
	}
}

// Kind returns the product entity kind.
func (a *ProductAdapter) Kind() entities.EntityKind {
	return entities.EntityKindProduct
}

// GetByID retrieves a product by ID
func (a *ProductAdapter) GetByID(ctx context.Context, id string) (*entities.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	p := &entities.Product{}
	err := a.client.DB().QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.SKU, &p.Name, &p.Description, &p.CategoryID, &p.Condition,
		&p.Status, &p.PriceCents, &p.SearchesCount, &p.PreferencesCount,
		&p.ClicksCount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("product with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get product", err)
	}
	return p, nil
}

// ListByIDs retrieves products by IDs in no particular order. Missing ids are
// simply absent from the result.
func (a *ProductAdapter) ListByIDs(ctx context.Context, ids []string) ([]*entities.Product, error) {
	if len(ids) == 0 {
		return []*entities.Product{}, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = ANY($1)`, productColumns)
	rows, err := a.client.DB().QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list products by ids", err)
	}
	defer rows.Close()

	var products []*entities.Product
	for rows.Next() {
		p := &entities.Product{}
		err := rows.Scan(
			&p.ID, &p.SKU, &p.Name, &p.Description, &p.CategoryID, &p.Condition,
			&p.Status, &p.PriceCents, &p.SearchesCount, &p.PreferencesCount,
			&p.ClicksCount, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan product", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating products", err)
	}

	return products, nil
}

// GetDocument returns the indexing view of one product.
func (a *ProductAdapter) GetDocument(ctx context.Context, id string) (*entities.Document, error) {
	doc := &entities.Document{Kind: entities.EntityKindProduct}
	err := a.client.DB().QueryRowContext(ctx,
		`SELECT id, name, sku, description FROM products WHERE id = $1`, id,
	).Scan(&doc.ID, &doc.Primary, &doc.Identifier, &doc.Description)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("product with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get product document", err)
	}
	return doc, nil
}

// ListDocuments streams indexing views in stable id order for reindexing.
func (a *ProductAdapter) ListDocuments(ctx context.Context, afterID string, limit int) ([]entities.Document, error) {
	rows, err := a.client.DB().QueryContext(ctx, `
		SELECT id, name, sku, description
		FROM products
		WHERE id > $1
		ORDER BY id
		LIMIT $2
	`, afterID, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list product documents", err)
	}
	defer rows.Close()

	var docs []entities.Document
	for rows.Next() {
		doc := entities.Document{Kind: entities.EntityKindProduct}
		if err := rows.Scan(&doc.ID, &doc.Primary, &doc.Identifier, &doc.Description); err != nil {
			return nil, apperrors.NewInternalError("failed to scan product document", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating product documents", err)
	}

	return docs, nil
}

// FullTextCandidates retrieves candidates whose weighted fields prefix-match
// the terms. MatchAll requires every term, MatchAny any of them.
func (a *ProductAdapter) FullTextCandidates(ctx context.Context, terms []string, mode repositories.MatchMode, filter repositories.CatalogFilter, limit int) ([]repositories.Candidate, error) {
	if len(terms) == 0 {
		return []repositories.Candidate{}, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM products
		WHERE to_tsvector('simple', coalesce(name,'') || ' ' || coalesce(sku,'') || ' ' || coalesce(description,''))
		      @@ to_tsquery('simple', $1)
	`, productCandidateColumns)

	args := []interface{}{tsQuery(terms, mode)}
	query, args = appendProductFilters(query, args, filter)
	query += fmt.Sprintf(" ORDER BY id LIMIT $%d", len(args)+1)
	args = append(args, limit)

	return a.queryCandidates(ctx, query, args...)
}

// IdentifierCandidates retrieves candidates whose SKU contains any term.
func (a *ProductAdapter) IdentifierCandidates(ctx context.Context, terms []string, filter repositories.CatalogFilter, limit int) ([]repositories.Candidate, error) {
	if len(terms) == 0 {
		return []repositories.Candidate{}, nil
	}

	patterns := make([]string, len(terms))
	for i, t := range terms {
		patterns[i] = "%" + t + "%"
	}

	query := fmt.Sprintf(`
		SELECT %s FROM products
		WHERE sku ILIKE ANY($1)
	`, productCandidateColumns)

	args := []interface{}{pq.Array(patterns)}
	query, args = appendProductFilters(query, args, filter)
	query += fmt.Sprintf(" ORDER BY id LIMIT $%d", len(args)+1)
	args = append(args, limit)

	return a.queryCandidates(ctx, query, args...)
}

// TermJoinCandidates retrieves candidates through term index links, the
// fallback path when full-text matching yields nothing.
func (a *ProductAdapter) TermJoinCandidates(ctx context.Context, termIDs []int64, filter repositories.CatalogFilter, limit int) ([]repositories.Candidate, error) {
	if len(termIDs) == 0 {
		return []repositories.Candidate{}, nil
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT %s FROM products p
		JOIN entity_terms et ON et.entity_type = 'product' AND et.entity_id = p.id
		WHERE et.term_id = ANY($1)
	`, prefixColumns(productCandidateColumns, "p"))

	args := []interface{}{pq.Array(termIDs)}
	query, args = appendPrefixedProductFilters(query, args, filter, "p")
	query += fmt.Sprintf(" ORDER BY p.id LIMIT $%d", len(args)+1)
	args = append(args, limit)

	return a.queryCandidates(ctx, query, args...)
}

// TopByPopularity returns the highest base-scored candidates under the filter.
func (a *ProductAdapter) TopByPopularity(ctx context.Context, filter repositories.CatalogFilter, wPreferences, wSearches float64, limit int) ([]repositories.Candidate, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM products
		WHERE TRUE
	`, productCandidateColumns)

	args := []interface{}{}
	query, args = appendProductFilters(query, args, filter)
	query += fmt.Sprintf(
		" ORDER BY (preferences_count * $%d + searches_count * $%d) DESC, id LIMIT $%d",
		len(args)+1, len(args)+2, len(args)+3,
	)
	args = append(args, wPreferences, wSearches, limit)

	return a.queryCandidates(ctx, query, args...)
}

// IncrementSearches bumps searches_count on the returned page of products.
func (a *ProductAdapter) IncrementSearches(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := a.client.DB().ExecContext(ctx,
		`UPDATE products SET searches_count = searches_count + 1 WHERE id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return apperrors.NewInternalError("failed to increment product searches", err)
	}
	return nil
}

// IncrementClicks bumps clicks_count on one product.
func (a *ProductAdapter) IncrementClicks(ctx context.Context, id string) error {
	_, err := a.client.DB().ExecContext(ctx,
		`UPDATE products SET clicks_count = clicks_count + 1 WHERE id = $1`, id,
	)
	if err != nil {
		return apperrors.NewInternalError("failed to increment product clicks", err)
	}
	return nil
}

func (a *ProductAdapter) queryCandidates(ctx context.Context, query string, args ...interface{}) ([]repositories.Candidate, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query product candidates", err)
	}
	defer rows.Close()

	var candidates []repositories.Candidate
	for rows.Next() {
		var c repositories.Candidate
		err := rows.Scan(&c.ID, &c.Primary, &c.Identifier, &c.Description,
			&c.SearchesCount, &c.PreferencesCount, &c.ClicksCount)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan product candidate", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating product candidates", err)
	}

	return candidates, nil
}

// tsQuery builds a boolean prefix tsquery ("mario:* & bros:*"). Terms are
// already normalized to bare alphanumerics by the tokenizer.
func tsQuery(terms []string, mode repositories.MatchMode) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t + ":*"
	}
	if mode == repositories.MatchAll {
		return strings.Join(parts, " & ")
	}
	return strings.Join(parts, " | ")
}

func appendProductFilters(query string, args []interface{}, filter repositories.CatalogFilter) (string, []interface{}) {
	return appendPrefixedProductFilters(query, args, filter, "")
}

func appendPrefixedProductFilters(query string, args []interface{}, filter repositories.CatalogFilter, alias string) (string, []interface{}) {
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
	if filter.Condition != "" {
		args = append(args, filter.Condition)
		query += fmt.Sprintf(" AND %scondition = $%d", prefix, len(args))
	}
	return query, args
}

// prefixColumns qualifies a comma-separated column list with a table alias.
func prefixColumns(columns, alias string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
