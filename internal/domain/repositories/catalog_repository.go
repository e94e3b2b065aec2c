package repositories

import (
	"context"

	"github.com/retrovault/storefront-backend/internal/domain/entities"
)

// CatalogFilter narrows candidate retrieval and the popularity rankers.
// Zero-valued fields apply no restriction; malformed filter values are
// treated as absent by the HTTP layer, never rejected.
type CatalogFilter struct {
	CategoryID string
	Status     string
	Condition  string
}

// MatchMode selects the boolean combination used for full-text candidate
// retrieval.
type MatchMode int

const (
	MatchAll MatchMode = iota // every term required (prefix match)
	MatchAny                  // any term sufficient
)

// Candidate is a lightweight retrieval row: raw weighted field text for the
// post-aggregation bonuses plus the popularity counters the rankers read.
type Candidate struct {
	ID               string
	Primary          string
	Identifier       string
	Description      string
	SearchesCount    int64
	PreferencesCount int64
	ClicksCount      int64
}

// CatalogRepository is the kind-generic read surface the ranking engine uses.
// Products and events each provide an implementation over their own table.
type CatalogRepository interface {
	Kind() entities.EntityKind

	// GetDocument returns the indexing view of one entity.
	GetDocument(ctx context.Context, id string) (*entities.Document, error)

	// ListDocuments streams indexing views in stable id order for full
	// reindexing. afterID is exclusive; an empty string starts from the
	// beginning.
	ListDocuments(ctx context.Context, afterID string, limit int) ([]entities.Document, error)

	// FullTextCandidates retrieves candidates whose weighted fields prefix-match
	// the query terms under the given boolean mode and filters.
	FullTextCandidates(ctx context.Context, terms []string, mode MatchMode, filter CatalogFilter, limit int) ([]Candidate, error)

	// IdentifierCandidates retrieves candidates whose identifier field contains
	// any of the terms. Products use this as the SKU pass; events do not.
	IdentifierCandidates(ctx context.Context, terms []string, filter CatalogFilter, limit int) ([]Candidate, error)

	// TermJoinCandidates retrieves candidates through the term index links,
	// ignoring full-text capability entirely.
	TermJoinCandidates(ctx context.Context, termIDs []int64, filter CatalogFilter, limit int) ([]Candidate, error)

	// TopByPopularity returns the highest base-scored candidates under the
	// filter, ordered by preferences*wPreferences + searches*wSearches
	// descending.
	TopByPopularity(ctx context.Context, filter CatalogFilter, wPreferences, wSearches float64, limit int) ([]Candidate, error)

	// IncrementSearches bumps searches_count on the given entities.
	IncrementSearches(ctx context.Context, ids []string) error

	// IncrementClicks bumps clicks_count on one entity.
	IncrementClicks(ctx context.Context, id string) error
}

// ProductRepository hydrates ranked product IDs into full records.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entities.Product, error)
	ListByIDs(ctx context.Context, ids []string) ([]*entities.Product, error)
}

// EventRepository hydrates ranked event IDs into full records.
type EventRepository interface {
	GetByID(ctx context.Context, id string) (*entities.Event, error)
	ListByIDs(ctx context.Context, ids []string) ([]*entities.Event, error)
}
