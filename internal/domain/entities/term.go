package entities

import (
	"time"
)

// Term is a normalized token tracked globally per entity kind. DF counts the
// entities currently containing the term; SearchWeight counts how many user
// queries have included it.
type Term struct {
	ID             int64      `json:"id" db:"id"`
	Kind           EntityKind `json:"entity_type" db:"entity_type"`
	Term           string     `json:"term" db:"term"`
	DF             int64      `json:"df" db:"df"`
	SearchWeight   int64      `json:"search_weight" db:"search_weight"`
	LastSearchedAt *time.Time `json:"last_searched_at,omitempty" db:"last_searched_at"`
}

// TermCounts carries the per-field occurrence counts for one term of one
// entity, produced by the tokenizer during indexing.
type TermCounts struct {
	Term          string
	InPrimary     int
	InIdentifier  int
	InDescription int
}

// TermHit is one (entity, matched term) scoring row: the link's per-field
// counts joined with the term's global query-popularity stats.
type TermHit struct {
	EntityID      string
	TermID        int64
	Term          string
	SearchWeight  int64
	InPrimary     int
	InIdentifier  int
	InDescription int
}
