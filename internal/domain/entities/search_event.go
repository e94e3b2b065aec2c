package entities

import (
	"time"
)

// SearchQueryLog is one append-only search telemetry row. ResultsCount is
// back-filled after scoring completes.
type SearchQueryLog struct {
	ID           string     `json:"id" db:"id"`
	Kind         EntityKind `json:"entity_type" db:"entity_type"`
	Query        string     `json:"query" db:"query"`
	Terms        []string   `json:"terms" db:"terms"`
	ResultsCount int        `json:"results_count" db:"results_count"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// SearchClick is one append-only click-tracking row, fired via best-effort
// beacon from the result page.
type SearchClick struct {
	ID        string     `json:"id" db:"id"`
	Kind      EntityKind `json:"entity_type" db:"entity_type"`
	EntityID  string     `json:"entity_id" db:"entity_id"`
	Query     string     `json:"query" db:"query"`
	Terms     []string   `json:"terms" db:"terms"`
	Source    string     `json:"source" db:"source"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
