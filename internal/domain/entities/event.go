package entities

import (
	"time"
)

// Event represents a storefront event (tournament, launch night, swap meet).
// Mirrors Product for ranking purposes with its own field weights.
type Event struct {
	ID               string    `json:"id" db:"id"`
	Title            string    `json:"title" db:"title"`
	Location         string    `json:"location" db:"location"`
	Description      string    `json:"description" db:"description"`
	CategoryID       string    `json:"category_id" db:"category_id"`
	Status           string    `json:"status" db:"status"` // active, draft, cancelled
	StartsAt         time.Time `json:"starts_at" db:"starts_at"`
	SearchesCount    int64     `json:"searches_count" db:"searches_count"`
	PreferencesCount int64     `json:"preferences_count" db:"preferences_count"`
	ClicksCount      int64     `json:"clicks_count" db:"clicks_count"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// Document returns the indexing view of the event.
func (e *Event) Document() Document {
	return Document{
		Kind:        EntityKindEvent,
		ID:          e.ID,
		Primary:     e.Title,
		Identifier:  e.Location,
		Description: e.Description,
	}
}
