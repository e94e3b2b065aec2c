package entities

import (
	"time"
)

// Product represents a storefront product. The CRUD back office owns these
// rows; the search engine only reads the weighted text fields and increments
// the popularity counters.
type Product struct {
	ID               string    `json:"id" db:"id"`
	SKU              string    `json:"sku" db:"sku"`
	Name             string    `json:"name" db:"name"`
	Description      string    `json:"description" db:"description"`
	CategoryID       string    `json:"category_id" db:"category_id"`
	Condition        string    `json:"condition" db:"condition"` // new, used, refurbished
	Status           string    `json:"status" db:"status"`       // active, draft, sold_out
	PriceCents       int64     `json:"price_cents" db:"price_cents"`
	SearchesCount    int64     `json:"searches_count" db:"searches_count"`
	PreferencesCount int64     `json:"preferences_count" db:"preferences_count"`
	ClicksCount      int64     `json:"clicks_count" db:"clicks_count"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// Document returns the indexing view of the product.
func (p *Product) Document() Document {
	return Document{
		Kind:        EntityKindProduct,
		ID:          p.ID,
		Primary:     p.Name,
		Identifier:  p.SKU,
		Description: p.Description,
	}
}
