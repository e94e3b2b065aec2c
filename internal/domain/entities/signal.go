package entities

import (
	"time"
)

// SignalKind enumerates the implicit feedback events a user can emit.
type SignalKind string

const (
	SignalView     SignalKind = "view"
	SignalAdd      SignalKind = "add"
	SignalPurchase SignalKind = "purchase"
)

// Valid reports whether k is one of the recordable signal kinds.
func (k SignalKind) Valid() bool {
	switch k {
	case SignalView, SignalAdd, SignalPurchase:
		return true
	}
	return false
}

// UserSignal aggregates one user's interactions with one entity. Counters
// only ever increase.
type UserSignal struct {
	UserID           string     `json:"user_id" db:"user_id"`
	Kind             EntityKind `json:"entity_type" db:"entity_type"`
	EntityID         string     `json:"entity_id" db:"entity_id"`
	Impressions      int64      `json:"impressions" db:"impressions"`
	Views            int64      `json:"views" db:"views"`
	Adds             int64      `json:"adds" db:"adds"`
	Purchases        int64      `json:"purchases" db:"purchases"`
	LastInteractedAt time.Time  `json:"last_interacted_at" db:"last_interacted_at"`
}

// UserDescriptorAffinity is one accumulated, non-negative affinity score for
// a (user, descriptor key) pair. There is no decay.
type UserDescriptorAffinity struct {
	UserID        string  `json:"user_id" db:"user_id"`
	DescriptorKey string  `json:"descriptor_key" db:"descriptor_key"`
	Score         float64 `json:"score" db:"score"`
}
