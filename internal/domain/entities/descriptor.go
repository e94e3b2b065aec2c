package entities

import (
	"time"
)

// Descriptor is a semantic tag derived from free text. Created lazily the
// first time a token resolves to its key, either through the configured alias
// table or as a fallback identity mapping.
type Descriptor struct {
	ID      int64    `json:"id" db:"id"`
	Key     string   `json:"key" db:"key"`
	Label   string   `json:"label" db:"label"`
	Aliases []string `json:"aliases,omitempty" db:"aliases"`
	Weight  float64  `json:"weight" db:"weight"`
}

// EntityDescriptor links an entity to a descriptor with the accumulated
// per-field boost score. Fully replaced on every re-index.
type EntityDescriptor struct {
	Kind         EntityKind `json:"entity_type" db:"entity_type"`
	EntityID     string     `json:"entity_id" db:"entity_id"`
	DescriptorID int64      `json:"descriptor_id" db:"descriptor_id"`
	Score        float64    `json:"score" db:"score"`
	Source       string     `json:"source" db:"source"`
	IndexedAt    time.Time  `json:"indexed_at" db:"indexed_at"`
}

// DescriptorScore is the read model the rankers consume: a descriptor key
// with its global weight and the entity's accumulated score for it.
type DescriptorScore struct {
	Key    string  `json:"key"`
	Weight float64 `json:"weight"`
	Score  float64 `json:"score"`
}
