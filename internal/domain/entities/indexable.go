package entities

// EntityKind identifies which catalog an indexable entity belongs to.
type EntityKind string

const (
	EntityKindProduct EntityKind = "product"
	EntityKindEvent   EntityKind = "event"
)

// Document is the indexing view of a product or event: the identifier plus
// the three weighted text fields the ranking engine reads. For products the
// primary field is the name and the identifier is the SKU; for events the
// primary field is the title and the identifier is the location.
type Document struct {
	Kind        EntityKind
	ID          string
	Primary     string
	Identifier  string
	Description string
}
