package component

// Relation is how an object sits relative to its parent.
type Relation string

const (
	RelationInside Relation = "inside"
	RelationTop    Relation = "top"
)

// Placement records the parent an object rests in or on.
type Placement struct {
	ParentType string
	Relation   Relation
}

var PlacementComponent = NewComponent[Placement]()
