package component

// Name is the scene-unique object name used to resolve references.
type Name struct {
	Value string
	Type  string
}

var NameComponent = NewComponent[Name]()
