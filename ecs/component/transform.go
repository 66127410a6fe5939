package component

import "github.com/milk9111/propsim/common"

// Transform places an object. Rotation is Euler degrees.
type Transform struct {
	Position common.Vec3
	Rotation common.Vec3
	Scale    common.Vec3
}

var TransformComponent = NewComponent[Transform]()

// VectorProperty names one of the Transform vectors.
type VectorProperty string

const (
	PropertyPosition VectorProperty = "position"
	PropertyRotation VectorProperty = "rotation"
	PropertyScale    VectorProperty = "scale"
)

func (p VectorProperty) Valid() bool {
	switch p {
	case PropertyPosition, PropertyRotation, PropertyScale:
		return true
	}
	return false
}

// Get returns the named vector.
func (t *Transform) Get(p VectorProperty) common.Vec3 {
	switch p {
	case PropertyRotation:
		return t.Rotation
	case PropertyScale:
		return t.Scale
	default:
		return t.Position
	}
}

// Set replaces the named vector.
func (t *Transform) Set(p VectorProperty, v common.Vec3) {
	switch p {
	case PropertyRotation:
		t.Rotation = v
	case PropertyScale:
		t.Scale = v
	default:
		t.Position = v
	}
}
