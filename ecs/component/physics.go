package component

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/propsim/common"
)

// Hinge binds an object to a Chipmunk body rotating about Axis. While
// Kinematic is set the physics system holds the body still.
type Hinge struct {
	Body         *cp.Body
	Axis         common.Vec3
	BaseRotation common.Vec3
	Kinematic    bool
}

// AngleDeg is the body angle in degrees.
func (h *Hinge) AngleDeg() float64 {
	if h == nil || h.Body == nil {
		return 0
	}
	return h.Body.Angle() * common.Rad2Deg
}

var HingeComponent = NewComponent[Hinge]()
