package system

import (
	"github.com/milk9111/propsim/common"
	"github.com/milk9111/propsim/ecs"
	"github.com/milk9111/propsim/ecs/component"
)

// PhysicsSystem steps the Chipmunk space and copies hinge angles back into
// object rotations so monitors observe the integrated result.
type PhysicsSystem struct{}

func NewPhysicsSystem() *PhysicsSystem { return &PhysicsSystem{} }

func (s *PhysicsSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	pw := w.PhysicsWorld()
	if pw == nil {
		return
	}

	// Locked hinges must not drift while the space integrates.
	ecs.ForEach(w, component.HingeComponent, func(_ ecs.Entity, h *component.Hinge) {
		if h.Body == nil || !h.Kinematic {
			return
		}
		h.Body.SetAngularVelocity(0)
		h.Body.SetTorque(0)
	})

	pw.Step(w.DeltaTime())

	ecs.ForEach(w, component.HingeComponent, func(e ecs.Entity, h *component.Hinge) {
		if h.Body == nil {
			return
		}
		t, ok := ecs.Get(w, e, component.TransformComponent)
		if !ok {
			return
		}
		t.Rotation = HingeRotation(h)
	})
}

// HingeRotation is the world rotation implied by the hinge's body angle.
func HingeRotation(h *component.Hinge) common.Vec3 {
	return h.BaseRotation.Add(h.Axis.Normalize().Scale(h.AngleDeg()))
}
