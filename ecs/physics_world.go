package ecs

import (
	"math"

	"github.com/jakecoffman/cp"
)

const (
	defaultAngularDamping = 0.6
	defaultHingeSize      = 1.0
)

// PhysicsWorld owns the Chipmunk space that integrates hinge bodies. Bodies
// rotate about a single axis; the rest of the object transform is driven by
// transitions directly.
type PhysicsWorld struct {
	space  *cp.Space
	bodies map[Entity]*cp.Body
}

// NewPhysicsWorld creates an empty space with no gravity.
func NewPhysicsWorld() *PhysicsWorld {
	space := cp.NewSpace()
	space.Iterations = 20
	space.SetGravity(cp.Vector{})
	space.SetDamping(defaultAngularDamping)
	return &PhysicsWorld{
		space:  space,
		bodies: make(map[Entity]*cp.Body),
	}
}

// Space returns the underlying Chipmunk space.
func (pw *PhysicsWorld) Space() *cp.Space {
	if pw == nil {
		return nil
	}
	return pw.space
}

// AddHinge creates a dynamic body for e. Non-positive mass or moment fall
// back to a unit box.
func (pw *PhysicsWorld) AddHinge(e Entity, mass, moment, angleDeg float64) *cp.Body {
	if pw == nil || pw.space == nil {
		return nil
	}
	if body, ok := pw.bodies[e]; ok {
		return body
	}
	if mass <= 0 {
		mass = 1
	}
	if moment <= 0 {
		moment = cp.MomentForBox(mass, defaultHingeSize, defaultHingeSize)
	}
	body := cp.NewBody(mass, moment)
	body.SetAngle(angleDeg * math.Pi / 180)
	body.SetAngularVelocity(0)
	pw.space.AddBody(body)
	pw.bodies[e] = body
	return body
}

// Body returns the hinge body registered for e.
func (pw *PhysicsWorld) Body(e Entity) (*cp.Body, bool) {
	if pw == nil {
		return nil, false
	}
	body, ok := pw.bodies[e]
	return body, ok
}

// Step advances the physics simulation.
func (pw *PhysicsWorld) Step(dt float64) {
	if pw == nil || pw.space == nil {
		return
	}
	pw.space.Step(dt)
}
