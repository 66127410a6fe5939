package transition

import (
	"sort"

	"github.com/milk9111/propsim/common"
	"github.com/milk9111/propsim/ecs"
	"github.com/milk9111/propsim/ecs/component"
)

// Key is one point of a torque curve.
type Key struct {
	Time  float64
	Value float64
}

// Curve is a piecewise linear function of time, clamped at both ends.
type Curve []Key

// Duration is the time of the last key.
func (c Curve) Duration() float64 {
	if len(c) == 0 {
		return 0
	}
	return c[len(c)-1].Time
}

func (c Curve) Evaluate(t float64) float64 {
	if len(c) == 0 {
		return 1
	}
	if t <= c[0].Time {
		return c[0].Value
	}
	last := c[len(c)-1]
	if t >= last.Time {
		return last.Value
	}
	i := sort.Search(len(c), func(i int) bool { return c[i].Time >= t })
	a, b := c[i-1], c[i]
	if b.Time == a.Time {
		return b.Value
	}
	return common.Lerp(a.Value, b.Value, (t-a.Time)/(b.Time-a.Time))
}

// Bounds are the rotation limits, in degrees along the hinge axis, used to
// decide whether a torque-driven object counts as moved.
type Bounds struct {
	Min float64
	Max float64
}

// TorqueParams configures a TorqueApply.
type TorqueParams struct {
	Magnitude float64
	Curve     Curve
	Bounds    Bounds
}

// TorqueApply pushes hinge bodies with a torque that follows Curve over the
// transition's duration. It finishes on time, not on position; the resulting
// rotation is only observed by monitors.
type TorqueApply struct {
	world    *ecs.World
	targets  []ecs.Entity
	params   TorqueParams
	duration float64
	clock    float64
}

func NewTorqueApply(w *ecs.World, targets []ecs.Entity, cfg Config, p TorqueParams) (*Transition, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	sorted := append(Curve(nil), p.Curve...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })
	p.Curve = sorted
	if p.Curve.Duration() > cfg.Duration {
		return nil, ErrCurveTooLong
	}
	effect := &TorqueApply{
		world:    w,
		targets:  append([]ecs.Entity(nil), targets...),
		params:   p,
		duration: cfg.Duration,
	}
	return newTransition(w, cfg, effect)
}

func (q *TorqueApply) Kind() Kind { return KindTorque }

func (q *TorqueApply) Params() TorqueParams { return q.params }

func (q *TorqueApply) Targets() []ecs.Entity { return q.targets }

// PreTransition releases the kinematic lock so the integrator can move the
// bodies.
func (q *TorqueApply) PreTransition() {
	q.each(func(h *component.Hinge) {
		h.Kinematic = false
	})
}

func (q *TorqueApply) PostTransition() {
	q.clock = 0
}

func (q *TorqueApply) Update(direction, fraction float64) {
	q.clock += fraction * q.duration * direction
	torque := q.params.Curve.Evaluate(q.clock) * q.params.Magnitude * direction
	q.each(func(h *component.Hinge) {
		if h.Body == nil {
			return
		}
		h.Body.SetTorque(h.Body.Torque() + torque)
	})
}

// ApplyEndState places each body at the upper bound.
func (q *TorqueApply) ApplyEndState() {
	for _, e := range q.targets {
		h, ok := ecs.Get(q.world, e, component.HingeComponent)
		if !ok || h.Body == nil {
			continue
		}
		axis := h.Axis.Normalize()
		angle := q.params.Bounds.Max - h.BaseRotation.Dot(axis)
		h.Body.SetAngle(angle * common.Deg2Rad)
		h.Body.SetAngularVelocity(0)
		if t, ok := ecs.Get(q.world, e, component.TransformComponent); ok {
			t.Rotation = h.BaseRotation.Add(axis.Scale(angle))
		}
	}
}

func (q *TorqueApply) each(fn func(*component.Hinge)) {
	for _, e := range q.targets {
		if h, ok := ecs.Get(q.world, e, component.HingeComponent); ok {
			fn(h)
		}
	}
}
