package monitor

import (
	"github.com/milk9111/propsim/common"
	"github.com/milk9111/propsim/ecs"
	"github.com/milk9111/propsim/ecs/component"
)

// DirectionTolerance is the minimum cosine between the displacement and the
// expected direction for a ValueMonitor to report true.
const DirectionTolerance = 0.98

// ValueMonitor reports whether a transform vector has moved from Origin along
// Direction by more than Threshold. Sideways jitter fails the direction test.
type ValueMonitor struct {
	world     *ecs.World
	target    ecs.Entity
	property  component.VectorProperty
	origin    common.Vec3
	direction common.Vec3
	threshold float64
}

func NewValueMonitor(w *ecs.World, target ecs.Entity, property component.VectorProperty, origin, direction common.Vec3, threshold float64) *ValueMonitor {
	return &ValueMonitor{
		world:     w,
		target:    target,
		property:  property,
		origin:    origin,
		direction: direction.Normalize(),
		threshold: threshold,
	}
}

func (m *ValueMonitor) Origin() common.Vec3 {
	return m.origin
}

func (m *ValueMonitor) Direction() common.Vec3 {
	return m.direction
}

func (m *ValueMonitor) Threshold() float64 {
	return m.threshold
}

func (m *ValueMonitor) Sample() bool {
	t, ok := ecs.Get(m.world, m.target, component.TransformComponent)
	if !ok {
		return false
	}
	return Evaluate(t.Get(m.property), m.origin, m.direction, m.threshold)
}

// Evaluate is the ValueMonitor test on explicit values.
func Evaluate(current, origin, direction common.Vec3, threshold float64) bool {
	diff := current.Sub(origin)
	return diff.Cosine(direction) > DirectionTolerance && diff.Dot(direction) > threshold
}

// RangeMonitor watches a hinge rotation projected on its axis. It reports true
// above hi and false below lo and holds its last value in between.
type RangeMonitor struct {
	world  *ecs.World
	target ecs.Entity
	axis   common.Vec3
	lo     float64
	hi     float64
	last   bool
}

func NewRangeMonitor(w *ecs.World, target ecs.Entity, axis common.Vec3, lo, hi float64) *RangeMonitor {
	m := &RangeMonitor{world: w, target: target, axis: axis.Normalize(), lo: lo, hi: hi}
	m.last = m.project() > hi
	return m
}

func (m *RangeMonitor) Sample() bool {
	p := m.project()
	switch {
	case p > m.hi:
		m.last = true
	case p < m.lo:
		m.last = false
	}
	return m.last
}

func (m *RangeMonitor) project() float64 {
	t, ok := ecs.Get(m.world, m.target, component.TransformComponent)
	if !ok {
		return 0
	}
	return t.Rotation.Dot(m.axis)
}

// FlagMonitor reports a named flag.
type FlagMonitor struct {
	world  *ecs.World
	target ecs.Entity
	flag   string
}

func NewFlagMonitor(w *ecs.World, target ecs.Entity, flag string) *FlagMonitor {
	return &FlagMonitor{world: w, target: target, flag: flag}
}

func (m *FlagMonitor) Flag() string {
	return m.flag
}

func (m *FlagMonitor) Sample() bool {
	flags, ok := ecs.Get(m.world, m.target, component.FlagsComponent)
	if !ok {
		return false
	}
	return flags.Get(m.flag)
}
