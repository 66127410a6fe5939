package transition

import (
	"github.com/milk9111/propsim/common"
	"github.com/milk9111/propsim/ecs"
	"github.com/milk9111/propsim/ecs/component"
)

// ColorParams configures a ColorChange. Delta components may be negative.
type ColorParams struct {
	Delta   common.Vec4
	Initial common.Vec4
}

// ColorChange shifts the color of every material on its targets.
type ColorChange struct {
	world      *ecs.World
	targets    []ecs.Entity
	params     ColorParams
	useInitial bool
}

func NewColorChange(w *ecs.World, targets []ecs.Entity, cfg Config, p ColorParams) (*Transition, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	effect := &ColorChange{
		world:      w,
		targets:    append([]ecs.Entity(nil), targets...),
		params:     p,
		useInitial: cfg.UseInitialValue,
	}
	return newTransition(w, cfg, effect)
}

func (c *ColorChange) Kind() Kind { return KindColor }

func (c *ColorChange) Update(direction, fraction float64) {
	step := c.params.Delta.Scale(fraction * direction)
	c.each(func(m *component.Material) {
		m.Color = m.Color.Add(step)
	})
}

func (c *ColorChange) SnapInitial() {
	c.each(func(m *component.Material) {
		m.Color = c.params.Initial
	})
}

func (c *ColorChange) ApplyEndState() {
	c.each(func(m *component.Material) {
		m.Color = m.Color.Add(c.params.Delta)
	})
}

func (c *ColorChange) each(fn func(*component.Material)) {
	for _, e := range c.targets {
		mats, ok := ecs.Get(c.world, e, component.MaterialsComponent)
		if !ok {
			continue
		}
		for i := range mats.Items {
			fn(&mats.Items[i])
		}
	}
}
