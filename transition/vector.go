package transition

import (
	"github.com/milk9111/propsim/common"
	"github.com/milk9111/propsim/ecs"
	"github.com/milk9111/propsim/ecs/component"
)

// VectorParams configures a VectorChange.
type VectorParams struct {
	Property component.VectorProperty
	Delta    common.Vec3

	// ROI is the fraction of Delta an observer must see before the change
	// counts as having happened. Zero leaves the change unmonitored.
	ROI float64

	// Initial is snapped to at the start of a run when the transition uses an
	// initial value.
	Initial common.Vec3
}

// VectorChange moves a position, rotation or scale by Delta. Each tick adds
// its share of Delta to the current value instead of writing an absolute
// interpolation, so runs can be stopped, resumed and reversed.
type VectorChange struct {
	world      *ecs.World
	targets    []ecs.Entity
	params     VectorParams
	useInitial bool
}

func NewVectorChange(w *ecs.World, targets []ecs.Entity, cfg Config, p VectorParams) (*Transition, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	if p.ROI < 0 {
		return nil, ErrNegativeROI
	}
	if p.Property == "" {
		p.Property = component.PropertyPosition
	}
	effect := &VectorChange{
		world:      w,
		targets:    append([]ecs.Entity(nil), targets...),
		params:     p,
		useInitial: cfg.UseInitialValue,
	}
	return newTransition(w, cfg, effect)
}

func (v *VectorChange) Kind() Kind { return KindVector }

func (v *VectorChange) Params() VectorParams { return v.params }

func (v *VectorChange) Targets() []ecs.Entity { return v.targets }

func (v *VectorChange) UsesInitialValue() bool { return v.useInitial }

func (v *VectorChange) Update(direction, fraction float64) {
	step := common.LerpVec3(common.Vec3{}, v.params.Delta, fraction).Scale(direction)
	v.each(func(t *component.Transform) {
		t.Set(v.params.Property, t.Get(v.params.Property).Add(step))
	})
}

func (v *VectorChange) SnapInitial() {
	v.each(func(t *component.Transform) {
		t.Set(v.params.Property, v.params.Initial)
	})
}

func (v *VectorChange) ApplyEndState() {
	v.each(func(t *component.Transform) {
		t.Set(v.params.Property, t.Get(v.params.Property).Add(v.params.Delta))
	})
}

// Origin is the value the change starts from: the explicit initial value, or
// the primary target's current value.
func (v *VectorChange) Origin() common.Vec3 {
	if v.useInitial {
		return v.params.Initial
	}
	return v.Current()
}

// Current reads the property on the primary target.
func (v *VectorChange) Current() common.Vec3 {
	if len(v.targets) == 0 {
		return common.Vec3{}
	}
	t, ok := ecs.Get(v.world, v.targets[0], component.TransformComponent)
	if !ok {
		return common.Vec3{}
	}
	return t.Get(v.params.Property)
}

func (v *VectorChange) each(fn func(*component.Transform)) {
	for _, e := range v.targets {
		if t, ok := ecs.Get(v.world, e, component.TransformComponent); ok {
			fn(t)
		}
	}
}
