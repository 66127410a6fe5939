package transition

import (
	"strings"

	"github.com/milk9111/propsim/ecs"
	"github.com/milk9111/propsim/ecs/component"
)

type materialRef struct {
	entity ecs.Entity
	index  int
}

// EmissionToggle flips the emissive flag of every target material whose name
// contains Fragment. Matching happens once, at construction.
type EmissionToggle struct {
	world     *ecs.World
	fragment  string
	materials []materialRef
}

func NewEmissionToggle(w *ecs.World, targets []ecs.Entity, cfg Config, fragment string) (*Transition, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	effect := &EmissionToggle{world: w, fragment: fragment}
	for _, e := range targets {
		mats, ok := ecs.Get(w, e, component.MaterialsComponent)
		if !ok {
			continue
		}
		for i, m := range mats.Items {
			if strings.Contains(m.Name, fragment) {
				effect.materials = append(effect.materials, materialRef{entity: e, index: i})
			}
		}
	}
	return newTransition(w, cfg, effect)
}

func (m *EmissionToggle) Kind() Kind { return KindEmission }

// Matched is the number of materials the toggle drives.
func (m *EmissionToggle) Matched() int { return len(m.materials) }

func (m *EmissionToggle) Update(_, fraction float64) {
	if fraction <= 0 {
		return
	}
	m.flip()
}

func (m *EmissionToggle) ApplyEndState() {
	m.flip()
}

func (m *EmissionToggle) flip() {
	for _, ref := range m.materials {
		mats, ok := ecs.Get(m.world, ref.entity, component.MaterialsComponent)
		if !ok || ref.index >= len(mats.Items) {
			continue
		}
		mats.Items[ref.index].Emissive = !mats.Items[ref.index].Emissive
	}
}
