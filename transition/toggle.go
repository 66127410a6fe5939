package transition

import (
	"log/slog"

	"github.com/milk9111/propsim/ecs"
	"github.com/milk9111/propsim/ecs/component"
)

// ToggleHook replaces the default media side effect of a Toggle.
type ToggleHook interface {
	OnToggle(w *ecs.World, target ecs.Entity, wasOn bool) error
}

// ToggleParams configures a Toggle.
type ToggleParams struct {
	Flag  string
	Media string
	Hook  ToggleHook
}

// Toggle flips a boolean flag on each target in a single tick. The paired
// media entry starts playing when the flag was off and stops when it was on.
type Toggle struct {
	world   *ecs.World
	targets []ecs.Entity
	params  ToggleParams
}

func NewToggle(w *ecs.World, targets []ecs.Entity, cfg Config, p ToggleParams) (*Transition, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	if p.Flag == "" {
		p.Flag = "on"
	}
	effect := &Toggle{
		world:   w,
		targets: append([]ecs.Entity(nil), targets...),
		params:  p,
	}
	return newTransition(w, cfg, effect)
}

func (t *Toggle) Kind() Kind { return KindToggle }

func (t *Toggle) Flag() string { return t.params.Flag }

func (t *Toggle) Targets() []ecs.Entity { return t.targets }

func (t *Toggle) Update(_, fraction float64) {
	if fraction <= 0 {
		return
	}
	t.flipAll()
}

func (t *Toggle) ApplyEndState() {
	t.flipAll()
}

func (t *Toggle) flipAll() {
	for _, e := range t.targets {
		t.flip(e)
	}
}

func (t *Toggle) flip(e ecs.Entity) {
	flags, ok := ecs.Get(t.world, e, component.FlagsComponent)
	if !ok {
		flags = &component.Flags{}
		if err := ecs.Add(t.world, e, component.FlagsComponent, flags); err != nil {
			return
		}
	}
	wasOn := flags.Get(t.params.Flag)
	flags.Set(t.params.Flag, !wasOn)

	if t.params.Hook != nil {
		if err := t.params.Hook.OnToggle(t.world, e, wasOn); err != nil {
			slog.Warn("toggle hook failed", "entity", e, "flag", t.params.Flag, "err", err)
		}
		return
	}
	if t.params.Media == "" {
		return
	}
	media, ok := ecs.Get(t.world, e, component.MediaComponent)
	if !ok {
		return
	}
	if wasOn {
		media.Stop(t.params.Media)
	} else {
		media.Play(t.params.Media)
	}
}
