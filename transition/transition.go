// Package transition implements timed, interruptible property changes and the
// resumable sequences that chain them.
//
// A Transition runs as a cooperative task on an ecs.World: a delay phase
// followed by an active phase, each stepped once per tick. Triggering a
// running Transition never starts a second run; it raises an interrupt that
// the running task handles at its next tick according to the phase's
// InterruptPolicy.
package transition

import (
	"math"

	"github.com/milk9111/propsim/common"
	"github.com/milk9111/propsim/ecs"
)

// overshootMargin bounds how far normalized progress may leave [0,1].
const overshootMargin = 0.1

// Kind identifies a transition variant.
type Kind string

const (
	KindToggle   Kind = "toggle"
	KindEmission Kind = "emission"
	KindVector   Kind = "vector"
	KindColor    Kind = "color"
	KindTorque   Kind = "torque"
)

// Effect applies a transition's property change to its targets.
type Effect interface {
	Kind() Kind
	// Update applies one tick's share of the change. fraction is this tick's
	// contribution, never the cumulative progress. direction is +1 forward and
	// -1 while reverting.
	Update(direction, fraction float64)
	// ApplyEndState jumps to the state a completed run leaves behind.
	ApplyEndState()
}

type preTransitioner interface {
	PreTransition()
}

type postTransitioner interface {
	PostTransition()
}

type initialSnapper interface {
	SnapInitial()
}

// Observer is notified of run lifecycle changes.
type Observer interface {
	Started(t *Transition, resumed bool)
	Interrupted(t *Transition, phase Phase, policy InterruptPolicy)
	Finished(t *Transition, completed bool)
}

// Config holds the timing and policy of a transition.
type Config struct {
	Name            string
	Delay           float64
	Duration        float64
	DelayPolicy     InterruptPolicy
	ActivePolicy    InterruptPolicy
	UseInitialValue bool
}

// Validate reports configuration errors. They are fatal for the owning object.
func (c Config) Validate() error {
	if c.Delay < 0 || c.Duration < 0 {
		return ErrNegativeTiming
	}
	if c.DelayPolicy == Revert {
		return ErrRevertOnDelay
	}
	if c.ActivePolicy == Immediate {
		return ErrImmediateOnActive
	}
	return nil
}

type Transition struct {
	cfg      Config
	effect   Effect
	world    *ecs.World
	observer Observer

	elapsed       float64
	direction     float64
	phase         Phase
	running       bool
	interrupt     bool
	pendingResume bool
	proceed       bool

	active int
	starts int
}

func newTransition(w *ecs.World, cfg Config, effect Effect) (*Transition, error) {
	if w == nil {
		return nil, ErrNilWorld
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Transition{cfg: cfg, effect: effect, world: w, direction: 1}, nil
}

func (t *Transition) Name() string {
	return t.cfg.Name
}

func (t *Transition) Kind() Kind {
	return t.effect.Kind()
}

func (t *Transition) Config() Config {
	return t.cfg
}

func (t *Transition) Effect() Effect {
	return t.effect
}

func (t *Transition) Phase() Phase {
	return t.phase
}

func (t *Transition) Running() bool {
	return t.running
}

func (t *Transition) PendingResume() bool {
	return t.pendingResume
}

// Proceeded reports whether the last finished run completed its active phase.
func (t *Transition) Proceeded() bool {
	return t.proceed
}

// Elapsed is the normalized progress of the current phase.
func (t *Transition) Elapsed() float64 {
	return t.elapsed
}

// ActiveRuns is the number of runs in flight; never more than one.
func (t *Transition) ActiveRuns() int {
	return t.active
}

// Starts counts runs started, including resumed ones.
func (t *Transition) Starts() int {
	return t.starts
}

func (t *Transition) SetObserver(o Observer) {
	t.observer = o
}

// Trigger starts a run, resuming a stopped one if there is one. If a run is
// already in flight it raises that run's interrupt instead and returns false.
func (t *Transition) Trigger() bool {
	if t.running {
		t.interrupt = true
		return false
	}
	t.running = true
	t.interrupt = false
	t.active++
	t.starts++
	resumed := t.pendingResume
	if t.observer != nil {
		t.observer.Started(t, resumed)
	}

	if resumed {
		t.enterActive()
	} else {
		t.elapsed = 0
		t.direction = 1
		if t.cfg.UseInitialValue {
			if s, ok := t.effect.(initialSnapper); ok {
				s.SnapInitial()
			}
		}
		t.phase = PhaseDelay
	}
	t.world.Spawn(t)
	return true
}

// ApplyEndState applies the completed state without animating.
func (t *Transition) ApplyEndState() {
	if t.running {
		return
	}
	if t.cfg.UseInitialValue {
		if s, ok := t.effect.(initialSnapper); ok {
			s.SnapInitial()
		}
	}
	t.effect.ApplyEndState()
	t.elapsed = 0
	t.pendingResume = false
}

// Step advances the run by one tick. It implements ecs.Task.
func (t *Transition) Step(dt float64) bool {
	for {
		switch t.phase {
		case PhaseDelay:
			if t.cfg.Delay > 0 && t.shouldContinue(t.cfg.DelayPolicy) {
				t.advance(dt / t.cfg.Delay)
				return false
			}
			// An interrupt raised on the tick the delay ran out still counts.
			interrupted := t.cfg.Delay > 0 && t.interrupt && t.cfg.DelayPolicy != Ignore
			t.interrupt = false
			if interrupted {
				t.proceed = false
				t.notifyInterrupt(PhaseDelay, t.cfg.DelayPolicy)
				if t.cfg.DelayPolicy != Immediate {
					t.elapsed = 0
					t.finish(false)
					return true
				}
			}
			t.elapsed = 0
			t.enterActive()

		case PhaseActive:
			if t.shouldContinue(t.cfg.ActivePolicy) {
				t.effect.Update(t.direction, t.advance(t.activeStep(dt)))
				return false
			}
			if t.elapsed >= 1 {
				t.complete()
				return true
			}
			t.interrupt = false
			t.proceed = false
			t.notifyInterrupt(PhaseActive, t.cfg.ActivePolicy)
			if t.cfg.ActivePolicy == Revert {
				t.direction = -1
				t.phase = PhaseRevert
				continue
			}
			t.pendingResume = true
			t.finish(false)
			return true

		case PhaseRevert:
			if t.inRange() {
				if t.interrupt {
					t.interrupt = false
					t.direction = -t.direction
				}
				t.effect.Update(t.direction, t.advance(t.activeStep(dt)))
				return false
			}
			if t.elapsed >= 1 {
				t.complete()
				return true
			}
			t.elapsed = 0
			t.direction = 1
			t.pendingResume = false
			t.proceed = false
			t.finish(false)
			return true

		default:
			return true
		}
	}
}

func (t *Transition) enterActive() {
	t.direction = 1
	if p, ok := t.effect.(preTransitioner); ok {
		p.PreTransition()
	}
	t.phase = PhaseActive
}

func (t *Transition) complete() {
	if p, ok := t.effect.(postTransitioner); ok {
		p.PostTransition()
	}
	t.elapsed = 0
	t.direction = 1
	t.interrupt = false
	t.pendingResume = false
	t.proceed = true
	t.finish(true)
}

func (t *Transition) finish(completed bool) {
	t.running = false
	t.phase = PhaseIdle
	t.active--
	if t.observer != nil {
		t.observer.Finished(t, completed)
	}
}

func (t *Transition) notifyInterrupt(phase Phase, policy InterruptPolicy) {
	if t.observer != nil {
		t.observer.Interrupted(t, phase, policy)
	}
}

// inRange reports whether progress has room left in the travel direction.
func (t *Transition) inRange() bool {
	if t.direction < 0 {
		return t.elapsed > 0 && t.elapsed <= 1
	}
	return t.elapsed >= 0 && t.elapsed < 1
}

func (t *Transition) shouldContinue(policy InterruptPolicy) bool {
	return t.inRange() && (!t.interrupt || policy == Ignore)
}

// activeStep is the normalized progress of one tick. A zero duration
// completes in a single tick.
func (t *Transition) activeStep(dt float64) float64 {
	if t.cfg.Duration <= 0 {
		return 1 + overshootMargin
	}
	return dt / t.cfg.Duration
}

// advance moves progress by step in the current direction and returns the
// share of the full change this tick may apply. Overshoot past a boundary is
// credited back so no more than the whole change is ever applied.
func (t *Transition) advance(step float64) float64 {
	prev := t.elapsed
	next := common.Clamp(prev+step*t.direction, -overshootMargin, 1+overshootMargin)
	t.elapsed = next
	return math.Abs(common.Clamp(next, 0, 1) - common.Clamp(prev, 0, 1))
}
