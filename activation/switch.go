// Package activation binds trigger points to transition sequences and to the
// discrete state of the object they move.
package activation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/milk9111/propsim/common"
	"github.com/milk9111/propsim/ecs"
	"github.com/milk9111/propsim/ecs/component"
	"github.com/milk9111/propsim/monitor"
	"github.com/milk9111/propsim/objstate"
	"github.com/milk9111/propsim/transition"
)

var ErrNotInitialized = errors.New("activation: switch not initialized")

// SharedEffect points at a sequence owned by another switch.
type SharedEffect struct {
	Switch   *Switch
	Sequence int
}

// Config describes a switch as plain data.
type Config struct {
	Name   string
	Pose   string
	Action objstate.Action
	Anchor common.Vec3
}

// FlipHook observes every discrete state change a switch records.
type FlipHook func(s *Switch, snap objstate.Snapshot)

type Option func(*Switch)

// WithLog sets the sink state changes are appended to.
func WithLog(l objstate.Log) Option {
	return func(s *Switch) {
		s.log = l
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Switch) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithFlipHook(h FlipHook) Option {
	return func(s *Switch) {
		s.onFlip = h
	}
}

// Switch is an activation point on an object. Activate starts its sequences
// and a watcher that turns the resulting motion into ObjectState toggles.
type Switch struct {
	cfg       Config
	world     *ecs.World
	state     *objstate.ObjectState
	sequences []*transition.Sequence
	shared    []SharedEffect

	log    objstate.Log
	logger *slog.Logger
	onFlip FlipHook

	initialized bool
	watcher     *monitor.Watcher
}

func New(w *ecs.World, cfg Config, state *objstate.ObjectState, sequences []*transition.Sequence, opts ...Option) *Switch {
	s := &Switch{
		cfg:       cfg,
		world:     w,
		state:     state,
		sequences: append([]*transition.Sequence(nil), sequences...),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Switch) Name() string {
	return s.cfg.Name
}

func (s *Switch) Pose() string {
	return s.cfg.Pose
}

func (s *Switch) Action() objstate.Action {
	return s.cfg.Action
}

func (s *Switch) Anchor() common.Vec3 {
	return s.cfg.Anchor
}

func (s *Switch) State() *objstate.ObjectState {
	return s.state
}

func (s *Switch) Sequences() []*transition.Sequence {
	return s.sequences
}

// Watcher is nil when the primary transition cannot be monitored.
func (s *Switch) Watcher() *monitor.Watcher {
	return s.watcher
}

func (s *Switch) Shared() []SharedEffect {
	return s.shared
}

// Share adds an external sequence to start on every Activate.
func (s *Switch) Share(other *Switch, sequence int) {
	s.shared = append(s.shared, SharedEffect{Switch: other, Sequence: sequence})
}

// Initialize builds the monitor for the primary transition and claims the
// switch's action on its ObjectState.
func (s *Switch) Initialize() error {
	if s.initialized {
		return nil
	}
	m, err := s.buildMonitor()
	if err != nil {
		return err
	}
	if m != nil {
		if err := s.state.Register(s.cfg.Action); err != nil {
			return err
		}
		iterations := 1 + s.sequences[0].AutoLinks()
		s.watcher = monitor.NewWatcher(s.world, m, iterations, s.flipped)
	}
	s.initialized = true
	return nil
}

// Activate starts the watcher, every own sequence and every shared sequence.
// Starting another switch's primary sequence also starts that switch's watcher.
func (s *Switch) Activate() error {
	if !s.initialized {
		return ErrNotInitialized
	}
	if s.watcher != nil {
		s.watcher.Start()
	}
	for _, seq := range s.sequences {
		seq.Start()
	}
	for _, fx := range s.shared {
		if fx.Switch == nil || fx.Sequence < 0 || fx.Sequence >= len(fx.Switch.sequences) {
			s.logger.Warn("shared effect skipped", "switch", s.cfg.Name, "index", fx.Sequence)
			continue
		}
		// The owner's monitor watches its primary sequence, so it has to
		// sample whenever that sequence runs.
		if fx.Sequence == 0 && fx.Switch.watcher != nil {
			fx.Switch.watcher.Start()
		}
		fx.Switch.sequences[fx.Sequence].Start()
	}
	s.logger.Debug("switch activated", "switch", s.cfg.Name, "tick", s.world.Tick())
	return nil
}

// FlipInitialState puts the object in its toggled state without animating.
// It must run after Initialize so monitors keep their rest origin.
func (s *Switch) FlipInitialState() error {
	if !s.initialized {
		return ErrNotInitialized
	}
	for _, seq := range s.sequences {
		seq.Flip()
	}
	s.state.Force(s.cfg.Action, true)
	s.record(objstate.CauseInitial)
	return nil
}

func (s *Switch) flipped(bool) {
	s.state.Toggle(s.cfg.Action)
	s.record(objstate.CauseMonitor)
}

func (s *Switch) record(cause objstate.Cause) {
	snap := s.state.Snapshot(s.world.Tick(), s.cfg.Action, cause)
	s.logger.Info("object state changed",
		"object", snap.Object, "action", string(s.cfg.Action),
		"value", s.state.Get(s.cfg.Action), "cause", string(cause), "tick", snap.Tick)
	if s.log != nil {
		if err := s.log.AddState(context.Background(), snap); err != nil {
			s.logger.Warn("state log append failed", "object", snap.Object, "err", err)
		}
	}
	if s.onFlip != nil {
		s.onFlip(s, snap)
	}
}

func (s *Switch) buildMonitor() (monitor.Monitor, error) {
	if len(s.sequences) == 0 {
		return nil, nil
	}
	primary := s.sequences[0].Primary()
	switch fx := primary.Effect().(type) {
	case *transition.Toggle:
		return monitor.NewFlagMonitor(s.world, fx.Targets()[0], fx.Flag()), nil
	case *transition.VectorChange:
		p := fx.Params()
		if p.ROI == 0 {
			return nil, nil
		}
		threshold := p.Delta.Length() * p.ROI
		return monitor.NewValueMonitor(s.world, fx.Targets()[0], p.Property, fx.Origin(), p.Delta, threshold), nil
	case *transition.TorqueApply:
		target := fx.Targets()[0]
		h, ok := ecs.Get(s.world, target, component.HingeComponent)
		if !ok {
			return nil, fmt.Errorf("switch %s: torque target has no hinge", s.cfg.Name)
		}
		b := fx.Params().Bounds
		return monitor.NewRangeMonitor(s.world, target, h.Axis, b.Min, b.Max), nil
	}
	return nil, nil
}
