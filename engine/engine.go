// Package engine drives a loaded scene at a fixed tick rate and serializes
// external requests with ticks.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/milk9111/propsim/activation"
	"github.com/milk9111/propsim/common"
	"github.com/milk9111/propsim/ecs"
	"github.com/milk9111/propsim/ecs/component"
	"github.com/milk9111/propsim/ecs/system"
	"github.com/milk9111/propsim/metrics"
	"github.com/milk9111/propsim/objstate"
	"github.com/milk9111/propsim/scene"
)

var (
	ErrNoScene       = errors.New("engine: no scene loaded")
	ErrUnknownSwitch = errors.New("engine: unknown switch")
	ErrUnknownObject = errors.New("engine: unknown object")
)

const recentStates = 1024

type Options struct {
	TickRate float64
	Logger   *slog.Logger
	Source   scene.Source
	StateLog objstate.Log
	Metrics  *metrics.Set
}

type Engine struct {
	mu      sync.Mutex
	opts    Options
	logger  *slog.Logger
	recent  *objstate.MemoryLog
	log     objstate.Log
	sched   *ecs.Scheduler
	world   *ecs.World
	scene   *scene.Scene
	current string
	pending map[int][]string
}

func New(opts Options) *Engine {
	if opts.TickRate <= 0 {
		opts.TickRate = ecs.DefaultTickRate
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recent := objstate.NewMemoryLog(recentStates)
	var log objstate.Log = recent
	if opts.StateLog != nil {
		log = objstate.MultiLog{recent, opts.StateLog}
	}
	return &Engine{
		opts:   opts,
		logger: logger,
		recent: recent,
		log:    log,
		sched:  ecs.NewScheduler(system.NewTaskSystem(), system.NewPhysicsSystem()),
	}
}

// LoadScene loads a scene by name from the configured source.
func (e *Engine) LoadScene(name string) error {
	spec, err := e.opts.Source.LoadSpec(name)
	if err != nil {
		return err
	}
	return e.Load(name, spec)
}

// Load builds spec into a fresh world and swaps it in. Configuration errors
// are returned but the rest of the scene stays loaded.
func (e *Engine) Load(name string, spec scene.Spec) error {
	world := ecs.NewWorld(e.opts.TickRate)
	opts := scene.Options{
		Logger:    e.logger,
		Log:       e.log,
		Resources: scene.NewResources(e.opts.Source, e.logger),
	}
	if e.opts.Metrics != nil {
		opts.Observer = e.opts.Metrics
		opts.FlipHook = e.opts.Metrics.StateChanged
	}
	sc, err := scene.Build(world, spec, opts)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scene != nil {
		e.scene.Resources.Close()
	}
	if e.opts.Metrics != nil {
		e.opts.Metrics.Reset()
	}
	e.world = world
	e.scene = sc
	e.current = name
	return err
}

// Reload rebuilds the current scene from its source.
func (e *Engine) Reload() error {
	e.mu.Lock()
	name := e.current
	e.mu.Unlock()
	if name == "" {
		return ErrNoScene
	}
	return e.LoadScene(name)
}

func (e *Engine) SceneName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Schedule activates a switch when the scene reaches tick. Past ticks fire
// on the next Tick.
func (e *Engine) Schedule(name string, tick int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == nil {
		e.pending = make(map[int][]string)
	}
	e.pending[tick] = append(e.pending[tick], name)
}

// Tick advances the scene by one fixed step.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.world == nil {
		return
	}
	start := time.Now()
	e.firePending()
	e.sched.Update(e.world)
	if e.opts.Metrics != nil {
		e.opts.Metrics.ObserveTick(time.Since(start))
	}
}

func (e *Engine) firePending() {
	now := e.world.Tick()
	var due []int
	for at := range e.pending {
		if at <= now {
			due = append(due, at)
		}
	}
	sort.Ints(due)
	for _, at := range due {
		names := e.pending[at]
		delete(e.pending, at)
		for _, n := range names {
			sw, ok := e.scene.Switch(n)
			if !ok {
				e.logger.Warn("scheduled activation skipped", "switch", n, "tick", now)
				continue
			}
			if err := sw.Activate(); err != nil {
				e.logger.Warn("scheduled activation failed", "switch", n, "err", err)
			}
		}
	}
}

// TickCount is the number of ticks the current scene has run.
func (e *Engine) TickCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.world == nil {
		return 0
	}
	return e.world.Tick()
}

// Run ticks at the configured rate until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	interval := time.Duration(float64(time.Second) / e.opts.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	e.logger.Info("engine running", "scene", e.SceneName(), "tick_rate", e.opts.TickRate)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.Tick()
		}
	}
}

// Activate triggers a switch by name.
func (e *Engine) Activate(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scene == nil {
		return ErrNoScene
	}
	sw, ok := e.scene.Switch(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSwitch, name)
	}
	return sw.Activate()
}

// ObjectView is a read-only copy of an object's state.
type ObjectView struct {
	Name     string          `json:"name"`
	Type     string          `json:"type,omitempty"`
	Open     bool            `json:"open"`
	Powered  bool            `json:"powered"`
	Parent   objstate.Parent `json:"parent"`
	Position common.Vec3     `json:"position"`
	Rotation common.Vec3     `json:"rotation"`
	Flags    map[string]bool `json:"flags,omitempty"`
	Playing  []string        `json:"playing,omitempty"`
}

func (e *Engine) Objects() []ObjectView {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scene == nil {
		return nil
	}
	names := e.scene.ObjectNames()
	out := make([]ObjectView, 0, len(names))
	for _, n := range names {
		out = append(out, e.objectView(n))
	}
	return out
}

func (e *Engine) Object(name string) (ObjectView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scene == nil {
		return ObjectView{}, ErrNoScene
	}
	if _, ok := e.scene.Object(name); !ok {
		return ObjectView{}, fmt.Errorf("%w: %s", ErrUnknownObject, name)
	}
	return e.objectView(name), nil
}

func (e *Engine) objectView(name string) ObjectView {
	v := ObjectView{Name: name}
	if st, ok := e.scene.States.Get(name); ok {
		v.Open = st.IsOpen()
		v.Powered = st.IsPowered()
		v.Parent = st.Parent()
	}
	ent, _ := e.scene.Object(name)
	w := e.scene.World
	if n, ok := ecs.Get(w, ent, component.NameComponent); ok {
		v.Type = n.Type
	}
	if t, ok := ecs.Get(w, ent, component.TransformComponent); ok {
		v.Position = t.Position
		v.Rotation = t.Rotation
	}
	if f, ok := ecs.Get(w, ent, component.FlagsComponent); ok && len(f.Values) > 0 {
		v.Flags = make(map[string]bool, len(f.Values))
		for k, val := range f.Values {
			v.Flags[k] = val
		}
	}
	if m, ok := ecs.Get(w, ent, component.MediaComponent); ok {
		for k, playing := range m.Playing {
			if playing {
				v.Playing = append(v.Playing, k)
			}
		}
		sort.Strings(v.Playing)
	}
	return v
}

type SequenceView struct {
	Name    string `json:"name"`
	Cursor  int    `json:"cursor"`
	Length  int    `json:"length"`
	Running bool   `json:"running"`
}

type SwitchView struct {
	Name      string          `json:"name"`
	Object    string          `json:"object"`
	Pose      string          `json:"pose,omitempty"`
	Action    objstate.Action `json:"action"`
	Anchor    common.Vec3     `json:"anchor"`
	Monitored bool            `json:"monitored"`
	Sampling  bool            `json:"sampling"`
	Sequences []SequenceView  `json:"sequences"`
}

func (e *Engine) Switches() []SwitchView {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scene == nil {
		return nil
	}
	sws := e.scene.Switches()
	out := make([]SwitchView, 0, len(sws))
	for _, sw := range sws {
		out = append(out, switchView(sw))
	}
	return out
}

func switchView(sw *activation.Switch) SwitchView {
	v := SwitchView{
		Name:   sw.Name(),
		Object: sw.State().Name(),
		Pose:   sw.Pose(),
		Action: sw.Action(),
		Anchor: sw.Anchor(),
	}
	if w := sw.Watcher(); w != nil {
		v.Monitored = true
		v.Sampling = w.Sampling()
	}
	for _, seq := range sw.Sequences() {
		v.Sequences = append(v.Sequences, SequenceView{
			Name:    seq.Name(),
			Cursor:  seq.Cursor(),
			Length:  len(seq.Transitions()),
			Running: seq.Running(),
		})
	}
	return v
}

// States returns the most recent state changes, oldest first.
func (e *Engine) States() []objstate.Snapshot {
	return e.recent.Snapshots()
}
