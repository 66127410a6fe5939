// Package scene loads YAML scene definitions and builds them into a world of
// objects, transitions and activation switches.
package scene

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/milk9111/propsim/activation"
	"github.com/milk9111/propsim/common"
	"github.com/milk9111/propsim/ecs"
	"github.com/milk9111/propsim/ecs/component"
	"github.com/milk9111/propsim/objstate"
	"github.com/milk9111/propsim/transition"
)

var ErrMissingTarget = errors.New("scene: missing target")

// Options wires collaborators into a build.
type Options struct {
	Logger    *slog.Logger
	Log       objstate.Log
	Observer  transition.Observer
	FlipHook  activation.FlipHook
	Resources *Resources
}

// Scene is a built scene.
type Scene struct {
	Name        string
	World       *ecs.World
	States      *objstate.Registry
	Resources   *Resources
	objects     map[string]ecs.Entity
	switches    map[string]*activation.Switch
	order       []string
	transitions []*transition.Transition
}

func (s *Scene) Object(name string) (ecs.Entity, bool) {
	e, ok := s.objects[name]
	return e, ok
}

func (s *Scene) ObjectNames() []string {
	names := make([]string, 0, len(s.objects))
	for n := range s.objects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (s *Scene) Switch(name string) (*activation.Switch, bool) {
	sw, ok := s.switches[name]
	return sw, ok
}

// Switches returns switches in scene order.
func (s *Scene) Switches() []*activation.Switch {
	out := make([]*activation.Switch, 0, len(s.order))
	for _, n := range s.order {
		out = append(out, s.switches[n])
	}
	return out
}

func (s *Scene) Transitions() []*transition.Transition {
	return s.transitions
}

type buildContext struct {
	world     *ecs.World
	resources *Resources
	logger    *slog.Logger
	names     map[string]bool
}

type pendingSwitch struct {
	sw   *activation.Switch
	spec SwitchSpec
}

// Build creates every object of spec in w. A configuration error aborts the
// object it belongs to and is returned joined with the others; the rest of
// the scene is still built. Switches whose targets are missing are logged and
// skipped.
func Build(w *ecs.World, spec Spec, opts Options) (*Scene, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	res := opts.Resources
	if res == nil {
		res = NewResources(Source{}, logger)
	}
	sc := &Scene{
		Name:      spec.Name,
		World:     w,
		States:    objstate.NewRegistry(),
		Resources: res,
		objects:   map[string]ecs.Entity{},
		switches:  map[string]*activation.Switch{},
	}
	bc := &buildContext{world: w, resources: res, logger: logger, names: map[string]bool{}}

	var errs []error
	for _, obj := range spec.Objects {
		if err := sc.addObject(w, obj); err != nil {
			errs = append(errs, fmt.Errorf("object %s: %w", obj.Name, err))
		}
	}

	groups := make(map[string][]pendingSwitch)
	for _, obj := range spec.Objects {
		if _, ok := sc.objects[obj.Name]; !ok {
			continue
		}
		group, err := sc.buildSwitches(bc, obj, opts)
		if err != nil {
			errs = append(errs, fmt.Errorf("object %s: %w", obj.Name, err))
			continue
		}
		groups[obj.Name] = group
	}

	for _, obj := range spec.Objects {
		for _, p := range groups[obj.Name] {
			sc.switches[p.sw.Name()] = p.sw
			sc.order = append(sc.order, p.sw.Name())
		}
	}

	for _, obj := range spec.Objects {
		for _, p := range groups[obj.Name] {
			for _, sh := range p.spec.Shared {
				other, ok := sc.switches[sh.Switch]
				if !ok {
					logger.Warn("shared effect references unknown switch", "switch", p.sw.Name(), "target", sh.Switch)
					continue
				}
				p.sw.Share(other, sh.Sequence)
			}
		}
	}

	for _, obj := range spec.Objects {
		group := groups[obj.Name]
		var initErr error
		for _, p := range group {
			if err := p.sw.Initialize(); err != nil {
				initErr = err
				break
			}
		}
		if initErr != nil {
			errs = append(errs, fmt.Errorf("object %s: %w", obj.Name, initErr))
			sc.dropSwitches(group)
			continue
		}
		for _, p := range group {
			if !p.spec.InitiallyOn {
				continue
			}
			if err := p.sw.FlipInitialState(); err != nil {
				errs = append(errs, fmt.Errorf("switch %s: %w", p.sw.Name(), err))
			}
		}
	}

	for _, n := range sc.order {
		for _, seq := range sc.switches[n].Sequences() {
			sc.transitions = append(sc.transitions, seq.Transitions()...)
		}
	}
	if opts.Observer != nil {
		for _, tr := range sc.transitions {
			tr.SetObserver(opts.Observer)
		}
	}

	logger.Info("scene built", "scene", spec.Name, "objects", len(sc.objects), "switches", len(sc.order), "errors", len(errs))
	return sc, errors.Join(errs...)
}

func (sc *Scene) dropSwitches(group []pendingSwitch) {
	drop := make(map[string]bool, len(group))
	for _, p := range group {
		drop[p.sw.Name()] = true
		delete(sc.switches, p.sw.Name())
	}
	kept := sc.order[:0]
	for _, n := range sc.order {
		if !drop[n] {
			kept = append(kept, n)
		}
	}
	sc.order = kept
}

func (sc *Scene) addObject(w *ecs.World, obj ObjectSpec) error {
	name := strings.TrimSpace(obj.Name)
	if name == "" {
		return fmt.Errorf("object name is required")
	}
	if _, dup := sc.objects[name]; dup {
		return fmt.Errorf("duplicate object name")
	}

	e := w.CreateEntity()
	scale := common.Vec3{X: 1, Y: 1, Z: 1}
	if obj.Transform.Scale != nil {
		scale = obj.Transform.Scale.Vec3
	}
	comps := []error{
		ecs.Add(w, e, component.NameComponent, &component.Name{Value: name, Type: obj.Type}),
		ecs.Add(w, e, component.TransformComponent, &component.Transform{
			Position: obj.Transform.Position.Vec3,
			Rotation: obj.Transform.Rotation.Vec3,
			Scale:    scale,
		}),
	}
	if obj.Parent.Type != "" {
		comps = append(comps, ecs.Add(w, e, component.PlacementComponent, &component.Placement{
			ParentType: obj.Parent.Type,
			Relation:   component.Relation(obj.Parent.Relation),
		}))
	}
	if len(obj.Flags) > 0 {
		flags := &component.Flags{}
		for k, v := range obj.Flags {
			flags.Set(k, v)
		}
		comps = append(comps, ecs.Add(w, e, component.FlagsComponent, flags))
	}
	if len(obj.Media) > 0 {
		media := &component.Media{Playing: map[string]bool{}}
		for _, m := range obj.Media {
			media.Playing[m] = false
		}
		comps = append(comps, ecs.Add(w, e, component.MediaComponent, media))
	}
	if len(obj.Materials) > 0 {
		mats := &component.Materials{}
		for _, m := range obj.Materials {
			mats.Items = append(mats.Items, component.Material{Name: m.Name, Emissive: m.Emissive, Color: m.Color.Vec4})
		}
		comps = append(comps, ecs.Add(w, e, component.MaterialsComponent, mats))
	}
	if obj.Hinge != nil {
		comps = append(comps, addHinge(w, e, obj))
	}
	if err := errors.Join(comps...); err != nil {
		w.DestroyEntity(e)
		return err
	}

	sc.objects[name] = e
	sc.States.Ensure(name, objstate.Parent{Type: obj.Parent.Type, Relation: obj.Parent.Relation})
	return nil
}

func addHinge(w *ecs.World, e ecs.Entity, obj ObjectSpec) error {
	pw := w.PhysicsWorld()
	if pw == nil {
		pw = ecs.NewPhysicsWorld()
		w.SetPhysicsWorld(pw)
	}
	h := obj.Hinge
	axis := h.Axis.Vec3
	if axis.Length() == 0 {
		axis = common.Vec3{Y: 1}
	}
	mass, moment := h.Mass, h.Moment
	if mass <= 0 {
		mass = 1
	}
	if moment <= 0 {
		moment = 1
	}
	body := pw.AddHinge(e, mass, moment, h.Angle)
	base := obj.Transform.Rotation.Vec3.Sub(axis.Normalize().Scale(h.Angle))
	return ecs.Add(w, e, component.HingeComponent, &component.Hinge{
		Body:         body,
		Axis:         axis,
		BaseRotation: base,
		Kinematic:    true,
	})
}

func (sc *Scene) buildSwitches(bc *buildContext, obj ObjectSpec, opts Options) ([]pendingSwitch, error) {
	var out []pendingSwitch
	state, _ := sc.States.Get(obj.Name)
	for _, ss := range obj.Switches {
		if ss.Name == "" || bc.names[ss.Name] {
			return nil, fmt.Errorf("switch name %q is empty or duplicated", ss.Name)
		}
		bc.names[ss.Name] = true
		action := objstate.ActionOpen
		if ss.Action != "" {
			a, err := objstate.ParseAction(ss.Action)
			if err != nil {
				return nil, fmt.Errorf("switch %s: %w", ss.Name, err)
			}
			action = a
		}

		seqs, err := sc.buildSequences(bc, obj, ss)
		if errors.Is(err, ErrMissingTarget) {
			bc.logger.Warn("switch skipped", "switch", ss.Name, "object", obj.Name, "err", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("switch %s: %w", ss.Name, err)
		}

		sw := activation.New(bc.world, activation.Config{
			Name:   ss.Name,
			Pose:   ss.Pose,
			Action: action,
			Anchor: ss.Anchor.Vec3,
		}, state, seqs,
			activation.WithLog(opts.Log),
			activation.WithLogger(bc.logger),
			activation.WithFlipHook(opts.FlipHook),
		)
		out = append(out, pendingSwitch{sw: sw, spec: ss})
	}
	return out, nil
}

func (sc *Scene) buildSequences(bc *buildContext, obj ObjectSpec, ss SwitchSpec) ([]*transition.Sequence, error) {
	seqs := make([]*transition.Sequence, 0, len(ss.Sequences))
	for i, sq := range ss.Sequences {
		name := sq.Name
		if name == "" {
			name = fmt.Sprintf("%s#%d", ss.Name, i)
		}
		trs := make([]*transition.Transition, 0, len(sq.Transitions))
		for j, ts := range sq.Transitions {
			tr, err := sc.buildTransition(bc, obj, ts)
			if err != nil {
				return nil, fmt.Errorf("sequence %s transition %d: %w", name, j, err)
			}
			trs = append(trs, tr)
		}
		links, err := parseLinks(sq.Links, len(trs))
		if err != nil {
			return nil, fmt.Errorf("sequence %s: %w", name, err)
		}
		seq, err := transition.NewSequence(bc.world, name, trs, links)
		if err != nil {
			return nil, fmt.Errorf("sequence %s: %w", name, err)
		}
		seqs = append(seqs, seq)
	}
	return seqs, nil
}

func parseLinks(raw []string, n int) ([]transition.LinkType, error) {
	if n == 0 {
		return nil, nil
	}
	if len(raw) == 0 {
		return make([]transition.LinkType, n-1), nil
	}
	links := make([]transition.LinkType, 0, len(raw))
	for _, r := range raw {
		l, err := transition.ParseLinkType(r)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, nil
}

func (sc *Scene) buildTransition(bc *buildContext, obj ObjectSpec, ts TransitionSpec) (*transition.Transition, error) {
	build, err := lookupKind(ts.Kind)
	if err != nil {
		return nil, err
	}
	names := ts.Targets
	if len(names) == 0 {
		names = []string{obj.Name}
	}
	targets := make([]ecs.Entity, 0, len(names))
	for _, n := range names {
		e, ok := sc.objects[n]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingTarget, n)
		}
		targets = append(targets, e)
	}

	delayPolicy, err := transition.ParseInterruptPolicy(ts.DelayPolicy)
	if err != nil {
		return nil, err
	}
	activePolicy, err := transition.ParseInterruptPolicy(ts.ActivePolicy)
	if err != nil {
		return nil, err
	}
	cfg := transition.Config{
		Name:            ts.Name,
		Delay:           ts.Delay,
		Duration:        ts.Duration,
		DelayPolicy:     delayPolicy,
		ActivePolicy:    activePolicy,
		UseInitialValue: ts.UseInitialValue,
	}
	if cfg.Name == "" {
		cfg.Name = fmt.Sprintf("%s/%s", obj.Name, ts.Kind)
	}
	return build(bc, targets, cfg, ts.Params)
}
