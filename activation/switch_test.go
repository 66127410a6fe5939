package activation

import (
	"testing"

	"github.com/milk9111/propsim/common"
	"github.com/milk9111/propsim/ecs"
	"github.com/milk9111/propsim/ecs/component"
	"github.com/milk9111/propsim/monitor"
	"github.com/milk9111/propsim/objstate"
	"github.com/milk9111/propsim/transition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTickRate = 10.0

type fixture struct {
	world *ecs.World
	log   *objstate.MemoryLog
	reg   *objstate.Registry
}

func newFixture() *fixture {
	return &fixture{
		world: ecs.NewWorld(testTickRate),
		log:   objstate.NewMemoryLog(0),
		reg:   objstate.NewRegistry(),
	}
}

func (f *fixture) entity(t *testing.T) ecs.Entity {
	t.Helper()
	e := f.world.CreateEntity()
	require.NoError(t, ecs.Add(f.world, e, component.TransformComponent, &component.Transform{Scale: common.Vec3{X: 1, Y: 1, Z: 1}}))
	return e
}

func (f *fixture) tick(n int) {
	for i := 0; i < n; i++ {
		f.world.StepTasks(f.world.DeltaTime())
		f.world.Advance()
	}
}

func (f *fixture) vector(t *testing.T, e ecs.Entity, name string, duration float64, prop component.VectorProperty, delta common.Vec3, roi float64) *transition.Transition {
	t.Helper()
	tr, err := transition.NewVectorChange(f.world, []ecs.Entity{e}, transition.Config{Name: name, Duration: duration}, transition.VectorParams{
		Property: prop,
		Delta:    delta,
		ROI:      roi,
	})
	require.NoError(t, err)
	return tr
}

func (f *fixture) sequence(t *testing.T, name string, link transition.LinkType, trs ...*transition.Transition) *transition.Sequence {
	t.Helper()
	links := make([]transition.LinkType, len(trs)-1)
	for i := range links {
		links[i] = link
	}
	seq, err := transition.NewSequence(f.world, name, trs, links)
	require.NoError(t, err)
	return seq
}

func (f *fixture) door(t *testing.T) (*Switch, ecs.Entity) {
	t.Helper()
	e := f.entity(t)
	open := f.vector(t, e, "open", 1, component.PropertyRotation, common.Vec3{Y: 90}, 0.5)
	closeDoor := f.vector(t, e, "close", 1, component.PropertyRotation, common.Vec3{Y: -90}, 0.5)
	seq := f.sequence(t, "door", transition.Manual, open, closeDoor)
	sw := New(f.world, Config{Name: "DoorHandle", Action: objstate.ActionOpen}, f.reg.Ensure("Door", objstate.Parent{}),
		[]*transition.Sequence{seq}, WithLog(f.log))
	require.NoError(t, sw.Initialize())
	return sw, e
}

func TestAutoSequenceProducesTwoToggles(t *testing.T) {
	f := newFixture()
	lever := f.entity(t)
	down := f.vector(t, lever, "lever-down", 5.5, component.PropertyPosition, common.Vec3{Y: -0.1}, 0.5)
	up := f.vector(t, lever, "lever-up", 0.5, component.PropertyPosition, common.Vec3{Y: 0.1}, 0.5)
	seq := f.sequence(t, "toast", transition.Auto, down, up)

	sw := New(f.world, Config{Name: "ToasterLever", Action: objstate.ActionSwitchOn}, f.reg.Ensure("Toaster", objstate.Parent{}),
		[]*transition.Sequence{seq}, WithLog(f.log))
	require.NoError(t, sw.Initialize())
	require.NotNil(t, sw.Watcher())
	assert.Equal(t, 2, sw.Watcher().Iterations())

	require.NoError(t, sw.Activate())
	f.tick(100)

	snaps := f.log.Snapshots()
	require.Len(t, snaps, 2)
	assert.True(t, snaps[0].Powered)
	assert.False(t, snaps[1].Powered)
	assert.False(t, sw.State().IsPowered())
	assert.False(t, sw.Watcher().Sampling())
	assert.False(t, seq.Running())
}

func TestManualSequenceNeedsSecondActivation(t *testing.T) {
	f := newFixture()
	sw, e := f.door(t)

	require.NoError(t, sw.Activate())
	f.tick(30)

	snaps := f.log.Snapshots()
	require.Len(t, snaps, 1)
	assert.True(t, snaps[0].Open)
	assert.Equal(t, objstate.CauseMonitor, snaps[0].Cause)
	tr, _ := ecs.Get(f.world, e, component.TransformComponent)
	assert.InDelta(t, 90, tr.Rotation.Y, 1e-9)

	require.NoError(t, sw.Activate())
	f.tick(30)

	snaps = f.log.Snapshots()
	require.Len(t, snaps, 2)
	assert.False(t, snaps[1].Open)
	assert.InDelta(t, 0, tr.Rotation.Y, 1e-9)
}

func TestOverlappingActivateDoesNotDoubleCount(t *testing.T) {
	f := newFixture()
	sw, _ := f.door(t)

	require.NoError(t, sw.Activate())
	f.tick(2)
	assert.False(t, sw.Watcher().Start())
	require.NoError(t, sw.Activate())
	f.tick(60)

	assert.LessOrEqual(t, f.log.Len(), 2)
	assert.Equal(t, sw.Watcher().Flips(), f.log.Len())
}

func TestFlipInitialState(t *testing.T) {
	f := newFixture()
	sw, e := f.door(t)

	require.NoError(t, sw.FlipInitialState())
	tr, _ := ecs.Get(f.world, e, component.TransformComponent)
	assert.InDelta(t, 90, tr.Rotation.Y, 1e-9)
	assert.True(t, sw.State().IsOpen())
	require.Equal(t, 1, f.log.Len())
	assert.Equal(t, objstate.CauseInitial, f.log.Snapshots()[0].Cause)

	require.NoError(t, sw.Activate())
	f.tick(30)
	assert.InDelta(t, 0, tr.Rotation.Y, 1e-9)
	assert.False(t, sw.State().IsOpen())
	assert.Equal(t, 2, f.log.Len())
}

func TestRequiresInitialize(t *testing.T) {
	f := newFixture()
	sw := New(f.world, Config{Name: "x"}, objstate.New("x", objstate.Parent{}), nil)
	assert.ErrorIs(t, sw.Activate(), ErrNotInitialized)
	assert.ErrorIs(t, sw.FlipInitialState(), ErrNotInitialized)
}

func TestSharedEffects(t *testing.T) {
	f := newFixture()
	lamp := f.entity(t)
	toggle, err := transition.NewToggle(f.world, []ecs.Entity{lamp}, transition.Config{Name: "lamp"}, transition.ToggleParams{})
	require.NoError(t, err)
	seq := f.sequence(t, "lamp", transition.Manual, toggle)

	lampState := f.reg.Ensure("Lamp", objstate.Parent{})
	owner := New(f.world, Config{Name: "WallSwitchA", Action: objstate.ActionSwitchOn}, lampState,
		[]*transition.Sequence{seq}, WithLog(f.log))
	remote := New(f.world, Config{Name: "WallSwitchB", Action: objstate.ActionSwitchOn}, lampState, nil, WithLog(f.log))
	remote.Share(owner, 0)
	remote.Share(owner, 7)
	require.NoError(t, owner.Initialize())
	require.NoError(t, remote.Initialize())
	assert.Nil(t, remote.Watcher())

	require.NoError(t, owner.Activate())
	f.tick(3)

	flags, ok := ecs.Get(f.world, lamp, component.FlagsComponent)
	require.True(t, ok)
	assert.True(t, flags.Get("on"))
	assert.True(t, lampState.IsPowered())
	require.Equal(t, 1, f.log.Len())

	require.NoError(t, remote.Activate())
	f.tick(3)
	assert.False(t, flags.Get("on"))
	assert.False(t, lampState.IsPowered(), "state follows the shared effect")
	require.Equal(t, 2, f.log.Len())
	assert.False(t, f.log.Snapshots()[1].Powered)
	assert.Equal(t, objstate.CauseMonitor, f.log.Snapshots()[1].Cause)
	assert.Equal(t, 2, toggle.Starts())
	assert.False(t, owner.Watcher().Sampling())
}

func TestMonitorConstruction(t *testing.T) {
	f := newFixture()

	t.Run("toggle", func(t *testing.T) {
		e := f.entity(t)
		tr, err := transition.NewToggle(f.world, []ecs.Entity{e}, transition.Config{}, transition.ToggleParams{Flag: "heating"})
		require.NoError(t, err)
		sw := New(f.world, Config{Name: "oven", Action: objstate.ActionSwitchOn}, objstate.New("Oven", objstate.Parent{}),
			[]*transition.Sequence{f.sequence(t, "oven", transition.Manual, tr)})
		require.NoError(t, sw.Initialize())
		m, ok := sw.Watcher().Monitor().(*monitor.FlagMonitor)
		require.True(t, ok)
		assert.Equal(t, "heating", m.Flag())
	})

	t.Run("vector", func(t *testing.T) {
		e := f.entity(t)
		tr := f.vector(t, e, "slide", 1, component.PropertyPosition, common.Vec3{X: 3, Z: 4}, 0.5)
		sw := New(f.world, Config{Name: "drawer", Action: objstate.ActionOpen}, objstate.New("Drawer", objstate.Parent{}),
			[]*transition.Sequence{f.sequence(t, "drawer", transition.Manual, tr)})
		require.NoError(t, sw.Initialize())
		m, ok := sw.Watcher().Monitor().(*monitor.ValueMonitor)
		require.True(t, ok)
		assert.InDelta(t, 2.5, m.Threshold(), 1e-12)
		assert.InDelta(t, 0.6, m.Direction().X, 1e-12)
		assert.InDelta(t, 0.8, m.Direction().Z, 1e-12)
	})

	t.Run("unmonitored", func(t *testing.T) {
		e := f.entity(t)
		tr := f.vector(t, e, "brew", 1, component.PropertyScale, common.Vec3{Y: 1}, 0)
		sw := New(f.world, Config{Name: "coffee", Action: objstate.ActionSwitchOn}, objstate.New("Coffee", objstate.Parent{}),
			[]*transition.Sequence{f.sequence(t, "brew", transition.Manual, tr)})
		require.NoError(t, sw.Initialize())
		assert.Nil(t, sw.Watcher())
		require.NoError(t, sw.Activate())
	})

	t.Run("torque", func(t *testing.T) {
		pw := ecs.NewPhysicsWorld()
		f.world.SetPhysicsWorld(pw)
		e := f.entity(t)
		body := pw.AddHinge(e, 1, 1, 0)
		require.NoError(t, ecs.Add(f.world, e, component.HingeComponent, &component.Hinge{Body: body, Axis: common.Vec3{Y: 1}, Kinematic: true}))
		tr, err := transition.NewTorqueApply(f.world, []ecs.Entity{e}, transition.Config{Duration: 1}, transition.TorqueParams{
			Magnitude: 10,
			Bounds:    transition.Bounds{Min: 10, Max: 80},
		})
		require.NoError(t, err)
		sw := New(f.world, Config{Name: "fridge", Action: objstate.ActionOpen}, objstate.New("Fridge", objstate.Parent{}),
			[]*transition.Sequence{f.sequence(t, "fridge", transition.Manual, tr)})
		require.NoError(t, sw.Initialize())
		_, ok := sw.Watcher().Monitor().(*monitor.RangeMonitor)
		assert.True(t, ok)
	})

	t.Run("torque without hinge", func(t *testing.T) {
		e := f.entity(t)
		tr, err := transition.NewTorqueApply(f.world, []ecs.Entity{e}, transition.Config{Duration: 1}, transition.TorqueParams{})
		require.NoError(t, err)
		sw := New(f.world, Config{Name: "broken", Action: objstate.ActionOpen}, objstate.New("Broken", objstate.Parent{}),
			[]*transition.Sequence{f.sequence(t, "broken", transition.Manual, tr)})
		assert.Error(t, sw.Initialize())
	})
}

func TestDuplicateMonitorIsConfigError(t *testing.T) {
	f := newFixture()
	state := f.reg.Ensure("Cabinet", objstate.Parent{})
	build := func(name string) *Switch {
		e := f.entity(t)
		tr := f.vector(t, e, name, 1, component.PropertyRotation, common.Vec3{Y: 90}, 0.5)
		return New(f.world, Config{Name: name, Action: objstate.ActionOpen}, state,
			[]*transition.Sequence{f.sequence(t, name, transition.Manual, tr)})
	}
	require.NoError(t, build("left").Initialize())
	assert.ErrorIs(t, build("right").Initialize(), objstate.ErrDuplicateMonitor)
}
