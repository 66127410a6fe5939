package scene

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/milk9111/propsim/common"
	"github.com/milk9111/propsim/ecs"
	"github.com/milk9111/propsim/ecs/component"
	"github.com/milk9111/propsim/ecs/system"
	"github.com/milk9111/propsim/monitor"
	"github.com/milk9111/propsim/objstate"
	"github.com/milk9111/propsim/transition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func buildKitchen(t *testing.T) (*Scene, *objstate.MemoryLog, *ecs.Scheduler) {
	t.Helper()
	src := Source{}
	spec, err := src.LoadSpec("kitchen")
	require.NoError(t, err)

	w := ecs.NewWorld(30)
	log := objstate.NewMemoryLog(0)
	sc, err := Build(w, spec, Options{Log: log, Resources: NewResources(src, nil)})
	require.NoError(t, err)
	sched := ecs.NewScheduler(system.NewTaskSystem(), system.NewPhysicsSystem())
	return sc, log, sched
}

func run(w *ecs.World, s *ecs.Scheduler, n int) {
	for i := 0; i < n; i++ {
		s.Update(w)
	}
}

func TestKitchenBuilds(t *testing.T) {
	sc, _, _ := buildKitchen(t)

	assert.Equal(t, "kitchen", sc.Name)
	assert.Len(t, sc.ObjectNames(), 9)
	names := make([]string, 0)
	for _, sw := range sc.Switches() {
		names = append(names, sw.Name())
	}
	assert.Equal(t, []string{"DoorHandle", "ToasterPush", "LightsNorth", "LightsSouth", "TVRemote", "FridgeHandle"}, names)

	door, ok := sc.Switch("DoorHandle")
	require.True(t, ok)
	assert.Equal(t, "pull", door.Pose())
	assert.Equal(t, objstate.ActionOpen, door.Action())
	_, isValue := door.Watcher().Monitor().(*monitor.ValueMonitor)
	assert.True(t, isValue)

	toaster, _ := sc.Switch("ToasterPush")
	assert.Equal(t, 2, toaster.Watcher().Iterations())

	fridge, _ := sc.Switch("FridgeHandle")
	_, isRange := fridge.Watcher().Monitor().(*monitor.RangeMonitor)
	assert.True(t, isRange)
	assert.NotNil(t, sc.World.PhysicsWorld())

	south, _ := sc.Switch("LightsSouth")
	assert.Nil(t, south.Watcher())
	assert.Len(t, south.Shared(), 2)

	state, ok := sc.States.Get("Toaster")
	require.True(t, ok)
	assert.Equal(t, "CounterTop", state.Parent().Type)
	assert.NotEmpty(t, sc.Transitions())
}

func TestKitchenDoorAndToaster(t *testing.T) {
	sc, log, sched := buildKitchen(t)
	w := sc.World

	door, _ := sc.Switch("DoorHandle")
	require.NoError(t, door.Activate())
	run(w, sched, 60)
	doorState, _ := sc.States.Get("Door")
	assert.True(t, doorState.IsOpen())

	toaster, _ := sc.Switch("ToasterPush")
	require.NoError(t, toaster.Activate())
	run(w, sched, 250)
	leverState, _ := sc.States.Get("ToasterLever")
	assert.False(t, leverState.IsPowered())

	var toasts []objstate.Snapshot
	for _, s := range log.Snapshots() {
		if s.Object == "ToasterLever" {
			toasts = append(toasts, s)
		}
	}
	require.Len(t, toasts, 2)
	assert.True(t, toasts[0].Powered)
	assert.False(t, toasts[1].Powered)
}

func TestKitchenSharedLights(t *testing.T) {
	sc, log, sched := buildKitchen(t)
	w := sc.World

	south, _ := sc.Switch("LightsSouth")
	require.NoError(t, south.Activate())
	run(w, sched, 3)

	lamp, _ := sc.Object("LampA")
	mats, ok := ecs.Get(w, lamp, component.MaterialsComponent)
	require.True(t, ok)
	assert.True(t, mats.Items[0].Emissive)
	assert.False(t, mats.Items[1].Emissive)

	wall, _ := sc.Object("WallSwitchA")
	flags, ok := ecs.Get(w, wall, component.FlagsComponent)
	require.True(t, ok)
	assert.True(t, flags.Get("on"))

	state, ok := sc.States.Get("WallSwitchA")
	require.True(t, ok)
	assert.True(t, state.IsPowered())
	require.Equal(t, 1, log.Len())
	assert.Equal(t, "WallSwitchA", log.Snapshots()[0].Object)
}

func TestKitchenTVScript(t *testing.T) {
	sc, log, sched := buildKitchen(t)
	w := sc.World

	remote, _ := sc.Switch("TVRemote")
	require.NoError(t, remote.Activate())
	run(w, sched, 20)

	tv, _ := sc.Object("Television")
	media, _ := ecs.Get(w, tv, component.MediaComponent)
	flags, _ := ecs.Get(w, tv, component.FlagsComponent)
	assert.True(t, media.IsPlaying("news"))
	assert.True(t, flags.Get("screen"))

	mats, _ := ecs.Get(w, tv, component.MaterialsComponent)
	assert.InDelta(t, 16.0/255+0.2, mats.Items[0].Color.R, 1e-9)

	state, _ := sc.States.Get("Television")
	assert.True(t, state.IsPowered())
	assert.Equal(t, 1, log.Len())
}

const brokenScene = `
name: broken
objects:
  - name: Good
    switches:
      - name: GoodSwitch
        sequences:
          - transitions:
              - {kind: vector, duration: 1, params: {delta: "1,0,0", roi: 0.5}}
  - name: BadPolicy
    switches:
      - name: BadSwitch
        sequences:
          - transitions:
              - {kind: vector, delay_policy: revert, params: {delta: "1,0,0"}}
  - name: BadKind
    switches:
      - name: WeirdSwitch
        sequences:
          - transitions:
              - {kind: teleport}
  - name: Lonely
    switches:
      - name: LonelySwitch
        sequences:
          - transitions:
              - {kind: toggle, targets: [Ghost]}
  - name: TooLong
    hinge: {axis: "0,1,0"}
    switches:
      - name: TooLongSwitch
        sequences:
          - transitions:
              - kind: torque
                duration: 1
                params: {magnitude: 1, curve: [{time: 0, value: 1}, {time: 2, value: 0}]}
  - name: Twin
    switches:
      - name: TwinA
        action: open
        sequences:
          - transitions:
              - {kind: vector, params: {delta: "0,1,0", roi: 0.5}}
      - name: TwinB
        action: open
        sequences:
          - transitions:
              - {kind: vector, params: {delta: "0,2,0", roi: 0.5}}
`

func TestBuildCollectsConfigErrors(t *testing.T) {
	spec, err := Parse([]byte(brokenScene))
	require.NoError(t, err)

	sc, err := Build(ecs.NewWorld(60), spec, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, transition.ErrRevertOnDelay)
	assert.ErrorIs(t, err, transition.ErrCurveTooLong)
	assert.ErrorIs(t, err, objstate.ErrDuplicateMonitor)
	assert.Contains(t, err.Error(), "teleport")

	_, ok := sc.Switch("GoodSwitch")
	assert.True(t, ok)
	for _, name := range []string{"BadSwitch", "WeirdSwitch", "LonelySwitch", "TooLongSwitch", "TwinA", "TwinB"} {
		_, ok := sc.Switch(name)
		assert.False(t, ok, name)
	}
	assert.Len(t, sc.ObjectNames(), 6)
}

func TestNegativeROIIsConfigError(t *testing.T) {
	spec, err := Parse([]byte(`
name: hatch
objects:
  - name: Hatch
    switches:
      - name: HatchLever
        action: open
        sequences:
          - transitions:
              - {kind: vector, duration: 1, params: {delta: "0,1,0", roi: -0.5}}
`))
	require.NoError(t, err)

	sc, err := Build(ecs.NewWorld(60), spec, Options{})
	assert.ErrorIs(t, err, transition.ErrNegativeROI)
	_, ok := sc.Switch("HatchLever")
	assert.False(t, ok)
	assert.Len(t, sc.ObjectNames(), 1)
}

func TestInitiallyOn(t *testing.T) {
	spec, err := Parse([]byte(`
name: drawer
objects:
  - name: Drawer
    switches:
      - name: DrawerPull
        initially_on: true
        sequences:
          - links: [manual]
            transitions:
              - {kind: vector, duration: 0.5, params: {delta: "0,0,0.4", roi: 0.5}}
              - {kind: vector, duration: 0.5, params: {delta: "0,0,-0.4", roi: 0.5}}
`))
	require.NoError(t, err)

	log := objstate.NewMemoryLog(0)
	w := ecs.NewWorld(20)
	sc, err := Build(w, spec, Options{Log: log})
	require.NoError(t, err)

	state, _ := sc.States.Get("Drawer")
	assert.True(t, state.IsOpen())
	e, _ := sc.Object("Drawer")
	tr, _ := ecs.Get(w, e, component.TransformComponent)
	assert.InDelta(t, 0.4, tr.Position.Z, 1e-9)

	sw, _ := sc.Switch("DrawerPull")
	require.NoError(t, sw.Activate())
	run(w, ecs.NewScheduler(system.NewTaskSystem()), 20)
	assert.False(t, state.IsOpen())
	assert.InDelta(t, 0, tr.Position.Z, 1e-9)
	assert.Equal(t, 2, log.Len())
}

func TestYAMLScalars(t *testing.T) {
	var doc struct {
		A YAMLVec3  `yaml:"a"`
		B YAMLVec3  `yaml:"b"`
		C YAMLVec3  `yaml:"c"`
		D YAMLColor `yaml:"d"`
		E YAMLColor `yaml:"e"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(`
a: "1, 2.5, -3"
b: [4, 5, 6.5]
c: {y: 7}
d: "#ff000080"
e: white
`), &doc))
	assert.Equal(t, common.Vec3{X: 1, Y: 2.5, Z: -3}, doc.A.Vec3)
	assert.Equal(t, common.Vec3{X: 4, Y: 5, Z: 6.5}, doc.B.Vec3)
	assert.Equal(t, common.Vec3{Y: 7}, doc.C.Vec3)
	assert.InDelta(t, 1, doc.D.R, 1e-9)
	assert.InDelta(t, 128.0/255, doc.D.A, 1e-9)
	assert.Equal(t, common.Vec4{R: 1, G: 1, B: 1, A: 1}, doc.E.Vec4)

	var bad struct {
		V YAMLVec3 `yaml:"v"`
	}
	assert.Error(t, yaml.Unmarshal([]byte(`v: "1,2"`), &bad))
	var badColor struct {
		C YAMLColor `yaml:"c"`
	}
	assert.Error(t, yaml.Unmarshal([]byte(`c: "#12"`), &badColor))
}

func TestDecodeParamsRejectsUnknownKeys(t *testing.T) {
	var p vectorParams
	err := decodeParams(map[string]any{"delta": "1,0,0", "speed": 3}, &p)
	assert.Error(t, err)

	require.NoError(t, decodeParams(map[string]any{"property": "rotation", "delta": []any{0, 90, 0}, "initial": "0,0,0"}, &p))
	assert.Equal(t, common.Vec3{Y: 90}, p.Delta)
	require.NotNil(t, p.Initial)
}

func TestParseRequiresName(t *testing.T) {
	_, err := Parse([]byte("objects: []"))
	assert.Error(t, err)
}

func TestSourceDiskOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "attic.yaml"), []byte("name: attic\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kitchen.yaml"), []byte("name: override\n"), 0o644))

	src := Source{Dir: dir}
	names, err := src.List()
	require.NoError(t, err)
	assert.Contains(t, names, "attic")
	assert.Contains(t, names, "kitchen")

	spec, err := src.LoadSpec("kitchen")
	require.NoError(t, err)
	assert.Equal(t, "override", spec.Name)

	_, ok := src.ModTime("kitchen")
	assert.True(t, ok)
	_, ok = Source{}.ModTime("kitchen")
	assert.False(t, ok)

	script, err := src.LoadScript("tv.tengo")
	require.NoError(t, err)
	assert.Contains(t, string(script), "on_toggle")
}
