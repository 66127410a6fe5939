package metrics

import (
	"testing"
	"time"

	"github.com/milk9111/propsim/common"
	"github.com/milk9111/propsim/ecs"
	"github.com/milk9111/propsim/ecs/component"
	"github.com/milk9111/propsim/objstate"
	"github.com/milk9111/propsim/transition"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserverCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	set, err := New(reg)
	require.NoError(t, err)

	w := ecs.NewWorld(10)
	e := w.CreateEntity()
	require.NoError(t, ecs.Add(w, e, component.TransformComponent, &component.Transform{}))
	tr, err := transition.NewVectorChange(w, []ecs.Entity{e}, transition.Config{Name: "slide", Duration: 1}, transition.VectorParams{
		Delta: common.Vec3{X: 1},
	})
	require.NoError(t, err)
	tr.SetObserver(set)

	step := func(n int) {
		for i := 0; i < n; i++ {
			w.StepTasks(w.DeltaTime())
			w.Advance()
		}
	}

	tr.Trigger()
	step(3)
	assert.Equal(t, 1.0, testutil.ToFloat64(set.running))
	tr.Trigger()
	step(1)
	assert.Equal(t, 0.0, testutil.ToFloat64(set.running))
	assert.Equal(t, 1.0, testutil.ToFloat64(set.interrupts.WithLabelValues("vector", "active", "stop")))
	assert.Equal(t, 1.0, testutil.ToFloat64(set.finished.WithLabelValues("vector", "aborted")))

	tr.Trigger()
	step(20)
	assert.Equal(t, 1.0, testutil.ToFloat64(set.starts.WithLabelValues("vector", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(set.finished.WithLabelValues("vector", "completed")))
}

func TestStateChangedAndTicks(t *testing.T) {
	reg := prometheus.NewRegistry()
	set, err := New(reg)
	require.NoError(t, err)

	s := objstate.New("Door", objstate.Parent{})
	set.StateChanged(nil, s.Snapshot(1, objstate.ActionOpen, objstate.CauseMonitor))
	set.StateChanged(nil, s.Snapshot(2, objstate.ActionOpen, objstate.CauseMonitor))
	set.ObserveTick(time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(set.stateChanges.WithLabelValues("Door", "open", "monitor")))
	assert.Equal(t, 1.0, testutil.ToFloat64(set.ticks))

	_, err = New(reg)
	assert.Error(t, err)
}

func TestResetClearsRunningGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	set, err := New(reg)
	require.NoError(t, err)

	set.running.Add(3)
	set.Reset()
	assert.Equal(t, 0.0, testutil.ToFloat64(set.running))
}
