// Package metrics exports engine counters to Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/milk9111/propsim/activation"
	"github.com/milk9111/propsim/objstate"
	"github.com/milk9111/propsim/transition"
	"github.com/prometheus/client_golang/prometheus"
)

// Set holds the engine collectors. It implements transition.Observer.
type Set struct {
	starts       *prometheus.CounterVec
	interrupts   *prometheus.CounterVec
	finished     *prometheus.CounterVec
	running      prometheus.Gauge
	stateChanges *prometheus.CounterVec
	ticks        prometheus.Counter
	tickDuration prometheus.Histogram
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) (*Set, error) {
	s := &Set{
		starts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "propsim_transition_starts_total",
			Help: "Transition runs started, by kind and whether the run resumed a stopped one.",
		}, []string{"kind", "resumed"}),
		interrupts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "propsim_transition_interrupts_total",
			Help: "Interrupts consumed by running transitions.",
		}, []string{"kind", "phase", "policy"}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "propsim_transition_finished_total",
			Help: "Transition runs that ended, by outcome.",
		}, []string{"kind", "outcome"}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "propsim_transitions_running",
			Help: "Transitions currently running.",
		}),
		stateChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "propsim_state_changes_total",
			Help: "Discrete object state changes recorded by switches.",
		}, []string{"object", "action", "cause"}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "propsim_ticks_total",
			Help: "Engine ticks executed.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "propsim_tick_duration_seconds",
			Help:    "Wall time spent per engine tick.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12),
		}),
	}
	for _, c := range []prometheus.Collector{s.starts, s.interrupts, s.finished, s.running, s.stateChanges, s.ticks, s.tickDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Set) Started(t *transition.Transition, resumed bool) {
	s.starts.WithLabelValues(string(t.Kind()), strconv.FormatBool(resumed)).Inc()
	s.running.Inc()
}

func (s *Set) Interrupted(t *transition.Transition, phase transition.Phase, policy transition.InterruptPolicy) {
	s.interrupts.WithLabelValues(string(t.Kind()), phase.String(), policy.String()).Inc()
}

func (s *Set) Finished(t *transition.Transition, completed bool) {
	outcome := "aborted"
	if completed {
		outcome = "completed"
	}
	s.finished.WithLabelValues(string(t.Kind()), outcome).Inc()
	s.running.Dec()
}

// Reset zeroes the running gauge. Runs that belonged to a discarded world
// never report Finished, so the engine calls this when it swaps scenes.
func (s *Set) Reset() {
	s.running.Set(0)
}

// StateChanged counts a recorded snapshot. It has the activation.FlipHook
// signature.
func (s *Set) StateChanged(_ *activation.Switch, snap objstate.Snapshot) {
	s.stateChanges.WithLabelValues(snap.Object, string(snap.Action), string(snap.Cause)).Inc()
}

// ObserveTick records one engine tick.
func (s *Set) ObserveTick(d time.Duration) {
	s.ticks.Inc()
	s.tickDuration.Observe(d.Seconds())
}

var _ transition.Observer = (*Set)(nil)
