// Package monitor turns continuous property motion into discrete flips.
//
// A Monitor samples a boolean condition of a target. A Watcher arms itself
// with the current sample and steps once per tick until the sample differs,
// then reports the flip, re-arming for as many iterations as it was built for.
package monitor

import "github.com/milk9111/propsim/ecs"

// Monitor samples a boolean condition of its target.
type Monitor interface {
	Sample() bool
}

// FlipFunc receives the newly sampled condition.
type FlipFunc func(now bool)

// Watcher drives a Monitor as a cooperative task.
type Watcher struct {
	world      *ecs.World
	monitor    Monitor
	iterations int
	onFlip     FlipFunc

	sampling  bool
	armed     bool
	remaining int
	flips     int
}

// NewWatcher observes m for iterations flips per Start. Fewer than one
// iteration is treated as one.
func NewWatcher(w *ecs.World, m Monitor, iterations int, onFlip FlipFunc) *Watcher {
	if iterations < 1 {
		iterations = 1
	}
	return &Watcher{world: w, monitor: m, iterations: iterations, onFlip: onFlip}
}

func (w *Watcher) Monitor() Monitor {
	return w.monitor
}

func (w *Watcher) Iterations() int {
	return w.iterations
}

// Sampling reports whether a watch is in flight.
func (w *Watcher) Sampling() bool {
	return w.sampling
}

// Flips counts every flip reported since construction.
func (w *Watcher) Flips() int {
	return w.flips
}

// Start arms the watcher. Calls made while a watch is in flight are ignored
// and return false.
func (w *Watcher) Start() bool {
	if w.sampling {
		return false
	}
	w.sampling = true
	w.remaining = w.iterations
	w.armed = w.monitor.Sample()
	w.world.Spawn(w)
	return true
}

// Step samples once. It implements ecs.Task.
func (w *Watcher) Step(float64) bool {
	now := w.monitor.Sample()
	if now == w.armed {
		return false
	}
	w.flips++
	if w.onFlip != nil {
		w.onFlip(now)
	}
	w.remaining--
	if w.remaining <= 0 {
		w.sampling = false
		return true
	}
	w.armed = now
	return false
}
