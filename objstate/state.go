// Package objstate holds the discrete semantic state of interactive objects
// and the append-only logs that record its changes.
package objstate

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrDuplicateMonitor = errors.New("objstate: monitor already registered")
	ErrUnknownAction    = errors.New("objstate: unknown action")
	ErrUnknownObject    = errors.New("objstate: unknown object")
)

// Action is the discrete property a switch drives.
type Action string

const (
	ActionOpen     Action = "open"
	ActionSwitchOn Action = "switch_on"
)

func ParseAction(s string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionOpen:
		return ActionOpen, nil
	case ActionSwitchOn, "switchon", "power":
		return ActionSwitchOn, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Parent records what an object sits inside or on top of.
type Parent struct {
	Type     string `json:"type,omitempty"`
	Relation string `json:"relation,omitempty"`
}

// ObjectState is the discrete record of one interactive object. It changes
// only through Force (initial setup) and Toggle (a completed monitor cycle).
type ObjectState struct {
	mu        sync.RWMutex
	name      string
	open      bool
	powered   bool
	parent    Parent
	monitored map[Action]bool
}

func New(name string, parent Parent) *ObjectState {
	return &ObjectState{name: name, parent: parent, monitored: make(map[Action]bool)}
}

func (s *ObjectState) Name() string {
	return s.name
}

func (s *ObjectState) IsOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.open
}

func (s *ObjectState) IsPowered() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.powered
}

func (s *ObjectState) Parent() Parent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.parent
}

// Get reads the boolean an action drives.
func (s *ObjectState) Get(a Action) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a == ActionOpen {
		return s.open
	}
	return s.powered
}

// Register claims an action for one monitor. A second claim is a
// configuration error.
func (s *ObjectState) Register(a Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.monitored[a] {
		return fmt.Errorf("%w: %s %s", ErrDuplicateMonitor, s.name, a)
	}
	s.monitored[a] = true
	return nil
}

// Force sets an action's boolean directly.
func (s *ObjectState) Force(a Action, v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(a, v)
}

// Toggle flips an action's boolean and returns the new value.
func (s *ObjectState) Toggle(a Action) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := !s.get(a)
	s.set(a, v)
	return v
}

func (s *ObjectState) get(a Action) bool {
	if a == ActionOpen {
		return s.open
	}
	return s.powered
}

func (s *ObjectState) set(a Action, v bool) {
	if a == ActionOpen {
		s.open = v
		return
	}
	s.powered = v
}

// Registry owns the states of a loaded scene, keyed by object name.
type Registry struct {
	mu     sync.RWMutex
	states map[string]*ObjectState
}

func NewRegistry() *Registry {
	return &Registry{states: make(map[string]*ObjectState)}
}

// Ensure returns the state for name, creating it on first use.
func (r *Registry) Ensure(name string, parent Parent) *ObjectState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.states[name]; ok {
		return s
	}
	s := New(name, parent)
	r.states[name] = s
	return s
}

func (r *Registry) Get(name string) (*ObjectState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.states[name]
	return s, ok
}

// Names lists registered objects in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.states))
	for n := range r.states {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
