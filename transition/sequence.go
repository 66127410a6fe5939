package transition

import "github.com/milk9111/propsim/ecs"

// Sequence chains transitions. Its cursor survives between Starts, so a
// chain joined by Manual links advances one transition per Start, while Auto
// links run straight on within the same Start.
type Sequence struct {
	name        string
	world       *ecs.World
	transitions []*Transition
	links       []LinkType
	cursor      int
	running     bool
}

func NewSequence(w *ecs.World, name string, transitions []*Transition, links []LinkType) (*Sequence, error) {
	if w == nil {
		return nil, ErrNilWorld
	}
	if len(transitions) == 0 {
		return nil, ErrEmptySequence
	}
	if len(links) != len(transitions)-1 {
		return nil, ErrLinkCount
	}
	return &Sequence{
		name:        name,
		world:       w,
		transitions: append([]*Transition(nil), transitions...),
		links:       append([]LinkType(nil), links...),
	}, nil
}

func (s *Sequence) Name() string {
	return s.name
}

func (s *Sequence) Cursor() int {
	return s.cursor
}

func (s *Sequence) Running() bool {
	return s.running
}

func (s *Sequence) Transitions() []*Transition {
	return s.transitions
}

func (s *Sequence) Links() []LinkType {
	return s.links
}

// Primary is the first transition of the chain.
func (s *Sequence) Primary() *Transition {
	return s.transitions[0]
}

// AutoLinks counts the links that run on without a new Start.
func (s *Sequence) AutoLinks() int {
	n := 0
	for _, l := range s.links {
		if l == Auto {
			n++
		}
	}
	return n
}

// Start runs the chain from the cursor. While a run is in flight, Start is
// forwarded to the current transition, which treats it as an interrupt.
func (s *Sequence) Start() bool {
	if s.running {
		s.transitions[s.cursor].Trigger()
		return false
	}
	if s.cursor >= len(s.transitions) {
		s.cursor = 0
	}
	s.running = true
	s.transitions[s.cursor].Trigger()
	s.world.Spawn(s)
	return true
}

// Step waits for the current transition and decides where the chain goes
// next. It implements ecs.Task.
func (s *Sequence) Step(float64) bool {
	current := s.transitions[s.cursor]
	if current.Running() {
		return false
	}
	if !current.Proceeded() {
		s.running = false
		return true
	}
	if s.cursor == len(s.transitions)-1 {
		s.cursor = len(s.transitions)
		s.running = false
		return true
	}
	link := s.links[s.cursor]
	s.cursor++
	if link == Manual {
		s.running = false
		return true
	}
	s.transitions[s.cursor].Trigger()
	return false
}

// Flip applies the current transition's end state without animating and
// moves the cursor past it. Used to set up objects that start toggled.
func (s *Sequence) Flip() {
	if s.running {
		return
	}
	if s.cursor >= len(s.transitions) {
		s.cursor = 0
	}
	s.transitions[s.cursor].ApplyEndState()
	s.cursor++
}
