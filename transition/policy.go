package transition

import (
	"fmt"
	"strings"
)

// InterruptPolicy governs what a running phase does when Trigger is called
// again before it finishes.
type InterruptPolicy int

const (
	// Stop freezes the run where it is. In the active phase the run can be
	// resumed by the next Trigger.
	Stop InterruptPolicy = iota
	// Ignore keeps running as if nothing happened.
	Ignore
	// Immediate skips the rest of the delay and starts the active phase.
	// Delay phase only.
	Immediate
	// Revert plays the active phase backwards to its start. Active phase only.
	Revert
)

var policyNames = map[InterruptPolicy]string{
	Stop:      "stop",
	Ignore:    "ignore",
	Immediate: "immediate",
	Revert:    "revert",
}

func (p InterruptPolicy) String() string {
	if s, ok := policyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// ParseInterruptPolicy maps a scene name to a policy. Empty means Stop.
func ParseInterruptPolicy(s string) (InterruptPolicy, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return Stop, nil
	}
	for p, n := range policyNames {
		if n == name {
			return p, nil
		}
	}
	return Stop, fmt.Errorf("transition: unknown interrupt policy %q", s)
}

// LinkType joins two transitions of a sequence.
type LinkType int

const (
	// Manual waits for the next Start before running the following transition.
	Manual LinkType = iota
	// Auto runs the following transition in the same Start.
	Auto
)

func (l LinkType) String() string {
	if l == Auto {
		return "auto"
	}
	return "manual"
}

func ParseLinkType(s string) (LinkType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "manual":
		return Manual, nil
	case "auto":
		return Auto, nil
	}
	return Manual, fmt.Errorf("transition: unknown link type %q", s)
}

// Phase is where a run currently is.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDelay
	PhaseActive
	PhaseRevert
)

func (p Phase) String() string {
	switch p {
	case PhaseDelay:
		return "delay"
	case PhaseActive:
		return "active"
	case PhaseRevert:
		return "revert"
	}
	return "idle"
}
