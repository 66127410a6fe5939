package objstate

import (
	"time"

	"github.com/google/uuid"
)

// Cause says why a snapshot was taken.
type Cause string

const (
	CauseInitial Cause = "initial"
	CauseMonitor Cause = "monitor"
)

// Snapshot is one state-change record handed to a Log.
type Snapshot struct {
	ID      string    `json:"id"`
	Tick    int       `json:"tick"`
	Time    time.Time `json:"time"`
	Object  string    `json:"object"`
	Open    bool      `json:"open"`
	Powered bool      `json:"powered"`
	Parent  Parent    `json:"parent"`
	Action  Action    `json:"action"`
	Cause   Cause     `json:"cause"`
}

// Snapshot captures the current state.
func (s *ObjectState) Snapshot(tick int, action Action, cause Cause) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		ID:      uuid.NewString(),
		Tick:    tick,
		Time:    time.Now().UTC(),
		Object:  s.name,
		Open:    s.open,
		Powered: s.powered,
		Parent:  s.parent,
		Action:  action,
		Cause:   cause,
	}
}
