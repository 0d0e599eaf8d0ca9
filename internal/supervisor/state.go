package supervisor

import "time"

// State represents the current state of the supervised server process.
type State string

// Supervisor states.
const (
	StateStopped  State = "stopped"  // No process, ready to start
	StateStarting State = "starting" // Launch or readiness poll in progress
	StateRunning  State = "running"  // Server answered the health probe
	StateError    State = "error"    // Last start attempt failed
)

// Info is a point-in-time snapshot of the supervisor.
type Info struct {
	State     State     `json:"state"`
	PID       int       `json:"pid,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	Endpoint  string    `json:"endpoint"`
	StartedAt time.Time `json:"started_at,omitzero"`
}
