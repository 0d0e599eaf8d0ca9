package events

// Event type constants for kelindar/event.
const (
	TypeStateChanged uint32 = iota + 1
	TypeServerOutput
	TypeHealthProbe
	TypeConfigReloaded
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// StateChangedEvent is published on every supervisor state transition.
type StateChangedEvent struct {
	From      string `json:"from" example:"stopped" doc:"Previous supervisor state"`
	To        string `json:"to" example:"starting" doc:"New supervisor state"`
	Error     string `json:"error,omitempty" doc:"Error message when the new state is error"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Transition timestamp"`
}

// Type returns the event type identifier for StateChangedEvent.
func (e StateChangedEvent) Type() uint32 { return TypeStateChanged }

// ServerOutputEvent carries one line of supervised server output.
type ServerOutputEvent struct {
	Source    string `json:"source" example:"stdout" doc:"Output stream the line came from"`
	Line      string `json:"line" doc:"Raw output line"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Relay timestamp"`
}

// Type returns the event type identifier for ServerOutputEvent.
func (e ServerOutputEvent) Type() uint32 { return TypeServerOutput }

// HealthProbeEvent reports the outcome of a readiness probe.
type HealthProbeEvent struct {
	Endpoint  string `json:"endpoint" doc:"Base URL that was probed"`
	Healthy   bool   `json:"healthy" doc:"Whether the health endpoint answered 2xx"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Probe timestamp"`
}

// Type returns the event type identifier for HealthProbeEvent.
func (e HealthProbeEvent) Type() uint32 { return TypeHealthProbe }

// ConfigReloadedEvent is published when the config file is hot-reloaded.
type ConfigReloadedEvent struct {
	Path      string `json:"path" doc:"Path of the reloaded config file"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Reload timestamp"`
}

// Type returns the event type identifier for ConfigReloadedEvent.
func (e ConfigReloadedEvent) Type() uint32 { return TypeConfigReloaded }

// LogEntryEvent mirrors a log line into the event stream for SSE clients.
type LogEntryEvent struct {
	Timestamp  string         `json:"timestamp" example:"2025-01-27T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"supervisor" doc:"Module that produced the line"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
