// Package supervisor manages the lifecycle of the external preview server.
//
// A Supervisor owns at most one live process at a time and tracks it with a
// four-state machine:
//
//	stopped -> starting -> running
//	                \-> error
//
// Start is idempotent while active, adopts an already-healthy server
// without spawning, and otherwise launches the server through the shellenv
// resolver, relays its output line-by-line, and polls the health endpoint
// until the server is ready, the process dies, or the startup deadline
// passes. Stop never blocks: it signals politely and arms a detached
// force-kill timer for processes that ignore the request.
//
// Every state transition synchronously invokes the configured callback and
// publishes a StateChangedEvent, so hosts can mirror the state without
// polling. Callers are expected to serialize Start/Stop on one instance.
package supervisor
