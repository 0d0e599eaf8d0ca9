package supervisor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/previewkit/previewd/internal/events"
	"github.com/previewkit/previewd/internal/logging"
	"github.com/previewkit/previewd/internal/metrics"
	"github.com/previewkit/previewd/internal/shellenv"
	"mvdan.cc/sh/v3/syntax"
)

const (
	defaultStartupTimeout = 15 * time.Second
	defaultPollInterval   = 500 * time.Millisecond
	defaultKillGrace      = 2 * time.Second
	defaultHostname       = "127.0.0.1"
	defaultCORSOrigin     = "app://previewkit"
)

// Settings is the mutable supervisor configuration. Changes take effect on
// the next Start.
type Settings struct {
	Executable     string        // server binary name or path
	Hostname       string        // listen hostname, default 127.0.0.1
	Port           int           // listen port
	WorkingDir     string        // working directory for the spawned process
	TargetDir      string        // directory the server serves; required
	StartupTimeout time.Duration // readiness deadline, default 15s
	CORSOrigin     string        // allowed origin identifying the embedding host
}

// StateChangeFunc is invoked synchronously on every state transition.
// errMsg is non-empty only when to is StateError.
type StateChangeFunc func(from, to State, errMsg string)

// Options configures a Supervisor.
type Options struct {
	Settings      Settings
	Resolver      shellenv.Strategy // nil: platform default
	Prober        *Prober           // nil: standard prober
	EventBus      *events.Bus       // optional
	OnStateChange StateChangeFunc   // optional
}

// Supervisor owns the external server process and its lifecycle state.
// One instance supervises one target; callers serialize Start/Stop.
type Supervisor struct {
	mu            sync.Mutex
	settings      Settings
	state         State
	lastErr       string
	cmd           *exec.Cmd
	procDone      chan struct{} // closed by the wait goroutine of the current process
	startedAt     time.Time
	earlyExitCode *int // exit code captured while starting, consumed by failure classification

	resolver      shellenv.Strategy
	prober        *Prober
	bus           *events.Bus
	onStateChange StateChangeFunc
	logger        *slog.Logger
	serverLogger  *slog.Logger

	// overridable in tests
	pollInterval time.Duration
	killGrace    time.Duration
	after        func(time.Duration) <-chan time.Time
}

// New creates a Supervisor in the stopped state.
func New(opts *Options) *Supervisor {
	resolver := opts.Resolver
	if resolver == nil {
		resolver = shellenv.ForPlatform()
	}
	prober := opts.Prober
	if prober == nil {
		prober = NewProber()
		prober.OnProbe = metrics.RecordProbe
	}

	return &Supervisor{
		settings:      withDefaults(opts.Settings),
		state:         StateStopped,
		resolver:      resolver,
		prober:        prober,
		bus:           opts.EventBus,
		onStateChange: opts.OnStateChange,
		logger:        logging.GetLogger("supervisor"),
		serverLogger:  logging.GetLogger("server"),
		pollInterval:  defaultPollInterval,
		killGrace:     defaultKillGrace,
		after:         func(d time.Duration) <-chan time.Time { return time.After(d) },
	}
}

func withDefaults(st Settings) Settings {
	if st.Hostname == "" {
		st.Hostname = defaultHostname
	}
	if st.StartupTimeout <= 0 {
		st.StartupTimeout = defaultStartupTimeout
	}
	if st.CORSOrigin == "" {
		st.CORSOrigin = defaultCORSOrigin
	}
	return st
}

// Configure replaces the stored settings. No effect on a running process.
func (s *Supervisor) Configure(st Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = withDefaults(st)
}

// SetTargetDirectory updates only the target directory.
func (s *Supervisor) SetTargetDirectory(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.TargetDir = dir
}

// Settings returns a copy of the current settings.
func (s *Supervisor) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// State returns the current state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError returns the message of the last terminal failure, or "".
func (s *Supervisor) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Endpoint returns the base URL the host UI embeds for the configured
// target directory. Identical settings always yield an identical URL.
func (s *Supervisor) Endpoint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return EndpointFor(s.settings.Hostname, s.settings.Port, s.settings.TargetDir)
}

// Status returns a point-in-time snapshot.
func (s *Supervisor) Status() Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := Info{
		State:     s.state,
		LastError: s.lastErr,
		Endpoint:  EndpointFor(s.settings.Hostname, s.settings.Port, s.settings.TargetDir),
	}
	if s.cmd != nil && s.cmd.Process != nil {
		info.PID = s.cmd.Process.Pid
		info.StartedAt = s.startedAt
	}
	return info
}

// Start launches the server and blocks until it is ready, the startup
// deadline passes, or the process dies. Calling Start while running or
// starting is a no-op returning nil; a duplicate server is never spawned.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateRunning || s.state == StateStarting {
		state := s.state
		s.mu.Unlock()
		s.logger.Debug("Start ignored, already active", "state", state)
		return nil
	}
	from := s.state
	s.state = StateStarting
	s.lastErr = ""
	s.earlyExitCode = nil
	settings := s.settings
	s.mu.Unlock()
	s.notify(from, StateStarting, "")

	if settings.TargetDir == "" {
		return s.fail(ErrCodeConfig, "target directory is not set", nil)
	}

	origin := Origin(settings.Hostname, settings.Port)

	// A server may already be listening on this port (externally started
	// or leftover from a prior run). Adopt it instead of orphaning a
	// duplicate on the same port.
	if s.probe(ctx, origin) {
		s.logger.Info("Server already healthy, adopting", "origin", origin)
		s.toRunning()
		return nil
	}

	if missing, path := executableMissing(settings.Executable); missing {
		return s.fail(ErrCodeNotFound, fmt.Sprintf("executable not found at '%s'", path), nil)
	}

	spec, err := s.resolver.Resolve(ServeCommand(settings), settings.WorkingDir)
	if err != nil {
		return s.fail(ErrCodeLaunch, "failed to start: "+err.Error(), err)
	}

	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Env = spec.Env
	cmd.Dir = spec.Dir
	// Stdin stays nil so the child reads from the null device

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return s.fail(ErrCodeLaunch, "failed to start: "+err.Error(), err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return s.fail(ErrCodeLaunch, "failed to start: "+err.Error(), err)
	}

	if startErr := cmd.Start(); startErr != nil {
		if errors.Is(startErr, exec.ErrNotFound) || errors.Is(startErr, os.ErrNotExist) {
			return s.fail(ErrCodeNotFound, fmt.Sprintf("executable not found at '%s'", settings.Executable), startErr)
		}
		return s.fail(ErrCodeLaunch, "failed to start: "+startErr.Error(), startErr)
	}

	s.logger.Info("Server process started", "pid", cmd.Process.Pid, "origin", origin)

	done := make(chan struct{})
	s.mu.Lock()
	s.cmd = cmd
	s.procDone = done
	s.startedAt = time.Now()
	s.mu.Unlock()

	go s.relayOutput(stdout, "stdout")
	go s.relayOutput(stderr, "stderr")
	go s.watchExit(cmd, done)

	if s.awaitReady(ctx, origin, settings.StartupTimeout) {
		s.toRunning()
		return nil
	}

	// A concurrent transition may have already recorded a better error;
	// never overwrite its message with a timeout classification.
	s.mu.Lock()
	if s.state == StateError {
		msg := s.lastErr
		s.mu.Unlock()
		return NewError(ErrCodeLaunch, msg, nil)
	}
	earlyExit := s.earlyExitCode
	handleGone := s.cmd == nil
	s.mu.Unlock()

	s.Stop()

	switch {
	case earlyExit != nil:
		return s.fail(ErrCodePrematureExit, fmt.Sprintf("server exited unexpectedly (code %d)", *earlyExit), nil)
	case handleGone:
		return s.fail(ErrCodePrematureExit, "exited before server became ready", nil)
	default:
		return s.fail(ErrCodeTimeout, fmt.Sprintf("server failed to start within %s", settings.StartupTimeout), nil)
	}
}

// Stop transitions to stopped and tears down the process without blocking.
// The state reflects intent, not OS confirmation: the graceful signal is
// sent immediately and a detached timer force-kills after the grace period
// if the process has not exited. Stop is idempotent and never fails.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	cmd := s.cmd
	done := s.procDone
	s.cmd = nil
	from := s.state
	s.state = StateStopped
	s.lastErr = ""
	s.mu.Unlock()

	if from != StateStopped {
		s.notify(from, StateStopped, "")
	}

	if cmd == nil || cmd.Process == nil {
		return
	}

	pid := cmd.Process.Pid
	s.logger.Info("Stopping server", "pid", pid)
	if err := cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
		s.logger.Warn("Failed to send interrupt", "pid", pid, "error", err)
	}

	// Fire-and-forget: each spawn owns its done channel, so a stale timer
	// can never signal a process from a later Start.
	grace := s.killGrace
	go func() {
		select {
		case <-done:
		case <-s.after(grace):
			s.logger.Warn("Grace period elapsed, forcing kill", "pid", pid)
			if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				s.logger.Error("Failed to kill server", "pid", pid, "error", err)
			}
		}
	}()
}

// probe runs one health probe and publishes its outcome.
func (s *Supervisor) probe(ctx context.Context, origin string) bool {
	healthy := s.prober.Healthy(ctx, origin)
	if s.bus != nil {
		s.bus.Publish(events.HealthProbeEvent{
			Endpoint:  origin,
			Healthy:   healthy,
			Timestamp: time.Now().Format(time.RFC3339),
		})
	}
	return healthy
}

// toRunning transitions starting -> running.
func (s *Supervisor) toRunning() {
	s.mu.Lock()
	from := s.state
	s.state = StateRunning
	s.mu.Unlock()
	s.logger.Info("Server is ready")
	s.notify(from, StateRunning, "")
}

// fail records a terminal failure, transitions to error, and returns the
// classified error.
func (s *Supervisor) fail(code, msg string, cause error) error {
	s.mu.Lock()
	from := s.state
	s.state = StateError
	s.lastErr = msg
	s.cmd = nil
	s.mu.Unlock()

	s.logger.Error("Start failed", "code", code, "error", msg)
	metrics.RecordStartFailure(code)
	s.notify(from, StateError, msg)
	return NewError(code, msg, cause)
}

// notify invokes the synchronous observer and publishes the transition.
func (s *Supervisor) notify(from, to State, errMsg string) {
	metrics.SetSupervisorState(string(to))
	metrics.RecordStateTransition(string(from), string(to))
	if s.onStateChange != nil {
		s.onStateChange(from, to, errMsg)
	}
	if s.bus != nil {
		s.bus.Publish(events.StateChangedEvent{
			From:      string(from),
			To:        string(to),
			Error:     errMsg,
			Timestamp: time.Now().Format(time.RFC3339),
		})
	}
}

// watchExit reaps the process and applies the exit transition rules:
// a non-zero exit while starting is recorded for failure classification,
// an exit while running is a clean external stop, and the handle is
// cleared unconditionally.
func (s *Supervisor) watchExit(cmd *exec.Cmd, done chan struct{}) {
	waitErr := cmd.Wait()
	close(done)
	exitCode := exitCodeFrom(waitErr)

	s.mu.Lock()
	if s.cmd == cmd {
		s.cmd = nil
	}
	switch s.state {
	case StateStarting:
		if exitCode > 0 {
			code := exitCode
			s.earlyExitCode = &code
		}
		s.mu.Unlock()
		s.logger.Warn("Server exited during startup", "exit_code", exitCode)
	case StateRunning:
		from := s.state
		s.state = StateStopped
		s.mu.Unlock()
		// Exit while serving is not an error condition
		s.logger.Info("Server exited", "exit_code", exitCode)
		s.notify(from, StateStopped, "")
	default:
		s.mu.Unlock()
		s.logger.Debug("Server exited after stop", "exit_code", exitCode)
	}
}

// exitCodeFrom extracts the exit code from cmd.Wait's error.
// Returns -1 when the process was signalled and no code is available.
func exitCodeFrom(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// relayOutput forwards server output to the logging sink line-by-line and
// publishes each line on the bus. Relay is informational only and never
// touches supervisor state.
func (s *Supervisor) relayOutput(r io.Reader, source string) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()

		if source == "stderr" {
			s.serverLogger.Warn(line, "source", source)
		} else {
			s.serverLogger.Info(line, "source", source)
		}

		if s.bus != nil {
			s.bus.Publish(events.ServerOutputEvent{
				Source:    source,
				Line:      line,
				Timestamp: time.Now().Format(time.RFC3339),
			})
		}
	}
	if err := scanner.Err(); err != nil {
		s.logger.Warn("Error reading server output", "source", source, "error", err)
	}
}

// ServeCommand builds the base command line handed to the resolver.
func ServeCommand(st Settings) string {
	return fmt.Sprintf("%s serve --port %d --hostname %s --cors %s",
		quoteArg(st.Executable), st.Port, quoteArg(st.Hostname), quoteArg(st.CORSOrigin))
}

// quoteArg shell-quotes a value when needed.
func quoteArg(s string) string {
	quoted, err := syntax.Quote(s, syntax.LangPOSIX)
	if err != nil {
		return s
	}
	return quoted
}

// executableMissing reports whether an explicitly-pathed executable is
// absent from disk. Bare names are left to the shell's PATH lookup.
func executableMissing(executable string) (bool, string) {
	if executable == "" || !strings.ContainsRune(executable, filepath.Separator) {
		return false, ""
	}
	if _, err := os.Stat(executable); err != nil {
		return true, executable
	}
	return false, executable
}
