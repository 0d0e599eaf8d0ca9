// Package logging provides structured logging built on log/slog.
//
// Loggers are created per module via GetLogger, each with an independently
// adjustable level. Records fan out to stdout (text or JSON), the systemd
// journal when available, and an in-memory ring buffer that the HTTP API
// serves for log history. Output from the supervised server process is
// relayed through the "server" module logger so it shares the same sinks.
package logging
