// Package models defines the request and response bodies for the previewd
// HTTP API.
package models

import "time"

// HealthData represents API health status
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Health status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

// HealthResponse represents the HTTP response for health checks
type HealthResponse struct {
	Body HealthData
}

// VersionData represents version information
type VersionData struct {
	Version   string `json:"version" example:"1.2.0" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit hash"`
	BuildDate string `json:"build_date" example:"2025-01-27T10:00:00Z" doc:"Build timestamp"`
	GoVersion string `json:"go_version" example:"go1.24.11" doc:"Go toolchain version"`
	Platform  string `json:"platform" example:"linux/amd64" doc:"Build platform"`
}

// VersionResponse represents the HTTP response for version information
type VersionResponse struct {
	Body VersionData
}

// SupervisorStatus represents the supervisor state snapshot
type SupervisorStatus struct {
	State     string    `json:"state" example:"running" doc:"Supervisor state: stopped, starting, running, or error"`
	PID       int       `json:"pid,omitempty" example:"12345" doc:"Process ID of the supervised server, 0 when not running"`
	LastError string    `json:"last_error,omitempty" doc:"Message of the last failed start attempt"`
	Endpoint  string    `json:"endpoint" example:"http://127.0.0.1:4100/aB3xY9z_Qw" doc:"Base URL the host embeds for the current target directory"`
	StartedAt time.Time `json:"started_at,omitzero" doc:"When the current process was spawned"`
}

// SupervisorStatusResponse represents the HTTP response for supervisor status
type SupervisorStatusResponse struct {
	Body SupervisorStatus
}

// SupervisorConfig represents the mutable supervisor settings
type SupervisorConfig struct {
	Executable     string `json:"executable,omitempty" example:"preview-server" doc:"Server binary name or path"`
	Hostname       string `json:"hostname,omitempty" example:"127.0.0.1" doc:"Hostname the server listens on"`
	Port           int    `json:"port,omitempty" example:"4100" doc:"Port the server listens on"`
	WorkingDir     string `json:"working_dir,omitempty" doc:"Working directory for the spawned process"`
	TargetDir      string `json:"target_dir,omitempty" example:"/home/user/project" doc:"Directory the server serves"`
	StartupTimeout string `json:"startup_timeout,omitempty" example:"15s" doc:"Readiness deadline as a duration string"`
	CORSOrigin     string `json:"cors_origin,omitempty" example:"app://previewkit" doc:"Origin allowed to embed the server"`
}

// SupervisorConfigResponse represents the HTTP response after a config update
type SupervisorConfigResponse struct {
	Body SupervisorStatus
}

// ActionData represents the outcome of a supervisor action
type ActionData struct {
	State     string `json:"state" example:"running" doc:"Supervisor state after the action"`
	Endpoint  string `json:"endpoint,omitempty" doc:"Base URL when the server is running"`
	LastError string `json:"last_error,omitempty" doc:"Failure message when the action failed"`
}

// ActionResponse represents the HTTP response for start/stop actions
type ActionResponse struct {
	Body ActionData
}

// LogEntry represents a single historical log line
type LogEntry struct {
	Timestamp  time.Time      `json:"timestamp" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"supervisor" doc:"Module that produced the line"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured attributes"`
}

// LogsData represents the response data for historical logs
type LogsData struct {
	Entries []LogEntry `json:"entries" doc:"Log entries in chronological order"`
	Count   int        `json:"count" example:"42" doc:"Number of entries returned"`
}

// LogsResponse represents the HTTP response for historical logs
type LogsResponse struct {
	Body LogsData
}
