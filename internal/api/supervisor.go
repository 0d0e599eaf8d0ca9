package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/previewkit/previewd/internal/api/models"
	"github.com/previewkit/previewd/internal/supervisor"
)

// registerSupervisorRoutes registers all supervisor lifecycle endpoints.
func (s *Server) registerSupervisorRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-supervisor-status",
		Method:      http.MethodGet,
		Path:        "/api/supervisor",
		Summary:     "Supervisor Status",
		Description: "Get the current supervisor state, endpoint, and last error",
		Tags:        []string{"supervisor"},
	}, func(ctx context.Context, input *struct{}) (*models.SupervisorStatusResponse, error) {
		return &models.SupervisorStatusResponse{Body: s.statusBody()}, nil
	})

	// Blocks until the server is ready or the start attempt fails
	huma.Register(s.api, huma.Operation{
		OperationID: "start-supervisor",
		Method:      http.MethodPost,
		Path:        "/api/supervisor/start",
		Summary:     "Start Server",
		Description: "Launch the preview server and wait for it to become ready. A no-op when already starting or running.",
		Tags:        []string{"supervisor"},
		Errors:      []int{422, 502},
	}, func(ctx context.Context, input *struct{}) (*models.ActionResponse, error) {
		if err := s.supervisor.Start(ctx); err != nil {
			var supErr *supervisor.Error
			if errors.As(err, &supErr) && supErr.Code == supervisor.ErrCodeConfig {
				return nil, huma.Error422UnprocessableEntity(supErr.Message)
			}
			return nil, huma.Error502BadGateway(err.Error())
		}
		return &models.ActionResponse{Body: models.ActionData{
			State:    string(s.supervisor.State()),
			Endpoint: s.supervisor.Endpoint(),
		}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stop-supervisor",
		Method:      http.MethodPost,
		Path:        "/api/supervisor/stop",
		Summary:     "Stop Server",
		Description: "Stop the preview server. Returns immediately; the process is signalled and force-killed after the grace period if needed.",
		Tags:        []string{"supervisor"},
	}, func(ctx context.Context, input *struct{}) (*models.ActionResponse, error) {
		s.supervisor.Stop()
		return &models.ActionResponse{Body: models.ActionData{
			State: string(s.supervisor.State()),
		}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "update-supervisor-config",
		Method:      http.MethodPut,
		Path:        "/api/supervisor/config",
		Summary:     "Update Configuration",
		Description: "Update supervisor settings. Changes take effect on the next start; a running server is not restarted.",
		Tags:        []string{"supervisor"},
		Errors:      []int{422},
	}, func(ctx context.Context, input *struct {
		Body models.SupervisorConfig
	}) (*models.SupervisorConfigResponse, error) {
		settings := s.supervisor.Settings()
		if err := applyConfig(&settings, input.Body); err != nil {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		s.supervisor.Configure(settings)
		s.logger.Info("Supervisor configuration updated",
			"executable", settings.Executable,
			"port", settings.Port,
			"target_dir", settings.TargetDir)
		return &models.SupervisorConfigResponse{Body: s.statusBody()}, nil
	})
}

// applyConfig merges non-zero fields of the request into the settings.
func applyConfig(settings *supervisor.Settings, cfg models.SupervisorConfig) error {
	if cfg.Executable != "" {
		settings.Executable = cfg.Executable
	}
	if cfg.Hostname != "" {
		settings.Hostname = cfg.Hostname
	}
	if cfg.Port != 0 {
		settings.Port = cfg.Port
	}
	if cfg.WorkingDir != "" {
		settings.WorkingDir = cfg.WorkingDir
	}
	if cfg.TargetDir != "" {
		settings.TargetDir = cfg.TargetDir
	}
	if cfg.CORSOrigin != "" {
		settings.CORSOrigin = cfg.CORSOrigin
	}
	if cfg.StartupTimeout != "" {
		d, err := time.ParseDuration(cfg.StartupTimeout)
		if err != nil {
			return errors.New("invalid startup_timeout: " + err.Error())
		}
		settings.StartupTimeout = d
	}
	return nil
}

func (s *Server) statusBody() models.SupervisorStatus {
	info := s.supervisor.Status()
	return models.SupervisorStatus{
		State:     string(info.State),
		PID:       info.PID,
		LastError: info.LastError,
		Endpoint:  info.Endpoint,
		StartedAt: info.StartedAt,
	}
}
