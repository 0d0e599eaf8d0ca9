package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/previewkit/previewd/cmd"
	"github.com/previewkit/previewd/internal/api"
	"github.com/previewkit/previewd/internal/config"
	"github.com/previewkit/previewd/internal/events"
	"github.com/previewkit/previewd/internal/logging"
	"github.com/previewkit/previewd/internal/supervisor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"previewd.toml"`

	// API settings
	Listen string `help:"Address for the control API to listen on" short:"l" default:":8090" toml:"api.listen" env:"API_LISTEN"`

	// Preview server settings
	ServerExecutable     string `help:"Preview server binary name or path" default:"preview-server" toml:"server.executable" env:"SERVER_EXECUTABLE"`
	ServerHostname       string `help:"Hostname the preview server listens on" default:"127.0.0.1" toml:"server.hostname" env:"SERVER_HOSTNAME"`
	ServerPort           int    `help:"Port the preview server listens on" default:"4100" toml:"server.port" env:"SERVER_PORT"`
	ServerWorkdir        string `help:"Working directory for the spawned process" default:"" toml:"server.workdir" env:"SERVER_WORKDIR"`
	ServerTargetDir      string `help:"Directory the preview server serves" default:"" toml:"server.target_dir" env:"SERVER_TARGET_DIR"`
	ServerStartupTimeout string `help:"How long to wait for the server to become ready" default:"15s" toml:"server.startup_timeout" env:"SERVER_STARTUP_TIMEOUT"`
	ServerCORSOrigin     string `help:"Origin allowed to embed the preview server" default:"app://previewkit" toml:"server.cors_origin" env:"SERVER_CORS_ORIGIN"`
	ServerAutostart      bool   `help:"Start the preview server when previewd starts" default:"false" toml:"server.autostart" env:"SERVER_AUTOSTART"`

	// Watch settings
	WatchConfig bool `help:"Reload settings when the config file changes" default:"true" toml:"watch.config" env:"WATCH_CONFIG"`

	// Logging settings
	LoggingLevel      string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat     string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingSupervisor string `help:"Supervisor logging level" default:"info" toml:"logging.supervisor" env:"LOGGING_SUPERVISOR"`
	LoggingServer     string `help:"Relayed server output logging level" default:"info" toml:"logging.server" env:"LOGGING_SERVER"`
	LoggingHTTP       string `help:"HTTP request logging level" default:"info" toml:"logging.http" env:"LOGGING_HTTP"`
	LoggingAPI        string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

// supervisorSettings converts CLI options into supervisor settings.
func supervisorSettings(opts *Options) supervisor.Settings {
	startupTimeout, err := time.ParseDuration(opts.ServerStartupTimeout)
	if err != nil {
		startupTimeout = 15 * time.Second
	}
	return supervisor.Settings{
		Executable:     opts.ServerExecutable,
		Hostname:       opts.ServerHostname,
		Port:           opts.ServerPort,
		WorkingDir:     opts.ServerWorkdir,
		TargetDir:      opts.ServerTargetDir,
		StartupTimeout: startupTimeout,
		CORSOrigin:     opts.ServerCORSOrigin,
	}
}

func main() {
	// Declared before New so the callback can hand the root command's
	// flags to the config loader; Run assigns it first.
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"supervisor": opts.LoggingSupervisor,
				"server":     opts.LoggingServer,
				"http":       opts.LoggingHTTP,
				"api":        opts.LoggingAPI,
			},
		})

		logger := logging.GetLogger("main")

		eventBus := events.New()

		// Mirror every log line onto the bus for SSE streaming
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(events.LogEntryEvent{
				Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		})

		sup := supervisor.New(&supervisor.Options{
			Settings: supervisorSettings(opts),
			EventBus: eventBus,
		})

		// Hot-reload supervisor settings on config file changes. Applies
		// on the next start, a running server is left alone.
		var watcher *config.Watcher[supervisor.Settings]
		if opts.WatchConfig && opts.Config != "" {
			loader := func(path string) (supervisor.Settings, error) {
				fresh := *opts
				fresh.Config = path
				if err := config.LoadConfig(&fresh, cli.Root()); err != nil {
					return supervisor.Settings{}, err
				}
				return supervisorSettings(&fresh), nil
			}
			watcher = config.NewConfigWatcher(opts.Config, loader, logger)
			watcher.OnReload(func(settings supervisor.Settings) {
				sup.Configure(settings)
				eventBus.Publish(events.ConfigReloadedEvent{
					Path:      opts.Config,
					Timestamp: time.Now().Format(time.RFC3339),
				})
				logger.Info("Configuration reloaded", "path", opts.Config)
			})
		}

		server := api.NewServer(&api.Options{
			Supervisor:        sup,
			EventBus:          eventBus,
			AllowOrigin:       opts.ServerCORSOrigin,
			PrometheusHandler: promhttp.Handler(),
		})

		hooks.OnStart(func() {
			if watcher != nil {
				if watchErr := watcher.Start(); watchErr != nil {
					logger.Warn("Failed to start config watcher", "error", watchErr)
				}
			}

			if opts.ServerAutostart {
				go func() {
					if startErr := sup.Start(context.Background()); startErr != nil {
						logger.Error("Autostart failed", "error", startErr)
					}
				}()
			}

			logger.Info("Starting HTTP server", "addr", opts.Listen)
			if startErr := server.Start(opts.Listen); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}
			if watcher != nil {
				if stopErr := watcher.Stop(); stopErr != nil {
					logger.Error("Error stopping config watcher", "error", stopErr)
				}
			}
			sup.Stop()
		})
	})

	cli.Root().AddCommand(cmd.CreateCheckCmd())
	cli.Root().AddCommand(cmd.CreateResolveCmd())

	cli.Run()
}
