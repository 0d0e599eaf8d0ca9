package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type watchedConfig struct {
	TargetDir string `toml:"target_dir"`
	Port      int    `toml:"port"`
}

func loadWatchedConfig(path string) (watchedConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return watchedConfig{}, err
	}
	var cfg watchedConfig
	err = toml.Unmarshal(data, &cfg)
	return cfg, err
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConfigWatcherBasicReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "previewd.toml")
	if err := os.WriteFile(path, []byte("target_dir = \"/srv/site\"\nport = 3000\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	received := make(chan watchedConfig, 1)
	watcher := NewConfigWatcher(
		path,
		loadWatchedConfig,
		newTestLogger(),
		WithDebounce[watchedConfig](50*time.Millisecond),
	)
	watcher.OnReload(func(cfg watchedConfig) {
		received <- cfg
	})

	if err := watcher.Start(); err != nil {
		t.Fatal(err)
	}
	defer watcher.Stop()

	if err := os.WriteFile(path, []byte("target_dir = \"/srv/other\"\nport = 3001\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-received:
		if cfg.TargetDir != "/srv/other" || cfg.Port != 3001 {
			t.Errorf("reloaded config = %+v", cfg)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for reload")
	}
}

func TestConfigWatcherErrorHandler(t *testing.T) {
	path := filepath.Join(t.TempDir(), "previewd.toml")
	if err := os.WriteFile(path, []byte("port = 3000\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	errCh := make(chan error, 1)
	watcher := NewConfigWatcher(
		path,
		loadWatchedConfig,
		newTestLogger(),
		WithDebounce[watchedConfig](50*time.Millisecond),
		WithErrorHandler[watchedConfig](func(err error) { errCh <- err }),
	)

	if err := watcher.Start(); err != nil {
		t.Fatal(err)
	}
	defer watcher.Stop()

	if err := os.WriteFile(path, []byte("port = \"not an int\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-errCh:
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for error handler")
	}
}

func TestConfigWatcherUnsubscribe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "previewd.toml")
	if err := os.WriteFile(path, []byte("port = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	received := make(chan watchedConfig, 1)
	watcher := NewConfigWatcher(
		path,
		loadWatchedConfig,
		newTestLogger(),
		WithDebounce[watchedConfig](50*time.Millisecond),
	)
	unsub := watcher.OnReload(func(cfg watchedConfig) {
		received <- cfg
	})
	unsub()

	if err := watcher.Start(); err != nil {
		t.Fatal(err)
	}
	defer watcher.Stop()

	if err := os.WriteFile(path, []byte("port = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-received:
		t.Error("handler called after unsubscribe")
	case <-time.After(500 * time.Millisecond):
	}
}
