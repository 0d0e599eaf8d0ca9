package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/previewkit/previewd/internal/events"
	"github.com/previewkit/previewd/internal/supervisor"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server, *supervisor.Supervisor) {
	t.Helper()

	bus := events.New()
	sup := supervisor.New(&supervisor.Options{
		Settings: supervisor.Settings{
			Executable: "preview-server",
			Hostname:   "127.0.0.1",
			Port:       4100,
			TargetDir:  "/home/user/project",
		},
		EventBus: bus,
	})
	server := NewServer(&Options{
		Supervisor:  sup,
		EventBus:    bus,
		AllowOrigin: "app://previewkit",
	})
	ts := httptest.NewServer(server.mux)
	t.Cleanup(ts.Close)
	t.Cleanup(sup.Stop)
	return server, ts, sup
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("failed to decode response from %s: %v", url, err)
		}
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	_, ts, _ := newTestServer(t)

	var body struct {
		Status string `json:"status"`
	}
	resp := getJSON(t, ts.URL+"/healthz", &body)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if body.Status != "ok" {
		t.Errorf("status field = %q, want ok", body.Status)
	}
}

func TestVersionEndpoint(t *testing.T) {
	_, ts, _ := newTestServer(t)

	var body struct {
		Version   string `json:"version"`
		GoVersion string `json:"go_version"`
	}
	resp := getJSON(t, ts.URL+"/api/version", &body)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if body.Version == "" || body.GoVersion == "" {
		t.Errorf("version fields missing: %+v", body)
	}
}

func TestSupervisorStatusEndpoint(t *testing.T) {
	_, ts, _ := newTestServer(t)

	var body struct {
		State    string `json:"state"`
		Endpoint string `json:"endpoint"`
	}
	resp := getJSON(t, ts.URL+"/api/supervisor", &body)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if body.State != "stopped" {
		t.Errorf("state = %q, want stopped", body.State)
	}
	if body.Endpoint == "" {
		t.Error("endpoint missing from status")
	}
}

func TestUpdateSupervisorConfig(t *testing.T) {
	_, ts, sup := newTestServer(t)

	payload := []byte(`{"port": 4200, "target_dir": "/srv/site", "startup_timeout": "30s"}`)
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/supervisor/config", bytes.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT config failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	settings := sup.Settings()
	if settings.Port != 4200 {
		t.Errorf("port = %d, want 4200", settings.Port)
	}
	if settings.TargetDir != "/srv/site" {
		t.Errorf("target_dir = %q, want /srv/site", settings.TargetDir)
	}
	// Untouched fields keep their values on partial updates
	if settings.Executable != "preview-server" {
		t.Errorf("executable = %q, want preview-server", settings.Executable)
	}
}

func TestUpdateSupervisorConfigRejectsBadTimeout(t *testing.T) {
	_, ts, _ := newTestServer(t)

	payload := []byte(`{"startup_timeout": "soon"}`)
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/supervisor/config", bytes.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT config failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
}

func TestStartWithoutTargetDirReturns422(t *testing.T) {
	_, ts, sup := newTestServer(t)
	sup.SetTargetDirectory("")

	resp, err := http.Post(ts.URL+"/api/supervisor/start", "application/json", nil)
	if err != nil {
		t.Fatalf("POST start failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
}

func TestStopEndpointAlwaysSucceeds(t *testing.T) {
	_, ts, _ := newTestServer(t)

	var body struct {
		State string `json:"state"`
	}
	resp, err := http.Post(ts.URL+"/api/supervisor/stop", "application/json", nil)
	if err != nil {
		t.Fatalf("POST stop failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode stop response: %v", err)
	}
	if body.State != "stopped" {
		t.Errorf("state = %q, want stopped", body.State)
	}
}

func TestLogsEndpoint(t *testing.T) {
	_, ts, _ := newTestServer(t)

	var body struct {
		Entries []json.RawMessage `json:"entries"`
		Count   int               `json:"count"`
	}
	resp := getJSON(t, ts.URL+"/api/logs", &body)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if body.Count != len(body.Entries) {
		t.Errorf("count = %d, entries = %d", body.Count, len(body.Entries))
	}
}

func TestCORSPreflight(t *testing.T) {
	_, ts, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/supervisor", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "app://previewkit" {
		t.Errorf("Access-Control-Allow-Origin = %q, want app://previewkit", got)
	}
}
