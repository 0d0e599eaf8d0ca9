package supervisor

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	healthPath   = "/global/health"
	probeTimeout = 2 * time.Second
)

// Prober issues bounded-timeout health probes against the server origin.
// Probe failures are a normal, expected outcome during startup polling,
// so Healthy never returns an error.
type Prober struct {
	client *http.Client

	// OnProbe, when set, observes every probe outcome and duration.
	// Used for metrics; must not block.
	OnProbe func(duration time.Duration, healthy bool)
}

// NewProber creates a prober with the standard per-call timeout.
func NewProber() *Prober {
	return &Prober{
		client: &http.Client{Timeout: probeTimeout},
	}
}

// Healthy reports whether the server at origin answers its health endpoint
// with a 2xx status. Network errors, non-2xx statuses, and timeouts all
// count as unhealthy.
func (p *Prober) Healthy(ctx context.Context, origin string) bool {
	start := time.Now()
	healthy := p.probe(ctx, origin)
	if p.OnProbe != nil {
		p.OnProbe(time.Since(start), healthy)
	}
	return healthy
}

func (p *Prober) probe(ctx context.Context, origin string) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	url := strings.TrimSuffix(origin, "/") + healthPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
