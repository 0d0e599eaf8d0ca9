package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/previewkit/previewd/internal/logging"
	"github.com/previewkit/previewd/internal/supervisor"
	"github.com/spf13/cobra"
)

// CreateCheckCmd creates the check command.
func CreateCheckCmd() *cobra.Command {
	var hostname string
	var port int
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Probe the preview server health endpoint",
		Long: `Performs a one-shot health probe against the preview server and exits ` +
			`with status 0 when it answers healthy. With --wait, polls until the ` +
			`server becomes healthy or the wait elapses.`,
		Run: func(_ *cobra.Command, _ []string) {
			logging.Initialize(logging.Config{Level: "warn", Format: "text"})

			origin := supervisor.Origin(hostname, port)
			prober := supervisor.NewProber()
			ctx := context.Background()

			deadline := time.Now().Add(wait)
			for {
				if prober.Healthy(ctx, origin) {
					fmt.Printf("healthy: %s\n", origin)
					return
				}
				if wait <= 0 || time.Now().After(deadline) {
					break
				}
				time.Sleep(500 * time.Millisecond)
			}

			fmt.Fprintf(os.Stderr, "unhealthy: %s\n", origin)
			os.Exit(1)
		},
	}

	cmd.Flags().StringVar(&hostname, "hostname", "127.0.0.1", "Hostname the preview server listens on")
	cmd.Flags().IntVar(&port, "port", 4100, "Port the preview server listens on")
	cmd.Flags().DurationVar(&wait, "wait", 0, "Keep polling for up to this long before giving up")

	return cmd
}
