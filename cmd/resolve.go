package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/previewkit/previewd/internal/logging"
	"github.com/previewkit/previewd/internal/shellenv"
	"github.com/previewkit/previewd/internal/supervisor"
	"github.com/spf13/cobra"
)

// CreateResolveCmd creates the resolve command.
func CreateResolveCmd() *cobra.Command {
	var executable string
	var hostname string
	var port int
	var corsOrigin string
	var workdir string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Show the resolved spawn command and environment",
		Long: `Resolves the preview server launch through the login-shell environment ` +
			`(profile sourcing, nvm discovery, PATH augmentation) and prints the exact ` +
			`command, arguments, and PATH that a start would use. Useful for debugging ` +
			`"works in my terminal but not when launched" problems.`,
		Run: func(_ *cobra.Command, _ []string) {
			logging.Initialize(logging.Config{Level: "warn", Format: "text"})

			settings := supervisor.Settings{
				Executable: executable,
				Hostname:   hostname,
				Port:       port,
				CORSOrigin: corsOrigin,
			}
			command := supervisor.ServeCommand(settings)

			resolver := shellenv.ForPlatform()
			spec, err := resolver.Resolve(command, workdir)
			if err != nil {
				fmt.Fprintf(os.Stderr, "resolve failed: %v\n", err)
				os.Exit(1)
			}

			fmt.Printf("command: %s\n", spec.Path)
			for _, arg := range spec.Args {
				fmt.Printf("arg:     %s\n", arg)
			}
			if spec.Dir != "" {
				fmt.Printf("workdir: %s\n", spec.Dir)
			}
			for _, kv := range spec.Env {
				if strings.HasPrefix(kv, "PATH=") || strings.HasPrefix(kv, "HOME=") || strings.HasPrefix(kv, "XDG_CONFIG_HOME=") {
					fmt.Printf("env:     %s\n", kv)
				}
			}
		},
	}

	cmd.Flags().StringVar(&executable, "executable", "preview-server", "Server binary name or path")
	cmd.Flags().StringVar(&hostname, "hostname", "127.0.0.1", "Hostname the server will listen on")
	cmd.Flags().IntVar(&port, "port", 4100, "Port the server will listen on")
	cmd.Flags().StringVar(&corsOrigin, "cors", "app://previewkit", "Origin allowed to embed the server")
	cmd.Flags().StringVar(&workdir, "workdir", "", "Working directory for the spawned process")

	return cmd
}
