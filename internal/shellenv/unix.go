package shellenv

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// pathDirs are common install locations prepended to PATH when present.
// Homebrew on Apple silicon lives under /opt/homebrew, Intel macs and most
// Linux package installs under /usr/local, pipx/npm user installs under
// ~/.local/bin.
var pathDirs = []string{
	"/usr/local/bin",
	"/opt/homebrew/bin",
}

// nvmDirs are conventional nvm install locations, checked in order.
var nvmDirs = []string{
	"/usr/local/opt/nvm",
	"/opt/homebrew/opt/nvm",
}

// UnixStrategy resolves commands through the user's login shell so the
// spawned server sees the same PATH and version-manager setup as an
// interactive terminal.
type UnixStrategy struct{}

// Resolve builds a `$SHELL -c "<setup>; <command>"` invocation.
func (UnixStrategy) Resolve(command, workdir string) (*SpawnSpec, error) {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}

	home, _ := os.UserHomeDir()

	setup, err := setupLines(shell, home)
	if err != nil {
		return nil, err
	}

	script := command
	if len(setup) > 0 {
		script = strings.Join(setup, "; ") + "; " + command
	}

	env := os.Environ()
	if home != "" {
		// The inherited environment may lack these when the host was
		// launched from a desktop session
		env = append(env, "HOME="+home)
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			configHome = filepath.Join(home, ".config")
		}
		env = append(env, "XDG_CONFIG_HOME="+configHome)
	}

	return &SpawnSpec{
		Path: shell,
		Args: []string{"-c", script},
		Env:  env,
		Dir:  workdir,
	}, nil
}

// setupLines builds the profile-sourcing and PATH-augmentation prelude.
// Every inclusion is guarded by an existence check so the script never
// sources a missing file.
func setupLines(shell, home string) ([]string, error) {
	var lines []string

	profile, err := findProfile(shell, home)
	if err != nil {
		return nil, err
	}
	if profile != "" {
		lines = append(lines, profile)
	}

	dirs := pathDirs
	if home != "" {
		dirs = append([]string{}, dirs...)
		dirs = append(dirs, filepath.Join(home, ".local", "bin"))
	}
	for _, dir := range dirs {
		if !dirExists(dir) {
			continue
		}
		quoted, quoteErr := syntax.Quote(dir, syntax.LangPOSIX)
		if quoteErr != nil {
			return nil, fmt.Errorf("quote path dir %q: %w", dir, quoteErr)
		}
		lines = append(lines, fmt.Sprintf("export PATH=%s:$PATH", quoted))
	}

	return lines, nil
}

// findProfile picks one profile/init script to source, or "" when none
// exists. zsh users get their zshrc; everyone else gets nvm's init script
// when nvm is installed, falling back to the generic ~/.profile.
func findProfile(shell, home string) (string, error) {
	if home == "" {
		return "", nil
	}

	if strings.Contains(filepath.Base(shell), "zsh") {
		if zshrc := filepath.Join(home, ".zshrc"); fileExists(zshrc) {
			return sourceLine(zshrc)
		}
		return "", nil
	}

	if nvmInit := findNVMInit(home); nvmInit != "" {
		return sourceLine(nvmInit)
	}

	if profile := filepath.Join(home, ".profile"); fileExists(profile) {
		return sourceLine(profile)
	}

	return "", nil
}

// findNVMInit locates nvm.sh through $NVM_DIR and conventional install
// directories.
func findNVMInit(home string) string {
	candidates := make([]string, 0, len(nvmDirs)+2)
	if nvmDir := os.Getenv("NVM_DIR"); nvmDir != "" {
		candidates = append(candidates, nvmDir)
	}
	candidates = append(candidates, filepath.Join(home, ".nvm"))
	candidates = append(candidates, nvmDirs...)

	for _, dir := range candidates {
		script := filepath.Join(dir, "nvm.sh")
		if fileExists(script) {
			return script
		}
	}
	return ""
}

// sourceLine formats a guarded source statement. Profile errors are
// redirected away from the child's stderr so shell warnings are not
// mistaken for server errors.
func sourceLine(path string) (string, error) {
	quoted, err := syntax.Quote(path, syntax.LangPOSIX)
	if err != nil {
		return "", fmt.Errorf("quote profile path %q: %w", path, err)
	}
	return fmt.Sprintf(". %s >/dev/null 2>&1", quoted), nil
}
