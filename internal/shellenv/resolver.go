package shellenv

import (
	"os"
	"runtime"
)

// SpawnSpec is a fully resolved process invocation.
type SpawnSpec struct {
	Path string   // interpreter to execute
	Args []string // interpreter arguments, command included
	Env  []string // complete child environment as KEY=VALUE strings
	Dir  string   // working directory
}

// Strategy resolves a base command into a platform-appropriate SpawnSpec.
// Implementations must not block or spawn processes; only environment
// variable reads and file existence checks are allowed.
type Strategy interface {
	Resolve(command, workdir string) (*SpawnSpec, error)
}

// ForPlatform returns the strategy for the current OS.
func ForPlatform() Strategy {
	if runtime.GOOS == "windows" {
		return WindowsStrategy{}
	}
	return UnixStrategy{}
}

// fileExists reports whether path exists and is a regular file.
func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// dirExists reports whether path exists and is a directory.
func dirExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
