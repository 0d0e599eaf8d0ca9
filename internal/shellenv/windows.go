package shellenv

import "os"

// WindowsStrategy wraps the command through the platform command
// interpreter. cmd.exe resolves PATH identically for GUI and console
// processes, so no profile sourcing is needed.
type WindowsStrategy struct{}

// Resolve builds a `cmd /c "<command>"` invocation with the host
// environment passed through unchanged.
func (WindowsStrategy) Resolve(command, workdir string) (*SpawnSpec, error) {
	return &SpawnSpec{
		Path: "cmd",
		Args: []string{"/c", command},
		Env:  os.Environ(),
		Dir:  workdir,
	}, nil
}
