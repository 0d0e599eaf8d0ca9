// Package shellenv resolves the command line and environment used to spawn
// the preview server.
//
// Desktop-integrated hosts are often launched outside an interactive shell
// and inherit a minimal environment, so a bare exec of the server binary
// tends to fail with "command not found" even though the user's terminal
// runs it fine. The unix strategy recovers a usable environment by running
// the command through a one-shot login-ish shell that sources the user's
// profile (or an nvm init script) and prepends common install directories
// to PATH. The windows strategy defers to cmd.exe, which resolves PATH the
// same way for GUI and console processes.
//
// Resolution is pure with respect to process state: it reads environment
// variables and checks file existence, nothing else.
package shellenv
