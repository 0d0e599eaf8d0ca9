package supervisor

import "fmt"

// Error represents a terminal start failure.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Error codes. All are terminal for a single start attempt; retry is the
// caller's responsibility.
const (
	ErrCodeConfig        = "CONFIG_ERROR"         // required setting missing, nothing spawned
	ErrCodeNotFound      = "EXECUTABLE_NOT_FOUND" // launch failed, executable missing
	ErrCodeLaunch        = "LAUNCH_ERROR"         // OS failed to create the process
	ErrCodePrematureExit = "PREMATURE_EXIT"       // process died before reporting healthy
	ErrCodeTimeout       = "STARTUP_TIMEOUT"      // process alive but never became healthy
)

// NewError creates a new supervisor error.
func NewError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
