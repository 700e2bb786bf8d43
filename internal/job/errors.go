// internal/job/errors.go
package job

import "fmt"

// ErrorCode classifies a fatal job failure. Using a custom type ensures that only
// the predefined constants can be used where an ErrorCode is expected.
type ErrorCode string

const (
	// ErrCodeInvalidMode is raised before any resource is acquired.
	ErrCodeInvalidMode ErrorCode = "INVALID_MODE"
	// ErrCodeInputNotFound means a file required by the mode is missing or unreadable.
	ErrCodeInputNotFound ErrorCode = "INPUT_NOT_FOUND"
	// ErrCodePageInteraction means a control on the remote page was missing or
	// rejected the action. It signals a page contract mismatch and is never retried.
	ErrCodePageInteraction ErrorCode = "PAGE_INTERACTION"
	// ErrCodeObservation means the status field could not be read while polling.
	ErrCodeObservation ErrorCode = "OBSERVATION"
)

// Error is the structured error type returned by the job package.
type Error struct {
	Code ErrorCode
	// Op names the step that failed (e.g. "source", "execute", "poll").
	Op  string
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code.message(), e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code.message(), e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Code.message(), e.Op)
	}
	return e.Code.message()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error carrying the same code, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrInvalidMode     = &Error{Code: ErrCodeInvalidMode}
	ErrInputNotFound   = &Error{Code: ErrCodeInputNotFound}
	ErrPageInteraction = &Error{Code: ErrCodePageInteraction}
	ErrObservation     = &Error{Code: ErrCodeObservation}
)

func (c ErrorCode) message() string {
	switch c {
	case ErrCodeInvalidMode:
		return "invalid job mode"
	case ErrCodeInputNotFound:
		return "input not found"
	case ErrCodePageInteraction:
		return "page interaction failed"
	case ErrCodeObservation:
		return "status observation failed"
	default:
		return string(c)
	}
}
