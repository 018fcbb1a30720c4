package ctxmock

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingContext is raised when an operation requiring the current
// context finds the goroutine-local slot empty.
var ErrMissingContext = errors.New("ctxmock: no context set on this goroutine")

// CaptureFailedError is raised when When(...) or a verification probe
// did not observe any method call on a mock.
type CaptureFailedError struct {
	Reason string
}

func (e *CaptureFailedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("ctxmock: capture failed: %s", e.Reason)
	}
	return "ctxmock: capture failed: no method call observed on the mock"
}

// IsCaptureFailed reports whether err is a *CaptureFailedError.
func IsCaptureFailed(err error) bool {
	var e *CaptureFailedError
	return errors.As(err, &e)
}

// VerificationFailedError is raised when a verification mode's
// expectation is violated.
type VerificationFailedError struct {
	Method    string
	Args      []interface{}
	Context   ContextID
	Expected  string
	Observed  int
	Recorded  []*InvocationRecord
}

func (e *VerificationFailedError) Error() string {
	ctxName := "<none>"
	if e.Context != nil {
		ctxName = e.Context.ContextKey()
	}
	argsSummary := truncateArgsSummary(fmt.Sprintf("%v", e.Args), 80)

	msg := fmt.Sprintf(
		"ctxmock: verification failed: method=%s args=%s context=%s expected=%s observed=%d",
		e.Method, argsSummary, ctxName, e.Expected, e.Observed,
	)
	if len(e.Recorded) > 0 {
		msg += fmt.Sprintf("\nrecorded invocations for this (mock, context):\n")
		for _, rec := range e.Recorded {
			msg += fmt.Sprintf("  - %s\n", rec.String())
		}
	}
	return msg
}

// IsVerificationFailed reports whether err is a *VerificationFailedError.
func IsVerificationFailed(err error) bool {
	var e *VerificationFailedError
	return errors.As(err, &e)
}

// StubbingMisuseError is raised when the stubbing DSL is used
// incorrectly. The DSL raises it when a terminator (ThenReturn/
// ThenPanic/ThenAnswer) is called a second time on the same stubbing.
// A nil mock passed to Given is not checked, and matchers registered
// inside When without a mock-method call surface as a
// *CaptureFailedError rather than as this error.
type StubbingMisuseError struct {
	Message string
}

func (e *StubbingMisuseError) Error() string {
	return fmt.Sprintf("ctxmock: stubbing misuse: %s", e.Message)
}

// IsStubbingMisuse reports whether err is a *StubbingMisuseError.
func IsStubbingMisuse(err error) bool {
	var e *StubbingMisuseError
	return errors.As(err, &e)
}

// InvalidArgumentError describes a nil context id, method, or mock
// passed to a registry operation. The Registry methods in this package
// do not validate their arguments and do not raise it; an empty
// context key or method name is treated as an ordinary key.
type InvalidArgumentError struct {
	Argument string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("ctxmock: invalid argument: %s must not be nil/empty", e.Argument)
}

// IsInvalidArgument reports whether err is an *InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	var e *InvalidArgumentError
	return errors.As(err, &e)
}

// NewInvalidArgumentError creates an InvalidArgumentError for the
// named argument, following the teacher's NewXxxError constructor
// convention.
func NewInvalidArgumentError(argument string) *InvalidArgumentError {
	return &InvalidArgumentError{Argument: argument}
}

// truncateArgsSummary collapses s to a single line and truncates it to
// maxLen runes, appending "..." when truncated, so a verification
// failure's summary of the verified call's args can't blow up the
// message with a large or multi-line argument value.
func truncateArgsSummary(s string, maxLen int) string {
	const minLen = 4
	if maxLen < minLen {
		maxLen = minLen
	}
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
