package staleness

import (
	"errors"
	"fmt"

	"github.com/roach88/staleness/internal/trace"
)

// InvariantError reports a broken upstream contract detected by the analysis.
//
// Invariant errors include:
//   - Call stack underflow: functionExit without a matching functionEnter
//   - Correction of a non-live object: correctAllocationSite for an id not live
//   - Live set not empty: objects still live at endExecution
//
// They are fatal. The trace generator is at fault and the same input will
// always fail the same way.
type InvariantError struct {
	// Code identifies the violated invariant.
	Code InvariantCode

	// Message is a human-readable description.
	Message string

	// ObjectID is the offending object, when there is one.
	ObjectID ObjectID

	// Details contains additional context.
	Details map[string]string
}

// InvariantCode categorizes invariant errors.
type InvariantCode string

const (
	// ErrCodeCallStackUnderflow indicates an exit with an empty call stack.
	ErrCodeCallStackUnderflow InvariantCode = "CALL_STACK_UNDERFLOW"

	// ErrCodeCorrectionNotLive indicates an allocation-site correction for
	// an object that is not live.
	ErrCodeCorrectionNotLive InvariantCode = "CORRECTION_NOT_LIVE"

	// ErrCodeLiveSetNotEmpty indicates objects were still live at the end
	// of execution.
	ErrCodeLiveSetNotEmpty InvariantCode = "LIVE_SET_NOT_EMPTY"
)

// Error implements the error interface.
func (e *InvariantError) Error() string {
	if e.ObjectID != 0 {
		return fmt.Sprintf("%s: %s (object=%d)", e.Code, e.Message, e.ObjectID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInvariantError returns true if err is or wraps an *InvariantError.
func IsInvariantError(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}

// HasCode returns true if err is or wraps an *InvariantError with code.
func HasCode(err error, code InvariantCode) bool {
	var ie *InvariantError
	if errors.As(err, &ie) {
		return ie.Code == code
	}
	return false
}

// Failure codes for replay errors that are not invariant violations.
const (
	FailureDecode     = "DECODE_ERROR"
	FailureIncomplete = "TRACE_INCOMPLETE"
)

// FailureCode classifies a replay error: the invariant code, FailureDecode
// or FailureIncomplete. It returns "" for a nil error and for errors that
// are none of these.
func FailureCode(err error) string {
	var ie *InvariantError
	var de *trace.DecodeError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ie):
		return string(ie.Code)
	case errors.As(err, &de):
		return FailureDecode
	case errors.Is(err, trace.ErrIncomplete):
		return FailureIncomplete
	default:
		return ""
	}
}

func newUnderflowError() *InvariantError {
	return &InvariantError{
		Code:    ErrCodeCallStackUnderflow,
		Message: "function exit with empty call stack",
	}
}

func newCorrectionNotLiveError(id ObjectID) *InvariantError {
	return &InvariantError{
		Code:     ErrCodeCorrectionNotLive,
		Message:  "allocation site correction for object that is not live",
		ObjectID: id,
	}
}

func newLiveSetNotEmptyError(live int, sample []ObjectID) *InvariantError {
	return &InvariantError{
		Code:    ErrCodeLiveSetNotEmpty,
		Message: fmt.Sprintf("%d objects still live at end of execution", live),
		Details: map[string]string{
			"live":   fmt.Sprintf("%d", live),
			"sample": fmt.Sprintf("%v", sample),
		},
	}
}
