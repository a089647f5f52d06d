package usecase

import "fmt"

type ErrorCode string

const (
	ErrorMalformedRequest ErrorCode = "MALFORMED_REQUEST"
	ErrorInferenceFailure ErrorCode = "INFERENCE_FAILURE"
	ErrorInternal         ErrorCode = "INTERNAL_ERROR"
)

// Error is the failure variant returned by the use case. Code is stable and
// mapped to a transport status by the handler; Reason is a short machine tag.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// MalformedRequest builds the error used when the incoming body cannot be
// turned into a ConversationRequest.
func MalformedRequest(reason string, err error) *Error {
	return newError(ErrorMalformedRequest, reason, err)
}
