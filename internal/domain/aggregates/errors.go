package aggregates

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorCode string

const (
	CodeValidation         ErrorCode = "validation"
	CodeNotFound           ErrorCode = "not_found"
	CodeConflict           ErrorCode = "conflict"
	CodeForbidden          ErrorCode = "forbidden"
	CodeInvariantViolation ErrorCode = "invariant_violation"
	CodePreconditionFailed ErrorCode = "precondition_failed"
	CodeRetryable          ErrorCode = "retryable"
	CodeInternal           ErrorCode = "internal"
)

// Error is what every aggregate write returns on failure. Op names the
// operation ("secret_santa.start"), Cause keeps the underlying error for
// errors.Is.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(strings.TrimSpace(e.Op))
	if msg := strings.TrimSpace(e.Message); msg != "" {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(msg)
	}
	if b.Len() == 0 {
		return string(e.Code)
	}
	fmt.Fprintf(&b, " (%s)", e.Code)
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{Code: code, Op: strings.TrimSpace(op), Message: strings.TrimSpace(message), Cause: cause}
}

// Wrap returns nil for a nil err; otherwise err's text becomes the message.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

// As finds the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var aggErr *Error
	ok := errors.As(err, &aggErr)
	return aggErr, ok
}

func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code && code != "" }

func IsNotFound(err error) bool { return IsCode(err, CodeNotFound) }

// CodeOf is "" for errors that did not come from an aggregate.
func CodeOf(err error) ErrorCode {
	if aggErr, ok := As(err); ok {
		return aggErr.Code
	}
	return ""
}
