package errs

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation error")
	ErrIngestion  = errors.New("ingestion error")
	ErrProvider   = errors.New("provider error")
	ErrParse      = errors.New("parse error")
	ErrNotFound   = errors.New("not found")
)

// Reason refines ErrProvider failures.
type Reason string

const (
	ReasonTimeout     Reason = "timeout"
	ReasonUnavailable Reason = "unavailable"
	ReasonBadStatus   Reason = "bad_status"
	ReasonBadPayload  Reason = "bad_payload"
	ReasonRateLimited Reason = "rate_limited"
	ReasonCanceled    Reason = "canceled"
)

type Error struct {
	Kind    error
	Reason  Reason
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func Validation(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func Ingestion(message string, cause error) error {
	return &Error{Kind: ErrIngestion, Message: message, Cause: cause}
}

func Provider(reason Reason, message string, cause error) error {
	return &Error{Kind: ErrProvider, Reason: reason, Message: message, Cause: cause}
}

func Parse(message string, cause error) error {
	return &Error{Kind: ErrParse, Message: message, Cause: cause}
}

// ReasonOf returns the provider failure reason carried by err, if any.
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}
