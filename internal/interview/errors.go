package interview

import (
	"fmt"
)

// ValidationError rejects a request before any model call is made.
type ValidationError struct {
	Profession string
	Err        error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid profession %q: %v", e.Profession, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// UpstreamError reports a failed model call for operation Op.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
