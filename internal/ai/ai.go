package ai

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotConfigured is returned by generators built without credentials.
var ErrNotConfigured = errors.New("language model api key is not configured")

// Generator produces text from a role framing and a task instruction.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// ModelError reports a model call that failed after all attempts.
type ModelError struct {
	Provider string
	Attempts int
	Err      error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("%s model call failed after %d attempt(s): %v", e.Provider, e.Attempts, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// Unconfigured is a Generator that fails every call with ErrNotConfigured. It
// lets the server start without an API key.
type Unconfigured struct {
	Provider string
}

func (u Unconfigured) Generate(context.Context, string, string) (string, error) {
	return "", &ModelError{Provider: u.Provider, Attempts: 0, Err: ErrNotConfigured}
}
