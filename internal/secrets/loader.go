// Package secrets resolves credentials from configuration, files or the
// environment.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotConfigured is returned when no source yields a value.
var ErrNotConfigured = errors.New("secret is not configured")

// Source describes where a secret may come from. The first non-empty source in
// the order File, Value, Env wins.
type Source struct {
	// Name is used in error messages.
	Name string
	// File points to a file containing the secret, such as a mounted
	// container secret.
	File string
	// Value is an inline value from configuration or flags.
	Value string
	// Env names an environment variable consulted last.
	Env string
}

// Load returns the trimmed secret. A missing secret yields an error wrapping
// ErrNotConfigured; an unreadable or empty file is reported as its own error.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return secret, nil
	}

	if secret := strings.TrimSpace(src.Value); secret != "" {
		return secret, nil
	}

	if env := strings.TrimSpace(src.Env); env != "" {
		if secret := strings.TrimSpace(os.Getenv(env)); secret != "" {
			return secret, nil
		}
	}

	return "", fmt.Errorf("%s: %w", name, ErrNotConfigured)
}
