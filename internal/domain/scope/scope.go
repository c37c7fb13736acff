// Package scope validates session scope names that partition the vector index.
package scope

import (
	"fmt"
	"regexp"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Default is the scope used when the caller names none.
const Default = "default"

// MaxLength is the longest accepted scope name.
const MaxLength = 128

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Normalize returns Default for an empty name and validates anything else.
// Valid names are safe to embed in storage keys.
func Normalize(name string) (string, error) {
	if name == "" {
		return Default, nil
	}
	if len(name) > MaxLength {
		return "", fmt.Errorf("%w: longer than %d characters", domain.ErrInvalidScope, MaxLength)
	}
	if !nameRegex.MatchString(name) {
		return "", fmt.Errorf("%w: %q must be alphanumeric with underscores and hyphens", domain.ErrInvalidScope, name)
	}
	return name, nil
}
