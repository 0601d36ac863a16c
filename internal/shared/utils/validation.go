package utils

import (
	"fmt"
	"regexp"
)

// String length limits
const (
	MaxKeyLength = 128
)

// SlugPattern is the identifier syntax for entry keys: they double as
// entity object IDs after reload.
var SlugPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// ValidateKey checks an entry key against the collection identifier syntax.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}
	if len(key) > MaxKeyLength {
		return fmt.Errorf("key exceeds maximum length of %d", MaxKeyLength)
	}
	if !SlugPattern.MatchString(key) {
		return fmt.Errorf("key contains invalid characters (allowed: a-z, 0-9, _)")
	}
	return nil
}
