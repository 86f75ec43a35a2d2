package themes

import (
	"fmt"
	"strings"
)

// ValidateThemeName checks that a theme name is safe for use as a directory
// name. Returns ErrInvalidThemeName if the name is empty or contains path
// separators, dots, or other characters outside [a-z0-9_-].
func ValidateThemeName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidThemeName)
	}
	if strings.ContainsAny(name, "/\\.") {
		return fmt.Errorf("%w: %q", ErrInvalidThemeName, name)
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return fmt.Errorf("%w: %q (use lower-case letters, digits, - and _)", ErrInvalidThemeName, name)
		}
	}
	return nil
}
