package scaffold

import (
	"fmt"
	"regexp"

	"github.com/aretw0/kiln/pkg/core"
)

var namePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// ValidateName reports whether name can be used as a component name.
// The name becomes a directory, a CSS class and a Sass string, so it must
// start with a letter and contain only letters, digits, '-' and '_'.
// "common" is reserved for the shared helper files.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", core.ErrInvalidName)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q must start with a letter and contain only letters, digits, '-' or '_'", core.ErrInvalidName, name)
	}
	if name == core.CommonName {
		return fmt.Errorf("%w: %q is reserved", core.ErrInvalidName, name)
	}
	return nil
}
