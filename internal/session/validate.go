package session

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidName is wrapped by ValidateName errors.
var ErrInvalidName = errors.New("invalid profile name")

// Profile names become directory names and flag values, so a leading
// hyphen is refused.
var nameRegexp = regexp.MustCompile(`^[a-z0-9_][a-z0-9_-]{0,63}$`)

// ValidateName checks that name is a usable profile name.
func ValidateName(name string) error {
	if !nameRegexp.MatchString(name) {
		return fmt.Errorf("%w %q: must match ^[a-z0-9_-]{1,64}$ and not start with '-'", ErrInvalidName, name)
	}
	return nil
}
