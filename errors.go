package fastindex

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrInvalidConfiguration is returned (wrapped with the offending detail)
// when a Config has an unsupported fingerprint width, fewer than two
// segments, more than maxSegments segments, or a non-positive key count.
var ErrInvalidConfiguration = errors.New("fastindex: invalid configuration")

// ErrConstructionBudgetExceeded is returned when peeling did not succeed
// within Config.MaxAttempts. Callers may retry with a larger MaxAttempts,
// a different Seed, or a larger Segments count.
var ErrConstructionBudgetExceeded = errors.New("fastindex: construction budget exceeded")

func invalidConfigf(format string, args ...interface{}) error {
	return errors.Wrap(ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}

func budgetExceeded(attempts int) error {
	return errors.Wrapf(ErrConstructionBudgetExceeded, "no peeling after %d attempts", attempts)
}
