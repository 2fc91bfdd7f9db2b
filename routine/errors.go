package routine

import (
	"errors"
	"fmt"
)

// ErrPanicRecovered is matched by errors.Is for every error produced by Safe
var ErrPanicRecovered = errors.New("routine: panic recovered")

// ErrPanic returns an error wrapping the recovered panic value
func ErrPanic(recovered any) error {
	return fmt.Errorf("%w: %v", ErrPanicRecovered, recovered)
}
