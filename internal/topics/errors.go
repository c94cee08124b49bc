package topics

import (
	"context"
	"errors"
	"fmt"

	"github.com/nfrund/topichub/internal/membership"
)

var (
	// ErrActive is returned by Delete when the topic still has subscribers.
	ErrActive = errors.New("topics: topic is active")

	// ErrTimeout is returned when the coordinator did not accept or answer a
	// call within the call timeout.
	ErrTimeout = errors.New("topics: coordinator timeout")

	// ErrUnavailable is returned when the coordinator has stopped or the
	// membership backend cannot be reached.
	ErrUnavailable = errors.New("topics: registry unavailable")
)

// translate maps membership errors onto the registry's error set.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, membership.ErrNotEmpty):
		return ErrActive
	case errors.Is(err, membership.ErrUnavailable):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	default:
		return err
	}
}

// contextError reports why a call stopped waiting. Deadlines, whether the
// registry's or the caller's, count as timeouts.
func contextError(ctx context.Context) error {
	err := ctx.Err()
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}
