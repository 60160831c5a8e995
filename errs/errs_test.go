package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsRetryable(t *testing.T) {
	t.Run("wrapped source error", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := fmt.Errorf("%w: fetch intervals: %w", ErrSourceUnavailable, cause)

		require.True(t, IsRetryable(err))
		require.ErrorIs(t, err, cause)
	})

	t.Run("validation error", func(t *testing.T) {
		err := fmt.Errorf("%w: titles has 2 rows, want 3", ErrColumnLengthMismatch)
		require.False(t, IsRetryable(err))
	})

	t.Run("nil", func(t *testing.T) {
		require.False(t, IsRetryable(nil))
	})
}
