package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodecError_Error(t *testing.T) {
	tests := []struct {
		name     string
		context  string
		cause    error
		expected string
	}{
		{
			name:     "simple error",
			context:  "reading block envelope",
			cause:    errors.New("crc mismatch"),
			expected: "reading block envelope: crc mismatch",
		},
		{
			name:     "empty context",
			context:  "",
			cause:    errors.New("some error"),
			expected: ": some error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &CodecError{Context: tt.context, Cause: tt.cause}
			require.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestWrapError(t *testing.T) {
	t.Run("wraps non-nil error", func(t *testing.T) {
		cause := errors.New("I/O error")
		err := WrapError("reading data", cause)
		require.NotNil(t, err)

		var codecErr *CodecError
		require.True(t, errors.As(err, &codecErr))
		require.Equal(t, "reading data", codecErr.Context)
		require.Equal(t, cause, codecErr.Cause)
	})

	t.Run("nil cause returns nil", func(t *testing.T) {
		require.Nil(t, WrapError("some operation", nil))
	})
}

func TestWrapError_ChainedWrapping(t *testing.T) {
	baseErr := errors.New("base error")
	level1 := WrapError("level 1", baseErr)
	level2 := WrapError("level 2", level1)
	level3 := WrapError("level 3", level2)

	require.NotNil(t, level3)
	require.Contains(t, level3.Error(), "level 3")
	require.Contains(t, level3.Error(), "level 2")
	require.True(t, errors.Is(level3, baseErr))

	var codecErr *CodecError
	require.True(t, errors.As(level3, &codecErr))
	require.Equal(t, "level 3", codecErr.Context)

	unwrapped := errors.Unwrap(level3)
	require.True(t, errors.As(unwrapped, &codecErr))
	require.Equal(t, "level 2", codecErr.Context)
}
