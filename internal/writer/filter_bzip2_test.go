package writer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompressionFilterRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 200)

	for _, level := range []int{1, 2} {
		f := NewCompressionFilter(level)
		compressed, err := f.Apply(data)
		require.NoError(t, err)
		require.Less(t, len(compressed), len(data), "repetitive data should shrink")

		restored, err := f.Remove(compressed)
		require.NoError(t, err)
		require.Equal(t, data, restored)
	}
}

func TestCompressionFilterEmptyInput(t *testing.T) {
	f := NewCompressionFilter(2)
	compressed, err := f.Apply(nil)
	require.NoError(t, err)

	restored, err := f.Remove(compressed)
	require.NoError(t, err)
	require.Empty(t, restored)
}

func TestCompressionFilterRejectsGarbage(t *testing.T) {
	f := NewCompressionFilter(1)
	_, err := f.Remove([]byte("not a bzip2 stream"))
	require.Error(t, err)
}
