package writer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// mockFilter is a test filter that transforms data in a predictable,
// reversible way (byte increment/decrement) so pipeline ordering can be
// checked without pulling in real compression or crypto.
type mockFilter struct {
	name       string
	shouldFail bool
}

func (m *mockFilter) Name() string { return m.name }

func (m *mockFilter) Apply(data []byte) ([]byte, error) {
	if m.shouldFail {
		return nil, errors.New("mock filter apply failed")
	}
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b + 1
	}
	return out, nil
}

func (m *mockFilter) Remove(data []byte) ([]byte, error) {
	if m.shouldFail {
		return nil, errors.New("mock filter remove failed")
	}
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b - 1
	}
	return out, nil
}

func TestPipelineAppliesInOrder(t *testing.T) {
	p := NewPipeline()
	p.Add(&mockFilter{name: "a"})
	p.Add(&mockFilter{name: "b"})

	data := []byte{1, 2, 3}
	out, err := p.Apply(data)
	require.NoError(t, err)
	require.Equal(t, []byte{3, 4, 5}, out)
}

func TestPipelineRemovesInReverseOrder(t *testing.T) {
	p := NewPipeline()
	p.Add(&mockFilter{name: "a"})
	p.Add(&mockFilter{name: "b"})

	data := []byte{1, 2, 3}
	applied, err := p.Apply(data)
	require.NoError(t, err)

	restored, err := p.Remove(applied)
	require.NoError(t, err)
	require.Equal(t, data, restored)
}

func TestPipelineStopsOnFirstFailure(t *testing.T) {
	p := NewPipeline()
	p.Add(&mockFilter{name: "ok"})
	p.Add(&mockFilter{name: "bad", shouldFail: true})
	p.Add(&mockFilter{name: "unreached"})

	_, err := p.Apply([]byte{1, 2, 3})
	require.Error(t, err)
	require.Contains(t, err.Error(), "bad")
}

func TestEmptyPipelineIsIdentity(t *testing.T) {
	p := NewPipeline()
	require.True(t, p.IsEmpty())

	data := []byte{9, 8, 7}
	out, err := p.Apply(data)
	require.NoError(t, err)
	require.Equal(t, data, out)
}
