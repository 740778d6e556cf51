package layout

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func letterOptions() Options {
	return Options{
		DPI:            300,
		DotPercent:     80,
		PageWidthDots:  300 * 8, // 8 inches printable width
		PageHeightDots: 300 * 10,
		BorderDots:     20,
		HeaderEnabled:  true,
		FooterEnabled:  true,
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	opts := letterOptions()
	g1, err := Compute(opts)
	require.NoError(t, err)
	g2, err := Compute(opts)
	require.NoError(t, err)
	require.Equal(t, g1, g2)
}

func TestComputeProducesPositiveGrid(t *testing.T) {
	g, err := Compute(letterOptions())
	require.NoError(t, err)
	require.Greater(t, g.Nx, 0)
	require.Greater(t, g.Ny, 0)
	require.Equal(t, 1, g.Dx)
	require.Equal(t, 1, g.Dy)
	require.GreaterOrEqual(t, g.Px, 1)
}

func TestComputeRejectsBadDotPercent(t *testing.T) {
	opts := letterOptions()
	opts.DotPercent = 10
	_, err := Compute(opts)
	require.Error(t, err)
}

func TestComputeRejectsZeroDPI(t *testing.T) {
	opts := letterOptions()
	opts.DPI = 0
	_, err := Compute(opts)
	require.Error(t, err)
}

func TestComputeRejectsOversizedBorder(t *testing.T) {
	opts := letterOptions()
	opts.BorderDots = 100000
	_, err := Compute(opts)
	require.Error(t, err)
}

func TestCellOriginAdvancesByPitch(t *testing.T) {
	g, err := Compute(letterOptions())
	require.NoError(t, err)

	x0, y0 := g.CellOrigin(0, 0, 20)
	x1, _ := g.CellOrigin(1, 0, 20)
	_, y1 := g.CellOrigin(0, 1, 20)

	require.Greater(t, x1, x0)
	require.Greater(t, y1, y0)
}

func TestBlocksPerPage(t *testing.T) {
	g, err := Compute(letterOptions())
	require.NoError(t, err)
	require.Equal(t, g.Nx*g.Ny, g.BlocksPerPage())
}
