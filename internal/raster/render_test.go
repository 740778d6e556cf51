package raster

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cybran01/paperback-cli/internal/core"
	"github.com/cybran01/paperback-cli/internal/layout"
)

func testGeometry(t *testing.T) layout.Geometry {
	t.Helper()
	geo, err := layout.Compute(layout.Options{
		DPI:            300,
		DotPercent:     80,
		PageWidthDots:  300 * 4,
		PageHeightDots: 300 * 5,
		BorderDots:     10,
		HeaderEnabled:  true,
		FooterEnabled:  true,
	})
	require.NoError(t, err)
	return geo
}

func sampleBlocks(n int) [][]byte {
	blocks := make([][]byte, n)
	for i := range blocks {
		var data [core.NData]byte
		for j := range data {
			data[j] = byte(i*7 + j)
		}
		blocks[i] = core.EncodeBlock(uint32(i*core.NData), data)
	}
	return blocks
}

func TestRenderProducesNonEmptyImage(t *testing.T) {
	geo := testGeometry(t)
	img, err := Render(geo, PageContent{
		Blocks:   sampleBlocks(3),
		Title:    "test.bin",
		Footer:   "paperback",
		PageNum:  1,
		PageOf:   1,
		BorderPx: 10,
	})
	require.NoError(t, err)
	require.False(t, img.Bounds().Empty())
}

func TestRenderRejectsTooManyBlocks(t *testing.T) {
	geo := testGeometry(t)
	_, err := Render(geo, PageContent{
		Blocks: sampleBlocks(geo.BlocksPerPage() + 1),
	})
	require.Error(t, err)
}

func TestRenderExtractRoundTrip(t *testing.T) {
	geo := testGeometry(t)
	blocks := sampleBlocks(geo.BlocksPerPage())

	img, err := Render(geo, PageContent{Blocks: blocks, BorderPx: 10})
	require.NoError(t, err)

	hint := GridHint{
		CellPitchX: (layout.NDot + 1) * geo.Px,
		CellPitchY: (layout.NDot + 1) * geo.Py,
		NominalNx:  geo.Nx,
		NominalNy:  geo.Ny,
	}
	est := EstimateGrid(img, hint, false)
	extracted := ExtractBlocks(img, est, hint)
	require.Len(t, extracted, len(blocks))

	for i, original := range blocks {
		want, err := core.DecodeBlock(original, nil)
		require.NoError(t, err)
		got, err := core.DecodeBlock(extracted[i], nil)
		require.NoError(t, err, "block %d failed to decode", i)
		require.Equal(t, want.Addr, got.Addr, "block %d addr mismatch", i)
		require.Equal(t, want.Data, got.Data, "block %d data mismatch", i)
	}
}

func TestComputeStatsReflectsContent(t *testing.T) {
	geo := testGeometry(t)
	img, err := Render(geo, PageContent{Blocks: sampleBlocks(2), BorderPx: 10})
	require.NoError(t, err)

	stats := ComputeStats(img)
	require.LessOrEqual(t, stats.Min, stats.Mean)
	require.LessOrEqual(t, stats.Mean, stats.Max)
}
