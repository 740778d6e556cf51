// Package layout computes page geometry: the dot pitch, dot size, and
// block grid dimensions a printer/scanner pair agrees on purely from
// DPI, dot-size percent, margins, and header/footer toggles. Encoder
// and decoder call the same function so the grid lines up without any
// data exchanged beyond those parameters.
package layout

import (
	"fmt"

	"github.com/cybran01/paperback-cli/internal/utils"
)

// NDot is the number of dot positions a block cell occupies along each
// axis: 32 rows by 32 columns of bits, 1024 bits = 128 bytes per block.
const NDot = 32

// Options are the inputs page geometry is deterministically derived
// from, per the encoder's chosen printer/scanner profile.
type Options struct {
	DPI            int
	DotPercent     int // [50,100]
	PageWidthDots  int // printable width in dots at DPI
	PageHeightDots int // printable height in dots at DPI
	BorderDots     int
	HeaderEnabled  bool
	FooterEnabled  bool
}

// Geometry is the derived page layout: dot pitch, dot size, and how
// many block cells fit on the printable grid.
type Geometry struct {
	Dx, Dy int // dot pitch (always equal; one printer dot)
	Px, Py int // dot size in printer dots
	Nx, Ny int // grid dimensions in blocks

	HeaderHeightDots int
	FooterHeightDots int
}

// Compute derives a page's Geometry from opts. The result is a pure
// function of its inputs, which is what lets a decoder reconstruct the
// same grid the encoder used without any layout metadata on the page
// itself.
func Compute(opts Options) (Geometry, error) {
	if opts.DPI <= 0 {
		return Geometry{}, fmt.Errorf("dpi must be positive, got %d", opts.DPI)
	}
	if opts.DotPercent < 50 || opts.DotPercent > 100 {
		return Geometry{}, fmt.Errorf("dotpercent must be in [50,100], got %d", opts.DotPercent)
	}

	dx := 1 // pitch equals one printer dot, since the raster uses dpi dots directly
	dy := 1

	px := (dx*opts.DotPercent + 50) / 100
	if px < 1 {
		px = 1
	}
	py := (dy*opts.DotPercent + 50) / 100
	if py < 1 {
		py = 1
	}

	headerHeight := 0
	if opts.HeaderEnabled {
		headerHeight = opts.DPI / 6 // a 1/6-inch title band
	}
	footerHeight := 0
	if opts.FooterEnabled {
		footerHeight = opts.DPI / 10 // a 1/10-inch info band
	}

	cellPitch := NDot*dx + dx // block cell plus one blank gutter dot
	usableWidth := opts.PageWidthDots - 2*opts.BorderDots
	usableHeight := opts.PageHeightDots - 2*opts.BorderDots - headerHeight - footerHeight

	nx := usableWidth / cellPitch
	ny := usableHeight / cellPitch
	if err := utils.ValidateGridDimension("nx", nx); err != nil {
		return Geometry{}, err
	}
	if err := utils.ValidateGridDimension("ny", ny); err != nil {
		return Geometry{}, err
	}

	return Geometry{
		Dx: dx, Dy: dy,
		Px: px, Py: py,
		Nx: nx, Ny: ny,
		HeaderHeightDots: headerHeight,
		FooterHeightDots: footerHeight,
	}, nil
}

// BlocksPerPage reports how many block cells (data plus recovery) a
// page's grid holds.
func (g Geometry) BlocksPerPage() int {
	return g.Nx * g.Ny
}

// CellOrigin returns the pixel top-left corner of the block cell at
// grid position (col, row), scan order left-to-right, top-to-bottom.
// borderDots is the page border width expressed in printer dots.
func (g Geometry) CellOrigin(col, row, borderDots int) (x, y int) {
	cellPitchDots := NDot*g.Dx + g.Dx
	x = (borderDots + col*cellPitchDots) * g.Px
	y = (borderDots+row*cellPitchDots)*g.Py + g.HeaderHeightDots
	return x, y
}
