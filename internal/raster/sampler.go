package raster

import (
	"image"
	"math"

	"github.com/cybran01/paperback-cli/internal/layout"
)

// sampleMargin is the extra slack, in pixels, captured around each
// cell's nominal footprint so a local re-lock has room to find the
// cell's own border even when the global estimate is slightly off.
const sampleMargin = 3

// ExtractBlocks samples img at the grid positions est describes,
// returning up to Nposx*Nposy candidate 128-byte blocks in scan order.
// For each position it extracts an oversized, rotation-corrected tile
// around the expected cell border corner, applies an unsharp mask calibrated
// by est.Sharpfactor, re-locks a local grid inside the tile against the
// cell's own one-dot border, and binarizes the 32x32 interior
// positions against a threshold local to that tile, per spec.md §4.9's
// per-block sampler.
func ExtractBlocks(img *image.Gray, est GridEstimate, hint GridHint) [][]byte {
	blocks := make([][]byte, 0, est.Nposx*est.Nposy)
	theta := (est.Xangle + est.Yangle) / 2

	for posy := 0; posy < est.Nposy; posy++ {
		for posx := 0; posx < est.Nposx; posx++ {
			baseX := est.Xpeak + float64(posx)*est.Xstep
			baseY := est.Ypeak + float64(posy)*est.Ystep
			// A small rotation couples the two axes: as the row advances
			// the expected column drifts by Xangle, and vice versa.
			cx := baseX + baseY*math.Tan(est.Xangle)
			cy := baseY - baseX*math.Tan(est.Yangle)

			blocks = append(blocks, sampleBlock(img, cx, cy, est, hint, theta))
		}
	}
	return blocks
}

// sampleBlock runs one cell through the extract/unsharp/relock/binarize
// pipeline and returns a candidate 128-byte block.
func sampleBlock(img *image.Gray, cx, cy float64, est GridEstimate, hint GridHint, theta float64) []byte {
	tileW := hint.CellPitchX + 2*sampleMargin
	tileH := hint.CellPitchY + 2*sampleMargin
	if tileW < 1 {
		tileW = 1
	}
	if tileH < 1 {
		tileH = 1
	}

	unsharp := extractTile(img, cx, cy, tileW, tileH, theta)
	sharp := applyUnsharpMask(unsharp, tileW, tileH, est.Sharpfactor)

	blockxpeak, blockxstep := lockAxis(tileColumnDarkness(sharp, tileW, tileH), hint.CellPitchX, false)
	blockypeak, blockystep := lockAxis(tileRowDarkness(sharp, tileW, tileH), hint.CellPitchY, false)
	if blockxstep <= 0 {
		blockxstep = float64(hint.CellPitchX)
	}
	if blockystep <= 0 {
		blockystep = float64(hint.CellPitchY)
	}

	tmin, tmax := tileMinMax(sharp)
	threshold := (tmin + tmax) / 2

	// The border occupies the first dot of the cell pitch; interior
	// data dots follow at the same per-dot spacing out to NDot columns.
	dotPitchX := blockxstep / float64(layout.NDot+1)
	dotPitchY := blockystep / float64(layout.NDot+1)
	originX := blockxpeak + dotPitchX
	originY := blockypeak + dotPitchY

	block := make([]byte, 128)
	for bit := 0; bit < layout.NDot*layout.NDot; bit++ {
		col := bit % layout.NDot
		row := bit / layout.NDot

		tx := originX + float64(col)*dotPitchX + dotPitchX/2
		ty := originY + float64(row)*dotPitchY + dotPitchY/2

		if sampleNeighborhood(sharp, tileW, tileH, tx, ty) < threshold {
			byteIdx := bit / 8
			bitIdx := uint(bit % 8)
			block[byteIdx] |= 1 << bitIdx
		}
	}
	return block
}

// extractTile copies a w x h rotated rectangle of img into a scratch
// buffer, nearest-neighbor sampling and treating anything outside
// img's bounds as white. (cx, cy) is the cell's border corner, not the
// tile's center: the tile extends sampleMargin pixels before it and a
// full cell pitch plus sampleMargin after, so it holds the border plus
// the entire 32x32 interior grid lock is about to re-find.
func extractTile(img *image.Gray, cx, cy float64, w, h int, theta float64) []float64 {
	tile := make([]float64, w*h)
	cosT, sinT := math.Cos(theta), math.Sin(theta)
	b := img.Bounds()

	for ty := 0; ty < h; ty++ {
		for tx := 0; tx < w; tx++ {
			lx := float64(tx - sampleMargin)
			ly := float64(ty - sampleMargin)
			srcX := cx + lx*cosT - ly*sinT
			srcY := cy + lx*sinT + ly*cosT

			ix, iy := int(math.Round(srcX)), int(math.Round(srcY))
			v := 255.0
			if (image.Point{X: ix, Y: iy}).In(b) {
				v = float64(img.GrayAt(ix, iy).Y)
			}
			tile[ty*w+tx] = v
		}
	}
	return tile
}

// applyUnsharpMask sharpens tile by factor, the way a soft scan is
// calibrated back toward the crisp edges grid lock expects.
func applyUnsharpMask(tile []float64, w, h int, factor float64) []float64 {
	blurred := boxBlur3(tile, w, h)
	sharp := make([]float64, len(tile))
	for i, v := range tile {
		s := v + factor*(v-blurred[i])
		switch {
		case s < 0:
			s = 0
		case s > 255:
			s = 255
		}
		sharp[i] = s
	}
	return sharp
}

func boxBlur3(tile []float64, w, h int) []float64 {
	out := make([]float64, len(tile))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum, count := 0.0, 0.0
			for dy := -1; dy <= 1; dy++ {
				ny := y + dy
				if ny < 0 || ny >= h {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					nx := x + dx
					if nx < 0 || nx >= w {
						continue
					}
					sum += tile[ny*w+nx]
					count++
				}
			}
			out[y*w+x] = sum / count
		}
	}
	return out
}

func tileColumnDarkness(tile []float64, w, h int) []float64 {
	profile := make([]float64, w)
	for x := 0; x < w; x++ {
		sum := 0.0
		for y := 0; y < h; y++ {
			sum += 255 - tile[y*w+x]
		}
		profile[x] = sum
	}
	return profile
}

func tileRowDarkness(tile []float64, w, h int) []float64 {
	profile := make([]float64, h)
	for y := 0; y < h; y++ {
		sum := 0.0
		for x := 0; x < w; x++ {
			sum += 255 - tile[y*w+x]
		}
		profile[y] = sum
	}
	return profile
}

func tileMinMax(tile []float64) (min, max float64) {
	min, max = 255, 0
	for _, v := range tile {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

func sampleNeighborhood(tile []float64, w, h int, cx, cy float64) float64 {
	x, y := int(math.Round(cx)), int(math.Round(cy))
	sum, count := 0.0, 0.0
	for dy := -1; dy <= 1; dy++ {
		ny := y + dy
		if ny < 0 || ny >= h {
			continue
		}
		for dx := -1; dx <= 1; dx++ {
			nx := x + dx
			if nx < 0 || nx >= w {
				continue
			}
			sum += tile[ny*w+nx]
			count++
		}
	}
	if count == 0 {
		return 255
	}
	return sum / count
}
