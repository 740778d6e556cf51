// Package raster renders a page's blocks into a monochrome bitmap and,
// on the decode side, samples a grayscale bitmap back into block
// candidates. It operates entirely on raw pixel buffers (image.Gray);
// file formats (BMP, PNG, …) are the caller's concern.
package raster

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/cybran01/paperback-cli/internal/layout"
)

const (
	white = 255
	black = 0
)

// PageContent is everything Render needs to place on one page.
type PageContent struct {
	Blocks   [][]byte // scan-order 128-byte blocks (data and recovery)
	Title    string   // header band text, empty to suppress
	Footer   string   // footer band text, empty to suppress
	PageNum  int
	PageOf   int
	BorderPx int
}

// Render draws one page's blocks onto a monochrome raster image sized
// to fit geo's grid. Each bit of each 128-byte block becomes a (Px x
// Py) dot; bits read LSB-first along a row, rows advancing top to
// bottom within the block (32x32 bits = 1024 bits = 128 bytes). Each
// cell gets a one-dot border of set pixels to aid decoder grid lock.
func Render(geo layout.Geometry, content PageContent) (*image.Gray, error) {
	if len(content.Blocks) > geo.BlocksPerPage() {
		return nil, fmt.Errorf("page holds %d blocks, got %d", geo.BlocksPerPage(), len(content.Blocks))
	}

	cellPitchDots := layout.NDot*geo.Dx + geo.Dx
	width := (2*content.BorderPx + geo.Nx*cellPitchDots) * geo.Px
	height := (2*content.BorderPx+geo.Ny*cellPitchDots)*geo.Py + geo.HeaderHeightDots + geo.FooterHeightDots

	img := image.NewGray(image.Rect(0, 0, width, height))
	fillRect(img, img.Bounds(), white)

	for i, block := range content.Blocks {
		col := i % geo.Nx
		row := i / geo.Nx
		x0, y0 := geo.CellOrigin(col, row, content.BorderPx)
		drawBlockCell(img, x0, y0, geo, block)
	}

	if content.Title != "" {
		drawText(img, content.BorderPx*geo.Px, geo.HeaderHeightDots*2/3, content.Title)
	}
	if content.Footer != "" {
		y := height - geo.FooterHeightDots/3
		drawText(img, content.BorderPx*geo.Px, y, fmt.Sprintf("%s (page %d/%d)", content.Footer, content.PageNum, content.PageOf))
	}

	return img, nil
}

func drawBlockCell(img *image.Gray, x0, y0 int, geo layout.Geometry, block []byte) {
	cellDots := layout.NDot*geo.Dx + geo.Dx

	// one-dot border of set (black) pixels around the cell, for grid lock.
	borderRect := image.Rect(x0, y0, x0+cellDots*geo.Px, y0+geo.Dy*geo.Py)
	fillRect(img, borderRect, black)
	borderRect = image.Rect(x0, y0, x0+geo.Dx*geo.Px, y0+cellDots*geo.Py)
	fillRect(img, borderRect, black)

	innerX := x0 + geo.Dx*geo.Px
	innerY := y0 + geo.Dy*geo.Py

	for bit := 0; bit < layout.NDot*layout.NDot; bit++ {
		byteIdx := bit / 8
		bitIdx := uint(bit % 8)
		if byteIdx >= len(block) {
			continue
		}
		set := (block[byteIdx]>>bitIdx)&1 != 0
		if !set {
			continue
		}
		col := bit % layout.NDot
		row := bit / layout.NDot
		px := innerX + col*geo.Px
		py := innerY + row*geo.Py
		fillRect(img, image.Rect(px, py, px+geo.Px, py+geo.Py), black)
	}
}

func fillRect(img *image.Gray, r image.Rectangle, v uint8) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
}

func drawText(img *image.Gray, x, y int, text string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Gray{Y: black}),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
