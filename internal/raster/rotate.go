package raster

import "image"

// Rotate90CW returns a copy of img rotated 90 degrees clockwise. The
// decoder's orientation retry uses this to test whether a page was fed
// in sideways or upside down: two successive calls cover a 180-degree
// flip, three cover 270.
func Rotate90CW(img *image.Gray) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.SetGray(h-1-y, x, img.GrayAt(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}
