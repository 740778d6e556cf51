package raster

import (
	"image"
)

// Stats summarizes intensity over a page's interior, the starting
// point for locally adaptive thresholding.
type Stats struct {
	Mean, Min, Max uint8
}

// ComputeStats scans img and returns its mean/min/max gray level.
func ComputeStats(img *image.Gray) Stats {
	b := img.Bounds()
	if b.Empty() {
		return Stats{}
	}
	var sum, count uint64
	min, max := uint8(255), uint8(0)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := img.GrayAt(x, y).Y
			sum += uint64(v)
			count++
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	return Stats{Mean: uint8(sum / count), Min: min, Max: max}
}

