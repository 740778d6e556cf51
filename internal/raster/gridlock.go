package raster

import (
	"image"
	"math"
)

// GridHint is the decoder's expectation of the page's dot grid, derived
// from the same (dpi, dotpercent, margins, header/footer) tuple the
// encoder used. Grid lock only has to recover what a real scan changes
// around this expectation — phase, pitch, tilt — not search blind.
type GridHint struct {
	CellPitchX, CellPitchY int // nominal pixel distance between consecutive cell origins
	NominalNx, NominalNy   int // grid dimensions the page was rendered with
}

// GridEstimate is the decoder's reconstruction of a scanned page's dot
// grid: base phase, pitch, and small tilt along each axis, the page's
// intensity statistics, and the unsharp-mask correction factor the
// per-block sampler applies before binarizing.
type GridEstimate struct {
	Cmean, Cmin, Cmax int

	Xpeak, Xstep, Xangle float64
	Ypeak, Ystep, Yangle float64

	Sharpfactor float64

	Nposx, Nposy int
}

const (
	pitchSearchFrac = 0.06  // candidate pitches searched within +-6% of the nominal hint
	coarseStepFrac  = 0.01  // coarse pass step, as a fraction of the nominal pitch
	fineStepFrac    = 0.002 // M_BEST second-pass step
	tieBreakWindow  = 0.02  // candidates within 2% of the peak tie-break to the one closest to the hint
)

type gridCandidate struct {
	pitch, peak, amp float64
}

// EstimateGrid recovers a scanned page's dot grid from its grayscale
// pixels. Every block cell carries a one-dot black border along its top
// and left edge, so summed darkness along columns and rows is periodic
// at the cell pitch; EstimateGrid cross-correlates that darkness
// profile against a comb of candidate pitches around hint to recover
// the actual phase, pitch and small tilt a scan introduces. best
// requests a second, finer-grained search pass (mode&M_BEST).
func EstimateGrid(img *image.Gray, hint GridHint, best bool) GridEstimate {
	b := img.Bounds()
	cmean, cmin, cmax := intensityStats(img)

	colProfile := columnDarkness(img)
	rowProfile := rowDarkness(img)

	xpeak, xstep := lockAxis(colProfile, hint.CellPitchX, best)
	ypeak, ystep := lockAxis(rowProfile, hint.CellPitchY, best)

	xangle := estimateTilt(img, true, hint.CellPitchX)
	yangle := estimateTilt(img, false, hint.CellPitchY)

	sharp := estimateSharpness(colProfile, cmin, cmax)

	nposx := gridPositions(float64(b.Dx()), xpeak, xstep, hint.NominalNx)
	nposy := gridPositions(float64(b.Dy()), ypeak, ystep, hint.NominalNy)

	return GridEstimate{
		Cmean: cmean, Cmin: cmin, Cmax: cmax,
		Xpeak: xpeak, Xstep: xstep, Xangle: xangle,
		Ypeak: ypeak, Ystep: ystep, Yangle: yangle,
		Sharpfactor: sharp,
		Nposx:       nposx,
		Nposy:       nposy,
	}
}

func gridPositions(span, peak, step float64, nominal int) int {
	if step <= 0 {
		return 0
	}
	n := int((span-peak)/step) + 1
	if n < 0 {
		n = 0
	}
	// A noisy correlation never reports more cells than the page was
	// actually rendered with; a lock past that is a spurious candidate.
	if nominal > 0 && n > nominal {
		n = nominal
	}
	return n
}

// lockAxis finds the pitch and base phase of the periodic darkness
// signal in profile, searching a comb of candidates around pitchHint.
// best requests a finer second pass centered on the coarse winner,
// mirroring spec.md §4.8's M_BEST two-pass search.
func lockAxis(profile []float64, pitchHint int, best bool) (peak, pitch float64) {
	if pitchHint <= 0 || len(profile) == 0 {
		return 0, float64(pitchHint)
	}
	hintF := float64(pitchHint)

	coarse := searchPitch(profile, hintF*(1-pitchSearchFrac), hintF*(1+pitchSearchFrac), hintF*coarseStepFrac)
	chosen := pickPeak(coarse, hintF)

	if best && chosen.pitch > 0 {
		fine := searchPitch(profile, chosen.pitch*(1-coarseStepFrac), chosen.pitch*(1+coarseStepFrac), hintF*fineStepFrac)
		if refined := pickPeak(fine, hintF); refined.amp >= chosen.amp {
			chosen = refined
		}
	}
	return chosen.peak, chosen.pitch
}

// searchPitch evaluates the matched-filter response of profile at the
// fundamental frequency 1/p for each candidate pitch p in [minP,maxP].
func searchPitch(profile []float64, minP, maxP, step float64) []gridCandidate {
	if step <= 0 || minP <= 0 {
		return nil
	}
	var cands []gridCandidate
	for p := minP; p <= maxP; p += step {
		re, im := 0.0, 0.0
		for x, v := range profile {
			theta := 2 * math.Pi * float64(x) / p
			re += v * math.Cos(theta)
			im += v * math.Sin(theta)
		}
		amp := math.Hypot(re, im)
		phase := math.Atan2(im, re)
		pk := math.Mod(phase*p/(2*math.Pi), p)
		if pk < 0 {
			pk += p
		}
		cands = append(cands, gridCandidate{pitch: p, peak: pk, amp: amp})
	}
	return cands
}

// pickPeak returns the strongest candidate, breaking ties (within 2% of
// the peak amplitude) in favor of the pitch closest to hint, per
// spec.md §4.8's tie-break rule.
func pickPeak(cands []gridCandidate, hint float64) gridCandidate {
	var chosen gridCandidate
	maxAmp := -1.0
	for _, c := range cands {
		if c.amp > maxAmp {
			maxAmp = c.amp
			chosen = c
		}
	}
	threshold := maxAmp * (1 - tieBreakWindow)
	for _, c := range cands {
		if c.amp >= threshold && math.Abs(c.pitch-hint) < math.Abs(chosen.pitch-hint) {
			chosen = c
		}
	}
	return chosen
}

// estimateTilt measures how much the grid's phase drifts between two
// bands of the image taken far apart along the axis perpendicular to
// the one being measured, the signature of a small rotation.
func estimateTilt(img *image.Gray, xAxis bool, pitchHint int) float64 {
	b := img.Bounds()
	if pitchHint <= 0 {
		return 0
	}
	if xAxis {
		bandH := b.Dy() / 3
		if bandH < 1 {
			return 0
		}
		top := image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+bandH)
		bot := image.Rect(b.Min.X, b.Max.Y-bandH, b.Max.X, b.Max.Y)
		topPeak, _ := lockAxis(columnDarknessIn(img, top), pitchHint, false)
		botPeak, _ := lockAxis(columnDarknessIn(img, bot), pitchHint, false)
		dy := float64((bot.Min.Y + bot.Dy()/2) - (top.Min.Y + top.Dy()/2))
		if dy == 0 {
			return 0
		}
		return math.Atan2(botPeak-topPeak, dy)
	}

	bandW := b.Dx() / 3
	if bandW < 1 {
		return 0
	}
	left := image.Rect(b.Min.X, b.Min.Y, b.Min.X+bandW, b.Max.Y)
	right := image.Rect(b.Max.X-bandW, b.Min.Y, b.Max.X, b.Max.Y)
	leftPeak, _ := lockAxis(rowDarknessIn(img, left), pitchHint, false)
	rightPeak, _ := lockAxis(rowDarknessIn(img, right), pitchHint, false)
	dx := float64((right.Min.X + right.Dx()/2) - (left.Min.X + left.Dx()/2))
	if dx == 0 {
		return 0
	}
	return math.Atan2(rightPeak-leftPeak, dx)
}

// estimateSharpness approximates spec.md §4.8's "ratio of expected to
// observed edge slope": a clean, unblurred border produces the full
// cmin..cmax swing between adjacent profile samples, while a softer
// scan spreads that swing over several. The ratio calibrates the
// per-block sampler's unsharp mask, clamped to [1, 4]; the mask adds
// factor times the detail back, so even the minimum of 1 sharpens.
func estimateSharpness(profile []float64, cmin, cmax int) float64 {
	if len(profile) < 2 {
		return 1
	}
	var maxGrad float64
	for i := 1; i < len(profile); i++ {
		if d := math.Abs(profile[i] - profile[i-1]); d > maxGrad {
			maxGrad = d
		}
	}
	if maxGrad == 0 {
		return 1
	}
	// A clean, one-pixel-wide full-contrast border still produces a
	// step on the order of cmax-cmin in the summed profile; a softer
	// scan spreads that swing thinner, giving a smaller maxGrad.
	factor := float64(cmax-cmin) / maxGrad
	switch {
	case factor < 1:
		factor = 1
	case factor > 4:
		factor = 4
	}
	return factor
}

func intensityStats(img *image.Gray) (mean, min, max int) {
	s := ComputeStats(img)
	return int(s.Mean), int(s.Min), int(s.Max)
}

func columnDarkness(img *image.Gray) []float64 { return columnDarknessIn(img, img.Bounds()) }
func rowDarkness(img *image.Gray) []float64    { return rowDarknessIn(img, img.Bounds()) }

func columnDarknessIn(img *image.Gray, r image.Rectangle) []float64 {
	profile := make([]float64, r.Dx())
	for x := r.Min.X; x < r.Max.X; x++ {
		sum := 0.0
		for y := r.Min.Y; y < r.Max.Y; y++ {
			sum += 255 - float64(img.GrayAt(x, y).Y)
		}
		profile[x-r.Min.X] = sum
	}
	return profile
}

func rowDarknessIn(img *image.Gray, r image.Rectangle) []float64 {
	profile := make([]float64, r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		sum := 0.0
		for x := r.Min.X; x < r.Max.X; x++ {
			sum += 255 - float64(img.GrayAt(x, y).Y)
		}
		profile[y-r.Min.Y] = sum
	}
	return profile
}
