package services

import (
	"image"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Preprocessing constants.
const (
	// maxSkewDegrees bounds the deskew search.
	maxSkewDegrees = 5.0

	// skewStepDegrees is the deskew search resolution. Estimated angles
	// smaller than one step are treated as level.
	skewStepDegrees = 0.5

	// skewSampleWidth is the width skew is estimated at.
	skewSampleWidth = 600

	// maxMedianPasses bounds the median filter iteration.
	maxMedianPasses = 8

	// stretchLow and stretchHigh are the percentiles mapped to black and white.
	stretchLow  = 0.01
	stretchHigh = 0.99
)

// toGray converts any image to an 8-bit grayscale image anchored at (0,0).
func toGray(src image.Image) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// medianRoot applies a 3x3 median filter until the image stops changing.
// The result is a fixed point of the filter, so filtering it again is a no-op.
func medianRoot(g *image.Gray) *image.Gray {
	cur := g
	for pass := 0; pass < maxMedianPasses; pass++ {
		next, changed := median3(cur)
		cur = next
		if !changed {
			break
		}
	}
	return cur
}

func median3(g *image.Gray) (*image.Gray, bool) {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	changed := false
	var win [9]uint8

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := 0
			for dy := -1; dy <= 1; dy++ {
				yy := clampInt(y+dy, 0, h-1)
				for dx := -1; dx <= 1; dx++ {
					xx := clampInt(x+dx, 0, w-1)
					win[n] = g.Pix[yy*g.Stride+xx]
					n++
				}
			}
			m := median9(win)
			out.Pix[y*out.Stride+x] = m
			if m != g.Pix[y*g.Stride+x] {
				changed = true
			}
		}
	}
	return out, changed
}

func median9(v [9]uint8) uint8 {
	// insertion sort; nine elements
	for i := 1; i < len(v); i++ {
		for j := i; j > 0 && v[j] < v[j-1]; j-- {
			v[j], v[j-1] = v[j-1], v[j]
		}
	}
	return v[4]
}

// stretchContrast maps the low percentile to 0 and the high percentile to
// 255. An image that already spans the range is returned as is.
func stretchContrast(g *image.Gray) *image.Gray {
	var hist [256]int
	for _, p := range g.Pix {
		hist[p]++
	}
	total := len(g.Pix)
	if total == 0 {
		return g
	}

	lo, hi := percentile(hist, total, stretchLow), percentile(hist, total, stretchHigh)
	if hi <= lo || (lo == 0 && hi == 255) {
		return g
	}

	var lut [256]uint8
	span := hi - lo
	for v := 0; v < 256; v++ {
		switch {
		case v <= lo:
			lut[v] = 0
		case v >= hi:
			lut[v] = 255
		default:
			lut[v] = uint8(((v-lo)*255 + span/2) / span)
		}
	}

	out := image.NewGray(g.Bounds())
	for i, p := range g.Pix {
		out.Pix[i] = lut[p]
	}
	return out
}

// percentile returns the smallest value whose cumulative share reaches q.
func percentile(hist [256]int, total int, q float64) int {
	need := int(math.Ceil(q * float64(total)))
	if need < 1 {
		need = 1
	}
	cum := 0
	for v, c := range hist {
		cum += c
		if cum >= need {
			return v
		}
	}
	return 255
}

// otsuThreshold returns the threshold that best separates ink from paper.
// Pixels below it are ink.
func otsuThreshold(g *image.Gray) uint8 {
	var hist [256]int
	for _, p := range g.Pix {
		hist[p]++
	}
	total := len(g.Pix)
	if total == 0 {
		return 128
	}

	var sum float64
	for v, c := range hist {
		sum += float64(v * c)
	}

	var sumB, best float64
	var wB int
	threshold := 128
	for v := 0; v < 256; v++ {
		wB += hist[v]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(v * hist[v])
		mB := sumB / float64(wB)
		mF := (sum - sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			threshold = v + 1
		}
	}
	return uint8(clampInt(threshold, 1, 255))
}

// estimateSkew returns the text line angle in degrees, searched in
// skewStepDegrees steps. Level pages return 0.
func estimateSkew(g *image.Gray) float64 {
	sample := g
	if w := g.Bounds().Dx(); w > skewSampleWidth {
		h := g.Bounds().Dy() * skewSampleWidth / w
		sample = image.NewGray(image.Rect(0, 0, skewSampleWidth, max(h, 1)))
		xdraw.ApproxBiLinear.Scale(sample, sample.Bounds(), g, g.Bounds(), xdraw.Src, nil)
	}

	threshold := otsuThreshold(sample)
	b := sample.Bounds()
	var ink []image.Point
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if sample.Pix[y*sample.Stride+x] < threshold {
				ink = append(ink, image.Point{X: x, Y: y})
			}
		}
	}
	// Blank pages and solid blocks have no lines to level.
	if len(ink) == 0 || len(ink) > len(sample.Pix)*9/10 {
		return 0
	}

	bestAngle, bestScore := 0.0, profileScore(ink, b.Dy(), 0)
	steps := int(maxSkewDegrees / skewStepDegrees)
	// Search outward from zero so ties keep the smaller correction.
	for i := 1; i <= steps; i++ {
		for _, sign := range []float64{-1, 1} {
			angle := sign * float64(i) * skewStepDegrees
			if score := profileScore(ink, b.Dy(), angle); score > bestScore {
				bestAngle, bestScore = angle, score
			}
		}
	}
	return bestAngle
}

// profileScore is the sum of squared row counts after shearing the ink by
// angle. Level text lines concentrate ink into few rows and score highest.
func profileScore(ink []image.Point, height int, angle float64) float64 {
	t := math.Tan(angle * math.Pi / 180)
	pad := int(math.Ceil(math.Abs(t)*float64(skewSampleWidth))) + 1
	rows := make([]int, height+2*pad)
	for _, p := range ink {
		r := int(math.Round(float64(p.Y)-float64(p.X)*t)) + pad
		if r >= 0 && r < len(rows) {
			rows[r]++
		}
	}
	var score float64
	for _, c := range rows {
		score += float64(c) * float64(c)
	}
	return score
}

// rotate turns the image by -angle degrees about its centre, filling
// uncovered corners with white.
func rotate(g *image.Gray, angle float64) *image.Gray {
	rad := angle * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	b := g.Bounds()
	cx, cy := float64(b.Dx())/2, float64(b.Dy())/2

	s2d := f64.Aff3{
		cos, sin, cx - (cos*cx + sin*cy),
		-sin, cos, cy - (-sin*cx + cos*cy),
	}

	out := image.NewGray(b)
	for i := range out.Pix {
		out.Pix[i] = 255
	}
	xdraw.BiLinear.Transform(out, s2d, g, b, xdraw.Over, nil)
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
