package services

import (
	"image"
	"sort"
)

// Layout segmentation constants.
const (
	// blockGapFactor is the multiple of the median line height a vertical
	// gap must exceed to start a new block.
	blockGapFactor = 1.5

	// blockMargin is the padding kept around each block crop.
	blockMargin = 2

	// inkRowFraction is the share of a row's width that must be ink for the
	// row to count as text. Isolated specks stay below it.
	inkRowFraction = 1.0 / 200
)

// lineSpan is a run of text rows, bottom exclusive.
type lineSpan struct {
	top, bottom int
}

func (l lineSpan) height() int { return l.bottom - l.top }

// segmentBlocks splits a page into text blocks, top to bottom. It
// binarises with Otsu's threshold, finds text lines from the horizontal ink
// projection and groups lines separated by small gaps. The result depends
// only on the pixels.
func segmentBlocks(g *image.Gray) []image.Rectangle {
	if g == nil {
		return nil
	}
	b := g.Bounds()
	if b.Empty() {
		return nil
	}

	threshold := otsuThreshold(g)
	w, h := b.Dx(), b.Dy()
	minInk := max(1, int(float64(w)*inkRowFraction))

	isInk := func(x, y int) bool {
		return g.Pix[y*g.Stride+x] < threshold
	}

	rows := make([]int, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if isInk(x, y) {
				rows[y]++
			}
		}
	}

	var lines []lineSpan
	start := -1
	for y := 0; y <= h; y++ {
		text := y < h && rows[y] >= minInk
		switch {
		case text && start < 0:
			start = y
		case !text && start >= 0:
			lines = append(lines, lineSpan{top: start, bottom: y})
			start = -1
		}
	}
	if len(lines) == 0 {
		return nil
	}

	heights := make([]int, len(lines))
	for i, l := range lines {
		heights[i] = l.height()
	}
	sort.Ints(heights)
	gapLimit := blockGapFactor * float64(heights[len(heights)/2])

	var groups []lineSpan
	cur := lines[0]
	for _, l := range lines[1:] {
		if float64(l.top-cur.bottom) > gapLimit {
			groups = append(groups, cur)
			cur = l
			continue
		}
		cur.bottom = l.bottom
	}
	groups = append(groups, cur)

	blocks := make([]image.Rectangle, 0, len(groups))
	for _, grp := range groups {
		minX, maxX := w, -1
		for y := grp.top; y < grp.bottom; y++ {
			for x := 0; x < w; x++ {
				if isInk(x, y) {
					minX = min(minX, x)
					maxX = max(maxX, x)
				}
			}
		}
		if maxX < 0 {
			continue
		}
		r := image.Rect(
			clampInt(minX-blockMargin, 0, w),
			clampInt(grp.top-blockMargin, 0, h),
			clampInt(maxX+1+blockMargin, 0, w),
			clampInt(grp.bottom+blockMargin, 0, h),
		)
		blocks = append(blocks, r.Add(b.Min))
	}
	return blocks
}
