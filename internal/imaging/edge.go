package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
)

// DefaultEdgeThreshold is the Sobel magnitude (0-255) above which a pixel
// counts as an edge.
const DefaultEdgeThreshold = 64

// EdgeMap blurs img slightly and marks pixels whose Sobel gradient is at
// least threshold. Edge pixels are 255, everything else 0.
func EdgeMap(img image.Image, threshold uint8) *image.Gray {
	blurred := blur.Gaussian(img, 1.0)
	return segment.Threshold(effect.Sobel(blurred), threshold)
}

// EdgeDensity returns the fraction of pixels in img that are edges.
func EdgeDensity(img image.Image, threshold uint8) float64 {
	edges := EdgeMap(img, threshold)
	b := edges.Bounds()
	area := b.Dx() * b.Dy()
	if area == 0 {
		return 0
	}
	count := 0
	for _, v := range edges.Pix {
		if v > 0 {
			count++
		}
	}
	return float64(count) / float64(area)
}

// StrokeScore is the share of edge runs met when scanning rows rather
// than columns, in [0, 1]. Text is dominated by vertical strokes and
// scores above 0.5; a blank region scores 0.
func StrokeScore(img image.Image, threshold uint8) float64 {
	edges := EdgeMap(img, threshold)
	b := edges.Bounds()
	on := func(x, y int) bool { return edges.GrayAt(x, y).Y > 0 }

	horizontalRuns, verticalRuns := 0, 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		inRun := false
		for x := b.Min.X; x < b.Max.X; x++ {
			if on(x, y) {
				if !inRun {
					horizontalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}
	for x := b.Min.X; x < b.Max.X; x++ {
		inRun := false
		for y := b.Min.Y; y < b.Max.Y; y++ {
			if on(x, y) {
				if !inRun {
					verticalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	if horizontalRuns+verticalRuns == 0 {
		return 0
	}
	return float64(horizontalRuns) / float64(horizontalRuns+verticalRuns)
}
