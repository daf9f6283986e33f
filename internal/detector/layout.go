package detector

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/arnab-maity007/Advanced-Valo/internal/imaging"
	"github.com/arnab-maity007/Advanced-Valo/internal/region"
)

// LayoutRegion is a fixed HUD region expressed as fractions of the frame.
type LayoutRegion struct {
	Label      string
	X, Y, W, H float64
}

// Layout detects regions at fixed positions of the HUD. A region is
// reported only when its edge density reaches MinEdgeDensity, so empty
// kill feed rows and a hidden spike indicator produce nothing.
type Layout struct {
	regions        []LayoutRegion
	minEdgeDensity float64
}

// NewLayout validates the region labels and returns a layout detector.
func NewLayout(regions []LayoutRegion, minEdgeDensity float64) (*Layout, error) {
	for i, r := range regions {
		if _, err := region.ParseLabel(r.Label); err != nil {
			return nil, fmt.Errorf("layout region %d: %w", i, err)
		}
	}
	return &Layout{regions: regions, minEdgeDensity: minEdgeDensity}, nil
}

// Box converts a fractional region to pixels for a frame of the given size.
func (r LayoutRegion) Box(width, height int) region.BoundingBox {
	return region.BoundingBox{
		X: int(math.Round(r.X * float64(width))),
		Y: int(math.Round(r.Y * float64(height))),
		W: int(math.Round(r.W * float64(width))),
		H: int(math.Round(r.H * float64(height))),
	}
}

// Detect returns the layout regions of frame that appear to hold text.
func (l *Layout) Detect(ctx context.Context, frame image.Image) ([]region.Detection, error) {
	b := frame.Bounds()
	var out []region.Detection
	for _, r := range l.regions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		box := r.Box(b.Dx(), b.Dy())
		crop, err := imaging.Crop(frame, box)
		if err != nil {
			continue
		}
		density := imaging.EdgeDensity(crop, imaging.DefaultEdgeThreshold)
		if density < l.minEdgeDensity {
			continue
		}
		out = append(out, region.Detection{
			Label:      r.Label,
			Box:        box,
			Confidence: textConfidence(density, imaging.StrokeScore(crop, imaging.DefaultEdgeThreshold)),
		})
	}
	return AssignIndices(out), nil
}

// Close is a no-op.
func (l *Layout) Close() error { return nil }

// textConfidence peaks for medium edge density with stroke-dominated
// edges, the signature of rendered text.
func textConfidence(density, strokes float64) float64 {
	c := strokes * (1.0 - math.Abs(density-0.2)/0.2)
	return math.Round(math.Max(0, math.Min(1, c))*1000) / 1000
}
