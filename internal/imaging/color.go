package imaging

import (
	"fmt"
	"image"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/arnab-maity007/Advanced-Valo/internal/region"
)

// HighlightSpec describes the border colours that mark buy menu slots.
type HighlightSpec struct {
	// Highlighted is the border colour of an owned or selected slot.
	Highlighted colorful.Color

	// Hovered is the border colour of the slot under the cursor.
	Hovered colorful.Color

	// Tolerance is the maximum CIE Lab distance for a pixel to match.
	Tolerance float64

	// BorderWidth is the band of pixels, in from each edge, that is sampled.
	BorderWidth int

	// MinCoverage is the fraction of border pixels that must match.
	MinCoverage float64
}

// NewHighlightSpec parses the hex colours of a HighlightSpec.
func NewHighlightSpec(highlighted, hovered string, tolerance float64, borderWidth int, minCoverage float64) (HighlightSpec, error) {
	hl, err := colorful.Hex(highlighted)
	if err != nil {
		return HighlightSpec{}, fmt.Errorf("invalid highlighted colour %q: %w", highlighted, err)
	}
	hv, err := colorful.Hex(hovered)
	if err != nil {
		return HighlightSpec{}, fmt.Errorf("invalid hovered colour %q: %w", hovered, err)
	}
	return HighlightSpec{
		Highlighted: hl,
		Hovered:     hv,
		Tolerance:   tolerance,
		BorderWidth: max(1, borderWidth),
		MinCoverage: minCoverage,
	}, nil
}

// BorderCues returns the visual cues whose colour covers enough of the
// crop's border: region.CueHovered and/or region.CueHighlighted.
func BorderCues(crop image.Image, spec HighlightSpec) []string {
	hovered, highlighted := borderCoverage(crop, spec)

	var cues []string
	if hovered >= spec.MinCoverage {
		cues = append(cues, region.CueHovered)
	}
	if highlighted >= spec.MinCoverage {
		cues = append(cues, region.CueHighlighted)
	}
	return cues
}

// borderCoverage returns the fraction of border pixels matching the
// hovered and highlighted colours.
func borderCoverage(img image.Image, spec HighlightSpec) (hovered, highlighted float64) {
	b := img.Bounds()
	w := spec.BorderWidth
	total, hv, hl := 0, 0, 0

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			inBorder := x < b.Min.X+w || x >= b.Max.X-w || y < b.Min.Y+w || y >= b.Max.Y-w
			if !inBorder {
				continue
			}
			total++

			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue
			}
			if c.DistanceLab(spec.Hovered) <= spec.Tolerance {
				hv++
			} else if c.DistanceLab(spec.Highlighted) <= spec.Tolerance {
				hl++
			}
		}
	}

	if total == 0 {
		return 0, 0
	}
	return float64(hv) / float64(total), float64(hl) / float64(total)
}
