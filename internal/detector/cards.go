package detector

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/segment"

	"github.com/arnab-maity007/Advanced-Valo/internal/imaging"
	"github.com/arnab-maity007/Advanced-Valo/internal/region"
)

// CardsOptions configures a Cards detector.
type CardsOptions struct {
	// Label is the unindexed slot label to assign, "buy-slot" or
	// "agent-card". Cards are numbered in reading order.
	Label string

	// Area limits the search to a part of the frame, as fractions.
	// A zero area searches the whole frame.
	Area LayoutRegion

	// Threshold is the luminance that separates panels from the darker
	// background. Default 96.
	Threshold uint8

	// MinArea is the smallest panel, as a fraction of the search area.
	// Default 0.002.
	MinArea float64

	// MinFill is the fraction of a panel's bounding box its pixels must
	// cover. Text inside a panel leaves holes, so 1.0 is too strict.
	// Default 0.6.
	MinFill float64
}

// Cards finds the bright rectangular panels of the shop and agent select
// screens: each 4-connected run of pixels above the threshold whose
// bounding box is large and well filled is one card.
type Cards struct {
	opts CardsOptions
}

// NewCards validates opts and returns a detector.
func NewCards(opts CardsOptions) (*Cards, error) {
	l, err := region.ParseLabel(opts.Label)
	if err != nil {
		return nil, err
	}
	if l.Indexed() || (l.Kind != region.KindBuySlot && l.Kind != region.KindAgentCard) {
		return nil, fmt.Errorf("cards label must be buy-slot or agent-card, got %q", opts.Label)
	}
	a := opts.Area
	if a.X < 0 || a.Y < 0 || a.W < 0 || a.H < 0 || a.X+a.W > 1 || a.Y+a.H > 1 {
		return nil, errors.New("cards area must lie within the frame")
	}
	if opts.Threshold == 0 {
		opts.Threshold = 96
	}
	if opts.MinArea <= 0 {
		opts.MinArea = 0.002
	}
	if opts.MinFill <= 0 {
		opts.MinFill = 0.6
	}
	return &Cards{opts: opts}, nil
}

// Detect returns one detection per card found in the search area.
func (c *Cards) Detect(ctx context.Context, frame image.Image) ([]region.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := frame.Bounds()
	area := region.BoundingBox{X: 0, Y: 0, W: b.Dx(), H: b.Dy()}
	if c.opts.Area.W > 0 && c.opts.Area.H > 0 {
		area = c.opts.Area.Box(b.Dx(), b.Dy())
	}
	crop, err := imaging.Crop(frame, area)
	if err != nil {
		return nil, nil
	}

	mask := segment.Threshold(crop, c.opts.Threshold)
	minArea := int(c.opts.MinArea * float64(area.W*area.H))

	var out []region.Detection
	for _, comp := range components(mask) {
		w, h := comp.box.Dx(), comp.box.Dy()
		if w*h < minArea {
			continue
		}
		fill := float64(comp.pixels) / float64(w*h)
		if fill < c.opts.MinFill {
			continue
		}
		out = append(out, region.Detection{
			Label: c.opts.Label,
			Box: region.BoundingBox{
				X: area.X + comp.box.Min.X,
				Y: area.Y + comp.box.Min.Y,
				W: w,
				H: h,
			},
			Confidence: fill,
		})
	}
	return AssignIndices(out), nil
}

// Close is a no-op.
func (c *Cards) Close() error { return nil }

type component struct {
	box    image.Rectangle
	pixels int
}

// components labels the 4-connected white regions of mask with an
// iterative flood fill. Boxes are relative to the mask origin.
func components(mask *image.Gray) []component {
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()
	visited := make([]bool, w*h)
	white := func(x, y int) bool {
		return mask.Pix[mask.PixOffset(b.Min.X+x, b.Min.Y+y)] != 0
	}

	var out []component
	stack := make([]image.Point, 0, 64)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if visited[y*w+x] || !white(x, y) {
				continue
			}
			comp := component{box: image.Rect(x, y, x+1, y+1)}
			stack = append(stack[:0], image.Pt(x, y))
			visited[y*w+x] = true
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				comp.pixels++
				comp.box = comp.box.Union(image.Rect(p.X, p.Y, p.X+1, p.Y+1))

				for _, d := range [4]image.Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
					n := p.Add(d)
					if n.X < 0 || n.Y < 0 || n.X >= w || n.Y >= h {
						continue
					}
					if visited[n.Y*w+n.X] || !white(n.X, n.Y) {
						continue
					}
					visited[n.Y*w+n.X] = true
					stack = append(stack, n)
				}
			}
			out = append(out, comp)
		}
	}
	return out
}

// Combined runs several detectors on the same frame and concatenates
// their detections in order.
type Combined []Detector

// Combine returns a detector over ds.
func Combine(ds ...Detector) Combined {
	return Combined(ds)
}

// Detect runs every detector. It fails if any of them fails.
func (c Combined) Detect(ctx context.Context, frame image.Image) ([]region.Detection, error) {
	var out []region.Detection
	for _, d := range c {
		dets, err := d.Detect(ctx, frame)
		if err != nil {
			return nil, err
		}
		out = append(out, dets...)
	}
	return out, nil
}

// Close closes every detector.
func (c Combined) Close() error {
	var errs []error
	for _, d := range c {
		errs = append(errs, d.Close())
	}
	return errors.Join(errs...)
}
