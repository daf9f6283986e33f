package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"

	"github.com/arnab-maity007/Advanced-Valo/internal/region"
)

// ErrEmptyRegion is returned when a bounding box does not overlap the frame.
var ErrEmptyRegion = errors.New("region has no area inside the frame")

// Preprocess controls how a cropped region is prepared for OCR.
type Preprocess struct {
	// Scale is the upscaling factor. Values <= 0 or 1 leave the size alone.
	Scale float64

	// Contrast is the contrast change in percent, -100..100.
	Contrast float64

	// Binarize thresholds the result to pure black and white.
	Binarize bool

	// Threshold is the binarization level (0-255).
	Threshold uint8
}

// DefaultPreprocess is tuned for the 1080p Valorant HUD.
var DefaultPreprocess = Preprocess{Scale: 2, Contrast: 20, Binarize: true, Threshold: 128}

// ClampBox converts box to a rectangle in frame coordinates, clipped to
// the frame bounds.
func ClampBox(bounds image.Rectangle, box region.BoundingBox) image.Rectangle {
	r := image.Rect(box.X, box.Y, box.X+box.W, box.Y+box.H).Add(bounds.Min)
	return r.Intersect(bounds)
}

// Crop cuts box out of frame without any preprocessing.
func Crop(frame image.Image, box region.BoundingBox) (*image.NRGBA, error) {
	if box.Empty() {
		return nil, fmt.Errorf("%w: box %dx%d", ErrEmptyRegion, box.W, box.H)
	}
	r := ClampBox(frame.Bounds(), box)
	if r.Empty() {
		return nil, fmt.Errorf("%w: box (%d,%d %dx%d) outside frame %v",
			ErrEmptyRegion, box.X, box.Y, box.W, box.H, frame.Bounds())
	}
	return imaging.Crop(frame, r), nil
}

// ExtractRegion crops box out of frame and prepares it for OCR.
func ExtractRegion(frame image.Image, box region.BoundingBox, p Preprocess) (image.Image, error) {
	cropped, err := Crop(frame, box)
	if err != nil {
		return nil, err
	}

	if p.Scale > 0 && p.Scale != 1.0 {
		newWidth := max(1, int(float64(cropped.Bounds().Dx())*p.Scale))
		newHeight := max(1, int(float64(cropped.Bounds().Dy())*p.Scale))
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	var out image.Image = imaging.Grayscale(cropped)
	if p.Contrast != 0 {
		out = adjust.Contrast(out, p.Contrast/100)
	}
	if p.Binarize {
		out = segment.Threshold(out, p.Threshold)
	}
	return out, nil
}

// EncodePNG encodes img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode region image: %w", err)
	}
	return buf.Bytes(), nil
}
