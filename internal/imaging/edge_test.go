package imaging

import (
	"image"
	"image/color"
	"testing"
)

// createStripeImage draws vertical black strokes on white, roughly the
// edge structure of a line of text.
func createStripeImage(width, height, period int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if y > height/4 && y < 3*height/4 && (x/period)%2 == 0 {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}
	return img
}

func TestEdgeDensity(t *testing.T) {
	blank := createInMemoryImage(80, 20, color.RGBA{30, 30, 30, 255})
	if d := EdgeDensity(blank, DefaultEdgeThreshold); d != 0 {
		t.Errorf("uniform image density: got %v, want 0", d)
	}

	text := createStripeImage(160, 40, 8)
	if d := EdgeDensity(text, DefaultEdgeThreshold); d <= 0.05 {
		t.Errorf("striped image density: got %v, want > 0.05", d)
	}
}

func TestEdgeDensity_Empty(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 0, 0))
	if d := EdgeDensity(img, DefaultEdgeThreshold); d != 0 {
		t.Errorf("got %v", d)
	}
}

func TestStrokeScore(t *testing.T) {
	blank := createInMemoryImage(80, 20, color.White)
	if s := StrokeScore(blank, DefaultEdgeThreshold); s != 0 {
		t.Errorf("blank score: got %v, want 0", s)
	}

	text := createStripeImage(160, 40, 8)
	if s := StrokeScore(text, DefaultEdgeThreshold); s <= 0.5 {
		t.Errorf("vertical strokes score: got %v, want > 0.5", s)
	}
}

func TestEdgeMap_Binary(t *testing.T) {
	edges := EdgeMap(createPatternImage(40, 40), DefaultEdgeThreshold)
	for _, v := range edges.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("edge map value %d is not binary", v)
		}
	}
}
