package detector

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/arnab-maity007/Advanced-Valo/internal/region"
)

var panel = color.RGBA{200, 200, 200, 255}

// shopFrame has three filled panels, a speck and a hollow outline on a
// dark background.
func shopFrame() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 400, 200))
	fill := func(r image.Rectangle, c color.Color) {
		draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
	}
	fill(img.Bounds(), color.RGBA{30, 30, 30, 255})
	fill(image.Rect(20, 20, 120, 70), panel)
	fill(image.Rect(50, 40, 90, 50), color.Black) // item name
	fill(image.Rect(140, 20, 240, 70), panel)
	fill(image.Rect(20, 100, 120, 150), panel)
	fill(image.Rect(300, 180, 303, 183), panel)

	for i := 0; i < 60; i++ {
		img.Set(300+i, 20, panel)
		img.Set(300+i, 79, panel)
		img.Set(300, 20+i, panel)
		img.Set(359, 20+i, panel)
	}
	return img
}

func TestCards_Detect(t *testing.T) {
	c, err := NewCards(CardsOptions{Label: "buy-slot"})
	if err != nil {
		t.Fatal(err)
	}
	dets, err := c.Detect(context.Background(), shopFrame())
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]region.BoundingBox{
		"buy-slot-1": {X: 20, Y: 20, W: 100, H: 50},
		"buy-slot-2": {X: 140, Y: 20, W: 100, H: 50},
		"buy-slot-3": {X: 20, Y: 100, W: 100, H: 50},
	}
	if len(dets) != len(want) {
		t.Fatalf("detections: got %d, want %d: %+v", len(dets), len(want), dets)
	}
	for _, d := range dets {
		if box, ok := want[d.Label]; !ok || d.Box != box {
			t.Errorf("%s: got box %+v, want %+v", d.Label, d.Box, box)
		}
		if d.Confidence < 0.9 || d.Confidence > 1 {
			t.Errorf("%s: confidence %v", d.Label, d.Confidence)
		}
	}
}

func TestCards_Area(t *testing.T) {
	c, err := NewCards(CardsOptions{Label: "agent-card", Area: LayoutRegion{X: 0, Y: 0.5, W: 1, H: 0.5}})
	if err != nil {
		t.Fatal(err)
	}
	dets, err := c.Detect(context.Background(), shopFrame())
	if err != nil {
		t.Fatal(err)
	}
	if len(dets) != 1 {
		t.Fatalf("detections: got %+v", dets)
	}
	if dets[0].Label != "agent-card-1" || dets[0].Box != (region.BoundingBox{X: 20, Y: 100, W: 100, H: 50}) {
		t.Errorf("detection: %+v", dets[0])
	}
}

func TestNewCards_Invalid(t *testing.T) {
	tests := []struct {
		name string
		opts CardsOptions
	}{
		{"unknown label", CardsOptions{Label: "minimap"}},
		{"indexed label", CardsOptions{Label: "buy-slot-2"}},
		{"not a slot kind", CardsOptions{Label: "kill-feed-line"}},
		{"area outside frame", CardsOptions{Label: "buy-slot", Area: LayoutRegion{X: 0.6, W: 0.5, H: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCards(tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

type stubDetector struct {
	dets   []region.Detection
	err    error
	closed bool
}

func (s *stubDetector) Detect(context.Context, image.Image) ([]region.Detection, error) {
	return s.dets, s.err
}

func (s *stubDetector) Close() error {
	s.closed = true
	return nil
}

func TestCombine(t *testing.T) {
	a := &stubDetector{dets: []region.Detection{{Label: "round-timer"}}}
	b := &stubDetector{dets: []region.Detection{{Label: "buy-slot-1"}, {Label: "buy-slot-2"}}}
	c := Combine(a, b)

	dets, err := c.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 1, 1)))
	if err != nil || len(dets) != 3 || dets[0].Label != "round-timer" {
		t.Fatalf("Detect: %+v, %v", dets, err)
	}

	b.err = errors.New("boom")
	if _, err := c.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 1, 1))); err == nil {
		t.Error("expected error from failing detector")
	}

	c.Close()
	if !a.closed || !b.closed {
		t.Error("Close did not reach every detector")
	}
}
