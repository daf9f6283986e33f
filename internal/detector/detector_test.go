package detector

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/arnab-maity007/Advanced-Valo/internal/region"
)

func TestAssignIndices(t *testing.T) {
	dets := []region.Detection{
		{Label: "buy-slot", Box: region.BoundingBox{X: 300, Y: 100, W: 100, H: 50}},
		{Label: "buy-slot", Box: region.BoundingBox{X: 100, Y: 104, W: 100, H: 50}},
		{Label: "buy-slot", Box: region.BoundingBox{X: 100, Y: 200, W: 100, H: 50}},
		{Label: "kill-feed-line", Box: region.BoundingBox{X: 0, Y: 0, W: 10, H: 10}},
		{Label: "agent-card-4", Box: region.BoundingBox{X: 0, Y: 0, W: 10, H: 10}},
		{Label: "agent-card", Box: region.BoundingBox{X: 50, Y: 0, W: 10, H: 10}},
	}
	got := AssignIndices(dets)

	want := []string{"buy-slot-2", "buy-slot-1", "buy-slot-3", "kill-feed-line", "agent-card-4", "agent-card-1"}
	for i, w := range want {
		if got[i].Label != w {
			t.Errorf("detection %d: got %s, want %s", i, got[i].Label, w)
		}
	}
}

// stripes draws vertical black strokes on white inside r.
func stripes(img *image.RGBA, r image.Rectangle) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if y > r.Min.Y+r.Dy()/4 && y < r.Max.Y-r.Dy()/4 && ((x-r.Min.X)/8)%2 == 0 {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}
}

func TestLayout_Detect(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 400, 200))
	draw.Draw(frame, frame.Bounds(), image.NewUniform(color.RGBA{40, 40, 40, 255}), image.Point{}, draw.Src)
	// text in the top-left quarter only
	stripes(frame, image.Rect(0, 0, 200, 50))

	l, err := NewLayout([]LayoutRegion{
		{Label: "round-timer", X: 0, Y: 0, W: 0.5, H: 0.25},
		{Label: "spike-status", X: 0.5, Y: 0.5, W: 0.5, H: 0.25},
	}, 0.02)
	if err != nil {
		t.Fatal(err)
	}

	dets, err := l.Detect(context.Background(), frame)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(dets) != 1 {
		t.Fatalf("got %d detections, want 1: %+v", len(dets), dets)
	}
	d := dets[0]
	if d.Label != "round-timer" {
		t.Errorf("label: got %s", d.Label)
	}
	if d.Box != (region.BoundingBox{X: 0, Y: 0, W: 200, H: 50}) {
		t.Errorf("box: got %+v", d.Box)
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		t.Errorf("confidence out of range: %v", d.Confidence)
	}
}

func TestLayout_Invalid(t *testing.T) {
	if _, err := NewLayout([]LayoutRegion{{Label: "minimap", W: 0.1, H: 0.1}}, 0.02); err == nil {
		t.Error("unknown label should fail")
	}
}

func TestLayout_Cancelled(t *testing.T) {
	l, _ := NewLayout([]LayoutRegion{{Label: "round-timer", W: 0.5, H: 0.5}}, 0.02)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Detect(ctx, image.NewRGBA(image.Rect(0, 0, 10, 10))); err == nil {
		t.Error("cancelled context should fail")
	}
}

func TestLayoutRegion_Box(t *testing.T) {
	r := LayoutRegion{X: 0.792, Y: 0.046, W: 0.182, H: 0.046}
	got := r.Box(1920, 1080)
	want := region.BoundingBox{X: 1521, Y: 50, W: 349, H: 50}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}
