package imaging

import (
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// createTestImage writes a solid PNG into dir and returns its path.
func createTestImage(t *testing.T, dir, name string, width, height int, c color.Color) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, createInMemoryImage(width, height, c)); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return path
}

func TestLoadFrame(t *testing.T) {
	path := createTestImage(t, t.TempDir(), "frame.png", 64, 36, color.RGBA{255, 0, 0, 255})

	img, err := LoadFrame(path)
	if err != nil {
		t.Fatalf("LoadFrame: %v", err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 36 {
		t.Errorf("dimensions: got %v", img.Bounds())
	}
}

func TestLoadFrame_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadFrame(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("missing file should fail")
	}

	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrame(bad); err == nil {
		t.Error("invalid image should fail")
	}
}

func TestDecodeBase64Frame(t *testing.T) {
	data, err := EncodePNG(createInMemoryImage(8, 8, color.White))
	if err != nil {
		t.Fatal(err)
	}
	img, err := DecodeBase64Frame(base64.StdEncoding.EncodeToString(data))
	if err != nil {
		t.Fatalf("DecodeBase64Frame: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 8, 8) {
		t.Errorf("bounds: got %v", img.Bounds())
	}

	if _, err := DecodeBase64Frame("!!!"); err == nil {
		t.Error("invalid base64 should fail")
	}
}

func TestListFrames(t *testing.T) {
	dir := t.TempDir()
	createTestImage(t, dir, "frame_0002.png", 4, 4, color.White)
	createTestImage(t, dir, "frame_0001.png", 4, 4, color.White)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := ListFrames(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %v, want two frames", got)
	}
	if filepath.Base(got[0]) != "frame_0001.png" || filepath.Base(got[1]) != "frame_0002.png" {
		t.Errorf("order: %v", got)
	}

	if _, err := ListFrames(filepath.Join(dir, "missing")); err == nil {
		t.Error("missing directory should fail")
	}
}
