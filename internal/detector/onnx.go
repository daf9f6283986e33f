package detector

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"sort"
	"sync"

	"github.com/disintegration/imaging"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/arnab-maity007/Advanced-Valo/internal/region"
)

// ONNXOptions configures the in-process YOLO detector.
type ONNXOptions struct {
	// LibraryPath is the onnxruntime shared library. Empty falls back to
	// ONNXRUNTIME_SHARED_LIBRARY_PATH, then the runtime's default.
	LibraryPath string
	ModelPath   string
	// Labels are the model's class names, in class index order.
	Labels     []string
	InputSize  int
	Confidence float64
	IoU        float64
}

// ONNX runs a YOLOv8-style model exported to ONNX. The model takes
// "images" [1,3,S,S] and returns "output0" [1,4+classes,anchors].
type ONNX struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]

	labels     []string
	size       int
	anchors    int
	confidence float64
	iou        float64

	mu sync.Mutex
}

// NewONNX loads the model and allocates its tensors.
func NewONNX(opts ONNXOptions) (*ONNX, error) {
	if opts.ModelPath == "" {
		return nil, errors.New("onnx model path is empty")
	}
	if len(opts.Labels) == 0 {
		return nil, errors.New("onnx labels are empty")
	}
	if opts.InputSize <= 0 {
		opts.InputSize = 640
	}
	if _, err := os.Stat(opts.ModelPath); err != nil {
		return nil, fmt.Errorf("model file missing at %s: %w", opts.ModelPath, err)
	}

	lib := opts.LibraryPath
	if lib == "" {
		lib = os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")
	}
	if lib != "" {
		ort.SetSharedLibraryPath(lib)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}

	size := int64(opts.InputSize)
	anchors := yoloAnchors(opts.InputSize)

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, size, size))
	if err != nil {
		return nil, fmt.Errorf("allocate input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(4+len(opts.Labels)), int64(anchors)))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("allocate output tensor: %w", err)
	}
	session, err := ort.NewAdvancedSession(
		opts.ModelPath,
		[]string{"images"},
		[]string{"output0"},
		[]ort.Value{input},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &ONNX{
		session:    session,
		input:      input,
		output:     output,
		labels:     opts.Labels,
		size:       opts.InputSize,
		anchors:    anchors,
		confidence: opts.Confidence,
		iou:        opts.IoU,
	}, nil
}

// Detect runs the model on frame.
func (m *ONNX) Detect(ctx context.Context, frame image.Image) ([]region.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lb := letterbox(frame, m.size)

	m.mu.Lock()
	defer m.mu.Unlock()

	fillTensor(m.input.GetData(), lb.img)
	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}

	cands := decodeYOLO(m.output.GetData(), len(m.labels), m.anchors, m.confidence)
	cands = nms(cands, m.iou)
	return AssignIndices(lb.toDetections(cands, m.labels, frame.Bounds())), nil
}

// Close releases the session and tensors.
func (m *ONNX) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	if m.session != nil {
		errs = append(errs, m.session.Destroy())
		m.session = nil
	}
	if m.input != nil {
		errs = append(errs, m.input.Destroy())
		m.input = nil
	}
	if m.output != nil {
		errs = append(errs, m.output.Destroy())
		m.output = nil
	}
	return errors.Join(errs...)
}

// yoloAnchors is the number of predictions a YOLOv8 head makes at the
// given input size: one per cell at strides 8, 16 and 32.
func yoloAnchors(size int) int {
	n := 0
	for _, stride := range []int{8, 16, 32} {
		s := size / stride
		n += s * s
	}
	return n
}

// letterboxed is a frame scaled into a square model input with padding.
type letterboxed struct {
	img        *image.NRGBA
	scale      float64
	padX, padY int
}

// letterbox scales frame to fit a size x size square, keeping its aspect
// ratio, and centres it on YOLO's grey (114) background.
func letterbox(frame image.Image, size int) letterboxed {
	b := frame.Bounds()
	scale := min(float64(size)/float64(b.Dx()), float64(size)/float64(b.Dy()))
	nw := max(1, int(float64(b.Dx())*scale))
	nh := max(1, int(float64(b.Dy())*scale))

	resized := imaging.Resize(frame, nw, nh, imaging.Linear)
	canvas := imaging.New(size, size, color.NRGBA{114, 114, 114, 255})
	padX, padY := (size-nw)/2, (size-nh)/2
	canvas = imaging.Paste(canvas, resized, image.Pt(padX, padY))

	return letterboxed{img: canvas, scale: scale, padX: padX, padY: padY}
}

// fillTensor writes img into dst as planar RGB in [0, 1].
func fillTensor(dst []float32, img *image.NRGBA) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	plane := w * h
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := y*img.Stride + x*4
			i := y*w + x
			dst[i] = float32(img.Pix[off]) / 255
			dst[plane+i] = float32(img.Pix[off+1]) / 255
			dst[2*plane+i] = float32(img.Pix[off+2]) / 255
		}
	}
}

// candidate is one decoded prediction in model input coordinates.
type candidate struct {
	class          int
	score          float64
	x1, y1, x2, y2 float64
}

// decodeYOLO reads a [4+classes, anchors] output: rows cx, cy, w, h then
// one score row per class. Predictions below minScore are dropped.
func decodeYOLO(out []float32, classes, anchors int, minScore float64) []candidate {
	var cands []candidate
	for i := 0; i < anchors; i++ {
		best, bestScore := -1, minScore
		for c := 0; c < classes; c++ {
			s := float64(out[(4+c)*anchors+i])
			if s >= bestScore {
				best, bestScore = c, s
			}
		}
		if best < 0 {
			continue
		}
		cx, cy := float64(out[i]), float64(out[anchors+i])
		w, h := float64(out[2*anchors+i]), float64(out[3*anchors+i])
		cands = append(cands, candidate{
			class: best,
			score: bestScore,
			x1:    cx - w/2,
			y1:    cy - h/2,
			x2:    cx + w/2,
			y2:    cy + h/2,
		})
	}
	return cands
}

// nms keeps the highest scoring candidate among same-class boxes that
// overlap by more than iouThreshold.
func nms(cands []candidate, iouThreshold float64) []candidate {
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })
	kept := make([]candidate, 0, len(cands))
	for _, c := range cands {
		suppressed := false
		for _, k := range kept {
			if k.class == c.class && iou(k, c) > iouThreshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, c)
		}
	}
	return kept
}

func iou(a, b candidate) float64 {
	ix := max(0, min(a.x2, b.x2)-max(a.x1, b.x1))
	iy := max(0, min(a.y2, b.y2)-max(a.y1, b.y1))
	inter := ix * iy
	union := (a.x2-a.x1)*(a.y2-a.y1) + (b.x2-b.x1)*(b.y2-b.y1) - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// toDetections maps candidates back to frame pixels, clipped to bounds.
func (lb letterboxed) toDetections(cands []candidate, labels []string, bounds image.Rectangle) []region.Detection {
	out := make([]region.Detection, 0, len(cands))
	for _, c := range cands {
		if c.class >= len(labels) {
			continue
		}
		r := image.Rect(
			int((c.x1-float64(lb.padX))/lb.scale),
			int((c.y1-float64(lb.padY))/lb.scale),
			int((c.x2-float64(lb.padX))/lb.scale),
			int((c.y2-float64(lb.padY))/lb.scale),
		).Intersect(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		if r.Empty() {
			continue
		}
		out = append(out, region.Detection{
			Label:      labels[c.class],
			Box:        region.BoundingBox{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()},
			Confidence: c.score,
		})
	}
	return out
}
