package ocr

import (
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/arnab-maity007/Advanced-Valo/internal/imaging"
)

// Word is one recognized word with its location in the region image.
type Word struct {
	Text       string          `json:"text"`
	Confidence float64         `json:"confidence"` // 0.0 to 1.0
	Box        image.Rectangle `json:"box"`
}

// Result is the text read from one region.
type Result struct {
	// Text is the recognized text with surrounding whitespace trimmed.
	Text string `json:"text"`

	// Confidence is the mean word confidence, 0.0 to 1.0. It is 0 when no
	// word was recognized.
	Confidence float64 `json:"confidence"`

	// Words holds the individual words. It may be empty when word boxes
	// are unavailable even though Text is not.
	Words []Word `json:"words"`
}

// Options configures an Engine.
type Options struct {
	// Language is the Tesseract language code, e.g. "eng".
	Language string

	// PageSegMode is the Tesseract page segmentation mode.
	PageSegMode int

	// Whitelist restricts recognized characters when non-empty.
	Whitelist string
}

// Engine runs Tesseract on region images.
type Engine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// New creates an Engine. Close releases the Tesseract client.
func New(opts Options) (*Engine, error) {
	if opts.Language == "" {
		opts.Language = "eng"
	}
	if opts.PageSegMode == 0 {
		opts.PageSegMode = int(gosseract.PSM_SINGLE_LINE)
	}

	client := gosseract.NewClient()
	if err := client.SetLanguage(opts.Language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(opts.PageSegMode)); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if opts.Whitelist != "" {
		if err := client.SetWhitelist(opts.Whitelist); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set whitelist: %w", err)
		}
	}
	return &Engine{client: client}, nil
}

// Read recognizes the text in img.
func (e *Engine) Read(img image.Image) (Result, error) {
	data, err := imaging.EncodePNG(img)
	if err != nil {
		return Result{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.client.SetImageFromBytes(data); err != nil {
		return Result{}, fmt.Errorf("failed to set image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return Result{}, fmt.Errorf("OCR failed: %w", err)
	}

	res := Result{Text: strings.TrimSpace(text)}

	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		// Text without word boxes carries no confidence.
		return res, nil
	}
	res.Words, res.Confidence = collectWords(boxes)
	return res, nil
}

// Close releases the Tesseract client.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client.Close()
}

// collectWords converts Tesseract word boxes and returns their mean
// confidence on a 0-1 scale. Empty words are skipped.
func collectWords(boxes []gosseract.BoundingBox) ([]Word, float64) {
	words := make([]Word, 0, len(boxes))
	var sum float64
	for _, box := range boxes {
		w := strings.TrimSpace(box.Word)
		if w == "" {
			continue
		}
		conf := box.Confidence / 100.0
		words = append(words, Word{Text: w, Confidence: conf, Box: box.Box})
		sum += conf
	}
	if len(words) == 0 {
		return words, 0
	}
	return words, sum / float64(len(words))
}
