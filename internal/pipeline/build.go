package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/arnab-maity007/Advanced-Valo/internal/classify"
	"github.com/arnab-maity007/Advanced-Valo/internal/commentary"
	"github.com/arnab-maity007/Advanced-Valo/internal/config"
	"github.com/arnab-maity007/Advanced-Valo/internal/detector"
	"github.com/arnab-maity007/Advanced-Valo/internal/event"
	"github.com/arnab-maity007/Advanced-Valo/internal/imaging"
	"github.com/arnab-maity007/Advanced-Valo/internal/ocr"
	"github.com/arnab-maity007/Advanced-Valo/internal/speech"
	"github.com/arnab-maity007/Advanced-Valo/internal/transport"
)

// Build assembles a pipeline from configuration. It starts the OCR
// engine, the detector backend and, when enabled, the speech and MQTT
// sinks. Close the pipeline to release them.
func Build(ctx context.Context, cfg *config.Config) (*Pipeline, error) {
	catalog, err := commentary.LoadCatalog(cfg.Commentary.TemplatesPath)
	if err != nil {
		return nil, err
	}
	styles, err := styleOverrides(cfg.Commentary.Styles, catalog)
	if err != nil {
		return nil, err
	}
	hl, err := imaging.NewHighlightSpec(
		cfg.Extractor.Highlight.Highlighted,
		cfg.Extractor.Highlight.Hovered,
		cfg.Extractor.Highlight.Tolerance,
		cfg.Extractor.Highlight.BorderWidth,
		cfg.Extractor.Highlight.MinCoverage,
	)
	if err != nil {
		return nil, err
	}

	opts := Options{
		Classifier:    NewClassifier(cfg.Classifier),
		Catalog:       catalog,
		Importance:    importanceOverrides(cfg.Commentary.Importance),
		Styles:        styles,
		MinImportance: cfg.Commentary.MinImportance,
		Seed:          cfg.Commentary.Seed,
		Preprocess: imaging.Preprocess{
			Scale:     cfg.Extractor.Scale,
			Contrast:  cfg.Extractor.Contrast,
			Binarize:  cfg.Extractor.Binarize,
			Threshold: cfg.Extractor.Threshold,
		},
		Highlight: &hl,
	}
	if cfg.SessionLog.Enabled {
		opts.SessionLogDir = cfg.SessionLog.Dir
	}

	var closers []io.Closer
	fail := func(err error) (*Pipeline, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i].Close()
		}
		return nil, err
	}

	engine, err := ocr.New(ocr.Options{
		Language:    cfg.OCR.Language,
		PageSegMode: cfg.OCR.PageSegMode,
		Whitelist:   cfg.OCR.Whitelist,
	})
	if err != nil {
		return fail(fmt.Errorf("start ocr: %w", err))
	}
	closers = append(closers, engine)
	opts.Reader = engine

	det, err := NewDetector(ctx, cfg.Detector)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, det)
	opts.Detector = det

	if cfg.Speech.Enabled {
		tts, err := speech.NewElevenLabs(speech.Options{
			BaseURL: cfg.Speech.BaseURL,
			APIKey:  os.Getenv(cfg.Speech.APIKeyEnv),
			ModelID: cfg.Speech.ModelID,
			Voices:  voices(cfg.Speech.Voices),
			Timeout: cfg.Speech.Timeout,
		})
		if err != nil {
			return fail(fmt.Errorf("speech: %w", err))
		}
		opts.Speaker = speech.NewFileSink(cfg.Speech.OutputDir, tts)
	}

	if cfg.MQTT.Enabled {
		pub, err := transport.Connect(transport.Options{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			QoS:         cfg.MQTT.QoS,
			Timeout:     cfg.MQTT.Timeout,
		})
		if err != nil {
			return fail(err)
		}
		closers = append(closers, pub)
		opts.Publisher = pub
	}

	p, err := New(opts)
	if err != nil {
		return fail(err)
	}
	p.closers = closers
	return p, nil
}

// NewClassifier builds a classifier from its configuration section.
func NewClassifier(cfg config.ClassifierConfig) *classify.Classifier {
	return classify.New(classify.Options{
		Threshold:        cfg.Threshold,
		Thresholds:       cfg.Thresholds,
		MinOCRConfidence: cfg.MinOCRConfidence,
		Additions:        cfg.Vocabulary,
	})
}

// NewDetector starts the configured detector backend.
func NewDetector(ctx context.Context, cfg config.DetectorConfig) (detector.Detector, error) {
	switch cfg.Backend {
	case "", "layout":
		regions := make([]detector.LayoutRegion, len(cfg.Layout))
		for i, r := range cfg.Layout {
			regions[i] = detector.LayoutRegion{Label: r.Label, X: r.X, Y: r.Y, W: r.W, H: r.H}
		}
		layout, err := detector.NewLayout(regions, cfg.MinEdgeDensity)
		if err != nil {
			return nil, err
		}
		if len(cfg.Cards) == 0 {
			return layout, nil
		}
		combined := detector.Combine(layout)
		for i, c := range cfg.Cards {
			cards, err := detector.NewCards(detector.CardsOptions{
				Label:     c.Label,
				Area:      detector.LayoutRegion{X: c.X, Y: c.Y, W: c.W, H: c.H},
				Threshold: c.Threshold,
				MinArea:   c.MinArea,
				MinFill:   c.MinFill,
			})
			if err != nil {
				return nil, fmt.Errorf("detector cards %d: %w", i, err)
			}
			combined = append(combined, cards)
		}
		return combined, nil
	case "worker":
		return detector.StartWorker(ctx, cfg.Worker.Command, cfg.Worker.Timeout)
	case "onnx":
		return detector.NewONNX(detector.ONNXOptions{
			LibraryPath: cfg.ONNX.LibraryPath,
			ModelPath:   cfg.ONNX.ModelPath,
			Labels:      cfg.ONNX.Labels,
			InputSize:   cfg.ONNX.InputSize,
			Confidence:  cfg.ONNX.Confidence,
			IoU:         cfg.ONNX.IoU,
		})
	default:
		return nil, fmt.Errorf("unknown detector backend %q", cfg.Backend)
	}
}

func importanceOverrides(in map[string]int) map[event.Kind]int {
	out := make(map[event.Kind]int, len(in))
	for k, v := range in {
		out[event.Kind(k)] = v
	}
	return out
}

// styleOverrides converts configured styles, checking that catalog has
// templates for every overridden kind in its new style.
func styleOverrides(in map[string]string, catalog *commentary.Catalog) (map[event.Kind]event.Style, error) {
	out := make(map[event.Kind]event.Style, len(in))
	for k, v := range in {
		kind, style := event.Kind(k), event.Style(v)
		if len(catalog.For(kind, style)) == 0 {
			return nil, fmt.Errorf("commentary.styles: no %s templates for %s", style, kind)
		}
		out[kind] = style
	}
	return out, nil
}

func voices(in map[string]string) map[event.Caster]string {
	out := make(map[event.Caster]string, len(in))
	for k, v := range in {
		out[event.Caster(k)] = v
	}
	return out
}
