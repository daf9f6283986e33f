package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/arnab-maity007/Advanced-Valo/internal/classify"
	"github.com/arnab-maity007/Advanced-Valo/internal/event"
	"github.com/arnab-maity007/Advanced-Valo/internal/region"
)

// Validate checks a loaded config for values the pipeline cannot run with.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if err := validateUnit("classifier.threshold", cfg.Classifier.Threshold); err != nil {
		return err
	}
	if err := validateUnit("classifier.min_ocr_confidence", cfg.Classifier.MinOCRConfidence); err != nil {
		return err
	}
	for name, th := range cfg.Classifier.Thresholds {
		if !knownVocabulary(name) {
			return fmt.Errorf("classifier.thresholds: unknown vocabulary %q", name)
		}
		if err := validateUnit("classifier.thresholds."+name, th); err != nil {
			return err
		}
	}
	for name := range cfg.Classifier.Vocabulary {
		if !knownVocabulary(name) {
			return fmt.Errorf("classifier.vocabulary: unknown vocabulary %q", name)
		}
	}

	for kind, v := range cfg.Commentary.Importance {
		if !event.Kind(kind).Valid() {
			return fmt.Errorf("commentary.importance: unknown event kind %q", kind)
		}
		if v < 1 || v > 5 {
			return fmt.Errorf("commentary.importance.%s must be 1..5, got %d", kind, v)
		}
	}
	for kind, style := range cfg.Commentary.Styles {
		if !event.Kind(kind).Valid() {
			return fmt.Errorf("commentary.styles: unknown event kind %q", kind)
		}
		if !knownStyle(event.Style(style)) {
			return fmt.Errorf("commentary.styles.%s: unknown style %q", kind, style)
		}
	}
	if cfg.Commentary.MinImportance < 1 || cfg.Commentary.MinImportance > 5 {
		return fmt.Errorf("commentary.min_importance must be 1..5, got %d", cfg.Commentary.MinImportance)
	}

	if cfg.Extractor.Scale <= 0 {
		return errors.New("extractor.scale must be positive")
	}
	for name, hex := range map[string]string{
		"highlighted": cfg.Extractor.Highlight.Highlighted,
		"hovered":     cfg.Extractor.Highlight.Hovered,
	} {
		if _, err := colorful.Hex(hex); err != nil {
			return fmt.Errorf("extractor.highlight.%s: %w", name, err)
		}
	}

	switch cfg.Detector.Backend {
	case "layout":
		for i, r := range cfg.Detector.Layout {
			if _, err := region.ParseLabel(r.Label); err != nil {
				return fmt.Errorf("detector.layout[%d]: %w", i, err)
			}
			if r.W <= 0 || r.H <= 0 || r.X < 0 || r.Y < 0 || r.X+r.W > 1 || r.Y+r.H > 1 {
				return fmt.Errorf("detector.layout[%d]: region must lie within the unit frame", i)
			}
		}
		for i, c := range cfg.Detector.Cards {
			if c.Label != "buy-slot" && c.Label != "agent-card" {
				return fmt.Errorf("detector.cards[%d]: label must be buy-slot or agent-card, got %q", i, c.Label)
			}
			if c.W < 0 || c.H < 0 || c.X < 0 || c.Y < 0 || c.X+c.W > 1 || c.Y+c.H > 1 {
				return fmt.Errorf("detector.cards[%d]: area must lie within the unit frame", i)
			}
			if c.MinFill > 1 {
				return fmt.Errorf("detector.cards[%d]: min_fill must be at most 1", i)
			}
		}
	case "worker":
		if len(cfg.Detector.Worker.Command) == 0 {
			return errors.New("detector.worker.command must be set for the worker backend")
		}
	case "onnx":
		if strings.TrimSpace(cfg.Detector.ONNX.ModelPath) == "" {
			return errors.New("detector.onnx.model_path must be set for the onnx backend")
		}
		if len(cfg.Detector.ONNX.Labels) == 0 {
			return errors.New("detector.onnx.labels must list the model classes")
		}
	default:
		return fmt.Errorf("detector.backend %q must be layout, worker or onnx", cfg.Detector.Backend)
	}

	if cfg.MQTT.Enabled && strings.TrimSpace(cfg.MQTT.Broker) == "" {
		return errors.New("mqtt.broker must be set when mqtt is enabled")
	}
	if cfg.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", cfg.MQTT.QoS)
	}

	if cfg.Speech.Enabled {
		for _, c := range []event.Caster{event.Hype, event.Analyst} {
			if cfg.Speech.Voices[string(c)] == "" {
				return fmt.Errorf("speech.voices.%s must be set", c)
			}
		}
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn or error", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q must be text or json", cfg.Logging.Format)
	}

	return nil
}

func validateUnit(name string, v float64) error {
	if v <= 0 || v > 1 {
		return fmt.Errorf("%s must be in (0, 1], got %v", name, v)
	}
	return nil
}

func knownVocabulary(name string) bool {
	switch name {
	case classify.VocabWeapons, classify.VocabAgents, classify.VocabPhases, classify.VocabSpike:
		return true
	}
	return false
}

func knownStyle(s event.Style) bool {
	for _, st := range event.Styles {
		if st == s {
			return true
		}
	}
	return false
}
