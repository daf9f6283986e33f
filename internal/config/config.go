// Package config loads the commentary service configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arnab-maity007/Advanced-Valo/internal/classify"
)

// Config is the complete service configuration.
type Config struct {
	PollInterval time.Duration    `yaml:"poll_interval"`
	Classifier   ClassifierConfig `yaml:"classifier"`
	Commentary   CommentaryConfig `yaml:"commentary"`
	Extractor    ExtractorConfig  `yaml:"extractor"`
	Detector     DetectorConfig   `yaml:"detector"`
	OCR          OCRConfig        `yaml:"ocr"`
	MQTT         MQTTConfig       `yaml:"mqtt"`
	Speech       SpeechConfig     `yaml:"speech"`
	SessionLog   SessionLogConfig `yaml:"session_log"`
	Logging      LoggingConfig    `yaml:"logging"`
}

// ClassifierConfig tunes fuzzy matching.
type ClassifierConfig struct {
	Threshold        float64                     `yaml:"threshold"`          // default 0.8
	Thresholds       map[string]float64          `yaml:"thresholds"`         // per vocabulary: weapons, agents, phases, spike
	MinOCRConfidence float64                     `yaml:"min_ocr_confidence"` // default 0.5
	Vocabulary       map[string][]classify.Entry `yaml:"vocabulary"`         // extra entries or aliases
}

// CommentaryConfig tunes selection.
type CommentaryConfig struct {
	Importance    map[string]int    `yaml:"importance"`     // kind -> 1..5
	Styles        map[string]string `yaml:"styles"`         // kind -> style
	MinImportance int               `yaml:"min_importance"` // default 1
	Seed          int64             `yaml:"seed"`           // 0 = time based
	TemplatesPath string            `yaml:"templates_path"` // empty = built-in
}

// ExtractorConfig controls region preprocessing before OCR.
type ExtractorConfig struct {
	Scale     float64         `yaml:"scale"`     // default 2
	Contrast  float64         `yaml:"contrast"`  // percent, default 20
	Binarize  bool            `yaml:"binarize"`
	Threshold uint8           `yaml:"threshold"` // default 128
	Highlight HighlightConfig `yaml:"highlight"`
}

// HighlightConfig describes the slot border colours that mark visual cues.
type HighlightConfig struct {
	Highlighted string  `yaml:"highlighted"`  // hex, default #ECE8E1
	Hovered     string  `yaml:"hovered"`      // hex, default #FF4655
	Tolerance   float64 `yaml:"tolerance"`    // Lab distance, default 0.15
	BorderWidth int     `yaml:"border_width"` // pixels, default 3
	MinCoverage float64 `yaml:"min_coverage"` // fraction of border pixels, default 0.5
}

// DetectorConfig selects and configures the region detector backend.
type DetectorConfig struct {
	Backend        string         `yaml:"backend"` // layout | worker | onnx
	Layout         []LayoutRegion `yaml:"layout"`
	MinEdgeDensity float64        `yaml:"min_edge_density"` // layout backend, default 0.02
	Cards          []CardsConfig  `yaml:"cards"`            // layout backend
	Worker         WorkerConfig   `yaml:"worker"`
	ONNX           ONNXConfig     `yaml:"onnx"`
}

// LayoutRegion is a fixed HUD region expressed as fractions of the frame.
type LayoutRegion struct {
	Label string  `yaml:"label"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	W     float64 `yaml:"w"`
	H     float64 `yaml:"h"`
}

// CardsConfig finds shop or agent select cards inside an area of the
// frame. The area is in fractions; a zero size searches the whole frame.
type CardsConfig struct {
	Label     string  `yaml:"label"` // buy-slot | agent-card
	X         float64 `yaml:"x"`
	Y         float64 `yaml:"y"`
	W         float64 `yaml:"w"`
	H         float64 `yaml:"h"`
	Threshold uint8   `yaml:"threshold"` // luminance, default 96
	MinArea   float64 `yaml:"min_area"`  // fraction of the area, default 0.002
	MinFill   float64 `yaml:"min_fill"`  // default 0.6
}

// WorkerConfig runs an external detector process speaking msgpack frames.
type WorkerConfig struct {
	Command []string      `yaml:"command"`
	Timeout time.Duration `yaml:"timeout"` // default 5s
}

// ONNXConfig runs a YOLO model in process.
type ONNXConfig struct {
	LibraryPath string   `yaml:"library_path"`
	ModelPath   string   `yaml:"model_path"`
	Labels      []string `yaml:"labels"`
	InputSize   int      `yaml:"input_size"` // default 640
	Confidence  float64  `yaml:"confidence"` // default 0.25
	IoU         float64  `yaml:"iou"`        // default 0.45
}

// OCRConfig configures Tesseract.
type OCRConfig struct {
	Language    string `yaml:"language"`      // default eng
	PageSegMode int    `yaml:"page_seg_mode"` // default 7, single line
	Whitelist   string `yaml:"whitelist"`
}

// MQTTConfig publishes commentary lines to a broker.
type MQTTConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Broker      string        `yaml:"broker"`
	ClientID    string        `yaml:"client_id"`
	TopicPrefix string        `yaml:"topic_prefix"` // default valo
	QoS         byte          `yaml:"qos"`
	Timeout     time.Duration `yaml:"timeout"` // default 5s
}

// SpeechConfig voices commentary lines with ElevenLabs.
type SpeechConfig struct {
	Enabled   bool              `yaml:"enabled"`
	BaseURL   string            `yaml:"base_url"`    // default https://api.elevenlabs.io
	APIKeyEnv string            `yaml:"api_key_env"` // default ELEVENLABS_API_KEY
	ModelID   string            `yaml:"model_id"`    // default eleven_multilingual_v2
	Voices    map[string]string `yaml:"voices"`      // caster -> voice id
	OutputDir string            `yaml:"output_dir"`  // default audio
	Timeout   time.Duration     `yaml:"timeout"`     // default 30s
}

// SessionLogConfig records one JSON file per session.
type SessionLogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"` // default sessions
}

// LoggingConfig configures slog.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, fills defaults and validates it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{
		Extractor:  ExtractorConfig{Binarize: true},
		SessionLog: SessionLogConfig{Enabled: true},
	}
	applyDefaults(cfg)
	return cfg
}

// DefaultLayout approximates the 1080p HUD: five kill feed rows at the
// top right, the round timer and score at the top centre, and the spike
// indicator under the timer.
func DefaultLayout() []LayoutRegion {
	layout := []LayoutRegion{
		{Label: "round-timer", X: 0.448, Y: 0.009, W: 0.104, H: 0.046},
		{Label: "score-display", X: 0.422, Y: 0.009, W: 0.156, H: 0.065},
		{Label: "spike-status", X: 0.448, Y: 0.060, W: 0.104, H: 0.040},
	}
	for i := 0; i < 5; i++ {
		layout = append(layout, LayoutRegion{
			Label: "kill-feed-line",
			X:     0.792,
			Y:     0.046 + float64(i)*0.046,
			W:     0.182,
			H:     0.046,
		})
	}
	return layout
}

// DefaultCards covers the weapon grid of the buy menu and the agent strip
// at the bottom of agent select.
func DefaultCards() []CardsConfig {
	return []CardsConfig{
		{Label: "buy-slot", X: 0.05, Y: 0.12, W: 0.62, H: 0.80},
		{Label: "agent-card", X: 0.25, Y: 0.84, W: 0.50, H: 0.14},
	}
}

func applyDefaults(cfg *Config) {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}

	if cfg.Classifier.Threshold == 0 {
		cfg.Classifier.Threshold = classify.DefaultThreshold
	}
	if cfg.Classifier.MinOCRConfidence == 0 {
		cfg.Classifier.MinOCRConfidence = classify.DefaultMinOCRConfidence
	}

	if cfg.Commentary.MinImportance == 0 {
		cfg.Commentary.MinImportance = 1
	}

	if cfg.Extractor.Scale == 0 {
		cfg.Extractor.Scale = 2
	}
	if cfg.Extractor.Contrast == 0 {
		cfg.Extractor.Contrast = 20
	}
	if cfg.Extractor.Threshold == 0 {
		cfg.Extractor.Threshold = 128
	}
	h := &cfg.Extractor.Highlight
	if h.Highlighted == "" {
		h.Highlighted = "#ECE8E1"
	}
	if h.Hovered == "" {
		h.Hovered = "#FF4655"
	}
	if h.Tolerance == 0 {
		h.Tolerance = 0.15
	}
	if h.BorderWidth == 0 {
		h.BorderWidth = 3
	}
	if h.MinCoverage == 0 {
		h.MinCoverage = 0.5
	}

	if cfg.Detector.Backend == "" {
		cfg.Detector.Backend = "layout"
	}
	if len(cfg.Detector.Layout) == 0 {
		cfg.Detector.Layout = DefaultLayout()
	}
	if cfg.Detector.Cards == nil {
		cfg.Detector.Cards = DefaultCards()
	}
	if cfg.Detector.MinEdgeDensity == 0 {
		cfg.Detector.MinEdgeDensity = 0.02
	}
	if cfg.Detector.Worker.Timeout == 0 {
		cfg.Detector.Worker.Timeout = 5 * time.Second
	}
	if cfg.Detector.ONNX.InputSize == 0 {
		cfg.Detector.ONNX.InputSize = 640
	}
	if cfg.Detector.ONNX.Confidence == 0 {
		cfg.Detector.ONNX.Confidence = 0.25
	}
	if cfg.Detector.ONNX.IoU == 0 {
		cfg.Detector.ONNX.IoU = 0.45
	}

	if cfg.OCR.Language == "" {
		cfg.OCR.Language = "eng"
	}
	if cfg.OCR.PageSegMode == 0 {
		cfg.OCR.PageSegMode = 7
	}

	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "valo-commentary"
	}
	if cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = "valo"
	}
	if cfg.MQTT.Timeout == 0 {
		cfg.MQTT.Timeout = 5 * time.Second
	}

	if cfg.Speech.BaseURL == "" {
		cfg.Speech.BaseURL = "https://api.elevenlabs.io"
	}
	if cfg.Speech.APIKeyEnv == "" {
		cfg.Speech.APIKeyEnv = "ELEVENLABS_API_KEY"
	}
	if cfg.Speech.ModelID == "" {
		cfg.Speech.ModelID = "eleven_multilingual_v2"
	}
	if cfg.Speech.Voices == nil {
		cfg.Speech.Voices = map[string]string{}
	}
	if cfg.Speech.Voices["hype"] == "" {
		cfg.Speech.Voices["hype"] = "pqHfZKP75CvOlQylNhV4"
	}
	if cfg.Speech.Voices["analyst"] == "" {
		cfg.Speech.Voices["analyst"] = "pNInz6obpgDQGcFmaJgB"
	}
	if cfg.Speech.OutputDir == "" {
		cfg.Speech.OutputDir = "audio"
	}
	if cfg.Speech.Timeout == 0 {
		cfg.Speech.Timeout = 30 * time.Second
	}

	if cfg.SessionLog.Dir == "" {
		cfg.SessionLog.Dir = "sessions"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}
