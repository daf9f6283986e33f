package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PollInterval != 500*time.Millisecond {
		t.Errorf("PollInterval: %v", cfg.PollInterval)
	}
	if cfg.Detector.Backend != "layout" || len(cfg.Detector.Layout) != 8 {
		t.Errorf("detector defaults: %+v", cfg.Detector)
	}
	if len(cfg.Detector.Cards) != 2 || cfg.Detector.Cards[0].Label != "buy-slot" {
		t.Errorf("cards defaults: %+v", cfg.Detector.Cards)
	}
	if !cfg.SessionLog.Enabled || !cfg.Extractor.Binarize {
		t.Error("default config should enable the session log and binarization")
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "valo.yaml")
	data := `
poll_interval: 250ms
classifier:
  threshold: 0.75
  thresholds:
    agents: 0.9
  vocabulary:
    weapons:
      - name: Outlaw
        aliases: [outlw]
commentary:
  importance:
    weapon_owned: 4
  styles:
    kill: analysis
  min_importance: 3
  seed: 7
mqtt:
  enabled: true
  broker: tcp://localhost:1883
speech:
  voices:
    hype: custom-voice
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Errorf("PollInterval: %v", cfg.PollInterval)
	}
	if cfg.Classifier.Threshold != 0.75 || cfg.Classifier.Thresholds["agents"] != 0.9 {
		t.Errorf("classifier: %+v", cfg.Classifier)
	}
	if got := cfg.Classifier.Vocabulary["weapons"]; len(got) != 1 || got[0].Name != "Outlaw" {
		t.Errorf("vocabulary additions: %+v", got)
	}
	if cfg.Commentary.Importance["weapon_owned"] != 4 || cfg.Commentary.MinImportance != 3 || cfg.Commentary.Styles["kill"] != "analysis" {
		t.Errorf("commentary: %+v", cfg.Commentary)
	}
	if cfg.Speech.Voices["hype"] != "custom-voice" || cfg.Speech.Voices["analyst"] == "" {
		t.Errorf("voices: %v", cfg.Speech.Voices)
	}
	if cfg.MQTT.TopicPrefix != "valo" {
		t.Errorf("topic prefix default: %q", cfg.MQTT.TopicPrefix)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad yaml", "poll_interval: [", "parse"},
		{"threshold range", "classifier:\n  threshold: 1.5\n", "classifier.threshold"},
		{"unknown vocabulary", "classifier:\n  thresholds:\n    maps: 0.7\n", "unknown vocabulary"},
		{"unknown kind", "commentary:\n  importance:\n    dance: 3\n", "unknown event kind"},
		{"styles kind", "commentary:\n  styles:\n    dance: analysis\n", "commentary.styles"},
		{"styles value", "commentary:\n  styles:\n    kill: shouting\n", "unknown style"},
		{"importance range", "commentary:\n  importance:\n    kill: 9\n", "1..5"},
		{"bad colour", "extractor:\n  highlight:\n    hovered: red\n", "hovered"},
		{"bad backend", "detector:\n  backend: magic\n", "detector.backend"},
		{"bad layout label", "detector:\n  layout:\n    - {label: minimap, x: 0, y: 0, w: 0.1, h: 0.1}\n", "layout[0]"},
		{"layout off frame", "detector:\n  layout:\n    - {label: round-timer, x: 0.95, y: 0, w: 0.1, h: 0.1}\n", "unit frame"},
		{"bad cards label", "detector:\n  cards:\n    - {label: round-timer}\n", "cards[0]"},
		{"cards off frame", "detector:\n  cards:\n    - {label: buy-slot, x: 0.5, w: 0.6, h: 1}\n", "cards[0]"},
		{"worker without command", "detector:\n  backend: worker\n", "worker.command"},
		{"onnx without model", "detector:\n  backend: onnx\n", "model_path"},
		{"mqtt without broker", "mqtt:\n  enabled: true\n", "mqtt.broker"},
		{"bad log level", "logging:\n  level: loud\n", "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	if err := Validate(nil); err == nil {
		t.Error("nil config should fail")
	}
}
