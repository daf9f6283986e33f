// Package speech voices commentary lines with ElevenLabs text-to-speech.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/arnab-maity007/Advanced-Valo/internal/event"
)

// Synthesizer turns a line of text into audio in a caster's voice.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, caster event.Caster) ([]byte, error)
}

// VoiceSettings are ElevenLabs voice tuning parameters.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// DefaultVoiceSettings favour an energetic broadcast delivery.
var DefaultVoiceSettings = VoiceSettings{
	Stability:       0.75,
	SimilarityBoost: 0.75,
	Style:           0.5,
	UseSpeakerBoost: true,
}

// Options configures an ElevenLabs client.
type Options struct {
	BaseURL  string
	APIKey   string
	ModelID  string
	Voices   map[event.Caster]string
	Settings *VoiceSettings
	Timeout  time.Duration
}

// ElevenLabs calls the ElevenLabs text-to-speech REST API.
type ElevenLabs struct {
	baseURL  string
	apiKey   string
	modelID  string
	voices   map[event.Caster]string
	settings VoiceSettings
	client   *http.Client
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

// NewElevenLabs validates opts and returns a client.
func NewElevenLabs(opts Options) (*ElevenLabs, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("elevenlabs api key is empty")
	}
	if len(opts.Voices) == 0 {
		return nil, errors.New("no elevenlabs voices configured")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.elevenlabs.io"
	}
	if opts.ModelID == "" {
		opts.ModelID = "eleven_multilingual_v2"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	settings := DefaultVoiceSettings
	if opts.Settings != nil {
		settings = *opts.Settings
	}
	return &ElevenLabs{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		apiKey:   opts.APIKey,
		modelID:  opts.ModelID,
		voices:   opts.Voices,
		settings: settings,
		client:   &http.Client{Timeout: opts.Timeout},
	}, nil
}

// Synthesize returns MP3 audio of text spoken in caster's voice.
func (e *ElevenLabs) Synthesize(ctx context.Context, text string, caster event.Caster) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("empty text")
	}
	voice, ok := e.voices[caster]
	if !ok {
		return nil, fmt.Errorf("no voice configured for caster %q", caster)
	}

	body, err := json.Marshal(ttsRequest{Text: text, ModelID: e.modelID, VoiceSettings: e.settings})
	if err != nil {
		return nil, fmt.Errorf("failed to encode tts request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", e.baseURL, voice)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", e.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("elevenlabs error: %s - %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	return audio, nil
}
