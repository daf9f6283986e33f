package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arnab-maity007/Advanced-Valo/internal/event"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *ElevenLabs {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewElevenLabs(Options{
		BaseURL: srv.URL + "/",
		APIKey:  "test-key",
		Voices:  map[event.Caster]string{event.Hype: "hype-voice", event.Analyst: "analyst-voice"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestElevenLabs_Synthesize(t *testing.T) {
	var gotPath, gotKey string
	var gotBody ttsRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3-audio"))
	})

	audio, err := c.Synthesize(context.Background(), "TenZ takes down Shroud!", event.Analyst)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio) != "ID3-audio" {
		t.Errorf("audio: got %q", audio)
	}
	if gotPath != "/v1/text-to-speech/analyst-voice" {
		t.Errorf("path: got %s", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("api key header: got %q", gotKey)
	}
	if gotBody.Text != "TenZ takes down Shroud!" || gotBody.ModelID != "eleven_multilingual_v2" {
		t.Errorf("body: %+v", gotBody)
	}
	if gotBody.VoiceSettings != DefaultVoiceSettings {
		t.Errorf("voice settings: %+v", gotBody.VoiceSettings)
	}
}

func TestElevenLabs_Errors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"quota exceeded"}`, http.StatusTooManyRequests)
	})

	_, err := c.Synthesize(context.Background(), "hello", event.Hype)
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("http error: got %v", err)
	}

	if _, err := c.Synthesize(context.Background(), "  ", event.Hype); err == nil {
		t.Error("empty text should fail")
	}
	if _, err := c.Synthesize(context.Background(), "hi", event.Caster("mystery")); err == nil {
		t.Error("unknown caster should fail")
	}
}

func TestNewElevenLabs_Invalid(t *testing.T) {
	if _, err := NewElevenLabs(Options{Voices: map[event.Caster]string{event.Hype: "v"}}); err == nil {
		t.Error("missing api key should fail")
	}
	if _, err := NewElevenLabs(Options{APIKey: "k"}); err == nil {
		t.Error("missing voices should fail")
	}
}

type fakeSynth struct {
	calls []event.Caster
}

func (f *fakeSynth) Synthesize(_ context.Context, text string, caster event.Caster) ([]byte, error) {
	f.calls = append(f.calls, caster)
	return []byte("audio:" + text), nil
}

func TestFileSink_Speak(t *testing.T) {
	dir := t.TempDir()
	synth := &fakeSynth{}
	sink := NewFileSink(dir, synth)

	line := event.CommentaryLine{Seq: 3, Text: "Spike is down!", Caster: event.Hype}
	path, err := sink.Speak(context.Background(), "sess-1", line)
	if err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if path != filepath.Join(dir, "sess-1", "0003_hype.mp3") {
		t.Errorf("path: got %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "audio:Spike is down!" {
		t.Errorf("content: got %q", data)
	}
	if len(synth.calls) != 1 || synth.calls[0] != event.Hype {
		t.Errorf("synth calls: %v", synth.calls)
	}
}
