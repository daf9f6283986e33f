package speech

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arnab-maity007/Advanced-Valo/internal/event"
)

// FileSink synthesizes lines and writes one MP3 per line under
// <dir>/<session>/.
type FileSink struct {
	dir   string
	synth Synthesizer
}

// NewFileSink returns a sink writing below dir.
func NewFileSink(dir string, synth Synthesizer) *FileSink {
	return &FileSink{dir: dir, synth: synth}
}

// Speak voices line and returns the path of the written audio file.
func (s *FileSink) Speak(ctx context.Context, sessionID string, line event.CommentaryLine) (string, error) {
	audio, err := s.synth.Synthesize(ctx, line.Text, line.Caster)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(s.dir, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create audio directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%04d_%s.mp3", line.Seq, line.Caster))
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", fmt.Errorf("failed to write audio: %w", err)
	}
	return path, nil
}
