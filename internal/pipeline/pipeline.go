// Package pipeline runs the commentary cycle for one or more sessions:
// region extraction, OCR, classification, deduplication, selection and
// rendering, followed by delivery of each line to the configured sinks.
//
// A Pipeline holds the components that are shared between sessions and
// safe for concurrent use. A Session owns the per-session state: the
// entity tracker, the selector's caster and template history, and the
// session log. Cycles of one session run strictly one after another.
package pipeline

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/arnab-maity007/Advanced-Valo/internal/classify"
	"github.com/arnab-maity007/Advanced-Valo/internal/commentary"
	"github.com/arnab-maity007/Advanced-Valo/internal/detector"
	"github.com/arnab-maity007/Advanced-Valo/internal/event"
	"github.com/arnab-maity007/Advanced-Valo/internal/imaging"
	"github.com/arnab-maity007/Advanced-Valo/internal/ocr"
	"github.com/arnab-maity007/Advanced-Valo/internal/sessionlog"
	"github.com/arnab-maity007/Advanced-Valo/internal/state"
)

// ErrSessionClosed is returned when processing into a closed session.
var ErrSessionClosed = errors.New("session closed")

// TextReader reads the text of a preprocessed region image.
// *ocr.Engine satisfies it.
type TextReader interface {
	Read(img image.Image) (ocr.Result, error)
}

// Speaker voices a line. *speech.FileSink satisfies it.
type Speaker interface {
	Speak(ctx context.Context, sessionID string, line event.CommentaryLine) (string, error)
}

// Publisher delivers lines and game state to realtime consumers.
// *transport.Publisher satisfies it.
type Publisher interface {
	Publish(sessionID string, line event.CommentaryLine) error
	PublishState(sessionID string, ts time.Time, entities []event.ClassifiedEvent) error
}

// Options assemble a Pipeline. Classifier and Catalog are required;
// every other component is optional.
type Options struct {
	Classifier *classify.Classifier
	Catalog    *commentary.Catalog

	// Importance overrides the default importance of event kinds.
	Importance map[event.Kind]int
	// MinImportance suppresses lines for less important events. The
	// state transition is still recorded.
	MinImportance int
	// Styles overrides the commentary style of event kinds.
	Styles map[event.Kind]event.Style
	// Seed seeds template selection. Zero seeds each session from the
	// clock.
	Seed int64
	// Rand replaces the seeded source, mainly for tests.
	Rand func() commentary.Rand

	Preprocess imaging.Preprocess
	Highlight  *imaging.HighlightSpec
	Reader     TextReader
	Detector   detector.Detector

	Speaker       Speaker
	Publisher     Publisher
	SessionLogDir string

	Now func() time.Time
}

// Pipeline is the shared half of the commentary service.
type Pipeline struct {
	opts     Options
	renderer *commentary.Renderer
	closers  []io.Closer
}

// New returns a pipeline over opts.
func New(opts Options) (*Pipeline, error) {
	if opts.Classifier == nil {
		return nil, errors.New("pipeline needs a classifier")
	}
	if opts.Catalog == nil {
		return nil, errors.New("pipeline needs a template catalog")
	}
	if opts.MinImportance < 1 {
		opts.MinImportance = 1
	}
	if opts.Preprocess == (imaging.Preprocess{}) {
		opts.Preprocess = imaging.DefaultPreprocess
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{opts: opts, renderer: commentary.NewRenderer(opts.Catalog)}, nil
}

// NewSession starts a session with a fresh UUID.
func (p *Pipeline) NewSession() *Session {
	return p.newSession(uuid.NewString())
}

func (p *Pipeline) newSession(id string) *Session {
	selOpts := commentary.SelectorOptions{Importance: p.opts.Importance, Styles: p.opts.Styles, Seed: p.opts.Seed}
	if p.opts.Rand != nil {
		selOpts.Rand = p.opts.Rand()
	} else if selOpts.Seed == 0 {
		selOpts.Seed = time.Now().UnixNano()
	}

	s := &Session{
		id:       id,
		p:        p,
		tracker:  state.NewTracker(nil),
		selector: commentary.NewSelector(p.opts.Catalog, selOpts),
		started:  p.opts.Now(),
	}
	if p.opts.SessionLogDir != "" {
		s.log = sessionlog.New(p.opts.SessionLogDir, id)
	}
	slog.Info("session started", "session", id)
	return s
}

// Detector returns the configured detector, or nil.
func (p *Pipeline) Detector() detector.Detector {
	return p.opts.Detector
}

// Close releases the shared components the pipeline owns.
func (p *Pipeline) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		errs = append(errs, p.closers[i].Close())
	}
	p.closers = nil
	return errors.Join(errs...)
}
