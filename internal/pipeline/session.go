package pipeline

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/arnab-maity007/Advanced-Valo/internal/commentary"
	"github.com/arnab-maity007/Advanced-Valo/internal/detector"
	"github.com/arnab-maity007/Advanced-Valo/internal/event"
	"github.com/arnab-maity007/Advanced-Valo/internal/imaging"
	"github.com/arnab-maity007/Advanced-Valo/internal/region"
	"github.com/arnab-maity007/Advanced-Valo/internal/sessionlog"
	"github.com/arnab-maity007/Advanced-Valo/internal/state"
)

// Batch is the set of regions observed in one poll cycle.
type Batch struct {
	Regions []region.DetectedRegion
	// Timestamp stamps the events of the batch. Zero means now.
	Timestamp time.Time
}

// Frame is one captured video frame.
type Frame struct {
	Image     image.Image
	Timestamp time.Time
	// Source names where the frame came from, e.g. a file path.
	Source string
}

// Stats are the counters of one session.
type Stats struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Closed    bool      `json:"closed"`
	Paused    bool      `json:"paused"`

	Cycles     int `json:"cycles"`
	Regions    int `json:"regions"`
	Unreadable int `json:"unreadable"`
	Events     int `json:"events"`
	Duplicates int `json:"duplicates"`
	Suppressed int `json:"suppressed"`
	Lines      int `json:"lines"`

	// PausedCycles counts cycles dropped while the session was paused.
	PausedCycles int `json:"paused_cycles"`

	RenderErrors int `json:"render_errors"`
	SinkErrors   int `json:"sink_errors"`

	Entities int    `json:"entities"`
	LogPath  string `json:"log_path,omitempty"`
}

// Session is one run of commentary with its own entity state and caster
// alternation.
type Session struct {
	id string
	p  *Pipeline

	mu       sync.Mutex
	tracker  *state.Tracker
	selector *commentary.Selector
	log      *sessionlog.Recorder
	started  time.Time
	closed   bool
	paused   bool
	seq      int
	stats    Stats
}

// ID returns the session's UUID.
func (s *Session) ID() string {
	return s.id
}

// Pause stops commentary without ending the session. While paused,
// cycles are dropped: no line is emitted, the caster does not advance and
// no entity state is recorded. Pausing twice is a no-op.
func (s *Session) Pause() error {
	return s.setPaused(true)
}

// Resume continues a paused session from the state it was paused with.
func (s *Session) Resume() error {
	return s.setPaused(false)
}

func (s *Session) setPaused(paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.paused == paused {
		return nil
	}
	s.paused = paused
	if paused {
		slog.Info("session paused", "session", s.id)
	} else {
		slog.Info("session resumed", "session", s.id)
	}
	return nil
}

// dropPaused counts a cycle dropped because the session is paused.
func (s *Session) dropPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused && !s.closed {
		s.stats.PausedCycles++
		return true
	}
	return false
}

// Process runs one cycle over batch and returns the emitted lines in
// order. Regions that classify to no event, repeated entity states and
// lines below the minimum importance produce nothing. A paused session
// drops the batch.
func (s *Session) Process(ctx context.Context, batch Batch) ([]event.CommentaryLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.paused {
		s.stats.PausedCycles++
		return nil, nil
	}

	ts := batch.Timestamp
	if ts.IsZero() {
		ts = s.p.opts.Now()
	}
	s.stats.Cycles++
	s.stats.Regions += len(batch.Regions)

	events := make([]event.ClassifiedEvent, 0, len(batch.Regions))
	for _, r := range batch.Regions {
		ev, ok := s.p.opts.Classifier.ClassifyAt(r, ts)
		if !ok {
			continue
		}
		events = append(events, *ev)
	}
	s.stats.Events += len(events)
	s.selector.Importance().Rank(events)

	var (
		lines   []event.CommentaryLine
		changed int
	)
	for _, ev := range events {
		accepted, ok := s.tracker.Update(ev)
		if !ok {
			s.stats.Duplicates++
			continue
		}
		changed++
		line, ok := s.compose(*accepted, ts)
		if !ok {
			continue
		}
		s.deliver(ctx, line)
		lines = append(lines, line)
	}
	if changed > 0 {
		s.publishState(ts)
	}
	return lines, nil
}

// publishState sends the entity states after a cycle that changed them.
func (s *Session) publishState(ts time.Time) {
	if s.p.opts.Publisher == nil {
		return
	}
	if err := s.p.opts.Publisher.PublishState(s.id, ts, s.tracker.Entities()); err != nil {
		s.stats.SinkErrors++
		slog.Warn("publish state failed", "session", s.id, "error", err)
	}
}

// compose selects and renders the line for an accepted event. The
// selector is only committed once rendering succeeded.
func (s *Session) compose(ev event.ClassifiedEvent, ts time.Time) (event.CommentaryLine, bool) {
	if s.selector.Importance().Of(ev.Kind) < s.p.opts.MinImportance {
		s.stats.Suppressed++
		return event.CommentaryLine{}, false
	}

	sel, err := s.selector.Select(ev)
	if err != nil {
		s.stats.RenderErrors++
		slog.Warn("no commentary template", "session", s.id, "kind", ev.Kind, "error", err)
		return event.CommentaryLine{}, false
	}
	text, err := s.p.renderer.Render(sel.TemplateID, ev.Fields())
	if err != nil {
		s.stats.RenderErrors++
		slog.Warn("skipping commentary line", "session", s.id, "template", sel.TemplateID, "error", err)
		return event.CommentaryLine{}, false
	}
	s.selector.Commit(sel)

	s.seq++
	s.stats.Lines++
	src := ev.Clone()
	return event.CommentaryLine{
		Seq:        s.seq,
		Text:       text,
		Caster:     sel.Caster,
		Style:      sel.Style,
		Importance: sel.Importance,
		TemplateID: sel.TemplateID,
		Timestamp:  ts,
		Source:     &src,
	}, true
}

// deliver hands line to every sink. Sink failures are logged and counted
// and never abort the cycle.
func (s *Session) deliver(ctx context.Context, line event.CommentaryLine) {
	slog.Info("commentary",
		"session", s.id,
		"seq", line.Seq,
		"caster", line.Caster,
		"kind", line.Source.Kind,
		"text", line.Text,
	)

	if s.log != nil {
		if err := s.log.Record(line); err != nil {
			s.stats.SinkErrors++
			slog.Warn("session log record failed", "session", s.id, "error", err)
		}
	}
	if s.p.opts.Publisher != nil {
		if err := s.p.opts.Publisher.Publish(s.id, line); err != nil {
			s.stats.SinkErrors++
			slog.Warn("publish failed", "session", s.id, "seq", line.Seq, "error", err)
		}
	}
	if s.p.opts.Speaker != nil {
		path, err := s.p.opts.Speaker.Speak(ctx, s.id, line)
		if err != nil {
			s.stats.SinkErrors++
			slog.Warn("speech synthesis failed", "session", s.id, "seq", line.Seq, "error", err)
		} else {
			slog.Debug("line voiced", "session", s.id, "seq", line.Seq, "path", path)
		}
	}
}

// ProcessFrame extracts and reads the given detections from frame and
// processes the result. When dets is nil the pipeline's detector finds
// the regions; a detector failure yields an empty batch, unless the
// detector is closed for good, which is returned.
func (s *Session) ProcessFrame(ctx context.Context, frame Frame, dets []region.Detection) ([]event.CommentaryLine, error) {
	if s.isClosed() {
		return nil, ErrSessionClosed
	}
	if frame.Image == nil {
		return nil, errors.New("frame has no image")
	}
	if s.dropPaused() {
		return nil, nil
	}

	if dets == nil && s.p.opts.Detector != nil {
		found, err := s.p.opts.Detector.Detect(ctx, frame.Image)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, detector.ErrWorkerClosed) {
				return nil, err
			}
			slog.Warn("detector failed, processing empty batch", "session", s.id, "source", frame.Source, "error", err)
		}
		dets = found
	}

	regions, unreadable := s.p.extract(frame.Image, detector.AssignIndices(dets))
	if unreadable > 0 {
		s.mu.Lock()
		s.stats.Unreadable += unreadable
		s.mu.Unlock()
	}
	return s.Process(ctx, Batch{Regions: regions, Timestamp: frame.Timestamp})
}

// extract crops, preprocesses and reads every detection. Detections that
// cannot be cropped or read are counted and dropped.
func (p *Pipeline) extract(frame image.Image, dets []region.Detection) ([]region.DetectedRegion, int) {
	if p.opts.Reader == nil {
		return nil, len(dets)
	}
	var (
		out        []region.DetectedRegion
		unreadable int
	)
	for _, d := range dets {
		img, err := imaging.ExtractRegion(frame, d.Box, p.opts.Preprocess)
		if err != nil {
			unreadable++
			continue
		}
		res, err := p.opts.Reader.Read(img)
		if err != nil {
			unreadable++
			slog.Debug("ocr failed", "label", d.Label, "error", err)
			continue
		}

		r := region.DetectedRegion{
			Label:      d.Label,
			Box:        d.Box,
			RawText:    res.Text,
			Confidence: res.Confidence,
		}
		if p.opts.Highlight != nil {
			if crop, err := imaging.Crop(frame, d.Box); err == nil {
				r.Cues = imaging.BorderCues(crop, *p.opts.Highlight)
			}
		}
		out = append(out, r)
	}
	return out, unreadable
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.ID = s.id
	st.StartedAt = s.started
	st.Closed = s.closed
	st.Paused = s.paused
	st.Entities = s.tracker.Len()
	if s.log != nil {
		st.LogPath = s.log.Path()
	}
	return st
}

// Close ends the session: it clears the entity state, resets caster
// alternation and writes the session log. Closing twice is a no-op.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.tracker.Reset()
	s.selector.Reset()

	var err error
	if s.log != nil {
		err = s.log.Close()
	}
	slog.Info("session ended", "session", s.id, "lines", s.stats.Lines, "cycles", s.stats.Cycles)
	return err
}
