package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arnab-maity007/Advanced-Valo/internal/detector"
	"github.com/arnab-maity007/Advanced-Valo/internal/imaging"
)

// DefaultPollInterval is the capture interval of the poller.
const DefaultPollInterval = 500 * time.Millisecond

// FrameSource yields frames to poll. Next returns io.EOF once the source
// is exhausted.
type FrameSource interface {
	Next(ctx context.Context) (Frame, error)
}

// DirectorySource replays the image files of a directory in name order.
type DirectorySource struct {
	mu    sync.Mutex
	paths []string
	next  int
	now   func() time.Time
}

// NewDirectorySource lists the frames in dir.
func NewDirectorySource(dir string) (*DirectorySource, error) {
	paths, err := imaging.ListFrames(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no frames found in %s", dir)
	}
	return &DirectorySource{paths: paths, now: time.Now}, nil
}

// Len returns the number of frames.
func (d *DirectorySource) Len() int {
	return len(d.paths)
}

// Next loads the next frame. Unreadable files are skipped with a warning.
func (d *DirectorySource) Next(ctx context.Context) (Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for d.next < len(d.paths) {
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}
		path := d.paths[d.next]
		d.next++
		img, err := imaging.LoadFrame(path)
		if err != nil {
			slog.Warn("skipping unreadable frame", "path", path, "error", err)
			continue
		}
		return Frame{Image: img, Timestamp: d.now(), Source: path}, nil
	}
	return Frame{}, io.EOF
}

// StaticSource serves a fixed list of in-memory frames.
type StaticSource struct {
	mu     sync.Mutex
	frames []image.Image
	next   int
}

// NewStaticSource returns a source over frames.
func NewStaticSource(frames ...image.Image) *StaticSource {
	return &StaticSource{frames: frames}
}

// Next returns the next frame stamped with the current time.
func (s *StaticSource) Next(ctx context.Context) (Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if s.next >= len(s.frames) {
		return Frame{}, io.EOF
	}
	f := Frame{Image: s.frames[s.next], Timestamp: time.Now(), Source: fmt.Sprintf("frame-%d", s.next)}
	s.next++
	return f, nil
}

// PollerStats are the poller counters.
type PollerStats struct {
	Cycles  int64 `json:"cycles"`
	Skipped int64 `json:"skipped"`
	Lines   int64 `json:"lines"`
	Errors  int64 `json:"errors"`
}

// Poller drives a session from a frame source at a fixed interval.
// Cycles never overlap: ticks that fire while a cycle is still running
// are dropped and counted as skipped.
type Poller struct {
	session  *Session
	source   FrameSource
	interval time.Duration

	cycles  atomic.Int64
	skipped atomic.Int64
	lines   atomic.Int64
	errors  atomic.Int64
}

// NewPoller returns a poller. A non-positive interval uses
// DefaultPollInterval.
func NewPoller(session *Session, source FrameSource, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{session: session, source: source, interval: interval}
}

// Run polls until the source is exhausted, which returns nil, or ctx is
// done, which returns ctx.Err(). A closed session or a detector that can
// no longer run ends the loop with that error.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		start := time.Now()
		err := p.cycle(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, ErrSessionClosed) || errors.Is(err, detector.ErrWorkerClosed) {
				return err
			}
			p.errors.Add(1)
			slog.Warn("poll cycle failed", "session", p.session.ID(), "error", err)
		}

		if elapsed := time.Since(start); elapsed >= p.interval {
			missed := int64(elapsed / p.interval)
			p.skipped.Add(missed)
			select {
			case <-ticker.C:
			default:
			}
			slog.Debug("poll cycle overran interval", "elapsed", elapsed, "skipped", missed)
		}
	}
}

func (p *Poller) cycle(ctx context.Context) error {
	frame, err := p.source.Next(ctx)
	if err != nil {
		return err
	}
	p.cycles.Add(1)
	lines, err := p.session.ProcessFrame(ctx, frame, nil)
	p.lines.Add(int64(len(lines)))
	return err
}

// Stats returns the poller counters.
func (p *Poller) Stats() PollerStats {
	return PollerStats{
		Cycles:  p.cycles.Load(),
		Skipped: p.skipped.Load(),
		Lines:   p.lines.Load(),
		Errors:  p.errors.Load(),
	}
}
