package detector

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/arnab-maity007/Advanced-Valo/internal/region"
)

// ErrWorkerClosed is returned once the worker is closed or has failed
// more consecutive restarts than allowed.
var ErrWorkerClosed = errors.New("detector worker closed")

// ErrWorkerReset is returned when an exchange broke the connection, on a
// timeout, a cancelled context or an out of sequence reply. The next
// Detect restarts the worker process if it was started by StartWorker.
var ErrWorkerReset = errors.New("detector worker connection reset")

// DefaultMaxRestarts bounds the restarts attempted without a successful
// frame in between.
const DefaultMaxRestarts = 3

// maxMessageSize bounds a single framed message.
const maxMessageSize = 64 << 20

// workerRequest is one frame sent to the worker process.
type workerRequest struct {
	Seq    uint64 `msgpack:"seq"`
	Width  int    `msgpack:"width"`
	Height int    `msgpack:"height"`
	Format string `msgpack:"format"`
	Frame  []byte `msgpack:"frame"`
}

// workerResponse is the worker's answer for one frame.
type workerResponse struct {
	Seq        uint64             `msgpack:"seq"`
	Detections []region.Detection `msgpack:"detections"`
	Error      string             `msgpack:"error"`
}

// workerConn is one connection to a worker, and the process behind it
// when there is one.
type workerConn struct {
	r    io.Reader
	w    io.WriteCloser
	cmd  *exec.Cmd
	done chan struct{}
}

// close shuts the pipes. With graceful set the process gets two seconds
// to exit on its own before it is killed.
func (c *workerConn) close(graceful bool) {
	_ = c.w.Close()
	if rc, ok := c.r.(io.Closer); ok {
		_ = rc.Close()
	}
	if c.cmd == nil || c.cmd.Process == nil {
		return
	}
	if graceful {
		select {
		case <-c.done:
			return
		case <-time.After(2 * time.Second):
			slog.Warn("detector worker did not exit, killing it")
		}
	}
	_ = c.cmd.Process.Kill()
}

// Worker talks to an external detector (typically a Python YOLO process)
// with 4-byte big-endian length-prefixed msgpack messages: one request per
// frame, one response per request.
type Worker struct {
	mu          sync.Mutex
	conn        *workerConn
	dial        func() (*workerConn, error)
	timeout     time.Duration
	maxRestarts int
	failures    int
	seq         uint64
	closed      bool
}

// NewWorkerConn wraps an established connection to a worker. The
// connection is not restarted once it breaks.
func NewWorkerConn(r io.Reader, w io.WriteCloser, timeout time.Duration) *Worker {
	return &Worker{conn: &workerConn{r: r, w: w}, timeout: workerTimeout(timeout)}
}

func workerTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return 5 * time.Second
	}
	return d
}

// StartWorker spawns command and connects to it over stdin/stdout. The
// process's stderr is forwarded to the log. A worker whose connection
// breaks is respawned on the next Detect, up to DefaultMaxRestarts times
// in a row.
func StartWorker(ctx context.Context, command []string, timeout time.Duration) (*Worker, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("worker command is empty")
	}
	dial := func() (*workerConn, error) {
		return spawnWorker(ctx, command)
	}
	conn, err := dial()
	if err != nil {
		return nil, err
	}
	return &Worker{
		conn:        conn,
		dial:        dial,
		timeout:     workerTimeout(timeout),
		maxRestarts: DefaultMaxRestarts,
	}, nil
}

func spawnWorker(ctx context.Context, command []string) (*workerConn, error) {
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open worker stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open worker stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start detector worker: %w", err)
	}

	conn := &workerConn{r: stdout, w: stdin, cmd: cmd, done: make(chan struct{})}
	go logStderr(stderr)
	go func() {
		defer close(conn.done)
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			slog.Error("detector worker exited", "pid", cmd.Process.Pid, "error", err)
		}
	}()

	slog.Info("detector worker started", "command", strings.Join(command, " "), "pid", cmd.Process.Pid)
	return conn, nil
}

// Detect sends frame to the worker and waits for its detections.
func (w *Worker) Detect(ctx context.Context, frame image.Image) ([]region.Detection, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, frame, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrWorkerClosed
	}
	if w.conn == nil {
		if err := w.restartLocked(); err != nil {
			return nil, err
		}
	}
	conn := w.conn

	w.seq++
	req := workerRequest{
		Seq:    w.seq,
		Width:  frame.Bounds().Dx(),
		Height: frame.Bounds().Dy(),
		Format: "jpeg",
		Frame:  buf.Bytes(),
	}

	type result struct {
		resp workerResponse
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		if err := writeMessage(conn.w, req); err != nil {
			ch <- result{err: err}
			return
		}
		var resp workerResponse
		err := readMessage(conn.r, &resp)
		ch <- result{resp: resp, err: err}
	}()

	timer := time.NewTimer(w.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.err != nil {
			w.resetLocked()
			return nil, fmt.Errorf("%w: %v", ErrWorkerReset, res.err)
		}
		if res.resp.Seq != req.Seq {
			w.resetLocked()
			return nil, fmt.Errorf("%w: response for frame %d, want %d", ErrWorkerReset, res.resp.Seq, req.Seq)
		}
		w.failures = 0
		if res.resp.Error != "" {
			return nil, fmt.Errorf("detector worker: %s", res.resp.Error)
		}
		return AssignIndices(res.resp.Detections), nil
	case <-timer.C:
		w.resetLocked()
		return nil, fmt.Errorf("%w: no response within %v", ErrWorkerReset, w.timeout)
	case <-ctx.Done():
		// the in-flight exchange leaves the stream unusable
		w.resetLocked()
		return nil, ctx.Err()
	}
}

// restartLocked reconnects a broken worker, or closes it for good when it
// cannot be restarted or has used up its restarts.
func (w *Worker) restartLocked() error {
	if w.dial == nil || w.failures >= w.maxRestarts {
		w.closed = true
		slog.Error("detector worker given up", "restarts", w.failures)
		return ErrWorkerClosed
	}
	w.failures++
	slog.Warn("restarting detector worker", "attempt", w.failures, "max", w.maxRestarts)
	conn, err := w.dial()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWorkerReset, err)
	}
	w.conn = conn
	return nil
}

func (w *Worker) resetLocked() {
	if w.conn != nil {
		w.conn.close(false)
		w.conn = nil
	}
}

// Close closes the connection and stops the worker process.
func (w *Worker) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	if w.conn != nil {
		w.conn.close(true)
		w.conn = nil
	}
	return nil
}

func writeMessage(w io.Writer, v any) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal msgpack message: %w", err)
	}
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(data)))
	if _, err := w.Write(prefix[:]); err != nil {
		return fmt.Errorf("failed to write length prefix: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write msgpack data: %w", err)
	}
	return nil
}

func readMessage(r io.Reader, v any) error {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return fmt.Errorf("failed to read length prefix: %w", err)
	}
	n := binary.BigEndian.Uint32(prefix[:])
	if n > maxMessageSize {
		return fmt.Errorf("message of %d bytes exceeds limit", n)
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return fmt.Errorf("failed to read msgpack data: %w", err)
	}
	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal msgpack message: %w", err)
	}
	return nil
}

// logStderr forwards worker log lines, mapping Python log levels to slog.
func logStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.Contains(line, "[ERROR]") || strings.Contains(line, "[CRITICAL]"):
			slog.Error("detector worker", "line", line)
		case strings.Contains(line, "[WARNING]") || strings.Contains(line, "[WARN]"):
			slog.Warn("detector worker", "line", line)
		default:
			slog.Debug("detector worker", "line", line)
		}
	}
}
