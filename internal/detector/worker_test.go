package detector

import (
	"context"
	"errors"
	"image"
	"io"
	"testing"
	"time"

	"github.com/arnab-maity007/Advanced-Valo/internal/region"
)

// fakeConn serves requests on a pipe pair with respond. A nil response
// leaves the request unanswered.
func fakeConn(respond func(workerRequest) *workerResponse) *workerConn {
	reqR, reqW := io.Pipe()
	respR, respW := io.Pipe()

	go func() {
		defer respW.Close()
		defer reqR.Close()
		for {
			var req workerRequest
			if err := readMessage(reqR, &req); err != nil {
				return
			}
			resp := respond(req)
			if resp == nil {
				continue
			}
			if err := writeMessage(respW, resp); err != nil {
				return
			}
		}
	}()
	return &workerConn{r: respR, w: reqW}
}

func fakeWorker(t *testing.T, timeout time.Duration, respond func(workerRequest) *workerResponse) *Worker {
	t.Helper()
	c := fakeConn(respond)
	w := NewWorkerConn(c.r, c.w, timeout)
	t.Cleanup(func() { w.Close() })
	return w
}

func echo(req workerRequest) *workerResponse {
	return &workerResponse{Seq: req.Seq}
}

func silent(workerRequest) *workerResponse {
	return nil
}

func TestWorker_Detect(t *testing.T) {
	var got workerRequest
	w := fakeWorker(t, time.Second, func(req workerRequest) *workerResponse {
		got = req
		return &workerResponse{
			Seq: req.Seq,
			Detections: []region.Detection{
				{Label: "kill-feed-line", Box: region.BoundingBox{X: 1, Y: 2, W: 3, H: 4}, Confidence: 0.9},
				{Label: "buy-slot", Box: region.BoundingBox{X: 10, Y: 0, W: 5, H: 5}, Confidence: 0.8},
			},
		}
	})

	frame := image.NewRGBA(image.Rect(0, 0, 32, 16))
	dets, err := w.Detect(context.Background(), frame)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if got.Width != 32 || got.Height != 16 || got.Format != "jpeg" || len(got.Frame) == 0 {
		t.Errorf("request: %+v", got)
	}
	if len(dets) != 2 {
		t.Fatalf("got %d detections", len(dets))
	}
	if dets[0].Box != (region.BoundingBox{X: 1, Y: 2, W: 3, H: 4}) || dets[0].Confidence != 0.9 {
		t.Errorf("detection 0: %+v", dets[0])
	}
	if dets[1].Label != "buy-slot-1" {
		t.Errorf("unindexed slot not numbered: %s", dets[1].Label)
	}

	// sequence numbers advance per frame
	if _, err := w.Detect(context.Background(), frame); err != nil {
		t.Fatal(err)
	}
	if got.Seq != 2 {
		t.Errorf("seq: got %d, want 2", got.Seq)
	}
}

func TestWorker_ErrorResponse(t *testing.T) {
	w := fakeWorker(t, time.Second, func(req workerRequest) *workerResponse {
		return &workerResponse{Seq: req.Seq, Error: "model not loaded"}
	})
	_, err := w.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 4, 4)))
	if err == nil || errors.Is(err, ErrWorkerClosed) || errors.Is(err, ErrWorkerReset) {
		t.Fatalf("got %v, want a worker error", err)
	}
	// an error reply keeps the connection usable
	if _, err := w.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 4, 4))); errors.Is(err, ErrWorkerClosed) || errors.Is(err, ErrWorkerReset) {
		t.Error("connection closed after an error reply")
	}
}

func TestWorker_Timeout(t *testing.T) {
	w := fakeWorker(t, 50*time.Millisecond, silent)

	_, err := w.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 4, 4)))
	if !errors.Is(err, ErrWorkerReset) {
		t.Fatalf("got %v, want ErrWorkerReset", err)
	}
	// a plain connection cannot be restarted
	if _, err := w.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 4, 4))); !errors.Is(err, ErrWorkerClosed) {
		t.Errorf("after timeout: got %v, want ErrWorkerClosed", err)
	}
}

func TestWorker_SeqMismatch(t *testing.T) {
	w := fakeWorker(t, time.Second, func(req workerRequest) *workerResponse {
		return &workerResponse{Seq: req.Seq + 7}
	})
	_, err := w.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 4, 4)))
	if !errors.Is(err, ErrWorkerReset) {
		t.Errorf("got %v, want ErrWorkerReset", err)
	}
}

func TestWorker_RestartsAfterTimeout(t *testing.T) {
	dials := 0
	w := &Worker{
		conn:        fakeConn(silent), // still loading its model
		timeout:     50 * time.Millisecond,
		maxRestarts: 2,
		dial: func() (*workerConn, error) {
			dials++
			return fakeConn(echo), nil
		},
	}
	t.Cleanup(func() { w.Close() })
	frame := image.NewRGBA(image.Rect(0, 0, 4, 4))

	if _, err := w.Detect(context.Background(), frame); !errors.Is(err, ErrWorkerReset) {
		t.Fatalf("first frame: got %v, want ErrWorkerReset", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := w.Detect(context.Background(), frame); err != nil {
			t.Fatalf("frame %d after restart: %v", i, err)
		}
	}
	if dials != 1 {
		t.Errorf("restarts: got %d, want 1", dials)
	}
	if w.failures != 0 {
		t.Errorf("failures not reset after a good frame: %d", w.failures)
	}
}

func TestWorker_GivesUpAfterMaxRestarts(t *testing.T) {
	dials := 0
	w := &Worker{
		conn:        fakeConn(silent),
		timeout:     20 * time.Millisecond,
		maxRestarts: 2,
		dial: func() (*workerConn, error) {
			dials++
			return fakeConn(silent), nil
		},
	}
	t.Cleanup(func() { w.Close() })
	frame := image.NewRGBA(image.Rect(0, 0, 4, 4))

	for i := 0; i < 3; i++ {
		if _, err := w.Detect(context.Background(), frame); !errors.Is(err, ErrWorkerReset) {
			t.Fatalf("attempt %d: got %v, want ErrWorkerReset", i, err)
		}
	}
	if _, err := w.Detect(context.Background(), frame); !errors.Is(err, ErrWorkerClosed) {
		t.Fatalf("after %d restarts: got %v, want ErrWorkerClosed", dials, err)
	}
	if dials != 2 {
		t.Errorf("restarts: got %d, want 2", dials)
	}
	if _, err := w.Detect(context.Background(), frame); !errors.Is(err, ErrWorkerClosed) {
		t.Errorf("closed worker should stay closed, got %v", err)
	}
}

func TestWorker_RestartDialFails(t *testing.T) {
	w := &Worker{
		conn:        fakeConn(silent),
		timeout:     20 * time.Millisecond,
		maxRestarts: 1,
		dial: func() (*workerConn, error) {
			return nil, errors.New("python not found")
		},
	}
	t.Cleanup(func() { w.Close() })
	frame := image.NewRGBA(image.Rect(0, 0, 4, 4))

	w.Detect(context.Background(), frame)
	if _, err := w.Detect(context.Background(), frame); !errors.Is(err, ErrWorkerReset) {
		t.Fatalf("failed restart: got %v, want ErrWorkerReset", err)
	}
	if _, err := w.Detect(context.Background(), frame); !errors.Is(err, ErrWorkerClosed) {
		t.Errorf("got %v, want ErrWorkerClosed", err)
	}
}

func TestWorker_Closed(t *testing.T) {
	w := fakeWorker(t, time.Second, echo)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, err := w.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 4, 4))); !errors.Is(err, ErrWorkerClosed) {
		t.Errorf("got %v, want ErrWorkerClosed", err)
	}
}

func TestStartWorker_EmptyCommand(t *testing.T) {
	if _, err := StartWorker(context.Background(), nil, time.Second); err == nil {
		t.Error("empty command should fail")
	}
}
