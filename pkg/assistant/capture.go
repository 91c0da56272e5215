package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Svayampatel/Voice-ai/pkg/audioio"
)

// CaptureController owns the recording lifecycle. Between Start and Stop
// it drains the source's chunk stream into a buffer; Stop finalizes the
// buffer into one PCM payload for transcription.
type CaptureController struct {
	source audioio.Source
	logger *slog.Logger

	mu        sync.Mutex
	capturing bool
	buf       []byte
	drained   chan struct{}
}

// NewCaptureController wraps an audio source.
func NewCaptureController(source audioio.Source, logger *slog.Logger) *CaptureController {
	if logger == nil {
		logger = slog.Default()
	}
	return &CaptureController{
		source: source,
		logger: logger.With("component", "assistant.capture"),
	}
}

// Start acquires the input stream and begins buffering chunks. Errors are
// classified so the status surface can distinguish permission problems
// from missing hardware.
func (c *CaptureController) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.capturing {
		c.mu.Unlock()
		return audioio.ErrBusy
	}
	c.capturing = true
	c.buf = nil
	c.drained = make(chan struct{})
	drained := c.drained
	c.mu.Unlock()

	if err := c.source.Start(ctx); err != nil {
		c.mu.Lock()
		c.capturing = false
		close(drained)
		c.mu.Unlock()
		return fmt.Errorf("start capture: %w", err)
	}

	go c.drain(drained)

	c.logger.Debug("capture started", "source", c.source.Name())
	return nil
}

// drain buffers chunks until the source's stream channel closes.
func (c *CaptureController) drain(drained chan struct{}) {
	defer close(drained)
	for chunk := range c.source.Stream() {
		data := chunk.Bytes()
		c.mu.Lock()
		c.buf = append(c.buf, data...)
		c.mu.Unlock()
	}
}

// Stop releases the input stream and returns the buffered payload.
// Stopping while not capturing returns ErrNotCapturing; callers treat it
// as a no-op.
func (c *CaptureController) Stop() ([]byte, error) {
	c.mu.Lock()
	if !c.capturing {
		c.mu.Unlock()
		return nil, ErrNotCapturing
	}
	c.capturing = false
	drained := c.drained
	c.mu.Unlock()

	if err := c.source.Stop(); err != nil {
		c.logger.Warn("source stop failed", "error", err)
	}

	// The source closes its stream channel on Stop; wait for the drain
	// goroutine to flush the tail chunks before snapshotting.
	<-drained

	c.mu.Lock()
	payload := c.buf
	c.buf = nil
	c.mu.Unlock()

	c.logger.Debug("capture stopped", "bytes", len(payload))
	return payload, nil
}

// Capturing reports whether a recording is in progress.
func (c *CaptureController) Capturing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capturing
}

// ClassifyCaptureError maps a capture failure to a status code.
func ClassifyCaptureError(err error) string {
	switch {
	case errors.Is(err, audioio.ErrPermissionDenied):
		return StatusCaptureDenied
	case errors.Is(err, audioio.ErrNoDevice):
		return StatusCaptureNoDevice
	default:
		return StatusCaptureFailed
	}
}
