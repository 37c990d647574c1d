package media

import (
	"bytes"
	"errors"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/inventory-voice-lab/internal/logging"
)

const (
	jpegQuality      = 90
	minCaptureWidth  = 640
	minCaptureHeight = 480
	staleFrameAfter  = 200 * time.Millisecond
)

// ErrNoFrame is returned by Capture when no video frame has arrived yet.
var ErrNoFrame = errors.New("media: no frame cached")

// ErrCooldown is the sentinel matched by errors.Is for capture attempts made
// before the cooldown interval has elapsed.
var ErrCooldown = errors.New("media: capture cooldown")

// CooldownError reports how long the caller has to wait before the next
// capture can succeed. It unwraps to ErrCooldown.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("media: capture cooldown, %s remaining", e.Remaining.Round(time.Millisecond))
}

func (e *CooldownError) Unwrap() error { return ErrCooldown }

// FrameCache holds the most recent video frame of a connection. Update is
// last-writer-wins; video frames arrive in order from a single source, so no
// further ordering is needed. Capture encodes the cached frame to a JPEG
// under the capture directory, gated by a cooldown so a burst of voice
// commands cannot flood the disk.
type FrameCache struct {
	mu          sync.Mutex
	frame       *VideoFrame
	arrivedAt   time.Time
	lastCapture time.Time

	dir      string
	cooldown time.Duration
}

func NewFrameCache(dir string, cooldown time.Duration) *FrameCache {
	return &FrameCache{dir: dir, cooldown: cooldown}
}

// Update stores the frame and its arrival time, overwriting any previous one.
func (c *FrameCache) Update(f VideoFrame) {
	c.mu.Lock()
	c.frame = &f
	c.arrivedAt = time.Now()
	c.mu.Unlock()
}

// Capture encodes the cached frame to a JPEG named by a millisecond
// timestamp and returns the generated file name. The last-capture time is
// advanced only on success.
func (c *FrameCache) Capture() (string, error) {
	c.mu.Lock()
	frame := c.frame
	arrivedAt := c.arrivedAt
	last := c.lastCapture
	c.mu.Unlock()

	if frame == nil {
		return "", ErrNoFrame
	}
	if elapsed := time.Since(last); !last.IsZero() && elapsed < c.cooldown {
		return "", &CooldownError{Remaining: c.cooldown - elapsed}
	}

	if age := time.Since(arrivedAt); age > staleFrameAfter {
		logging.Warnw("capturing stale frame", "age_ms", age.Milliseconds())
	}
	bounds := frame.Image.Bounds()
	if bounds.Dx() < minCaptureWidth || bounds.Dy() < minCaptureHeight {
		logging.Warnw("capturing low resolution frame", "width", bounds.Dx(), "height", bounds.Dy())
	}

	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, frame.Image, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("encode capture: %w", err)
	}

	name := fmt.Sprintf("capture_%d.jpg", time.Now().UnixMilli())
	path := filepath.Join(c.dir, name)
	if err := writeFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write capture: %w", err)
	}

	c.mu.Lock()
	c.lastCapture = time.Now()
	c.mu.Unlock()

	logging.Infow("frame captured", "path", path, "width", bounds.Dx(), "height", bounds.Dy())
	return path, nil
}

// writeFileAtomic writes data to path by writing a tmp file in the same
// directory, fsyncing, and renaming into place.
func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
