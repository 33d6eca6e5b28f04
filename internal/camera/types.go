package camera

import (
	"context"
	"image"
	"time"
)

// Config is the fixed capture configuration a session opens the camera with.
type Config struct {
	Width        int
	Height       int
	FrameRate    int
	AutoExposure bool
}

// Frame is one decoded capture. It is owned by the loop iteration that
// pulled it and must not be retained across iterations.
type Frame struct {
	Image      image.Image
	CapturedAt time.Time
}

// Handle is one open capture session. Ownership is exclusive; the handle is
// invalid after Close. Neither NextFrame nor NextJPEG imposes a timeout of
// its own, so a wedged driver blocks the caller until the context is
// cancelled or the device is closed. Known limitation.
type Handle interface {
	// NextFrame returns the next decoded frame for processing.
	NextFrame(ctx context.Context) (*Frame, error)
	// NextJPEG returns the next camera-encoded JPEG buffer verbatim.
	NextJPEG(ctx context.Context) ([]byte, error)
	// Close releases the device. Safe to call more than once; only the
	// first call releases.
	Close() error
}

// Source opens the camera. Implementations returned by NewService guarantee
// at most one open Handle process-wide: Open blocks until the previous
// handle has been released or ctx is cancelled.
type Source interface {
	Open(ctx context.Context, cfg Config) (Handle, error)
}
