package camera

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"io"
	"os/exec"
	"time"

	log "github.com/sirupsen/logrus"
)

const readBufferSize = 1 << 20

// V4L2Driver captures from a video4linux device by running an ffmpeg child
// process that emits a continuous MJPEG stream on stdout. Quality is the
// driver-side JPEG quality (1-100) applied to the camera-encoded frames
// consumed by direct streaming.
type V4L2Driver struct {
	DevicePath string
	Quality    int
}

// NewV4L2Driver returns an unguarded driver for devicePath. Wrap it with
// NewService before handing it to the dispatcher.
func NewV4L2Driver(devicePath string, quality int) *V4L2Driver {
	return &V4L2Driver{DevicePath: devicePath, Quality: quality}
}

func (d *V4L2Driver) Open(ctx context.Context, cfg Config) (Handle, error) {
	if !cfg.AutoExposure {
		// Best effort: not every UVC driver exposes this control.
		out, err := exec.CommandContext(ctx, "v4l2-ctl",
			"--device", d.DevicePath,
			"--set-ctrl", "auto_exposure=1").CombinedOutput()
		if err != nil {
			log.WithError(err).WithField("output", string(out)).
				Debug("could not disable auto exposure")
		}
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-f", "v4l2",
		"-framerate", fmt.Sprintf("%d", cfg.FrameRate),
		"-video_size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"-i", d.DevicePath,
		"-c:v", "mjpeg",
		"-q:v", fmt.Sprintf("%d", qscale(d.Quality)),
		"-f", "image2pipe",
		"-",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("connecting capture pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting capture process for %s: %w", d.DevicePath, err)
	}

	return &v4l2Handle{
		cmd:    cmd,
		stdout: stdout,
		reader: bufio.NewReaderSize(stdout, readBufferSize),
	}, nil
}

// qscale maps a 1-100 JPEG quality to ffmpeg's inverted 2-31 qscale range.
func qscale(quality int) int {
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}
	return 2 + (100-quality)*29/99
}

type v4l2Handle struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	reader *bufio.Reader
}

// NextJPEG scans the MJPEG stream for the next SOI..EOI span. ffmpeg's
// encoder never embeds thumbnails, so a bare EOI marker scan is sufficient.
func (h *v4l2Handle) NextJPEG(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Seek the start-of-image marker, discarding any partial frame.
	prev := byte(0)
	for {
		b, err := h.reader.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("reading capture stream: %w", err)
		}
		if prev == 0xff && b == 0xd8 {
			break
		}
		prev = b
	}

	buf := bytes.NewBuffer(make([]byte, 0, 64<<10))
	buf.Write([]byte{0xff, 0xd8})
	prev = 0
	for {
		b, err := h.reader.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("reading capture stream: %w", err)
		}
		buf.WriteByte(b)
		if prev == 0xff && b == 0xd9 {
			return buf.Bytes(), nil
		}
		prev = b
	}
}

func (h *v4l2Handle) NextFrame(ctx context.Context) (*Frame, error) {
	raw, err := h.NextJPEG(ctx)
	if err != nil {
		return nil, err
	}
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decoding captured frame: %w", err)
	}
	return &Frame{Image: img, CapturedAt: time.Now()}, nil
}

func (h *v4l2Handle) Close() error {
	_ = h.stdout.Close()
	if h.cmd.Process != nil {
		_ = h.cmd.Process.Kill()
	}
	if err := h.cmd.Wait(); err != nil {
		// Kill makes a non-zero exit the normal case.
		log.WithError(err).Debug("capture process exited")
	}
	return nil
}
