package stream

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/spartronics4915/camstream/internal/camera"
	"github.com/spartronics4915/camstream/internal/comm"
	"github.com/spartronics4915/camstream/internal/vision"
)

const boundary = "--jpgboundary"

// session is one client's stream from camera acquisition to teardown. All
// state is session-scoped; nothing here is shared across connections.
type session struct {
	handle  camera.Handle
	engine  vision.Engine
	comm    comm.Channel
	quality int
	pace    time.Duration
	encode  func(img image.Image, quality int) ([]byte, error)
	log     *log.Entry
}

// streamDirect forwards camera-encoded JPEG buffers verbatim, one multipart
// part per frame, until capture ends or the client goes away. Both are
// normal completion, never escalated.
func (s *session) streamDirect(ctx context.Context, w io.Writer) {
	s.log.Info("direct streaming")
	for {
		jpg, err := s.handle.NextJPEG(ctx)
		if err != nil {
			s.log.WithError(err).Info("capture ended")
			return
		}
		if err := writePart(w, jpg); err != nil {
			s.log.Info("client disconnected")
			return
		}
		framesStreamed.WithLabelValues("direct").Inc()
	}
}

// streamAlgo runs the detection loop: pull, process, publish, encode, write,
// pace. A failed encode skips the iteration; every other failure ends the
// session. The loop holds no timeout on the pull or the detection call, so a
// wedged collaborator stalls this session until the client disconnects.
func (s *session) streamAlgo(ctx context.Context, w io.Writer, selector string) {
	s.log.Infof("%s algo streaming", selector)
	for {
		frame, err := s.handle.NextFrame(ctx)
		if err != nil {
			sessionErrors.WithLabelValues("pull").Inc()
			s.log.WithError(err).Error("frame pull failed, ending stream")
			return
		}

		target, annotated, err := s.engine.Process(frame, selector)
		if err != nil {
			// The algorithm may be in an undefined state now; never retry.
			sessionErrors.WithLabelValues("process").Inc()
			s.log.WithError(err).WithField("selector", selector).
				Error("detection failed, ending stream")
			return
		}

		if s.comm != nil {
			if target != nil {
				s.comm.PublishState(comm.StateAcquired)
				s.comm.PublishTarget(target)
			} else {
				s.comm.PublishState(comm.StateSearching)
			}
		}

		jpg, err := s.encode(annotated, s.quality)
		if err != nil || len(jpg) == 0 {
			encodeFailures.Inc()
			s.log.WithError(err).Debug("encode failed, skipping frame")
			continue
		}

		if err := writePart(w, jpg); err != nil {
			s.log.Info("client disconnected")
			return
		}
		framesStreamed.WithLabelValues("algo").Inc()

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.pace):
		}
	}
}

// writePart emits one multipart part with the bare-LF framing MJPEG viewers
// accept, then flushes so the frame is visible without waiting for the next
// one.
func writePart(w io.Writer, jpg []byte) error {
	if _, err := fmt.Fprintf(w, "%s\nContent-type: image/jpeg\nContent-length: %d\n\n", boundary, len(jpg)); err != nil {
		return err
	}
	if _, err := w.Write(jpg); err != nil {
		return err
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
