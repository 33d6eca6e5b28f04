package stream

import (
	"net/http"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/spartronics4915/camstream/internal/camera"
	"github.com/spartronics4915/camstream/internal/comm"
	"github.com/spartronics4915/camstream/internal/vision"
)

const mainPage = `<html><head>
<meta content="text/html;charset=utf-8" http-equiv="Content-Type">
<meta content="utf-8" http-equiv="encoding">
</head><body>
<img src="/cam.mjpg"/>
</body></html>`

type service struct {
	source camera.Source
	engine vision.Engine
	comm   comm.Channel
	cfg    Config
}

// NewService builds the dispatcher. robot may be nil, in which case no
// vision state is ever published.
func NewService(source camera.Source, engine vision.Engine, robot comm.Channel, cfg Config) Service {
	return &service{source: source, engine: engine, comm: robot, cfg: cfg}
}

func (s *service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mode := ResolveMode(r.URL.Path)
	if mode.Kind == KindPage {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(mainPage))
		return
	}

	logger := log.WithFields(log.Fields{
		"session": uuid.NewString(),
		"remote":  r.RemoteAddr,
		"path":    r.URL.Path,
	})

	// Headers go out before acquisition: a failed open leaves the response
	// at headers-only, matching what streaming clients expect.
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+boundary)
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	ctx := r.Context()
	handle, err := s.source.Open(ctx, s.cfg.Camera)
	if err != nil {
		sessionErrors.WithLabelValues("open").Inc()
		logger.WithError(err).Error("camera acquisition failed")
		return
	}
	defer func() {
		// Release runs on every exit path and must never propagate.
		if err := handle.Close(); err != nil {
			logger.WithError(err).Warn("camera release failed")
		}
		logger.Info("done streaming")
	}()

	sessionsActive.Inc()
	defer sessionsActive.Dec()

	sess := &session{
		handle:  handle,
		engine:  s.engine,
		comm:    s.comm,
		quality: s.cfg.Quality,
		pace:    s.cfg.Pace,
		encode:  encodeJPEG,
		log:     logger,
	}

	switch mode.Kind {
	case KindDirect:
		sess.streamDirect(ctx, w)
	case KindAlgo:
		sess.streamAlgo(ctx, w, mode.Selector)
	}
}
