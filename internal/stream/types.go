package stream

import (
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/spartronics4915/camstream/internal/camera"
)

// Service is the HTTP-facing dispatcher: it classifies each request into a
// mode, runs the stream session for streaming requests, and serves the
// landing page for everything else.
type Service interface {
	http.Handler
}

// Kind is the closed set of things a request can resolve to. Parsed once at
// request time; raw path strings are never compared past ResolveMode.
type Kind int

const (
	// KindPage serves the static landing page.
	KindPage Kind = iota
	// KindDirect forwards camera-encoded JPEG frames untouched.
	KindDirect
	// KindAlgo routes frames through the detection engine.
	KindAlgo
)

// Mode is the resolved delivery mode for one request. Selector is only
// meaningful for KindAlgo.
type Mode struct {
	Kind     Kind
	Selector string
}

// ResolveMode classifies a request path. Paths ending in .mjpg or .mjpeg
// stream; the final segment's stem (before the first dot, case-sensitive)
// selects the mode: exactly "direct" streams raw camera output, anything
// else is passed through as the algorithm selector.
func ResolveMode(requestPath string) Mode {
	if !strings.HasSuffix(requestPath, ".mjpg") && !strings.HasSuffix(requestPath, ".mjpeg") {
		return Mode{Kind: KindPage}
	}
	stem := strings.SplitN(path.Base(requestPath), ".", 2)[0]
	if stem == "direct" {
		return Mode{Kind: KindDirect}
	}
	return Mode{Kind: KindAlgo, Selector: stem}
}

// Config carries the fixed per-deployment streaming parameters.
type Config struct {
	// Camera is the capture configuration every session opens with.
	Camera camera.Config
	// Quality is the JPEG re-encode quality for algorithm streams.
	Quality int
	// Pace caps the outbound frame rate of algorithm streams. Pacing is a
	// deliberate yield, not a correctness requirement.
	Pace time.Duration
}
