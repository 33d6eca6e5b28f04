package stream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name:      "sessions_active",
		Namespace: "camstream",
		Help:      "number of stream sessions currently running",
	})
	framesStreamed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name:      "frames_streamed",
		Namespace: "camstream",
		Help:      "number of multipart frames written, by delivery mode",
	}, []string{"mode"})
	encodeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name:      "encode_failures",
		Namespace: "camstream",
		Help:      "number of frames skipped because JPEG encoding failed",
	})
	sessionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name:      "session_errors",
		Namespace: "camstream",
		Help:      "number of sessions ended by an error, by pipeline stage",
	}, []string{"stage"})
)
