package comm

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/spartronics4915/camstream/internal/vision"
)

const redialInterval = 2 * time.Second

type message struct {
	Type   string         `json:"type"`
	State  State          `json:"state,omitempty"`
	Target *vision.Target `json:"target,omitempty"`
}

type service struct {
	mu       sync.Mutex
	url      string
	conn     *websocket.Conn
	lastDial time.Time
}

// NewService returns a channel publishing JSON messages over a websocket to
// the vision endpoint on host. The connection is dialled lazily on first
// publish and redialled (throttled) after any write failure.
func NewService(host string) Channel {
	return &service{url: fmt.Sprintf("ws://%s:5800/vision", host)}
}

func (s *service) PublishState(state State) {
	s.publish(message{Type: "state", State: state})
}

func (s *service) PublishTarget(target *vision.Target) {
	s.publish(message{Type: "target", Target: target})
}

func (s *service) publish(msg message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		if time.Since(s.lastDial) < redialInterval {
			return
		}
		s.lastDial = time.Now()
		conn, _, err := websocket.DefaultDialer.Dial(s.url, nil)
		if err != nil {
			log.WithError(err).WithField("url", s.url).Debug("robot link unavailable")
			return
		}
		log.WithField("url", s.url).Info("robot link established")
		s.conn = conn
	}

	if err := s.conn.WriteJSON(msg); err != nil {
		log.WithError(err).Debug("robot link write failed, dropping connection")
		_ = s.conn.Close()
		s.conn = nil
	}
}
