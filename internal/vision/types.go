package vision

import (
	"image"

	"github.com/spartronics4915/camstream/internal/camera"
)

// Target is a located vision target in frame coordinates. A nil *Target from
// Process means "nothing found this frame"; it is not an error.
type Target struct {
	X    int `json:"x"`
	Y    int `json:"y"`
	Area int `json:"area"`
}

// Engine runs the detection/annotation routine selected by name. Process is
// a pure function of the frame: it returns the located target (or nil) and
// an annotated copy of the image for streaming. Any error leaves the engine
// in an undefined state for this session and must end the stream; callers
// never retry. Process imposes no timeout of its own.
type Engine interface {
	Process(frame *camera.Frame, selector string) (*Target, image.Image, error)
}
