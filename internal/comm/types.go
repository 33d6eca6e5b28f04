package comm

import "github.com/spartronics4915/camstream/internal/vision"

// State is the vision state reported to the robot, derived each frame from
// whether a target was located.
type State string

const (
	StateSearching State = "Searching"
	StateAcquired  State = "Acquired"
)

// Channel publishes vision results to the robot controller. Both calls are
// fire-and-forget: delivery is best effort and failures are never surfaced
// to the frame loop.
type Channel interface {
	PublishState(state State)
	PublishTarget(target *vision.Target)
}
