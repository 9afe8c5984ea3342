package offload

// Lane identifies one of the Registry's execution lanes.
type Lane int

const (
	LaneCPU Lane = iota
	LaneIO
	LaneBackground
)

func (l Lane) String() string {
	switch l {
	case LaneCPU:
		return "cpu"
	case LaneIO:
		return "io"
	case LaneBackground:
		return "background"
	default:
		return "unknown"
	}
}

// Classifier holds the Kind to Lane routing policy in one place, so the
// policy can be tested in isolation and extended (a new Kind routed to an
// existing lane) without touching the dispatcher.
//
// Classifier is not safe for concurrent mutation; configure routes before
// handing it to New.
type Classifier struct {
	routes map[Kind]Lane
}

// NewClassifier returns a Classifier with the default routing:
// IOBound to the I/O lane, CPUBound to the CPU lane, Background to the
// background lane.
func NewClassifier() *Classifier {
	return &Classifier{
		routes: map[Kind]Lane{
			IOBound:    LaneIO,
			CPUBound:   LaneCPU,
			Background: LaneBackground,
		},
	}
}

// Route points kind at lane, overriding or extending the default policy.
// It returns the Classifier for chaining.
func (c *Classifier) Route(kind Kind, lane Lane) *Classifier {
	c.routes[kind] = lane
	return c
}

// Classify resolves the lane for kind. The second return value is false
// when no route exists for kind.
func (c *Classifier) Classify(kind Kind) (Lane, bool) {
	lane, ok := c.routes[kind]
	return lane, ok
}
