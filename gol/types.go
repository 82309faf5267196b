// Definitions of types that are shared between workers

package gol

// Edge identifies which boundary row of the sender's band a message carries.
type Edge uint8

const (
	TopEdge    Edge = iota // First owned row, sent to the neighbour above
	BottomEdge             // Last owned row, sent to the neighbour below
)

func (e Edge) String() string {
	switch e {
	case TopEdge:
		return "top"
	case BottomEdge:
		return "bottom"
	default:
		return "unknown"
	}
}

// Message carries one halo row. (Generation, From, Edge) is the tag that pairs
// a send with the matching receive.
type Message struct {
	Generation int
	From       int     // Sending worker
	Edge       Edge    // Which boundary row of the sender
	Row        []State // Exactly one grid row
}

type tag struct {
	generation int
	from       int
	edge       Edge
}

func (m Message) tag() tag {
	return tag{generation: m.Generation, from: m.From, edge: m.Edge}
}

// Hello is exchanged once when two worker processes connect, so that both
// sides agree on the run before any halo row moves.
type Hello struct {
	Worker      int
	Workers     int
	Width       int
	Height      int
	Generations int
}
