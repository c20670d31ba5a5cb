package tracking

// Position is the placement of the tracked image in percent of its container.
type Position struct {
	Top  float64 `json:"top"`
	Left float64 `json:"left"`
}

// State is the current position together with the one it replaced.
type State struct {
	Position Position `json:"position"`
	Previous Position `json:"previous"`
}

// NewState starts both positions at the same offset.
func NewState(initial float64) State {
	p := Position{Top: initial, Left: initial}
	return State{Position: p, Previous: p}
}

// Mirrored reports apparent leftward motion.
func (s State) Mirrored() bool {
	return s.Position.Left < s.Previous.Left
}

// advance moves to next, keeping the current position as previous.
func (s State) advance(next Position) State {
	return State{Position: next, Previous: s.Position}
}
