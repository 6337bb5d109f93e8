package drawing

type State int

const (
	Idle State = iota
	Drawing
)

func (s State) String() string {
	if s == Drawing {
		return "drawing"
	}
	return "idle"
}

// Phase is one step in the lifecycle of a stroke.
type Phase int

const (
	Start Phase = iota
	Move
	Finish
	Clear
)

func (p Phase) String() string {
	switch p {
	case Start:
		return "start"
	case Move:
		return "move"
	case Finish:
		return "finish"
	case Clear:
		return "clear"
	}
	return "unknown"
}

// Next returns the state after p and whether p has any effect from s.
// Move is the only phase gated on the current state.
func (s State) Next(p Phase) (State, bool) {
	switch p {
	case Start:
		return Drawing, true
	case Move:
		return s, s == Drawing
	case Finish, Clear:
		return Idle, true
	}
	return s, false
}
