package game

// State is the full unmasked board at one turn: every army count and owner,
// regardless of fog. This is what episode recorders persist. The engine
// mutates its own state in place between turns, so anything handed to a
// recorder must be a Clone, never an alias.
type State struct {
	Turn   int          `json:"turn"`
	Armies [][]int      `json:"armies"`
	Owners [][]int      `json:"owners"`
	Kinds  [][]CellKind `json:"kinds"`
}

// Clone returns a deep copy sharing no memory with the receiver.
func (s *State) Clone() *State {
	return &State{
		Turn:   s.Turn,
		Armies: cloneInts(s.Armies),
		Owners: cloneInts(s.Owners),
		Kinds:  cloneKinds(s.Kinds),
	}
}

// Dimensions returns the board size as (rows, cols).
func (s *State) Dimensions() (int, int) {
	if len(s.Armies) == 0 {
		return 0, 0
	}
	return len(s.Armies), len(s.Armies[0])
}

// AgentData is the per-agent metadata attached to recordings and render
// output: the agent's id and its display color.
type AgentData struct {
	Name  string   `json:"name"`
	Color [3]uint8 `json:"color"`
}

func cloneInts(src [][]int) [][]int {
	out := make([][]int, len(src))
	for i, row := range src {
		out[i] = make([]int, len(row))
		copy(out[i], row)
	}
	return out
}

func cloneBools(src [][]bool) [][]bool {
	out := make([][]bool, len(src))
	for i, row := range src {
		out[i] = make([]bool, len(row))
		copy(out[i], row)
	}
	return out
}

func cloneKinds(src [][]CellKind) [][]CellKind {
	out := make([][]CellKind, len(src))
	for i, row := range src {
		out[i] = make([]CellKind, len(row))
		copy(out[i], row)
	}
	return out
}
