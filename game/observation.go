package game

// Observation is one agent's fogged view of the board for one turn. The
// engine produces it; everything downstream treats it as immutable.
//
// The grid-shaped fields all share the board's dimensions. Cells the agent
// cannot see carry zero armies and set FogCells; structures whose kind (but
// not contents) is visible through fog set StructuresInFog.
type Observation struct {
	Armies          [][]int  `json:"armies"`
	Generals        [][]bool `json:"generals"`
	Cities          [][]bool `json:"cities"`
	Mountains       [][]bool `json:"mountains"`
	NeutralCells    [][]bool `json:"neutral_cells"`
	OwnedCells      [][]bool `json:"owned_cells"`
	OpponentCells   [][]bool `json:"opponent_cells"`
	FogCells        [][]bool `json:"fog_cells"`
	StructuresInFog [][]bool `json:"structures_in_fog"`

	OwnedLandCount    int `json:"owned_land_count"`
	OwnedArmyCount    int `json:"owned_army_count"`
	OpponentLandCount int `json:"opponent_land_count"`
	OpponentArmyCount int `json:"opponent_army_count"`

	// Timestep is the engine's turn counter at the time of observation.
	Timestep int `json:"timestep"`
	// Priority reports whether this agent's moves win ties this turn. Its
	// meaning is owned by the engine; it is carried through untouched.
	Priority bool `json:"priority"`
}

// Dimensions returns the observed board size as (rows, cols).
func (o *Observation) Dimensions() (int, int) {
	if len(o.Armies) == 0 {
		return 0, 0
	}
	return len(o.Armies), len(o.Armies[0])
}

// Clone returns a deep copy sharing no memory with the receiver.
func (o *Observation) Clone() *Observation {
	out := *o
	out.Armies = cloneInts(o.Armies)
	out.Generals = cloneBools(o.Generals)
	out.Cities = cloneBools(o.Cities)
	out.Mountains = cloneBools(o.Mountains)
	out.NeutralCells = cloneBools(o.NeutralCells)
	out.OwnedCells = cloneBools(o.OwnedCells)
	out.OpponentCells = cloneBools(o.OpponentCells)
	out.FogCells = cloneBools(o.FogCells)
	out.StructuresInFog = cloneBools(o.StructuresInFog)
	return &out
}
