package env

// Observation bounds shared by every grid the environment can produce.
const (
	MaxArmy     = 100_000
	MaxTimestep = 100_000
)

// ObservationSpace bounds one agent's observation: every grid-shaped
// field is Rows x Cols, armies stay below MaxArmy, land counts below
// MaxLand, the timestep below MaxTimestep.
type ObservationSpace struct {
	Rows        int
	Cols        int
	MaxArmy     int
	MaxLand     int
	MaxTimestep int
}

// ActionSpace describes the five discrete action fields as their
// cardinalities: pass, source row, source col, direction, split.
type ActionSpace struct {
	Nvec []int
}

// spaceDims is fixed at construction: padded factories report their
// maximum dimensions so observation shapes stay constant across episodes.
func (e *Env) spaceDims() (int, int) {
	if e.factory.PaddingEnabled() {
		return e.factory.MaxGridDimensions()
	}
	return e.factory.GridDimensions()
}

// ObservationSpace returns the observation descriptor for one agent,
// memoized per environment instance. Agents outside the configured set
// fail with UnknownAgentError.
func (e *Env) ObservationSpace(agent string) (ObservationSpace, error) {
	if space, ok := e.obsSpaces[agent]; ok {
		return space, nil
	}
	if !e.knownAgent(agent) {
		return ObservationSpace{}, UnknownAgentError{Agent: agent}
	}
	rows, cols := e.spaceDims()
	space := ObservationSpace{
		Rows:        rows,
		Cols:        cols,
		MaxArmy:     MaxArmy,
		MaxLand:     rows * cols,
		MaxTimestep: MaxTimestep,
	}
	e.obsSpaces[agent] = space
	return space, nil
}

// ActionSpace returns the action descriptor for one agent, memoized per
// environment instance. Agents outside the configured set fail with
// UnknownAgentError.
func (e *Env) ActionSpace(agent string) (ActionSpace, error) {
	if space, ok := e.actSpaces[agent]; ok {
		return space, nil
	}
	if !e.knownAgent(agent) {
		return ActionSpace{}, UnknownAgentError{Agent: agent}
	}
	rows, cols := e.spaceDims()
	space := ActionSpace{Nvec: []int{2, rows, cols, 4, 2}}
	e.actSpaces[agent] = space
	return space, nil
}

func (e *Env) knownAgent(agent string) bool {
	for _, id := range e.possible {
		if id == agent {
			return true
		}
	}
	return false
}
