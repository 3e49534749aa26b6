// Package enginetest provides a scripted turn engine for exercising the
// environment without a real one. It applies no combat, growth or
// fog-of-war rules: every agent sees the whole board, and the board only
// changes when a caller scripts it through the knobs.
package enginetest

import (
	"fmt"

	"conquest/env"
	"conquest/game"
)

// Engine is a rules-free env.Engine. Observations derive mechanically
// from the board state; Step records the joint action and advances the
// turn counter, nothing more.
type Engine struct {
	grid      *game.Grid
	agents    []string
	turn      int
	done      bool
	doneAfter int
	state     *game.State
	steps     []map[string]game.Action
}

// New builds a scripted engine for one episode. The grid must seat
// exactly one general per agent.
func New(grid *game.Grid, agents []string) (*Engine, error) {
	if grid.NumGenerals() != len(agents) {
		return nil, fmt.Errorf("enginetest: grid seats %d generals for %d agents",
			grid.NumGenerals(), len(agents))
	}
	return &Engine{
		grid:   grid,
		agents: append([]string(nil), agents...),
		state:  grid.InitialState(),
	}, nil
}

// NewEngine satisfies env.NewEngineFunc.
func NewEngine(grid *game.Grid, agents []string) (env.Engine, error) {
	return New(grid, agents)
}

// NewEngineDoneAfter returns an engine constructor whose engines report
// the game over once n turns have been played.
func NewEngineDoneAfter(n int) env.NewEngineFunc {
	return func(grid *game.Grid, agents []string) (env.Engine, error) {
		e, err := New(grid, agents)
		if err != nil {
			return nil, err
		}
		e.doneAfter = n
		return e, nil
	}
}

// Step records the joint action and advances the turn. The board is left
// untouched; script changes through SetArmy, SetOwner or CaptureAll.
func (e *Engine) Step(actions map[string]game.Action) (map[string]*game.Observation, map[string]env.Info, error) {
	e.steps = append(e.steps, actions)
	e.turn++
	e.state.Turn = e.turn
	observations := make(map[string]*game.Observation, len(e.agents))
	for _, id := range e.agents {
		observations[id] = e.AgentObservation(id)
	}
	return observations, nil, nil
}

// IsDone reports a scripted conclusion: SetDone, or a turn budget set by
// SetDoneAfter or NewEngineDoneAfter.
func (e *Engine) IsDone() bool {
	return e.done || (e.doneAfter > 0 && e.turn >= e.doneAfter)
}

// AgentObservation derives one agent's view from the board with full
// visibility: the fog masks stay false everywhere.
func (e *Engine) AgentObservation(agent string) *game.Observation {
	idx := e.agentIndex(agent)
	rows, cols := e.grid.Dimensions()
	obs := &game.Observation{
		Armies:          make([][]int, rows),
		Generals:        make([][]bool, rows),
		Cities:          make([][]bool, rows),
		Mountains:       make([][]bool, rows),
		NeutralCells:    make([][]bool, rows),
		OwnedCells:      make([][]bool, rows),
		OpponentCells:   make([][]bool, rows),
		FogCells:        make([][]bool, rows),
		StructuresInFog: make([][]bool, rows),
		Timestep:        e.turn,
		Priority:        e.turn%len(e.agents) == idx,
	}
	for r := 0; r < rows; r++ {
		obs.Armies[r] = make([]int, cols)
		obs.Generals[r] = make([]bool, cols)
		obs.Cities[r] = make([]bool, cols)
		obs.Mountains[r] = make([]bool, cols)
		obs.NeutralCells[r] = make([]bool, cols)
		obs.OwnedCells[r] = make([]bool, cols)
		obs.OpponentCells[r] = make([]bool, cols)
		obs.FogCells[r] = make([]bool, cols)
		obs.StructuresInFog[r] = make([]bool, cols)
		for c := 0; c < cols; c++ {
			kind := e.state.Kinds[r][c]
			owner := e.state.Owners[r][c]
			army := e.state.Armies[r][c]
			obs.Armies[r][c] = army
			obs.Generals[r][c] = kind == game.General
			obs.Cities[r][c] = kind == game.City
			obs.Mountains[r][c] = kind == game.Mountain
			switch {
			case owner == idx:
				obs.OwnedCells[r][c] = true
				obs.OwnedLandCount++
				obs.OwnedArmyCount += army
			case owner != game.NeutralOwner:
				obs.OpponentCells[r][c] = true
				obs.OpponentLandCount++
				obs.OpponentArmyCount += army
			case kind != game.Mountain:
				obs.NeutralCells[r][c] = true
			}
		}
	}
	return obs
}

// TurnCount returns the number of turns played.
func (e *Engine) TurnCount() int { return e.turn }

// GridDimensions returns the board size.
func (e *Engine) GridDimensions() (int, int) { return e.grid.Dimensions() }

// State returns the live board. The environment clones it before handing
// it to recorders; tests may mutate it directly to script transitions.
func (e *Engine) State() *game.State { return e.state }

// Steps returns every joint action received so far.
func (e *Engine) Steps() []map[string]game.Action {
	return append([]map[string]game.Action(nil), e.steps...)
}

// SetDone scripts the conclusion flag directly.
func (e *Engine) SetDone(done bool) { e.done = done }

// SetDoneAfter scripts the game to conclude once n turns were played.
func (e *Engine) SetDoneAfter(n int) { e.doneAfter = n }

// SetArmy scripts the army count of one cell.
func (e *Engine) SetArmy(row, col, army int) {
	e.state.Armies[row][col] = army
}

// SetOwner scripts the owner of one cell.
func (e *Engine) SetOwner(row, col int, agent string) error {
	idx := e.agentIndex(agent)
	if idx < 0 {
		return fmt.Errorf("enginetest: unknown agent %q", agent)
	}
	e.state.Owners[row][col] = idx
	return nil
}

// CaptureAll hands every owned cell on the board to one agent, the way a
// decided game looks on its final turn.
func (e *Engine) CaptureAll(agent string) error {
	idx := e.agentIndex(agent)
	if idx < 0 {
		return fmt.Errorf("enginetest: unknown agent %q", agent)
	}
	rows, cols := e.grid.Dimensions()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if e.state.Owners[r][c] != game.NeutralOwner {
				e.state.Owners[r][c] = idx
			}
		}
	}
	return nil
}

func (e *Engine) agentIndex(agent string) int {
	for i, id := range e.agents {
		if id == agent {
			return i
		}
	}
	return -1
}
