package agent

import "conquest/game"

// Expander greedily claims adjacent ground. It scans its territory in
// row-major order and takes the first expansion it finds, preferring
// neutral cells over attacking the opponent. Deterministic on a given
// observation.
type Expander struct {
	name string
}

func NewExpander(name string) *Expander {
	return &Expander{name: name}
}

func (a *Expander) Name() string { return a.name }

func (a *Expander) Act(obs *game.Observation) game.Action {
	var attack *game.Action
	for _, from := range movableCells(obs) {
		for dir := game.Up; dir <= game.Right; dir++ {
			dr, dc := dir.Offset()
			r, c := from.Row+dr, from.Col+dc
			if !passable(obs, r, c) || obs.OwnedCells[r][c] {
				continue
			}
			move := game.Action{Row: from.Row, Col: from.Col, Direction: dir}
			if obs.NeutralCells[r][c] {
				return move
			}
			if obs.OpponentCells[r][c] && attack == nil {
				attack = &move
			}
		}
	}
	if attack != nil {
		return *attack
	}
	return game.Action{Pass: true}
}
