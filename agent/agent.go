// Package agent provides baseline policies that map observations to
// actions. They are intentionally simple: scripted opponents for playing
// out episodes, not trained ones.
package agent

import "conquest/game"

// Agent picks one action per turn from its own view of the board.
type Agent interface {
	Name() string
	Act(obs *game.Observation) game.Action
}

// movableCells lists the owned cells holding enough armies to move.
func movableCells(obs *game.Observation) []game.Position {
	rows, cols := obs.Dimensions()
	var cells []game.Position
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if obs.OwnedCells[r][c] && obs.Armies[r][c] >= 2 {
				cells = append(cells, game.Position{Row: r, Col: c})
			}
		}
	}
	return cells
}

// passable reports whether a move target is on the board and not a
// mountain.
func passable(obs *game.Observation, row, col int) bool {
	rows, cols := obs.Dimensions()
	if row < 0 || row >= rows || col < 0 || col >= cols {
		return false
	}
	return !obs.Mountains[row][col]
}
