package agent

import (
	"golang.org/x/exp/rand"

	"conquest/game"
)

const (
	defaultPassProbability  = 0.05
	defaultSplitProbability = 0.25
)

// Random plays a uniformly random legal move each turn. Occasionally it
// passes outright, and sometimes it splits the moving stack in half.
type Random struct {
	name      string
	rng       *rand.Rand
	passProb  float64
	splitProb float64
}

type RandomOption func(*Random)

// WithPassProbability sets how often the agent passes outright even when
// moves exist. Default 0.05.
func WithPassProbability(p float64) RandomOption {
	return func(a *Random) {
		a.passProb = p
	}
}

// WithSplitProbability sets how often a chosen move splits its stack.
// Default 0.25.
func WithSplitProbability(p float64) RandomOption {
	return func(a *Random) {
		a.splitProb = p
	}
}

// NewRandom builds a random policy with its own seeded source, so two
// agents sharing a match do not share a stream.
func NewRandom(name string, seed uint64, opts ...RandomOption) *Random {
	a := &Random{
		name:      name,
		rng:       rand.New(rand.NewSource(seed)),
		passProb:  defaultPassProbability,
		splitProb: defaultSplitProbability,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Random) Name() string { return a.name }

// Act picks uniformly among every (cell, direction) pair that moves an
// owned stack onto a passable cell. With no such pair it passes.
func (a *Random) Act(obs *game.Observation) game.Action {
	if a.rng.Float64() < a.passProb {
		return game.Action{Pass: true}
	}

	type move struct {
		from game.Position
		dir  game.Direction
	}
	var moves []move
	for _, from := range movableCells(obs) {
		for dir := game.Up; dir <= game.Right; dir++ {
			dr, dc := dir.Offset()
			if passable(obs, from.Row+dr, from.Col+dc) {
				moves = append(moves, move{from: from, dir: dir})
			}
		}
	}
	if len(moves) == 0 {
		return game.Action{Pass: true}
	}

	picked := moves[a.rng.Intn(len(moves))]
	return game.Action{
		Row:       picked.from.Row,
		Col:       picked.from.Col,
		Direction: picked.dir,
		Split:     a.rng.Float64() < a.splitProb,
	}
}
