package env

import (
	"golang.org/x/exp/rand"

	"conquest/game"
)

// Info is the auxiliary per-agent record an engine may attach to a step.
// The environment passes it through untouched.
type Info map[string]any

// Engine is the external turn engine the environment adapts: it owns all
// game mechanics (combat, growth, fog-of-war) and exposes only enough to
// run the episodic loop. One engine instance serves one episode and is
// owned exclusively by its environment.
type Engine interface {
	// Step applies one joint action and returns the next fogged
	// observation and info record per agent.
	Step(actions map[string]game.Action) (map[string]*game.Observation, map[string]Info, error)
	// IsDone reports whether the game has concluded.
	IsDone() bool
	// AgentObservation returns the current fogged view of one agent.
	AgentObservation(agent string) *game.Observation
	// TurnCount returns the number of turns played so far.
	TurnCount() int
	// GridDimensions returns the board size of this episode.
	GridDimensions() (int, int)
	// State returns the full unmasked board. The engine mutates it in
	// place on subsequent steps; recorders receive clones only.
	State() *game.State
}

// NewEngineFunc builds a fresh engine for one episode. Reset calls it
// with the episode's board and the configured agent ids in order.
type NewEngineFunc func(grid *game.Grid, agents []string) (Engine, error)

// GridFactory produces boards for seeded episodes. game.Factory is the
// default implementation.
type GridFactory interface {
	// SetRandomSource replaces the factory's randomness; Reset derives
	// one from its seed so episodes reproduce.
	SetRandomSource(rng *rand.Rand)
	Generate() (*game.Grid, error)
	// GridDimensions is the configured board size before padding; with
	// PaddingEnabled, MaxGridDimensions is the shape every observation
	// is padded to. Space descriptors are derived from these once, at
	// environment construction.
	GridDimensions() (int, int)
	MaxGridDimensions() (int, int)
	PaddingEnabled() bool
}

// Recorder persists one episode's board snapshots. Append receives an
// independent clone per step; Finalize keeps the recording exactly once
// at episode end; Close before Finalize abandons it.
type Recorder interface {
	Append(state *game.State) error
	Finalize() error
	Close() error
}

// RecorderOpener starts a recording for one episode. The default opener
// writes compressed files through the replay package.
type RecorderOpener interface {
	Open(name string, grid *game.Grid, agents []game.AgentData) (Recorder, error)
}
