// Package env adapts a turn-based grid strategy engine to an episodic
// multi-agent environment: a Reset/Step loop with per-agent observations,
// actions and scalar rewards. The engine itself is a collaborator behind
// the Engine interface; this package owns only the episode lifecycle.
package env

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"conquest/game"
	"conquest/render"
	"conquest/replay"
)

// agentColors is the fixed display palette, assigned to agents in
// configuration order and cycled when there are more agents than colors.
var agentColors = [][3]uint8{
	{2, 107, 108},
	{0, 10, 255},
}

// Env runs episodes of one configured match-up. The lifecycle is a state
// machine: idle until the first Reset, active while an episode runs, and
// terminal from the step that ends it until the next Reset.
//
// Env is not safe for concurrent use; Reset and Step are atomic with
// respect to its state only on a single goroutine.
type Env struct {
	newEngine  NewEngineFunc
	possible   []string
	factory    GridFactory
	truncation int
	rewardFn   RewardFn
	renderMode RenderMode
	speed      float64
	opener     RecorderOpener
	logger     zerolog.Logger

	engine   Engine
	bridge   *render.Bridge
	recorder Recorder
	active   []string
	prior    map[string]*game.Observation
	steps    int

	obsSpaces map[string]ObservationSpace
	actSpaces map[string]ActionSpace
}

// ResetOptions tune a single episode. The zero value (or nil) asks for a
// factory-generated board and no recording.
type ResetOptions struct {
	// Grid is an explicit board specification in the text format of
	// game.ParseGrid. When set, the reset seed is ignored entirely:
	// hand-authored boards reproduce regardless of seed.
	Grid string
	// ReplayFile names a recording for this episode. The recorder opens
	// on reset and finalizes on the step that ends the episode; a reset
	// before that abandons the recording.
	ReplayFile string
}

// StepResult is one step's outcome for every agent that was active when
// Step was called. Terminated reports an engine-decided conclusion,
// Truncated the configured turn limit; all agents end together either
// way, and the agents that just ended still receive this final result.
type StepResult struct {
	Observations map[string]*game.Observation
	Rewards      map[string]float64
	Terminated   bool
	Truncated    bool
	Infos        map[string]Info
}

// New configures an environment for an ordered set of agent ids. The
// engine constructor is called on every Reset; the default grid factory
// seats one general per agent on a 15x15 board.
func New(newEngine NewEngineFunc, agents []string, opts ...Option) (*Env, error) {
	if newEngine == nil {
		return nil, errors.New("env: engine constructor is required")
	}
	if len(agents) == 0 {
		return nil, errors.New("env: at least one agent is required")
	}
	seen := make(map[string]bool, len(agents))
	for _, id := range agents {
		if seen[id] {
			return nil, DuplicateAgentError{Agent: id}
		}
		seen[id] = true
	}

	e := &Env{
		newEngine:  newEngine,
		possible:   append([]string(nil), agents...),
		rewardFn:   WinLoseReward,
		renderMode: RenderNone,
		speed:      1.0,
		logger:     log.Logger,
		obsSpaces:  make(map[string]ObservationSpace, len(agents)),
		actSpaces:  make(map[string]ActionSpace, len(agents)),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.factory == nil {
		e.factory = game.NewFactory(game.WithGenerals(len(agents)))
	}
	if e.opener == nil {
		e.opener = fileOpener{}
	}
	switch e.renderMode {
	case RenderNone, RenderHuman:
	default:
		return nil, fmt.Errorf("env: unknown render mode %q", e.renderMode)
	}
	if e.speed <= 0 {
		return nil, fmt.Errorf("env: speed multiplier must be positive, got %v", e.speed)
	}
	return e, nil
}

// Reset starts a fresh episode and returns the initial observation and an
// empty info record per agent. An explicit grid in opts bypasses the seed;
// otherwise the factory generates a board from a seed-derived source.
//
// Any failure leaves the environment exactly as it was before the call: a
// running episode keeps running, a terminal one stays terminal.
func (e *Env) Reset(seed int64, opts *ResetOptions) (map[string]*game.Observation, map[string]Info, error) {
	if opts == nil {
		opts = &ResetOptions{}
	}

	var grid *game.Grid
	var err error
	if opts.Grid != "" {
		grid, err = game.ParseGrid(opts.Grid)
		if err != nil {
			return nil, nil, err
		}
	} else {
		e.factory.SetRandomSource(rand.New(rand.NewSource(uint64(seed))))
		grid, err = e.factory.Generate()
		if err != nil {
			return nil, nil, fmt.Errorf("env: generate grid: %w", err)
		}
	}

	engine, err := e.newEngine(grid, append([]string(nil), e.possible...))
	if err != nil {
		return nil, nil, fmt.Errorf("env: construct engine: %w", err)
	}

	var recorder Recorder
	if opts.ReplayFile != "" {
		recorder, err = e.opener.Open(opts.ReplayFile, grid, e.agentData())
		if err != nil {
			return nil, nil, fmt.Errorf("env: open recording %q: %w", opts.ReplayFile, err)
		}
		if err := recorder.Append(engine.State().Clone()); err != nil {
			recorder.Close()
			return nil, nil, fmt.Errorf("env: record initial state: %w", err)
		}
	}

	// The new episode is fully constructed; replace the old one. An
	// unfinalized recording from the previous episode is abandoned.
	if e.recorder != nil {
		if err := e.recorder.Close(); err != nil {
			e.logger.Warn().Err(err).Msg("abandoning previous recording")
		}
	}
	e.recorder = recorder
	e.engine = engine
	e.bridge = nil
	if e.renderMode == RenderHuman {
		e.bridge = render.New(engine, e.speed, os.Stdout)
	}
	e.active = append([]string(nil), e.possible...)
	e.prior = nil
	e.steps = 0

	rows, cols := engine.GridDimensions()
	e.logger.Info().Msgf("episode reset: %d agents on a %dx%d grid", len(e.active), rows, cols)

	observations := make(map[string]*game.Observation, len(e.active))
	infos := make(map[string]Info, len(e.active))
	for _, id := range e.active {
		observations[id] = e.engine.AgentObservation(id)
		infos[id] = Info{}
	}
	return observations, infos, nil
}

// Step forwards one joint action to the engine and settles the episode
// bookkeeping: termination and truncation, rewards from the previous
// step's observations, recording, and the prior-observation cache.
//
// Every active agent must appear in actions or the call fails with
// MissingActionError before the engine sees anything. Stepping without a
// running episode fails with ErrNoEpisode.
func (e *Env) Step(actions map[string]game.Action) (*StepResult, error) {
	if e.engine == nil || len(e.active) == 0 {
		return nil, fmt.Errorf("env: step: %w", ErrNoEpisode)
	}
	for _, id := range e.active {
		if _, ok := actions[id]; !ok {
			return nil, MissingActionError{Agent: id, Step: e.steps}
		}
	}
	agents := append([]string(nil), e.active...)

	stepObs, stepInfos, err := e.engine.Step(actions)
	if err != nil {
		return nil, fmt.Errorf("env: engine step: %w", err)
	}

	truncated := e.truncation > 0 && e.engine.TurnCount() >= e.truncation
	terminated := e.engine.IsDone()

	rewards := make(map[string]float64, len(agents))
	for _, id := range agents {
		if e.prior == nil {
			// First step of the episode: no prior observation exists,
			// so the reward function is not consulted at all.
			rewards[id] = 0.0
			continue
		}
		rewards[id] = e.rewardFn(e.prior[id], actions[id], stepObs[id])
	}

	if e.recorder != nil {
		if err := e.recorder.Append(e.engine.State().Clone()); err != nil {
			return nil, fmt.Errorf("env: record state: %w", err)
		}
	}

	if terminated || truncated {
		e.active = nil
		if e.recorder != nil {
			if err := e.recorder.Finalize(); err != nil {
				return nil, fmt.Errorf("env: finalize recording: %w", err)
			}
			e.recorder = nil
		}
		e.logger.Info().Msgf("episode over after %d steps (terminated=%t truncated=%t)",
			e.steps+1, terminated, truncated)
	}

	observations := make(map[string]*game.Observation, len(agents))
	infos := make(map[string]Info, len(agents))
	prior := make(map[string]*game.Observation, len(agents))
	for _, id := range agents {
		observations[id] = stepObs[id]
		prior[id] = stepObs[id]
		if info, ok := stepInfos[id]; ok && info != nil {
			infos[id] = info
		} else {
			infos[id] = Info{}
		}
	}
	e.prior = prior
	e.steps++

	return &StepResult{
		Observations: observations,
		Rewards:      rewards,
		Terminated:   terminated,
		Truncated:    truncated,
		Infos:        infos,
	}, nil
}

// Render draws one frame when the human render mode is active, pacing
// the caller to the configured frame rate. Otherwise it does nothing.
func (e *Env) Render() {
	if e.bridge != nil {
		e.bridge.Tick()
	}
}

// Close abandons any open recording and drops the current episode. The
// environment can be Reset again afterwards.
func (e *Env) Close() error {
	var err error
	if e.recorder != nil {
		err = e.recorder.Close()
		e.recorder = nil
	}
	e.engine = nil
	e.bridge = nil
	e.active = nil
	e.prior = nil
	return err
}

// Agents returns the ids still active in the current episode, in
// configuration order. It is empty before the first Reset and from the
// step that ends an episode.
func (e *Env) Agents() []string {
	return append([]string(nil), e.active...)
}

// PossibleAgents returns every configured agent id in order.
func (e *Env) PossibleAgents() []string {
	return append([]string(nil), e.possible...)
}

// StepCount returns the number of completed steps in the current episode.
func (e *Env) StepCount() int {
	return e.steps
}

func (e *Env) agentData() []game.AgentData {
	data := make([]game.AgentData, len(e.possible))
	for i, id := range e.possible {
		data[i] = game.AgentData{Name: id, Color: agentColors[i%len(agentColors)]}
	}
	return data
}

// fileOpener is the default recorder: compressed replay files on disk.
type fileOpener struct{}

func (fileOpener) Open(name string, grid *game.Grid, agents []game.AgentData) (Recorder, error) {
	return replay.Create(name, grid, agents)
}
