package env

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"conquest/game"
)

// fakeEngine is a scripted engine: it applies no game rules, derives
// observations from the board it was built with, and lets tests queue
// observation maps and flip the done flag.
type fakeEngine struct {
	agents    []string
	grid      *game.Grid
	turn      int
	doneAfter int
	state     *game.State
	queued    []map[string]*game.Observation
	infos     map[string]Info
	stepErr   error
	received  []map[string]game.Action
}

func newFakeEngine(grid *game.Grid, agents []string) *fakeEngine {
	return &fakeEngine{agents: agents, grid: grid, state: grid.InitialState()}
}

func (f *fakeEngine) derived(turn int) map[string]*game.Observation {
	out := make(map[string]*game.Observation, len(f.agents))
	for i, id := range f.agents {
		initial := f.grid.InitialState()
		out[id] = &game.Observation{
			Armies:            initial.Armies,
			OwnedLandCount:    1,
			OpponentLandCount: 1,
			Timestep:          turn,
			Priority:          (i+turn)%2 == 0,
		}
	}
	return out
}

func (f *fakeEngine) Step(actions map[string]game.Action) (map[string]*game.Observation, map[string]Info, error) {
	if f.stepErr != nil {
		return nil, nil, f.stepErr
	}
	f.received = append(f.received, actions)
	f.turn++
	f.state.Turn = f.turn
	if len(f.queued) > 0 {
		obs := f.queued[0]
		f.queued = f.queued[1:]
		return obs, f.infos, nil
	}
	return f.derived(f.turn), f.infos, nil
}

func (f *fakeEngine) IsDone() bool {
	return f.doneAfter > 0 && f.turn >= f.doneAfter
}

func (f *fakeEngine) AgentObservation(agent string) *game.Observation {
	return f.derived(f.turn)[agent]
}

func (f *fakeEngine) TurnCount() int { return f.turn }

func (f *fakeEngine) GridDimensions() (int, int) { return f.grid.Dimensions() }

func (f *fakeEngine) State() *game.State { return f.state }

// fakeRecorder counts lifecycle calls and keeps the appended snapshots.
type fakeRecorder struct {
	appended  []*game.State
	finalized int
	closed    int
	appendErr error
}

func (r *fakeRecorder) Append(state *game.State) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	r.appended = append(r.appended, state)
	return nil
}

func (r *fakeRecorder) Finalize() error {
	r.finalized++
	return nil
}

func (r *fakeRecorder) Close() error {
	r.closed++
	return nil
}

type openCall struct {
	name   string
	grid   *game.Grid
	agents []game.AgentData
}

type fakeOpener struct {
	calls     []openCall
	recorders []*fakeRecorder
	openErr   error
}

func (o *fakeOpener) Open(name string, grid *game.Grid, agents []game.AgentData) (Recorder, error) {
	if o.openErr != nil {
		return nil, o.openErr
	}
	o.calls = append(o.calls, openCall{name: name, grid: grid, agents: agents})
	rec := &fakeRecorder{}
	o.recorders = append(o.recorders, rec)
	return rec, nil
}

func (o *fakeOpener) last() *fakeRecorder {
	return o.recorders[len(o.recorders)-1]
}

// testEnv builds an environment around fakeEngine and returns a pointer
// that tracks the engine of the most recent episode.
func testEnv(t *testing.T, agents []string, opts ...Option) (*Env, **fakeEngine) {
	t.Helper()
	current := new(*fakeEngine)
	newEngine := func(grid *game.Grid, ids []string) (Engine, error) {
		*current = newFakeEngine(grid, ids)
		return *current, nil
	}
	e, err := New(newEngine, agents, opts...)
	require.NoError(t, err)
	return e, current
}

func passAll(agents []string) map[string]game.Action {
	actions := make(map[string]game.Action, len(agents))
	for _, id := range agents {
		actions[id] = game.Action{Pass: true}
	}
	return actions
}

const explicitGrid = `
.....A...
.###.....
.....#...
..B..#...
.........
.....2...
....#....
.7.......
.........
`

func TestNew(t *testing.T) {
	t.Run("rejecting duplicate agent ids", func(t *testing.T) {
		newEngine := func(grid *game.Grid, ids []string) (Engine, error) {
			return newFakeEngine(grid, ids), nil
		}

		_, err := New(newEngine, []string{"alpha", "bravo", "alpha"})

		var dupErr DuplicateAgentError
		require.ErrorAs(t, err, &dupErr)
		require.Equal(t, "alpha", dupErr.Agent)
	})

	t.Run("rejecting a nil engine constructor", func(t *testing.T) {
		_, err := New(nil, []string{"alpha", "bravo"})

		require.Error(t, err)
	})

	t.Run("rejecting an empty agent set", func(t *testing.T) {
		newEngine := func(grid *game.Grid, ids []string) (Engine, error) {
			return newFakeEngine(grid, ids), nil
		}

		_, err := New(newEngine, nil)

		require.Error(t, err)
	})

	t.Run("rejecting an unknown render mode", func(t *testing.T) {
		newEngine := func(grid *game.Grid, ids []string) (Engine, error) {
			return newFakeEngine(grid, ids), nil
		}

		_, err := New(newEngine, []string{"alpha", "bravo"}, WithRenderMode("vr"))

		require.Error(t, err)
	})

	t.Run("rejecting a non-positive speed multiplier", func(t *testing.T) {
		newEngine := func(grid *game.Grid, ids []string) (Engine, error) {
			return newFakeEngine(grid, ids), nil
		}

		_, err := New(newEngine, []string{"alpha", "bravo"}, WithSpeedMultiplier(0))

		require.Error(t, err)
	})
}

func TestReset(t *testing.T) {
	agents := []string{"alpha", "bravo"}

	t.Run("returning an initial observation and empty info per agent", func(t *testing.T) {
		e, _ := testEnv(t, agents)

		observations, infos, err := e.Reset(42, nil)

		require.NoError(t, err)
		require.Len(t, observations, 2)
		require.Len(t, infos, 2)
		for _, id := range agents {
			require.NotNil(t, observations[id])
			require.Equal(t, 0, observations[id].Timestep)
			require.Empty(t, infos[id], "Infos should start empty")
		}
		require.Equal(t, agents, e.Agents(), "All agents should be active in order")
	})

	t.Run("ignoring the seed entirely for an explicit grid", func(t *testing.T) {
		e, _ := testEnv(t, agents)

		first, _, err := e.Reset(1, &ResetOptions{Grid: explicitGrid})
		require.NoError(t, err)

		second, _, err := e.Reset(99999, &ResetOptions{Grid: explicitGrid})
		require.NoError(t, err)

		require.Equal(t, first, second,
			"Two resets with the same explicit grid and different seeds should observe identically")
	})

	t.Run("reproducing the generated grid for the same seed", func(t *testing.T) {
		e, eng := testEnv(t, agents)

		_, _, err := e.Reset(7, nil)
		require.NoError(t, err)
		first := (*eng).grid.String()

		_, _, err = e.Reset(7, nil)
		require.NoError(t, err)
		second := (*eng).grid.String()

		require.Equal(t, first, second)
	})

	t.Run("generating different grids for different seeds", func(t *testing.T) {
		e, eng := testEnv(t, agents)

		_, _, err := e.Reset(1, nil)
		require.NoError(t, err)
		first := (*eng).grid.String()

		_, _, err = e.Reset(2, nil)
		require.NoError(t, err)
		second := (*eng).grid.String()

		require.NotEqual(t, first, second)
	})

	t.Run("failing on a malformed explicit grid without touching state", func(t *testing.T) {
		e, _ := testEnv(t, agents)
		_, _, err := e.Reset(1, nil)
		require.NoError(t, err)
		_, err = e.Step(passAll(agents))
		require.NoError(t, err)

		_, _, err = e.Reset(2, &ResetOptions{Grid: "A..\n.."})

		require.ErrorAs(t, err, &game.InvalidGridError{})
		require.Equal(t, agents, e.Agents(), "Running episode should survive the failed reset")
		require.Equal(t, 1, e.StepCount(), "Step count should be untouched")
		_, err = e.Step(passAll(agents))
		require.NoError(t, err, "The old episode should still accept steps")
	})

	t.Run("failing when the engine constructor fails", func(t *testing.T) {
		broken := func(grid *game.Grid, ids []string) (Engine, error) {
			return nil, errors.New("boom")
		}
		e, err := New(broken, agents)
		require.NoError(t, err)

		_, _, err = e.Reset(1, nil)

		require.Error(t, err)
		_, err = e.Step(passAll(agents))
		require.ErrorIs(t, err, ErrNoEpisode, "Environment should still be idle")
	})

	t.Run("opening a recorder with the grid and agent metadata", func(t *testing.T) {
		opener := &fakeOpener{}
		e, _ := testEnv(t, agents, WithRecorderOpener(opener))

		_, _, err := e.Reset(1, &ResetOptions{Grid: explicitGrid, ReplayFile: "match-1"})

		require.NoError(t, err)
		require.Len(t, opener.calls, 1)
		call := opener.calls[0]
		require.Equal(t, "match-1", call.name)
		require.NotNil(t, call.grid)
		require.Equal(t, []game.AgentData{
			{Name: "alpha", Color: [3]uint8{2, 107, 108}},
			{Name: "bravo", Color: [3]uint8{0, 10, 255}},
		}, call.agents)
		require.Len(t, opener.last().appended, 1, "Reset should record the turn 0 snapshot")
		require.Equal(t, 0, opener.last().appended[0].Turn)
	})

	t.Run("abandoning an unfinalized recording on the next reset", func(t *testing.T) {
		opener := &fakeOpener{}
		e, _ := testEnv(t, agents, WithRecorderOpener(opener))
		_, _, err := e.Reset(1, &ResetOptions{ReplayFile: "first"})
		require.NoError(t, err)
		_, err = e.Step(passAll(agents))
		require.NoError(t, err)

		_, _, err = e.Reset(2, &ResetOptions{ReplayFile: "second"})
		require.NoError(t, err)

		first := opener.recorders[0]
		require.Equal(t, 0, first.finalized, "Superseded recording should never finalize")
		require.Equal(t, 1, first.closed, "Superseded recording should be closed")
		require.Len(t, opener.recorders, 2)
	})

	t.Run("clearing the prior observation cache", func(t *testing.T) {
		loud := func(prior *game.Observation, _ game.Action, current *game.Observation) float64 {
			return 42
		}
		e, _ := testEnv(t, agents, WithRewardFn(loud))
		_, _, err := e.Reset(1, nil)
		require.NoError(t, err)
		_, err = e.Step(passAll(agents))
		require.NoError(t, err)

		_, _, err = e.Reset(2, nil)
		require.NoError(t, err)
		result, err := e.Step(passAll(agents))
		require.NoError(t, err)

		for _, id := range agents {
			require.Zero(t, result.Rewards[id],
				"First step after reset should never consult the reward function")
		}
	})
}

func TestStep(t *testing.T) {
	agents := []string{"alpha", "bravo"}

	t.Run("failing before the first reset", func(t *testing.T) {
		e, _ := testEnv(t, agents)

		_, err := e.Step(passAll(agents))

		require.ErrorIs(t, err, ErrNoEpisode)
	})

	t.Run("rewarding zero on the first step regardless of reward function", func(t *testing.T) {
		loud := func(prior *game.Observation, _ game.Action, current *game.Observation) float64 {
			return 42
		}
		e, _ := testEnv(t, agents, WithRewardFn(loud))
		_, _, err := e.Reset(1, nil)
		require.NoError(t, err)

		result, err := e.Step(passAll(agents))

		require.NoError(t, err)
		for _, id := range agents {
			require.Equal(t, 0.0, result.Rewards[id])
		}
	})

	t.Run("feeding the reward function prior and current observations", func(t *testing.T) {
		type call struct {
			prior   *game.Observation
			action  game.Action
			current *game.Observation
		}
		var calls []call
		spy := func(prior *game.Observation, action game.Action, current *game.Observation) float64 {
			calls = append(calls, call{prior: prior, action: action, current: current})
			return float64(current.Timestep)
		}
		e, _ := testEnv(t, agents, WithRewardFn(spy))
		_, _, err := e.Reset(1, nil)
		require.NoError(t, err)

		first, err := e.Step(passAll(agents))
		require.NoError(t, err)
		require.Empty(t, calls, "No reward call may happen without prior observations")

		move := map[string]game.Action{
			"alpha": {Row: 1, Col: 2, Direction: game.Down},
			"bravo": {Pass: true},
		}
		second, err := e.Step(move)
		require.NoError(t, err)

		require.Len(t, calls, 2)
		for _, c := range calls {
			require.Equal(t, 1, c.prior.Timestep, "Prior must be the previous step's observation")
			require.Equal(t, 2, c.current.Timestep)
		}
		require.Equal(t, first.Observations["alpha"], calls[0].prior)
		require.Equal(t, 2.0, second.Rewards["alpha"])
		require.Equal(t, 2.0, second.Rewards["bravo"])
	})

	t.Run("failing loudly when an active agent has no action", func(t *testing.T) {
		e, eng := testEnv(t, agents)
		_, _, err := e.Reset(1, nil)
		require.NoError(t, err)
		_, err = e.Step(passAll(agents))
		require.NoError(t, err)
		_, err = e.Step(passAll(agents))
		require.NoError(t, err)

		_, err = e.Step(map[string]game.Action{"alpha": {Pass: true}})

		var missing MissingActionError
		require.ErrorAs(t, err, &missing)
		require.Equal(t, "bravo", missing.Agent, "Error should name the agent without an action")
		require.Equal(t, 2, missing.Step, "Error should carry the current step count")
		require.Equal(t, agents, e.Agents(), "Active agents should be unchanged")
		require.Len(t, (*eng).received, 2, "Engine should never see the incomplete joint action")
	})

	t.Run("truncating exactly at the configured turn limit", func(t *testing.T) {
		e, _ := testEnv(t, agents, WithTruncation(3))
		_, _, err := e.Reset(1, nil)
		require.NoError(t, err)

		for i := 0; i < 2; i++ {
			result, err := e.Step(passAll(agents))
			require.NoError(t, err)
			require.False(t, result.Truncated, "Steps below the limit should not truncate")
			require.False(t, result.Terminated)
			require.Len(t, e.Agents(), 2)
		}

		result, err := e.Step(passAll(agents))
		require.NoError(t, err)
		require.True(t, result.Truncated)
		require.False(t, result.Terminated)
		require.Len(t, result.Observations, 2,
			"Agents active at call start should still receive the final tuple")
		require.Empty(t, e.Agents(), "All agents should end together")
	})

	t.Run("terminating when the engine reports done", func(t *testing.T) {
		e, eng := testEnv(t, agents)
		_, _, err := e.Reset(1, nil)
		require.NoError(t, err)
		(*eng).doneAfter = 2

		result, err := e.Step(passAll(agents))
		require.NoError(t, err)
		require.False(t, result.Terminated)

		result, err = e.Step(passAll(agents))
		require.NoError(t, err)
		require.True(t, result.Terminated)
		require.False(t, result.Truncated)
		require.Empty(t, e.Agents())
	})

	t.Run("rejecting steps after the episode ended", func(t *testing.T) {
		e, eng := testEnv(t, agents)
		_, _, err := e.Reset(1, nil)
		require.NoError(t, err)
		(*eng).doneAfter = 1
		_, err = e.Step(passAll(agents))
		require.NoError(t, err)

		_, err = e.Step(passAll(agents))

		require.ErrorIs(t, err, ErrNoEpisode)
	})

	t.Run("recording one snapshot per step and finalizing once", func(t *testing.T) {
		opener := &fakeOpener{}
		e, eng := testEnv(t, agents, WithRecorderOpener(opener))
		_, _, err := e.Reset(1, &ResetOptions{ReplayFile: "counted"})
		require.NoError(t, err)
		(*eng).doneAfter = 3

		for i := 0; i < 3; i++ {
			_, err := e.Step(passAll(agents))
			require.NoError(t, err)
		}

		rec := opener.last()
		require.Len(t, rec.appended, 4, "One snapshot at reset plus one per step")
		require.Equal(t, 1, rec.finalized, "Finalize should run exactly once, on the ending step")
		require.Equal(t, 0, rec.closed)

		_, err = e.Step(passAll(agents))
		require.ErrorIs(t, err, ErrNoEpisode, "No further appends can happen after the end")
		require.Len(t, rec.appended, 4)
	})

	t.Run("handing the recorder deep snapshots, never engine aliases", func(t *testing.T) {
		opener := &fakeOpener{}
		e, eng := testEnv(t, agents, WithRecorderOpener(opener))
		_, _, err := e.Reset(1, &ResetOptions{ReplayFile: "snapshots"})
		require.NoError(t, err)

		_, err = e.Step(passAll(agents))
		require.NoError(t, err)

		rec := opener.last()
		recorded := rec.appended[1]
		require.Equal(t, 1, recorded.Turn)

		(*eng).state.Armies[0][0] = 12345
		(*eng).state.Turn = 99

		require.Equal(t, 1, recorded.Turn, "Recorded snapshot must not alias engine state")
		require.NotEqual(t, 12345, recorded.Armies[0][0])
	})

	t.Run("propagating engine step failures without ending the episode", func(t *testing.T) {
		e, eng := testEnv(t, agents)
		_, _, err := e.Reset(1, nil)
		require.NoError(t, err)
		(*eng).stepErr = errors.New("engine exploded")

		_, err = e.Step(passAll(agents))
		require.Error(t, err)
		require.Equal(t, agents, e.Agents())

		(*eng).stepErr = nil
		_, err = e.Step(passAll(agents))
		require.NoError(t, err)
	})

	t.Run("passing engine infos through per agent", func(t *testing.T) {
		e, eng := testEnv(t, agents)
		_, _, err := e.Reset(1, nil)
		require.NoError(t, err)
		(*eng).infos = map[string]Info{"alpha": {"mood": "bold"}}

		result, err := e.Step(passAll(agents))

		require.NoError(t, err)
		require.Equal(t, Info{"mood": "bold"}, result.Infos["alpha"])
		require.Empty(t, result.Infos["bravo"], "Agents without engine info should get an empty record")
	})

	t.Run("counting completed steps", func(t *testing.T) {
		e, _ := testEnv(t, agents)
		_, _, err := e.Reset(1, nil)
		require.NoError(t, err)
		require.Equal(t, 0, e.StepCount())

		_, err = e.Step(passAll(agents))
		require.NoError(t, err)
		_, err = e.Step(passAll(agents))
		require.NoError(t, err)

		require.Equal(t, 2, e.StepCount())
	})
}

func TestTruncationExample(t *testing.T) {
	t.Run("running a 15x15 two-agent episode into its turn limit", func(t *testing.T) {
		agents := []string{"A", "B"}
		e, _ := testEnv(t, agents,
			WithGridFactory(game.NewFactory(game.WithDimensions(15, 15), game.WithSeed(121))),
			WithTruncation(50),
		)
		_, _, err := e.Reset(0, nil)
		require.NoError(t, err)

		for step := 1; step <= 49; step++ {
			result, err := e.Step(passAll(agents))
			require.NoError(t, err, fmt.Sprintf("step %d", step))
			require.False(t, result.Truncated, fmt.Sprintf("step %d must not truncate early", step))
		}

		result, err := e.Step(passAll(agents))
		require.NoError(t, err)
		require.True(t, result.Truncated, "Step 50 should truncate, not 49 or 51")
		require.Equal(t, 50, e.StepCount())
		require.Empty(t, e.Agents())
	})
}

func TestClose(t *testing.T) {
	agents := []string{"alpha", "bravo"}

	t.Run("abandoning the recording and dropping the episode", func(t *testing.T) {
		opener := &fakeOpener{}
		e, _ := testEnv(t, agents, WithRecorderOpener(opener))
		_, _, err := e.Reset(1, &ResetOptions{ReplayFile: "dropped"})
		require.NoError(t, err)

		require.NoError(t, e.Close())

		rec := opener.last()
		require.Equal(t, 1, rec.closed)
		require.Equal(t, 0, rec.finalized)
		_, err = e.Step(passAll(agents))
		require.ErrorIs(t, err, ErrNoEpisode)
	})

	t.Run("allowing a fresh reset after close", func(t *testing.T) {
		e, _ := testEnv(t, agents)
		_, _, err := e.Reset(1, nil)
		require.NoError(t, err)
		require.NoError(t, e.Close())

		_, _, err = e.Reset(2, nil)
		require.NoError(t, err)
		_, err = e.Step(passAll(agents))
		require.NoError(t, err)
	})
}
