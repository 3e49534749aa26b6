package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"conquest/agent"
	"conquest/enginetest"
	"conquest/env"
	"conquest/experiments"
	"conquest/game"
	"conquest/replay"
)

func main() {
	episodes := flag.Int("episodes", 3, "Number of episodes to play")
	truncation := flag.Int("truncation", 100, "Turn limit per episode")
	rows := flag.Int("rows", 15, "Grid rows")
	cols := flag.Int("cols", 15, "Grid columns")
	seed := flag.Int64("seed", 1, "Grid seed for the first episode")
	turns := flag.Int("turns", 0, "Scripted game length; 0 plays to the turn limit")
	replayFile := flag.String("replay", "", "Record the first episode to this file")
	human := flag.Bool("human", false, "Render each step at a watchable pace")
	configPath := flag.String("config", "", "Run the experiment described by this YAML file instead")
	inspect := flag.String("inspect", "", "Print a stored replay and exit")
	flag.Parse()

	if *inspect != "" {
		if err := inspectReplay(*inspect); err != nil {
			log.Fatal().Err(err).Msg("failed to inspect replay")
		}
		return
	}

	players := []agent.Agent{
		agent.NewRandom("random", uint64(*seed)+1),
		agent.NewExpander("expander"),
	}
	newEngine := enginetest.NewEngine
	if *turns > 0 {
		newEngine = enginetest.NewEngineDoneAfter(*turns)
	}

	if *configPath != "" {
		cfg, err := experiments.LoadConfig(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load experiment config")
		}
		if err := experiments.Run(cfg, newEngine, players); err != nil {
			log.Fatal().Err(err).Msg("experiment failed")
		}
		return
	}

	err := playEpisodes(players, newEngine, *episodes, *truncation, *rows, *cols, *seed, *replayFile, *human)
	if err != nil {
		log.Fatal().Err(err).Msg("demo failed")
	}
}

func playEpisodes(players []agent.Agent, newEngine env.NewEngineFunc, episodes, truncation, rows, cols int, seed int64, replayFile string, human bool) error {
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.Name()
	}
	mode := env.RenderNone
	if human {
		mode = env.RenderHuman
	}

	e, err := env.New(newEngine, names,
		env.WithGridFactory(game.NewFactory(
			game.WithDimensions(rows, cols),
			game.WithGenerals(len(players)),
		)),
		env.WithTruncation(truncation),
		env.WithRenderMode(mode),
	)
	if err != nil {
		return err
	}
	defer e.Close()

	fmt.Printf("Playing %d episodes of %s vs %s...\n", episodes, names[0], names[1])
	for i := 0; i < episodes; i++ {
		var opts *env.ResetOptions
		if i == 0 && replayFile != "" {
			opts = &env.ResetOptions{ReplayFile: replayFile}
		}

		observations, _, err := e.Reset(seed+int64(i), opts)
		if err != nil {
			return err
		}
		fmt.Printf("Episode %d started...\n", i+1)

		totals := map[string]float64{}
		var terminated, truncated bool
		for len(e.Agents()) > 0 {
			actions := make(map[string]game.Action, len(players))
			for _, p := range players {
				actions[p.Name()] = p.Act(observations[p.Name()])
			}

			result, err := e.Step(actions)
			if err != nil {
				return err
			}
			observations = result.Observations
			for id, reward := range result.Rewards {
				totals[id] += reward
			}
			terminated, truncated = result.Terminated, result.Truncated
			e.Render()
		}

		fmt.Printf("Episode %d over after %d steps (terminated=%t truncated=%t)\n",
			i+1, e.StepCount(), terminated, truncated)
		for _, p := range players {
			fmt.Printf("  %s total reward: %g\n", p.Name(), totals[p.Name()])
		}
	}
	fmt.Printf("Finished.\n")

	if replayFile != "" {
		fmt.Printf("First episode recorded to %s\n", replayFile)
	}
	return nil
}

// inspectReplay prints a stored episode's header and snapshot count.
func inspectReplay(path string) error {
	rec, err := replay.Load(path)
	if err != nil {
		return err
	}

	fmt.Printf("Replay %s recorded %s\n", rec.Header.ID, rec.Header.Created.Format(time.RFC3339))
	for _, a := range rec.Header.Agents {
		fmt.Printf("  agent %s color %v\n", a.Name, a.Color)
	}
	fmt.Printf("%d snapshots on this grid:\n%s\n", rec.Len(), rec.Header.Grid)
	return nil
}
