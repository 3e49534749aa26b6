// Package experiments plays batches of scripted episodes and stores
// per-episode records for offline analysis.
package experiments

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"conquest/agent"
	"conquest/env"
	"conquest/experiments/metrics"
	"conquest/game"
)

// Run plays cfg.Episodes episodes between the given agents and stores
// the records under cfg.OutDir. Episode i uses grid seed cfg.Seed+i, so
// a run is reproducible from its config alone.
func Run(cfg Config, newEngine env.NewEngineFunc, players []agent.Agent) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.Name()
	}

	e, err := env.New(newEngine, names,
		env.WithGridFactory(factoryFor(cfg, len(players))),
		env.WithTruncation(cfg.Truncation),
	)
	if err != nil {
		return fmt.Errorf("failed to build environment: %w", err)
	}
	defer e.Close()

	log.Info().Msgf("starting %s experiment...", cfg.Name)

	records := []metrics.EpisodeRecord{}
	for i := 0; i < cfg.Episodes; i++ {
		log.Info().Msgf("starting episode %d of %d...", i+1, cfg.Episodes)

		metric, err := runEpisode(e, players, cfg.Seed+int64(i), metrics.NewCollector())
		if err != nil {
			return fmt.Errorf("episode %d failed: %w", i+1, err)
		}
		records = append(records, metrics.EpisodeRecord{
			ID:            i + 1,
			EpisodeMetric: metric,
		})

		log.Info().Msgf("completed episode %d of %d after %d steps (terminated=%t truncated=%t)",
			i+1, cfg.Episodes, metric.Steps, metric.Terminated, metric.Truncated)
	}

	log.Info().Msgf("completed %s experiment", cfg.Name)

	writer, err := metrics.NewWriter(cfg.OutDir, cfg.Name)
	if err != nil {
		return fmt.Errorf("failed to create experiment writer: %w", err)
	}

	err = writer.WriteMatchConfig(cfg.Name, names, cfg.GridRows, cfg.GridCols, cfg.Truncation, cfg.Seed)
	if err != nil {
		return fmt.Errorf("failed to store match config: %w", err)
	}
	log.Info().Msg("stored match config")

	err = writer.WriteEpisodeRecords(records, names)
	if err != nil {
		return fmt.Errorf("failed to store episode records: %w", err)
	}
	log.Info().Msgf("stored %d episode records in %s", len(records), writer.BaseDir())

	return nil
}

// RunTruncationSweep repeats the experiment once per turn limit, storing
// each run under its own name.
func RunTruncationSweep(cfg Config, limits []int, newEngine env.NewEngineFunc, players []agent.Agent) error {
	for _, limit := range limits {
		sweep := cfg
		sweep.Name = fmt.Sprintf("%s_t%d", cfg.Name, limit)
		sweep.Truncation = limit
		if err := Run(sweep, newEngine, players); err != nil {
			return err
		}
	}
	return nil
}

// runEpisode plays one episode to its end and returns the collected
// metric.
func runEpisode(e *env.Env, players []agent.Agent, seed int64, coll metrics.Collector) (metrics.EpisodeMetric, error) {
	coll.Start()

	observations, _, err := e.Reset(seed, nil)
	if err != nil {
		return metrics.EpisodeMetric{}, fmt.Errorf("failed to reset episode: %w", err)
	}

	var terminated, truncated bool
	for len(e.Agents()) > 0 {
		actions := make(map[string]game.Action, len(players))
		for _, p := range players {
			actions[p.Name()] = p.Act(observations[p.Name()])
		}

		result, err := e.Step(actions)
		if err != nil {
			return metrics.EpisodeMetric{}, fmt.Errorf("failed to step episode: %w", err)
		}

		observations = result.Observations
		coll.AddStep()
		for id, reward := range result.Rewards {
			coll.AddReward(id, reward)
		}
		terminated, truncated = result.Terminated, result.Truncated
	}

	return coll.Complete(terminated, truncated), nil
}

func factoryFor(cfg Config, generals int) *game.Factory {
	options := []game.FactoryOption{
		game.WithDimensions(cfg.GridRows, cfg.GridCols),
		game.WithMountainDensity(cfg.MountainDensity),
		game.WithCityDensity(cfg.CityDensity),
		game.WithGenerals(generals),
	}
	if cfg.PadRows > 0 || cfg.PadCols > 0 {
		options = append(options, game.WithPadding(cfg.PadRows, cfg.PadCols))
	}
	return game.NewFactory(options...)
}
