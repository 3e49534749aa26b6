package env

import "conquest/game"

// RewardFn scores one agent's transition from its prior observation,
// through the action it submitted, to its current observation. Reward
// functions must be pure: identical inputs always produce the identical
// output, with no side effects, so training runs reproduce.
//
// The environment never calls a reward function on the first step of an
// episode; without a prior observation it emits zero directly.
type RewardFn func(prior *game.Observation, priorAction game.Action, current *game.Observation) float64

// WinLoseReward is the default reward: -1 on the step an agent's last
// land falls, +1 on the step the opponent's last land falls while the
// agent still stands, and 0 everywhere else.
func WinLoseReward(prior *game.Observation, _ game.Action, current *game.Observation) float64 {
	switch {
	case prior.OwnedLandCount > 0 && current.OwnedLandCount == 0:
		return -1
	case prior.OpponentLandCount > 0 && current.OpponentLandCount == 0 && current.OwnedLandCount > 0:
		return 1
	}
	return 0
}
