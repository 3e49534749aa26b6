package env

import "github.com/rs/zerolog"

// RenderMode selects how episodes are presented while they run.
type RenderMode string

const (
	// RenderNone runs as fast as possible with no presentation.
	RenderNone RenderMode = "none"
	// RenderHuman paces stepping to a visible frame rate and draws a
	// plain-text board on every Render call.
	RenderHuman RenderMode = "human"
)

type Option func(*Env)

// WithGridFactory replaces the default grid factory.
func WithGridFactory(factory GridFactory) Option {
	return func(e *Env) {
		e.factory = factory
	}
}

// WithTruncation ends every episode after limit turns. Zero disables
// truncation, which is the default.
func WithTruncation(limit int) Option {
	return func(e *Env) {
		e.truncation = limit
	}
}

// WithRewardFn replaces the default WinLoseReward.
func WithRewardFn(fn RewardFn) Option {
	return func(e *Env) {
		e.rewardFn = fn
	}
}

// WithRenderMode selects the render mode. Default RenderNone.
func WithRenderMode(mode RenderMode) Option {
	return func(e *Env) {
		e.renderMode = mode
	}
}

// WithSpeedMultiplier scales the human render frame rate. Values above
// one speed the presentation up. Default 1.
func WithSpeedMultiplier(multiplier float64) Option {
	return func(e *Env) {
		e.speed = multiplier
	}
}

// WithRecorderOpener replaces the default file-based recorder.
func WithRecorderOpener(opener RecorderOpener) Option {
	return func(e *Env) {
		e.opener = opener
	}
}

// WithLogger replaces the global zerolog logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Env) {
		e.logger = logger
	}
}
