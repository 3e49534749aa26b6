package env

import (
	"errors"
	"fmt"
)

// ErrNoEpisode is returned by Step when no episode is running: either
// Reset was never called or the previous episode already ended.
var ErrNoEpisode = errors.New("no active episode")

// UnknownAgentError reports a space query for an agent outside the
// configured set. It is not fatal to the environment.
type UnknownAgentError struct {
	Agent string
}

func (e UnknownAgentError) Error() string {
	return fmt.Sprintf("unknown agent %q", e.Agent)
}

// DuplicateAgentError reports a repeated agent id at construction.
type DuplicateAgentError struct {
	Agent string
}

func (e DuplicateAgentError) Error() string {
	return fmt.Sprintf("duplicate agent id %q", e.Agent)
}

// MissingActionError reports a joint action that omits an active agent.
// A silently skipped agent would desynchronize turn semantics, so the
// step fails loudly instead of substituting a default action.
type MissingActionError struct {
	Agent string
	Step  int
}

func (e MissingActionError) Error() string {
	return fmt.Sprintf("missing action for agent %q at step %d", e.Agent, e.Step)
}
