package orchestrator

import "fmt"

// TurnError reports that one agent's run aborted the multi-agent turn. The
// sessions of agents completed before the failure are preserved with their
// final state; Completed carries their version records for diagnosis.
type TurnError struct {
	AgentSlug string
	Err       error
	Completed []Version
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("turn aborted at agent %s: %v", e.AgentSlug, e.Err)
}

func (e *TurnError) Unwrap() error { return e.Err }
