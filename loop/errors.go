package loop

import (
	"fmt"

	"github.com/Masscer-AI/agentcore/core"
)

// ProviderError wraps a network/auth/rate-limit failure talking to the LLM
// provider. The loop does not retry; the caller decides on retry policy.
type ProviderError struct {
	Model string
	Err   error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider call failed for model %s: %v", e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IterationLimitError reports that the loop ran its full iteration budget
// without reaching a terminal text response. It carries the complete message
// history for diagnosis.
type IterationLimitError struct {
	Iterations int
	Messages   []core.Item
}

func (e *IterationLimitError) Error() string {
	return fmt.Sprintf("no terminal answer after %d iterations", e.Iterations)
}
