// Package core defines the shared value types of the inference loop: the
// turn-input item variants exchanged with a provider, progress events and the
// sink they are pushed through, tool call records and token usage counters.
//
// Everything in this package is plain data. Provider SDK objects are converted
// into these types at a single deserialization boundary (the provider
// adapters) and never appear in loop or orchestrator state.
package core
