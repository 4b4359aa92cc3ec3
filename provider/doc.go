// Package provider defines the LLM provider call boundary consumed by the
// inference loop: a normalized request/response contract with tool
// declarations and an optional strict structured-output mode.
//
// Adapters for concrete vendors live in the subpackages provider/openai and
// provider/anthropic. They perform the single SDK-to-plain-data conversion;
// no SDK-native object ever crosses into loop or orchestrator state.
package provider
