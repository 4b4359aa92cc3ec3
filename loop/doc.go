// Package loop implements the inference loop engine: the request/response
// cycle with an LLM provider that detects tool-call requests, executes them
// sequentially, feeds results back, and terminates on a final textual or
// structured answer or on iteration exhaustion.
//
// The engine is single-threaded and synchronous. It blocks on provider calls
// and on each tool's execution; callers that need cancellation run it inside
// a context they can abandon. Provider failures are never retried here -
// retry and backoff policy belongs to the caller.
package loop
