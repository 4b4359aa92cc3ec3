// Package tool implements the capability subsystem that lets the inference
// loop invoke structured functions (APIs, retrieval, media generation) with
// schema validated arguments and consistent error handling.
//
// Tools are produced per loop run by a Registry: each registered name maps to
// a Factory that receives an explicit resolution Context (conversation, user,
// agent, organization identifiers) and returns a concrete Tool with that
// context bound. A tool that cannot be constructed from the supplied context
// fails resolution loudly, before any provider call is made; a tool
// advertised to the model but failing at call time would be a correctness
// bug.
package tool
