// Package session implements the persistence boundary of the orchestrator:
// per-agent session records (input snapshot before the run, output snapshot
// exactly once after) and the messages persisted at the end of a turn.
//
// Two Store implementations ship: a volatile InMemoryStore for tests and
// demos, and a durable SQLiteStore. The core never deletes records; lifecycle
// beyond creation and the single update is owned by the surrounding system.
package session
