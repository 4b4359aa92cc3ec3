// Package orchestrator drives one user turn across an ordered list of
// agents: it builds each agent's instructions and conversation context,
// resolves its tool allowlist, invokes the inference loop once per agent,
// persists session records, and assembles the final persisted message(s).
//
// Agents run sequentially. In grupal mode every subsequent agent sees the
// prior agents' outputs of the same turn as peer-assistant context and each
// agent's message is persisted as soon as it finishes; in isolated mode
// agents see only the user's message and one combined message is persisted
// at the end of the turn.
package orchestrator
