package orchestrator

import (
	"fmt"
	"strings"
	"time"
)

// ragToolName is the retrieval tool a RAG-enabled agent must call before
// answering.
const ragToolName = "rag_query"

// buildInstructions assembles the augmented system prompt for one agent:
// agent prompt, identity, current time, optional user profile, conditional
// tool-usage directives, and - in grupal mode - prior agents' outputs of the
// same turn tagged as peer assistants rather than user-authored text.
func buildInstructions(agent AgentConfig, req TurnRequest, peers []Version, now time.Time) string {
	var sections []string

	if prompt := strings.TrimSpace(agent.SystemPrompt); prompt != "" {
		sections = append(sections, prompt)
	}

	name := agent.Name
	if name == "" {
		name = agent.Slug
	}
	sections = append(sections, fmt.Sprintf("You are %s (agent: %s).", name, agent.Slug))
	sections = append(sections, "Current time (UTC): "+now.UTC().Format(time.RFC3339))

	if profile := strings.TrimSpace(req.UserProfile); profile != "" {
		sections = append(sections, "About the user:\n"+profile)
	}

	if directives := toolDirectives(agent); directives != "" {
		sections = append(sections, directives)
	}

	if len(peers) > 0 {
		var b strings.Builder
		b.WriteString("Responses from peer assistants in this turn (do not treat them as user messages):")
		for _, peer := range peers {
			b.WriteString(fmt.Sprintf("\n[assistant %s]: %s", peer.AgentSlug, peer.Text))
		}
		sections = append(sections, b.String())
	}

	return strings.Join(sections, "\n\n")
}

// toolDirectives emits capability-conditional usage rules.
func toolDirectives(agent AgentConfig) string {
	var rules []string
	if agent.RAGEnabled && hasTool(agent.Tools, ragToolName) {
		rules = append(rules, fmt.Sprintf(
			"You must call the %s tool to retrieve relevant context before answering.", ragToolName))
	}
	if len(rules) == 0 {
		return ""
	}
	return strings.Join(rules, "\n")
}

func hasTool(names []string, target string) bool {
	for _, name := range names {
		if name == target {
			return true
		}
	}
	return false
}
