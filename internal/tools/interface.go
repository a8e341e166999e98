// Package tools defines the agent-facing tools for the assistant: knowledge
// base retrieval and external web search. Each tool satisfies Eino's
// tool.BaseTool interface so it can be registered directly with the ReAct
// agent.
package tools

// KnowledgeTool is the interface the assistant's own tools satisfy. It adds
// Name and Description accessors so the agent can log tool calls without
// type assertions.
type KnowledgeTool interface {
	// Name returns the unique tool name registered with the agent.
	Name() string

	// Description returns the LLM-facing description of what the tool does.
	Description() string
}
