// Package agent wires the Eino ReAct agent together with the knowledge base
// search tool and the optional web search tools to form the customer
// service assistant. The agent owns the ReAct loop: it decides when to
// search the knowledge base, when to reach for the web, and when to answer
// directly.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"
)

// systemPrompt establishes the assistant's persona and tool routing policy.
const systemPrompt = `You are a customer service assistant for a retail bank. You answer
questions about the bank's financial products, interest rates, terms, and
account services.

Tool routing policy — follow it strictly:

1. For ANY question about the bank's products, rates, fees, terms, or
   services, call search_knowledge_base FIRST. Base your answer on the
   retrieved documents, not on memory.
2. If the knowledge base returns nothing relevant, or the question needs
   live data (market prices, current benchmark rates, news), use the
   web_search tool when it is available.
3. Call tools directly — never describe a tool call in prose instead of
   making it.
4. If neither tool yields an answer, say so plainly. Never invent product
   details, rates, or terms.

Constraints:

- You provide product information, not investment advice. If asked for a
  recommendation on what to invest in, explain the relevant products and
  advise the customer to consult a licensed financial advisor.
- Answer in the language the customer writes in.
- Keep answers concise and cite which product or FAQ entry they come from
  when the knowledge base supplied them.`

// maxHistoryTurns bounds the in-memory conversation history injected per
// query. Older turns are dropped oldest-first.
const maxHistoryTurns = 10

// Config holds the dependencies for constructing an Assistant.
type Config struct {
	// ChatModel is the tool-calling chat model. Required.
	ChatModel model.ToolCallingChatModel

	// Tools are the agent's tools (knowledge base search, web search).
	Tools []tool.BaseTool
}

// Assistant is the customer service agent. It keeps conversation history in
// memory for the lifetime of the session; nothing is persisted.
// Not safe for concurrent use — callers serving concurrent conversations
// construct one Assistant per session.
type Assistant struct {
	reactAgent *react.Agent
	history    []*schema.Message
}

// New constructs an Assistant from the provided Config.
func New(ctx context.Context, cfg *Config) (*Assistant, error) {
	if cfg.ChatModel == nil {
		return nil, fmt.Errorf("agent: ChatModel must not be nil")
	}

	reactAgent, err := react.NewAgent(ctx, &react.AgentConfig{
		ToolCallingModel: cfg.ChatModel,
		ToolsConfig: compose.ToolsNodeConfig{
			Tools: cfg.Tools,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("agent: failed to create ReAct agent: %w", err)
	}

	return &Assistant{reactAgent: reactAgent}, nil
}

// Query sends a user message to the assistant and streams the response to
// w. The turn is appended to the in-memory history on success.
func (a *Assistant) Query(ctx context.Context, userMessage string, w io.Writer) error {
	messages := a.buildMessages(userMessage)

	sr, err := a.reactAgent.Stream(ctx, messages)
	if err != nil {
		return fmt.Errorf("agent: stream failed: %w", err)
	}
	defer sr.Close()

	var reply strings.Builder
	for {
		msg, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("agent: stream receive error: %w", err)
		}
		if msg == nil || msg.Content == "" {
			continue
		}
		reply.WriteString(msg.Content)
		if _, err := fmt.Fprint(w, msg.Content); err != nil {
			return fmt.Errorf("agent: write error: %w", err)
		}
	}

	a.remember(userMessage, reply.String())
	return nil
}

// buildMessages assembles system prompt, trimmed history, and the new user
// message.
func (a *Assistant) buildMessages(userMessage string) []*schema.Message {
	messages := make([]*schema.Message, 0, len(a.history)+2)
	messages = append(messages, schema.SystemMessage(systemPrompt))
	messages = append(messages, a.history...)
	messages = append(messages, schema.UserMessage(userMessage))
	return messages
}

func (a *Assistant) remember(userMessage, reply string) {
	a.history = append(a.history,
		schema.UserMessage(userMessage),
		schema.AssistantMessage(reply, nil))

	if excess := len(a.history) - maxHistoryTurns*2; excess > 0 {
		a.history = a.history[excess:]
	}
}

// Reset clears the in-memory conversation history.
func (a *Assistant) Reset() {
	a.history = nil
}
