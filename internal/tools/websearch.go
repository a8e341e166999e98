package tools

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	einomcp "github.com/cloudwego/eino-ext/components/tool/mcp"
	"github.com/cloudwego/eino/components/tool"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/finkb/finkb-go/internal/version"
)

// defaultBochaURL is the Bocha AI web search MCP endpoint.
const defaultBochaURL = "https://mcp.bochaai.com/sse"

// NewWebSearchTools connects to the Bocha web search MCP server over SSE and
// returns its tools, ready to register with the agent. When BOCHA_API_KEY is
// unset the assistant runs without web search: this returns (nil, nil) and
// logs the degradation rather than failing startup.
func NewWebSearchTools(ctx context.Context, log *slog.Logger) ([]tool.BaseTool, error) {
	apiKey := os.Getenv("BOCHA_API_KEY")
	if apiKey == "" {
		log.Warn("BOCHA_API_KEY not set, web search disabled",
			"hint", "knowledge base retrieval still works; live data questions will lack a web fallback")
		return nil, nil
	}

	url := os.Getenv("BOCHA_MCP_URL")
	if url == "" {
		url = defaultBochaURL
	}

	cli, err := client.NewSSEMCPClient(url, transport.WithHeaders(map[string]string{
		"Authorization": "Bearer " + apiKey,
	}))
	if err != nil {
		return nil, fmt.Errorf("web search: create mcp client: %w", err)
	}

	if err := cli.Start(ctx); err != nil {
		return nil, fmt.Errorf("web search: start mcp client: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "finkb",
		Version: version.Version,
	}
	if _, err := cli.Initialize(ctx, initReq); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("web search: initialize mcp session: %w", err)
	}

	mcpTools, err := einomcp.GetTools(ctx, &einomcp.Config{Cli: cli})
	if err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("web search: list mcp tools: %w", err)
	}

	log.Info("web search connected", "url", url, "tools", len(mcpTools))
	return mcpTools, nil
}
