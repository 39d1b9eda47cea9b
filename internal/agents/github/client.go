// Package github implements the GitHub analyzer. Pull request data is
// fetched through an MCP server (the official github-mcp-server speaking
// stdio); the analyzer classifies PR health and escalates to the Kubernetes
// or Jenkins agent when the failure clearly lives there.
package github

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/moolen/kairos/internal/logging"
)

const toolCallTimeout = 60 * time.Second

// ToolCaller is the narrow surface the analyzer needs from an MCP
// connection. Tests substitute a scripted implementation.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
}

// MCPClient wraps a stdio MCP connection to a GitHub tool server.
type MCPClient struct {
	client *client.Client
	logger *logging.Logger
}

// NewMCPClient launches the given MCP server command and performs the
// initialize handshake.
func NewMCPClient(ctx context.Context, command string, args []string, env []string) (*MCPClient, error) {
	mcpClient, err := client.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP client: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.Capabilities = mcp.ClientCapabilities{}
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "kairos",
		Version: "1.0.0",
	}
	if _, err := mcpClient.Initialize(ctx, initReq); err != nil {
		mcpClient.Close()
		return nil, fmt.Errorf("failed to initialize MCP client: %w", err)
	}

	return &MCPClient{
		client: mcpClient,
		logger: logging.GetLogger("agents.github.mcp"),
	}, nil
}

// CallTool invokes one tool and flattens the text content blocks of the
// result into a single string.
func (c *MCPClient) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, toolCallTimeout)
	defer cancel()

	result, err := c.client.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	})
	if err != nil {
		return "", fmt.Errorf("tool %s failed: %w", name, err)
	}

	var sb strings.Builder
	for _, content := range result.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	if result.IsError {
		return "", fmt.Errorf("tool %s returned an error: %s", name, sb.String())
	}
	return sb.String(), nil
}

// Close shuts the underlying server process down.
func (c *MCPClient) Close() error {
	return c.client.Close()
}
