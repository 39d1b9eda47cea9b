// Package mcp exposes the triage workflow as an MCP tool server, so agentic
// clients can run investigations over stdio or streamable HTTP.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/moolen/kairos/internal/triage/workflow"
)

// NewServer creates an MCP server wrapping the workflow engine.
func NewServer(engine *workflow.Engine, version string) *server.MCPServer {
	mcpServer := server.NewMCPServer(
		"Kairos Triage Server",
		version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)
	registerTriageTool(mcpServer, engine)
	return mcpServer
}

// ServeStdio runs the server over stdio until the client disconnects.
func ServeStdio(mcpServer *server.MCPServer) error {
	return server.ServeStdio(mcpServer)
}

func registerTriageTool(mcpServer *server.MCPServer, engine *workflow.Engine) {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"prompt": map[string]interface{}{
				"type":        "string",
				"description": "The problem description to triage (PR link, namespace, build URL, symptoms)",
			},
		},
		"required": []string{"prompt"},
	}
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal triage tool schema: %v", err))
	}

	tool := mcp.NewToolWithRawSchema(
		"triage",
		"Run a multi-agent DevOps triage investigation across GitHub, Kubernetes and Jenkins and return the diagnosis",
		schemaJSON,
	)

	mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(request.Params.Arguments)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}
		var input struct {
			Prompt string `json:"prompt"`
		}
		if err := json.Unmarshal(args, &input); err != nil || input.Prompt == "" {
			return mcp.NewToolResultError("prompt is required"), nil
		}

		state, err := engine.Execute(ctx, uuid.NewString(), input.Prompt, nil)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Triage run failed: %v", err)), nil
		}

		result := map[string]interface{}{
			"request_id":   state.RequestID,
			"status":       state.Status,
			"response":     state.FinalResponse,
			"action_items": state.ActionItems,
		}
		resultJSON, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to format result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(resultJSON)), nil
	})
}
