package core

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// Tool is what the MCP server needs to register a tool.
type Tool interface {
	Handle() mcp.Tool
	Handler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
}
