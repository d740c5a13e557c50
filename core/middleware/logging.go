// Package middleware wraps MCP tool handlers
package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handler is the signature shared by every MCP tool handler.
type Handler = func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// Logging logs every call with its duration and whether the tool reported an error.
func Logging(handler Handler, logger *log.Logger) Handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		result, err := handler(ctx, request)

		fields := []any{"tool", request.Params.Name, "took", time.Since(start)}

		switch {
		case err != nil:
			logger.Error("tool call failed", append(fields, "err", err)...)
		case result != nil && result.IsError:
			logger.Warn("tool call returned an error", fields...)
		default:
			logger.Info("tool call", fields...)
		}

		return result, err
	}
}

// Recover turns a panicking handler into an error result so one bad call cannot take the server
// down.
func Recover(handler Handler, logger *log.Logger) Handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("tool panicked", "tool", request.Params.Name, "panic", r)
				result = mcp.NewToolResultError(fmt.Sprintf("internal error in %s", request.Params.Name))
				err = nil
			}
		}()

		return handler(ctx, request)
	}
}
