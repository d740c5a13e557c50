// Command server exposes the contract graph tools over MCP stdio
package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/server"
	"github.com/theapemachine/mcp-server-contract-graph/core/middleware"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/app"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/config"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/tools"
)

func main() {
	// stdout carries the protocol
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "contract-graph",
		ReportTimestamp: true,
	})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("loading configuration", "err", err)
	}

	if err := cfg.Validate(); err != nil {
		logger.Warn("configuration incomplete", "err", err)
	}

	ctx := context.Background()

	application, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("starting", "err", err)
	}
	defer application.Close(ctx)

	toolset, err := application.Tools()
	if err != nil {
		logger.Fatal("building tools", "err", err)
	}

	mcpServer := server.NewMCPServer(
		"Contract Graph MCP Server",
		"1.0.0",
		server.WithResourceCapabilities(false, false),
		server.WithLogging(),
	)

	registry := NewToolRegistry(mcpServer, logger)
	for _, tool := range toolset {
		if err := registry.RegisterTool(tool); err != nil {
			logger.Fatal("registering tools", "err", err)
		}
	}

	logger.Info("server started, waiting for requests", "tools", registry.Names())

	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Error("server error", "err", err)
	}

	logger.Info("server shutdown complete")
}

// ToolRegistry manages tool registration
type ToolRegistry struct {
	server *server.MCPServer
	tools  map[string]tools.Tool
	logger *log.Logger
}

// NewToolRegistry creates a new tool registry
func NewToolRegistry(mcpServer *server.MCPServer, logger *log.Logger) *ToolRegistry {
	return &ToolRegistry{
		server: mcpServer,
		tools:  make(map[string]tools.Tool),
		logger: logger,
	}
}

// RegisterTool registers a tool with the server, logging every call. A second tool with the same
// name is refused.
func (r *ToolRegistry) RegisterTool(tool tools.Tool) error {
	if _, ok := r.tools[tool.Name()]; ok {
		return fmt.Errorf("tool %s is already registered", tool.Name())
	}

	r.tools[tool.Name()] = tool
	r.server.AddTool(tool.Handle(), middleware.Recover(middleware.Logging(tool.Handler, r.logger), r.logger))
	return nil
}

// Names lists the registered tools, sorted.
func (r *ToolRegistry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
