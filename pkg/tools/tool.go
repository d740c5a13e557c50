// Package tools provides the shared plumbing for MCP tools
package tools

import (
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/openai/openai-go"
	"github.com/theapemachine/mcp-server-contract-graph/core"
)

// Tool is an MCP tool that can also be offered to an OpenAI tool-calling model
type Tool interface {
	core.Tool

	// ToOpenAITool converts the tool to OpenAI format
	ToOpenAITool() openai.ChatCompletionToolParam

	// Name returns the name of the tool
	Name() string
}

// ParamKind is the JSON type of a tool argument.
type ParamKind string

const (
	String  ParamKind = "string"
	Integer ParamKind = "integer"
)

// Param describes one required tool argument.
type Param struct {
	Name        string
	Kind        ParamKind
	Description string
}

// BaseTool provides common functionality for all tools
type BaseTool struct {
	name        string
	description string
	params      []Param
	handle      mcp.Tool
}

// NewBaseTool creates the MCP definition of a tool with required params
func NewBaseTool(name, description string, params ...Param) *BaseTool {
	opts := []mcp.ToolOption{mcp.WithDescription(description)}

	for _, param := range params {
		propertyOpts := []mcp.PropertyOption{mcp.Required(), mcp.Description(param.Description)}

		switch param.Kind {
		case Integer:
			opts = append(opts, mcp.WithNumber(param.Name, propertyOpts...))
		default:
			opts = append(opts, mcp.WithString(param.Name, propertyOpts...))
		}
	}

	return &BaseTool{
		name:        name,
		description: description,
		params:      params,
		handle:      mcp.NewTool(name, opts...),
	}
}

// Handle returns the MCP Tool definition
func (b *BaseTool) Handle() mcp.Tool {
	return b.handle
}

// Name returns the name of the tool
func (b *BaseTool) Name() string {
	return b.name
}

// ToOpenAITool converts the tool to an OpenAI function definition
func (b *BaseTool) ToOpenAITool() openai.ChatCompletionToolParam {
	properties := make(map[string]any, len(b.params))
	required := make([]string, 0, len(b.params))

	for _, param := range b.params {
		properties[param.Name] = map[string]any{
			"type":        string(param.Kind),
			"description": param.Description,
		}
		required = append(required, param.Name)
	}

	return openai.ChatCompletionToolParam{
		Type: openai.F(openai.ChatCompletionToolTypeFunction),
		Function: openai.F(openai.FunctionDefinitionParam{
			Name:        openai.String(b.name),
			Description: openai.String(b.description),
			Parameters: openai.F(openai.FunctionParameters{
				"type":       "object",
				"properties": properties,
				"required":   required,
			}),
		}),
	}
}

// NewErrorResult creates a standard error result
func NewErrorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(err.Error())
}

// NewTextResult creates a standard text result
func NewTextResult(text string) *mcp.CallToolResult {
	return mcp.NewToolResultText(text)
}

// NewJSONResult renders value as indented JSON text
func NewJSONResult(value any) *mcp.CallToolResult {
	buf, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return NewErrorResult(err)
	}
	return mcp.NewToolResultText(string(buf))
}

// ResultText joins the text content of a result
func ResultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}

	parts := make([]string, 0, len(result.Content))
	for _, content := range result.Content {
		switch c := content.(type) {
		case mcp.TextContent:
			parts = append(parts, c.Text)
		case *mcp.TextContent:
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// GetOpenAITools converts a slice of tools to OpenAI format
func GetOpenAITools(tools []Tool) []openai.ChatCompletionToolParam {
	openaiTools := make([]openai.ChatCompletionToolParam, len(tools))
	for i, tool := range tools {
		openaiTools[i] = tool.ToOpenAITool()
	}
	return openaiTools
}
