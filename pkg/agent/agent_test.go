package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/openai/openai-go/option"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/config"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/tools"
)

type echoTool struct {
	*tools.BaseTool
	calls []map[string]interface{}
}

func (tool *echoTool) Handler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tool.calls = append(tool.calls, request.Params.Arguments)
	if request.Params.Arguments["contract_id"] == float64(99) {
		return tools.NewErrorResult(errors.New("store unavailable")), nil
	}
	return tools.NewJSONResult(map[string]any{"name": "MSA-001"}), nil
}

func newEchoTool() *echoTool {
	return &echoTool{
		BaseTool: tools.NewBaseTool("get_contract", "Get a contract", tools.Param{
			Name: "contract_id", Kind: tools.Integer, Description: "The contract id",
		}),
	}
}

func completion(message map[string]any) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       message,
		}},
	}
}

func toolCall(arguments string) map[string]any {
	return completion(map[string]any{
		"role":    "assistant",
		"content": nil,
		"tool_calls": []map[string]any{{
			"id":   "call_1",
			"type": "function",
			"function": map[string]any{
				"name":      "get_contract",
				"arguments": arguments,
			},
		}},
	})
}

func answer(text string) map[string]any {
	return completion(map[string]any{"role": "assistant", "content": text})
}

// scripted replies with the given completions in turn, repeating the last one, and keeps every
// request body.
type scripted struct {
	mu       sync.Mutex
	replies  []map[string]any
	requests []map[string]any
}

func (s *scripted) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	body := map[string]any{}
	_ = json.NewDecoder(r.Body).Decode(&body)
	s.requests = append(s.requests, body)

	reply := s.replies[len(s.replies)-1]
	if len(s.requests) <= len(s.replies) {
		reply = s.replies[len(s.requests)-1]
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(reply)
}

func newAgent(server *httptest.Server, tool tools.Tool) *Agent {
	cfg := &config.Config{}
	cfg.OpenAI.APIKey = "test"
	cfg.OpenAI.BaseURL = server.URL + "/"
	return New(cfg, []tools.Tool{tool}, log.New(io.Discard), option.WithMaxRetries(0))
}

func lastMessage(request map[string]any) map[string]any {
	messages := request["messages"].([]any)
	return messages[len(messages)-1].(map[string]any)
}

// contentText reads a message content sent either as a string or as text parts.
func contentText(content any) string {
	switch c := content.(type) {
	case string:
		return c
	case []any:
		text := ""
		for _, part := range c {
			if m, ok := part.(map[string]any); ok {
				text += fmt.Sprint(m["text"])
			}
		}
		return text
	default:
		return ""
	}
}

func TestAsk(t *testing.T) {
	Convey("Given an agent with one tool", t, func() {
		tool := newEchoTool()

		Convey("A tool call should be executed and its output sent back", func() {
			script := &scripted{replies: []map[string]any{
				toolCall(`{"contract_id": 1}`),
				answer("Contract 1 is MSA-001."),
			}}
			server := httptest.NewServer(script)
			defer server.Close()

			reply, err := newAgent(server, tool).Ask(context.Background(), "Tell me about contract 1")

			So(err, ShouldBeNil)
			So(reply, ShouldEqual, "Contract 1 is MSA-001.")
			So(tool.calls, ShouldResemble, []map[string]interface{}{{"contract_id": float64(1)}})

			So(script.requests, ShouldHaveLength, 2)
			first := script.requests[0]
			So(first["tools"], ShouldHaveLength, 1)
			So(contentText(first["messages"].([]any)[0].(map[string]any)["content"]), ShouldEqual, Instructions)

			sent := lastMessage(script.requests[1])
			So(sent["role"], ShouldEqual, "tool")
			So(sent["tool_call_id"], ShouldEqual, "call_1")
			So(contentText(sent["content"]), ShouldContainSubstring, "MSA-001")
		})

		Convey("A failing tool should be reported to the model", func() {
			script := &scripted{replies: []map[string]any{
				toolCall(`{"contract_id": 99}`),
				answer("The store is unavailable."),
			}}
			server := httptest.NewServer(script)
			defer server.Close()

			_, err := newAgent(server, tool).Ask(context.Background(), "Tell me about contract 99")

			So(err, ShouldBeNil)
			So(contentText(lastMessage(script.requests[1])["content"]), ShouldEqual, "Error: store unavailable")
		})

		Convey("Malformed arguments should not reach the tool", func() {
			script := &scripted{replies: []map[string]any{
				toolCall(`{"contract_id": `),
				answer("Sorry."),
			}}
			server := httptest.NewServer(script)
			defer server.Close()

			_, err := newAgent(server, tool).Ask(context.Background(), "Tell me about contract 1")

			So(err, ShouldBeNil)
			So(tool.calls, ShouldBeEmpty)
			So(contentText(lastMessage(script.requests[1])["content"]), ShouldStartWith, "Error: ")
		})

		Convey("A model that never stops calling tools should be cut off", func() {
			script := &scripted{replies: []map[string]any{toolCall(`{"contract_id": 1}`)}}
			server := httptest.NewServer(script)
			defer server.Close()

			_, err := newAgent(server, tool).Ask(context.Background(), "Loop forever")

			So(errors.Is(err, ErrTooManyRounds), ShouldBeTrue)
			So(script.requests, ShouldHaveLength, MaxRounds)
		})
	})
}
