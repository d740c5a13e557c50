package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/openai/openai-go/option"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/config"
)

type answer struct {
	Cypher string `json:"cypher"`
}

func stubServer(reply map[string]any, captured *map[string]any) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(captured)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(reply)
	}))
}

func TestNew(t *testing.T) {
	Convey("Given a configuration", t, func() {
		cfg := &config.Config{}

		Convey("It should pick OpenAI by default", func() {
			completer, err := New(cfg)
			So(err, ShouldBeNil)
			So(completer, ShouldHaveSameTypeAs, &OpenAICompleter{})
		})

		Convey("It should pick Anthropic when asked", func() {
			cfg.Translation.Provider = config.ProviderAnthropic
			completer, err := New(cfg)
			So(err, ShouldBeNil)
			So(completer, ShouldHaveSameTypeAs, &AnthropicCompleter{})
		})

		Convey("It should reject unknown providers", func() {
			cfg.Translation.Provider = "mistral"
			_, err := New(cfg)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestOpenAICompleter(t *testing.T) {
	Convey("Given an OpenAI completer against a stub endpoint", t, func() {
		captured := map[string]any{}
		server := stubServer(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": `{"cypher":"MATCH (a:Agreement) RETURN count(a)"}`},
			}},
		}, &captured)
		defer server.Close()

		cfg := &config.Config{}
		cfg.OpenAI.APIKey = "test"
		cfg.OpenAI.BaseURL = server.URL + "/"
		completer := NewOpenAICompleter(cfg, option.WithMaxRetries(0))

		Convey("It should return the reply and request structured output", func() {
			reply, err := completer.Complete(context.Background(), Request{
				System: "translate",
				Prompt: "How many agreements are there?",
				Schema: &Schema{Name: "cypher", Description: "query", Value: GenerateSchema[answer]()},
			})

			So(err, ShouldBeNil)
			So(reply, ShouldContainSubstring, "MATCH (a:Agreement)")
			So(captured["model"], ShouldEqual, "gpt-4o-mini")

			format, ok := captured["response_format"].(map[string]any)
			So(ok, ShouldBeTrue)
			So(format["type"], ShouldEqual, "json_schema")
			So(captured["messages"], ShouldHaveLength, 2)
		})
	})
}

func TestAnthropicCompleter(t *testing.T) {
	Convey("Given an Anthropic completer against a stub endpoint", t, func() {
		captured := map[string]any{}
		server := stubServer(map[string]any{
			"id":          "msg_1",
			"type":        "message",
			"role":        "assistant",
			"model":       "claude-3-5-sonnet-20240620",
			"stop_reason": "end_turn",
			"content":     []map[string]any{{"type": "text", "text": `{"cypher":"RETURN 1"}`}},
			"usage":       map[string]any{"input_tokens": 1, "output_tokens": 1},
		}, &captured)
		defer server.Close()

		cfg := &config.Config{}
		cfg.Anthropic.APIKey = "test"
		completer := NewAnthropicCompleter(cfg, anthropicoption.WithBaseURL(server.URL+"/"), anthropicoption.WithMaxRetries(0))

		Convey("It should return the text and spell the schema out in the system prompt", func() {
			reply, err := completer.Complete(context.Background(), Request{
				System: "translate",
				Prompt: "question",
				Schema: &Schema{Name: "cypher", Value: GenerateSchema[answer]()},
			})

			So(err, ShouldBeNil)
			So(reply, ShouldEqual, `{"cypher":"RETURN 1"}`)

			system, _ := json.Marshal(captured["system"])
			So(string(system), ShouldContainSubstring, "JSON schema")
		})
	})
}
