package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/sashabaranov/go-openai"

	"github.com/fleveque/etf-lens/internal/model"
)

// anthropicReply renders a Messages API response with the given content blocks.
func anthropicReply(stopReason, content string) string {
	return `{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",` +
		`"content":` + content + `,"stop_reason":"` + stopReason + `","stop_sequence":null,` +
		`"usage":{"input_tokens":10,"output_tokens":20}}`
}

const (
	searchUse    = `{"type":"server_tool_use","id":"srvtoolu_1","name":"web_search","input":{"query":"VOO price"}}`
	searchResult = `{"type":"web_search_tool_result","tool_use_id":"srvtoolu_1","content":[` +
		`{"type":"web_search_result","title":"VOO","url":"https://example.com/voo","encrypted_content":"abc","page_age":null}]}`
)

// newAnthropicTestClient serves each request from replies in order and counts them.
func newAnthropicTestClient(t *testing.T, replies ...string) (*AnthropicClient, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(&calls, 1)) - 1
		if n >= len(replies) {
			n = len(replies) - 1
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, replies[n])
	}))
	t.Cleanup(srv.Close)

	return NewAnthropicClient("test-key", option.WithBaseURL(srv.URL), option.WithMaxRetries(0)), &calls
}

func TestAnthropicClient_GenerateText(t *testing.T) {
	tests := []struct {
		name  string
		req   TextRequest
		reply string
		want  string
	}{
		{
			name: "grounded keeps only the answer after the search",
			req:  TextRequest{Model: "claude-test", Prompt: "VOO", Grounded: true},
			reply: anthropicReply("end_turn", `[{"type":"text","text":"I'll search for current VOO data."},`+
				searchUse+`,`+searchResult+`,{"type":"text","text":"{\"ticker\":\"VOO\"}"}]`),
			want: `{"ticker":"VOO"}`,
		},
		{
			name: "grounded prose right before a search",
			req:  TextRequest{Model: "claude-test", Prompt: "VOO", Grounded: true},
			reply: anthropicReply("end_turn", `[{"type":"text","text":"Looking it up."},`+
				searchUse+`,{"type":"text","text":"{\"ticker\":"},{"type":"text","text":"\"VOO\"}"}]`),
			want: `{"ticker":"VOO"}`,
		},
		{
			name: "forced submit tool input",
			req:  TextRequest{Model: "claude-test", Prompt: "VOO", Schema: ETFSchema()},
			reply: anthropicReply("tool_use", `[{"type":"tool_use","id":"toolu_1","name":"submit_etf_data",`+
				`"input":{"ticker":"VOO"}}]`),
			want: `{"ticker":"VOO"}`,
		},
		{
			name:  "schema reply without a tool call",
			req:   TextRequest{Model: "claude-test", Prompt: "VOO", Schema: ETFSchema()},
			reply: anthropicReply("end_turn", `[{"type":"text","text":"no data"}]`),
			want:  "",
		},
		{
			name:  "plain prompt joins text",
			req:   TextRequest{Model: "claude-test", Prompt: "hello"},
			reply: anthropicReply("end_turn", `[{"type":"text","text":"Hello, "},{"type":"text","text":"world"}]`),
			want:  "Hello, world",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newAnthropicTestClient(t, tt.reply)

			got, err := client.GenerateText(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("GenerateText: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnthropicClient_GroundedResumesPausedTurn(t *testing.T) {
	client, calls := newAnthropicTestClient(t,
		anthropicReply("pause_turn", `[{"type":"text","text":"Searching."},`+searchUse+`]`),
		anthropicReply("end_turn", `[`+searchResult+`,{"type":"text","text":"{\"ticker\":\"VOO\"}"}]`),
	)

	got, err := client.GenerateText(context.Background(), TextRequest{Model: "claude-test", Prompt: "VOO", Grounded: true})
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if got != `{"ticker":"VOO"}` {
		t.Errorf("got %q", got)
	}
	if n := atomic.LoadInt32(calls); n != 2 {
		t.Errorf("expected 2 requests, got %d", n)
	}
}

func TestAnthropicClient_GroundedGivesUpWhenAlwaysPaused(t *testing.T) {
	client, calls := newAnthropicTestClient(t,
		anthropicReply("pause_turn", `[`+searchUse+`]`),
	)

	if _, err := client.GenerateText(context.Background(), TextRequest{Model: "claude-test", Prompt: "VOO", Grounded: true}); err == nil {
		t.Fatal("expected an error after repeated pauses")
	}
	if n := atomic.LoadInt32(calls); n != maxTurns {
		t.Errorf("expected %d requests, got %d", maxTurns, n)
	}
}

func TestAnthropicClient_Chat(t *testing.T) {
	client, _ := newAnthropicTestClient(t,
		anthropicReply("end_turn", `[{"type":"text","text":"VOO tracks "},{"type":"text","text":"the S&P 500."}]`),
	)

	got, err := client.Chat(context.Background(), ChatRequest{
		Model:    "claude-test",
		System:   "You are an ETF analyst.",
		Messages: []model.ChatMessage{{Role: model.RoleUser, Content: "What is VOO?"}},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got != "VOO tracks the S&P 500." {
		t.Errorf("got %q", got)
	}
}

// newOpenAITestClient points an OpenAIClient at a server that always answers
// with reply. When body is non-nil it receives the last decoded request.
func newOpenAITestClient(t *testing.T, reply string, body *map[string]any) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if body != nil {
			if err := json.NewDecoder(r.Body).Decode(body); err != nil {
				t.Errorf("decoding request body: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)

	config := openai.DefaultConfig("test-key")
	config.BaseURL = srv.URL + "/v1"
	return NewOpenAIClientWithConfig(config)
}

func TestOpenAIClient_GenerateText(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		want       string
		wantStrict bool
		schema     *Schema
	}{
		{
			name: "schema request is strict",
			reply: `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o",` +
				`"choices":[{"index":0,"message":{"role":"assistant","content":"{\"ticker\":\"VOO\"}"},"finish_reason":"stop"}]}`,
			want:       `{"ticker":"VOO"}`,
			wantStrict: true,
			schema:     ETFSchema(),
		},
		{
			name:  "no choices",
			reply: `{"id":"c2","object":"chat.completion","created":1,"model":"gpt-4o","choices":[]}`,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]any
			client := newOpenAITestClient(t, tt.reply, &body)

			got, err := client.GenerateText(context.Background(), TextRequest{Model: "gpt-4o", Prompt: "VOO", Schema: tt.schema})
			if err != nil {
				t.Fatalf("GenerateText: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}

			if !tt.wantStrict {
				return
			}
			format, _ := body["response_format"].(map[string]any)
			schema, _ := format["json_schema"].(map[string]any)
			if schema["strict"] != true {
				t.Errorf("expected strict json_schema, got %v", format)
			}
		})
	}
}

func TestOpenAIClient_GenerateImage(t *testing.T) {
	png := []byte("\x89PNG fake")

	tests := []struct {
		name      string
		reply     string
		wantParts int
		wantErr   bool
	}{
		{
			name:      "base64 payload becomes inline data",
			reply:     `{"created":1,"data":[{"b64_json":"` + base64.StdEncoding.EncodeToString(png) + `"}]}`,
			wantParts: 1,
		},
		{
			name:      "empty payload is skipped",
			reply:     `{"created":1,"data":[{"url":"https://example.com/x.png"}]}`,
			wantParts: 0,
		},
		{
			name:    "undecodable payload",
			reply:   `{"created":1,"data":[{"b64_json":"!!not-base64!!"}]}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newOpenAITestClient(t, tt.reply, nil)

			resp, err := client.GenerateImage(context.Background(), ImageRequest{
				Model: "dall-e-3", Prompt: "VOO chart", AspectRatio: "16:9", Size: model.ImageSize2K,
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("GenerateImage error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(resp.Parts) != tt.wantParts {
				t.Fatalf("expected %d parts, got %d", tt.wantParts, len(resp.Parts))
			}
			if tt.wantParts > 0 {
				inline := resp.Parts[0].InlineData
				if inline.MIMEType != "image/png" || string(inline.Data) != string(png) {
					t.Errorf("unexpected inline data %q (%s)", inline.Data, inline.MIMEType)
				}
			}
		})
	}
}

func TestOpenAIClient_Chat(t *testing.T) {
	var body map[string]any
	client := newOpenAITestClient(t, `{"id":"c3","object":"chat.completion","created":1,"model":"gpt-4o",`+
		`"choices":[{"index":0,"message":{"role":"assistant","content":"Hi"},"finish_reason":"stop"}]}`, &body)

	got, err := client.Chat(context.Background(), ChatRequest{
		Model:    "gpt-4o",
		System:   "be brief",
		Messages: []model.ChatMessage{{Role: model.RoleUser, Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got != "Hi" {
		t.Errorf("got %q", got)
	}
	if messages, _ := body["messages"].([]any); len(messages) != 2 {
		t.Errorf("expected system and user messages, got %v", body["messages"])
	}
}
