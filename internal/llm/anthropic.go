package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"github.com/fleveque/etf-lens/internal/model"
)

const (
	submitToolName = "submit_etf_data"
	// maxTurns bounds how often a paused web-search turn is resumed.
	maxTurns = 5
)

// AnthropicClient implements TextGenerator and ChatModel using Claude.
// Grounded requests enable Claude's native web_search tool. Schema requests
// force a call to a custom tool whose input schema is the requested shape,
// which gives us clean JSON instead of parsing free-form text.
type AnthropicClient struct {
	client    *anthropic.Client
	maxTokens int64
}

// NewAnthropicClient creates a new Claude-backed client. Extra request options
// (a base URL, retry policy) are applied after the API key.
func NewAnthropicClient(apiKey string, opts ...option.RequestOption) *AnthropicClient {
	// Go note: append to a fresh slice so the caller's opts are never mutated.
	client := anthropic.NewClient(
		append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...,
	)
	return &AnthropicClient{
		client:    &client,
		maxTokens: 2048,
	}
}

func (a *AnthropicClient) ProviderName() string { return "anthropic" }

func (a *AnthropicClient) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: a.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}

	switch {
	case req.Grounded:
		params.Tools = []anthropic.ToolUnionParam{
			{OfWebSearchTool20250305: &anthropic.WebSearchTool20250305Param{}},
		}
	case req.Schema != nil:
		params.Tools = []anthropic.ToolUnionParam{{OfTool: submitTool(req.Schema)}}
		params.ToolChoice = anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: submitToolName},
		}
	}

	if !req.Grounded {
		message, err := a.client.Messages.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("anthropic API call: %w", err)
		}
		if req.Schema == nil {
			return joinText(message.Content), nil
		}
		// A forced tool call carries the structured answer as its input.
		for _, block := range message.Content {
			toolUse, ok := block.AsAny().(anthropic.ToolUseBlock)
			if ok && toolUse.Name == submitToolName {
				return string(toolUse.Input), nil
			}
		}
		return "", nil
	}

	// Web search runs server-side, but a long search turn can come back with
	// stop_reason "pause_turn". Sending the partial reply back as the assistant
	// turn lets Claude pick up where it stopped.
	for i := 0; i < maxTurns; i++ {
		message, err := a.client.Messages.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("anthropic API call: %w", err)
		}
		if message.StopReason != "pause_turn" {
			return finalText(message.Content), nil
		}
		params.Messages = append(params.Messages, message.ToParam())
	}
	return "", fmt.Errorf("anthropic grounded call still paused after %d turns", maxTurns)
}

func (a *AnthropicClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == model.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: a.maxTokens,
		Messages:  messages,
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	message, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic chat call: %w", err)
	}
	return joinText(message.Content), nil
}

func submitTool(schema *Schema) *anthropic.ToolParam {
	m := schema.ToMap()
	return &anthropic.ToolParam{
		Name:        submitToolName,
		Description: param.NewOpt("Submit the fund data you researched. Call this exactly once."),
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: m["properties"],
			Required:   schema.Required,
		},
	}
}

// joinText concatenates the text blocks of a reply.
func joinText(blocks []anthropic.ContentBlockUnion) string {
	var sb strings.Builder
	for _, block := range blocks {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}
	return sb.String()
}

// finalText returns the text Claude wrote after its last non-text block.
// With web search on, a reply looks like
// [text "I'll look that up", server_tool_use, web_search_tool_result, text answer...]
// and only the trailing text is the answer. Citations split that answer into
// several text blocks, which are joined.
func finalText(blocks []anthropic.ContentBlockUnion) string {
	var sb strings.Builder
	for _, block := range blocks {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
			continue
		}
		sb.Reset()
	}
	return sb.String()
}
