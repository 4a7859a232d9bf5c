package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/fleveque/etf-lens/internal/model"
)

// OpenAIClient implements TextGenerator, ImageGenerator and ChatModel using
// OpenAI. Chat completions have no live search tool, so grounded requests are
// refused; schema requests use the strict JSON-schema response format.
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient creates a new OpenAI-backed client.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return NewOpenAIClientWithConfig(openai.DefaultConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a client from a full SDK config, e.g. one
// whose BaseURL points at a proxy or a compatible server.
func NewOpenAIClientWithConfig(config openai.ClientConfig) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
	}
}

func (o *OpenAIClient) ProviderName() string { return "openai" }

func (o *OpenAIClient) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	if req.Grounded {
		return "", fmt.Errorf("openai grounded generation: %w", ErrUnsupported)
	}

	request := openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	}
	if req.Schema != nil {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "etf_data",
				Schema: rawSchema(req.Schema.ToMap()),
				Strict: true,
			},
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", fmt.Errorf("openai API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAIClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == model.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAIClient) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error) {
	resp, err := o.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         req.Prompt,
		Model:          req.Model,
		N:              1,
		Size:           openAIImageSize(req.AspectRatio),
		Quality:        openAIImageQuality(req.Size),
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("openai image call: %w", err)
	}

	out := &ImageResponse{}
	for _, d := range resp.Data {
		if d.B64JSON == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(d.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("decoding openai image payload: %w", err)
		}
		out.Parts = append(out.Parts, Part{InlineData: &InlineData{MIMEType: "image/png", Data: data}})
	}
	return out, nil
}

// openAIImageSize maps an aspect ratio onto the fixed sizes DALL-E 3 accepts.
func openAIImageSize(aspectRatio string) string {
	switch aspectRatio {
	case "16:9":
		return openai.CreateImageSize1792x1024
	case "9:16":
		return openai.CreateImageSize1024x1792
	default:
		return openai.CreateImageSize1024x1024
	}
}

// openAIImageQuality approximates the resolution tokens with DALL-E 3 quality levels.
func openAIImageQuality(size model.ImageSize) string {
	if size == model.ImageSize1K {
		return openai.CreateImageQualityStandard
	}
	return openai.CreateImageQualityHD
}

// rawSchema lets a plain map satisfy the json.Marshaler the SDK expects.
type rawSchema map[string]any

func (r rawSchema) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any(r))
}
