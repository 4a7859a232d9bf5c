package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/fleveque/etf-lens/internal/model"
)

// GeminiClient implements TextGenerator, ImageGenerator and ChatModel on top
// of the Gemini API. Grounded requests use the built-in Google Search tool;
// Gemini rejects a response schema when tools are enabled, so the two are
// never combined.
type GeminiClient struct {
	apiKey string

	mu     sync.Mutex
	client *genai.Client
}

// NewGeminiClient creates a Gemini-backed client. The SDK client is created on
// first use so a missing key is reported by the caller, not at startup.
func NewGeminiClient(apiKey string) *GeminiClient {
	return &GeminiClient{apiKey: apiKey}
}

func (g *GeminiClient) ProviderName() string { return "gemini" }

func (g *GeminiClient) sdk(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return g.client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	g.client = client
	return client, nil
}

func (g *GeminiClient) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	client, err := g.sdk(ctx)
	if err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{}
	if req.Grounded {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	} else if req.Schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = toGeminiSchema(req.Schema)
	}

	resp, err := client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini API call: %w", err)
	}
	return resp.Text(), nil
}

func (g *GeminiClient) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error) {
	client, err := g.sdk(ctx)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{{
		Role:  string(genai.RoleUser),
		Parts: []*genai.Part{{Text: req.Prompt}},
	}}
	config := &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{
			AspectRatio: req.AspectRatio,
			ImageSize:   string(req.Size),
		},
	}

	resp, err := client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini image call: %w", err)
	}
	return fromGeminiResponse(resp), nil
}

func (g *GeminiClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	client, err := g.sdk(ctx)
	if err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := client.Models.GenerateContent(ctx, req.Model, toGeminiContents(req.Messages), config)
	if err != nil {
		return "", fmt.Errorf("gemini chat call: %w", err)
	}
	return resp.Text(), nil
}

// fromGeminiResponse copies the first candidate's parts into our envelope.
func fromGeminiResponse(resp *genai.GenerateContentResponse) *ImageResponse {
	out := &ImageResponse{}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return out
	}
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil {
			continue
		}
		part := Part{Text: p.Text}
		if p.InlineData != nil {
			part.InlineData = &InlineData{MIMEType: p.InlineData.MIMEType, Data: p.InlineData.Data}
		}
		out.Parts = append(out.Parts, part)
	}
	return out
}

func toGeminiContents(messages []model.ChatMessage) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := genai.RoleUser
		if m.Role == model.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, genai.Role(role)))
	}
	return contents
}

func toGeminiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:             genai.Type(strings.ToUpper(string(s.Type))),
		Description:      s.Description,
		Required:         s.Required,
		PropertyOrdering: s.Order,
		Items:            toGeminiSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, p := range s.Properties {
			out.Properties[name] = toGeminiSchema(p)
		}
	}
	return out
}
