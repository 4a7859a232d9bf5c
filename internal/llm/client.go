// Package llm provides a provider-agnostic interface over the hosted generative
// models the service talks to: text generation (optionally grounded with live
// search or constrained by an output schema), image generation and chat.
//
// Each provider (Gemini, Claude, OpenAI) implements the subset it supports.
// Keep the interfaces small so the shims can be tested with plain fakes.
package llm

import (
	"context"
	"errors"

	"github.com/fleveque/etf-lens/internal/model"
)

// ErrUnsupported is returned when a provider cannot serve a request kind.
var ErrUnsupported = errors.New("operation not supported by provider")

// TextRequest describes one text-generation call.
type TextRequest struct {
	Model  string
	Prompt string
	// Grounded enables the provider's live web search tool.
	Grounded bool
	// Schema, when set, asks the provider to emit JSON matching it.
	Schema *Schema
}

// ImageRequest describes one image-generation call.
type ImageRequest struct {
	Model       string
	Prompt      string
	AspectRatio string
	Size        model.ImageSize
}

// InlineData is a binary payload carried inside a response part.
type InlineData struct {
	MIMEType string
	Data     []byte
}

// Part is one content fragment of a response envelope: either text or
// inline binary data.
type Part struct {
	Text       string
	InlineData *InlineData
}

// ImageResponse is the envelope returned by an image-generation call.
type ImageResponse struct {
	Parts []Part
}

// ChatRequest carries a full transcript; providers are called statelessly.
type ChatRequest struct {
	Model    string
	System   string
	Messages []model.ChatMessage
}

// Identity reports which provider and model served a call.
type Identity interface {
	ProviderName() string
}

// TextGenerator generates free text (which may be JSON) from a prompt.
type TextGenerator interface {
	Identity
	GenerateText(ctx context.Context, req TextRequest) (string, error)
}

// ImageGenerator generates images.
type ImageGenerator interface {
	Identity
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error)
}

// ChatModel answers the last user message of a transcript.
type ChatModel interface {
	Identity
	Chat(ctx context.Context, req ChatRequest) (string, error)
}
