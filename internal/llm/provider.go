package llm

import "fmt"

// Backends groups the capabilities one provider offers. A nil field means the
// provider cannot serve that kind of call.
type Backends struct {
	Text  TextGenerator
	Image ImageGenerator
	Chat  ChatModel
}

// NewBackends builds the clients for the named provider. The API key may be
// empty: callers check for a credential before issuing any call.
func NewBackends(provider, apiKey string) (Backends, error) {
	switch provider {
	case "gemini":
		c := NewGeminiClient(apiKey)
		return Backends{Text: c, Image: c, Chat: c}, nil
	case "anthropic":
		c := NewAnthropicClient(apiKey)
		return Backends{Text: c, Chat: c}, nil
	case "openai":
		c := NewOpenAIClient(apiKey)
		return Backends{Text: c, Image: c, Chat: c}, nil
	default:
		return Backends{}, fmt.Errorf("unknown LLM provider: %s", provider)
	}
}
