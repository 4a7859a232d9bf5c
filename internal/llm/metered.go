package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fleveque/etf-lens/internal/model"
)

// CallRecorder persists LLM call records. storage.LLMCallRepository satisfies it.
type CallRecorder interface {
	Create(ctx context.Context, call *model.LLMCall) error
}

// Metered wraps a provider with a shared per-minute rate limiter and records
// every call for cost tracking. Waiting on the limiter only paces calls;
// failed calls are never retried.
type Metered struct {
	text     TextGenerator
	image    ImageGenerator
	chat     ChatModel
	limiter  *rate.Limiter
	recorder CallRecorder
	logger   *zap.Logger
}

// NewMetered decorates the given backends. Any of them may be nil when the
// provider does not support that kind of call.
func NewMetered(
	text TextGenerator,
	image ImageGenerator,
	chat ChatModel,
	ratePerMinute int,
	recorder CallRecorder,
	logger *zap.Logger,
) *Metered {
	limit := rate.Inf
	if ratePerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(ratePerMinute))
	}
	return &Metered{
		text:     text,
		image:    image,
		chat:     chat,
		limiter:  rate.NewLimiter(limit, 1),
		recorder: recorder,
		logger:   logger,
	}
}

// Text, Image and Chat expose the decorated capabilities as the small
// interfaces the services depend on.
func (m *Metered) Text() TextGenerator   { return meteredText{m} }
func (m *Metered) Image() ImageGenerator { return meteredImage{m} }
func (m *Metered) Chat() ChatModel       { return meteredChat{m} }

type meteredText struct{ m *Metered }

func (t meteredText) ProviderName() string { return providerName(t.m.text) }

func (t meteredText) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	if t.m.text == nil {
		return "", fmt.Errorf("text generation: %w", ErrUnsupported)
	}
	if err := t.m.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	start := time.Now()
	out, err := t.m.text.GenerateText(ctx, req)
	t.m.record(ctx, model.OperationAnalysis, subjectFromContext(ctx), t.m.text.ProviderName(), req.Model, err, start)
	return out, err
}

type meteredImage struct{ m *Metered }

func (i meteredImage) ProviderName() string { return providerName(i.m.image) }

func (i meteredImage) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error) {
	if i.m.image == nil {
		return nil, fmt.Errorf("image generation: %w", ErrUnsupported)
	}
	if err := i.m.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	start := time.Now()
	out, err := i.m.image.GenerateImage(ctx, req)
	i.m.record(ctx, model.OperationVisual, subjectFromContext(ctx), i.m.image.ProviderName(), req.Model, err, start)
	return out, err
}

type meteredChat struct{ m *Metered }

func (c meteredChat) ProviderName() string { return providerName(c.m.chat) }

func (c meteredChat) Chat(ctx context.Context, req ChatRequest) (string, error) {
	if c.m.chat == nil {
		return "", fmt.Errorf("chat: %w", ErrUnsupported)
	}
	if err := c.m.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	start := time.Now()
	out, err := c.m.chat.Chat(ctx, req)
	c.m.record(ctx, model.OperationChat, subjectFromContext(ctx), c.m.chat.ProviderName(), req.Model, err, start)
	return out, err
}

func (m *Metered) record(ctx context.Context, op model.Operation, subject, provider, modelName string, callErr error, start time.Time) {
	if m.recorder == nil {
		return
	}
	duration := time.Since(start).Milliseconds()
	call := &model.LLMCall{
		Subject:    subject,
		Operation:  op,
		Provider:   provider,
		Model:      modelName,
		Success:    callErr == nil,
		DurationMs: &duration,
	}
	// The request context may already be cancelled; the record should still land.
	if err := m.recorder.Create(context.WithoutCancel(ctx), call); err != nil {
		m.logger.Error("recording LLM call", zap.String("operation", string(op)), zap.Error(err))
	}
}

func providerName(id Identity) string {
	if id == nil {
		return "none"
	}
	return id.ProviderName()
}

type subjectKey struct{}

// WithSubject tags the context with the subject recorded for the next call,
// e.g. the ticker being analysed.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

func subjectFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(subjectKey{}).(string); ok {
		return s
	}
	return ""
}
