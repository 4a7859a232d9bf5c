// Package analysis turns a ticker into an ETFData record by prompting a hosted
// text model and normalizing what comes back.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fleveque/etf-lens/internal/llm"
	"github.com/fleveque/etf-lens/internal/model"
)

// Mode selects how the model is asked for structured data.
type Mode string

const (
	// ModeGrounded enables live search; the JSON shape is only requested in prose.
	ModeGrounded Mode = "grounded"
	// ModeSchema declares an output schema the model is bound to follow.
	ModeSchema Mode = "schema"
)

// ValidMode reports whether s names a supported mode.
func ValidMode(s string) bool {
	return s == string(ModeGrounded) || s == string(ModeSchema)
}

// Config is the explicit configuration of the shim.
type Config struct {
	Credential string
	Model      string
	Mode       Mode
}

// Service is the analysis shim. It holds no mutable state; every call is
// independent and nothing is cached or retried.
type Service struct {
	cfg    Config
	text   llm.TextGenerator
	logger *zap.Logger
}

// NewService creates an analysis service backed by the given text generator.
func NewService(cfg Config, text llm.TextGenerator, logger *zap.Logger) *Service {
	if cfg.Mode == "" {
		cfg.Mode = ModeGrounded
	}
	return &Service{cfg: cfg, text: text, logger: logger}
}

// Analyze asks the model about the ticker and decodes its answer. The ticker
// is sent as given; callers normalize it for display.
func (s *Service) Analyze(ctx context.Context, ticker string) (*model.ETFData, error) {
	if strings.TrimSpace(ticker) == "" {
		return nil, ErrEmptyTicker
	}
	if s.cfg.Credential == "" {
		return nil, ErrMissingCredential
	}

	req := llm.TextRequest{Model: s.cfg.Model}
	switch s.cfg.Mode {
	case ModeSchema:
		req.Prompt = buildSchemaPrompt(ticker)
		req.Schema = llm.ETFSchema()
	default:
		req.Prompt = buildGroundedPrompt(ticker)
		req.Grounded = true
	}

	text, err := s.text.GenerateText(llm.WithSubject(ctx, ticker), req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamTransport, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyResponse
	}

	data, err := Decode(text)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			s.logger.Warn("could not parse model response",
				zap.String("ticker", ticker),
				zap.String("mode", string(s.cfg.Mode)),
				zap.String("raw", perr.Raw),
			)
		}
		return nil, err
	}
	return data, nil
}

// Decode strips any code fence and decodes the text into ETFData. Either the
// whole record decodes or nothing is returned.
func Decode(text string) (*model.ETFData, error) {
	clean := StripCodeFence(text)
	if clean == "" {
		return nil, ErrEmptyResponse
	}

	if clean == "null" {
		return nil, &ParseError{Raw: clean, Err: errors.New("null is not an object")}
	}

	var data model.ETFData
	if err := json.Unmarshal([]byte(clean), &data); err != nil {
		return nil, &ParseError{Raw: clean, Err: err}
	}
	return &data, nil
}
