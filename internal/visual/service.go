// Package visual generates a conceptual image for a fund summary.
// Generation is best-effort: every failure collapses into "no image".
package visual

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fleveque/etf-lens/internal/llm"
	"github.com/fleveque/etf-lens/internal/model"
)

const (
	aspectRatio   = "16:9"
	dataURIPrefix = "data:image/png;base64,"
)

// Config is the explicit configuration of the shim.
type Config struct {
	Credential string
	Model      string
}

// Service is the visual generation shim.
type Service struct {
	cfg    Config
	images llm.ImageGenerator
	logger *zap.Logger
}

// NewService creates a visual service backed by the given image generator.
func NewService(cfg Config, images llm.ImageGenerator, logger *zap.Logger) *Service {
	return &Service{cfg: cfg, images: images, logger: logger}
}

// Generate returns a data URI for the first image the model produced.
// ok is false when no image was produced for any reason; it never errors.
func (s *Service) Generate(ctx context.Context, prompt string, size model.ImageSize) (uri string, ok bool) {
	if s.cfg.Credential == "" {
		s.logger.Warn("image generation skipped: no API key configured")
		return "", false
	}

	resp, err := s.images.GenerateImage(llm.WithSubject(ctx, "visual"), llm.ImageRequest{
		Model:       s.cfg.Model,
		Prompt:      "Minimalist 3D financial visualization for: " + prompt,
		AspectRatio: aspectRatio,
		Size:        size,
	})
	if err != nil {
		s.logger.Error("image generation failed", zap.String("size", string(size)), zap.Error(err))
		return "", false
	}

	uri, ok = DataURI(resp)
	if !ok {
		s.logger.Info("model returned no image", zap.String("size", string(size)))
	}
	return uri, ok
}

// DataURI encodes the first part carrying inline data as a PNG data URI.
func DataURI(resp *llm.ImageResponse) (string, bool) {
	if resp == nil {
		return "", false
	}
	for _, part := range resp.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return dataURIPrefix + base64.StdEncoding.EncodeToString(part.InlineData.Data), true
		}
	}
	return "", false
}

// DecodeDataURI returns the image bytes of a URI produced by DataURI.
func DecodeDataURI(uri string) ([]byte, error) {
	encoded, ok := strings.CutPrefix(uri, dataURIPrefix)
	if !ok {
		return nil, fmt.Errorf("not a png data uri")
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding data uri: %w", err)
	}
	return data, nil
}
