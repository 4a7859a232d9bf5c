package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fleveque/etf-lens/internal/model"
)

// VisualGenerator renders a prompt to an image data URI.
type VisualGenerator interface {
	Generate(ctx context.Context, prompt string, size model.ImageSize) (string, bool)
}

// VisualRequest is the body of POST /api/v1/visuals.
type VisualRequest struct {
	Prompt string `json:"prompt"`
	Size   string `json:"size"`
}

// VisualHandler serves generated market visuals.
type VisualHandler struct {
	generator VisualGenerator
}

// NewVisualHandler creates a new VisualHandler.
func NewVisualHandler(generator VisualGenerator) *VisualHandler {
	return &VisualHandler{generator: generator}
}

// CreateVisual generates one image for the prompt.
// Route: POST /api/v1/visuals {"prompt": "...", "size": "2K"}
//
// An absent image is a normal outcome and is returned as {"image": null}.
func (h *VisualHandler) CreateVisual(c *gin.Context) {
	var req VisualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}

	if req.Size == "" {
		req.Size = string(model.ImageSize1K)
	}
	size, err := model.ParseImageSize(req.Size)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	uri, ok := h.generator.Generate(c.Request.Context(), prompt, size)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"image": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"image": uri})
}
