package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/etf-lens/internal/storage"
)

// AdminHandler handles administrative endpoints.
type AdminHandler struct {
	llmCallRepo storage.LLMCallRepository
	logger      *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(llmCallRepo storage.LLMCallRepository, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		llmCallRepo: llmCallRepo,
		logger:      logger,
	}
}

// Stats returns model call counts per operation.
// Route: GET /api/v1/admin/stats?subject=VOO
//
// With a subject, the number of calls made for it is included as well.
// Subjects match exactly: analyses are recorded under the upper-case ticker,
// visuals as "visual" and chat turns as "chat:<session id>".
func (h *AdminHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	stats, err := h.llmCallRepo.Stats(ctx)
	if err != nil {
		h.logger.Error("loading llm call stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	var total, failed int64
	for _, s := range stats {
		total += s.Total
		failed += s.Failed
	}

	body := gin.H{
		"total":      total,
		"failed":     failed,
		"operations": stats,
	}

	if subject := strings.TrimSpace(c.Query("subject")); subject != "" {
		count, err := h.llmCallRepo.CountBySubject(ctx, subject)
		if err != nil {
			h.logger.Error("counting llm calls", zap.String("subject", subject), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		body["subject"] = subject
		body["subject_calls"] = count
	}

	c.JSON(http.StatusOK, body)
}
