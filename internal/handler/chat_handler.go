package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fleveque/etf-lens/internal/chat"
	"github.com/fleveque/etf-lens/internal/model"
)

// ChatService holds analyst chat sessions.
type ChatService interface {
	Create() string
	Send(ctx context.Context, sessionID, content string) ([]model.ChatMessage, error)
	Transcript(sessionID string) ([]model.ChatMessage, error)
}

// ChatHandler serves the analyst chat.
type ChatHandler struct {
	chat ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chat ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type messageRequest struct {
	Content string `json:"content"`
}

// CreateSession starts an empty chat session.
// Route: POST /api/v1/chat/sessions
func (h *ChatHandler) CreateSession(c *gin.Context) {
	c.JSON(http.StatusCreated, gin.H{"id": h.chat.Create()})
}

// SendMessage appends a user message and the assistant reply.
// Route: POST /api/v1/chat/sessions/:id/messages {"content": "..."}
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	messages, err := h.chat.Send(c.Request.Context(), c.Param("id"), req.Content)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// GetMessages returns the session transcript.
// Route: GET /api/v1/chat/sessions/:id/messages
func (h *ChatHandler) GetMessages(c *gin.Context) {
	messages, err := h.chat.Transcript(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (h *ChatHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, chat.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
