// Package chat keeps in-memory analyst chat sessions and relays each user
// message, with the full transcript, to the chat model.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fleveque/etf-lens/internal/llm"
	"github.com/fleveque/etf-lens/internal/model"
)

// SystemInstruction frames every chat session.
const SystemInstruction = "You are an expert financial analyst. Be concise and provide data-driven insights about ETFs and markets."

// Assistant replies used in place of model output.
const (
	MissingKeyReply = "API Key missing. Please check your setup."
	ErrorReply      = "Communication error. Check your connection or API key."
	NoResponseReply = "No response received."
)

var (
	ErrSessionNotFound = errors.New("chat session not found")
	ErrEmptyMessage    = errors.New("message is empty")
)

// Session is one transcript. Sends on a session are serialized so messages
// stay in order; different sessions never block each other.
type Session struct {
	ID string

	mu       sync.Mutex
	messages []model.ChatMessage
}

func (s *Session) snapshot() []model.ChatMessage {
	out := make([]model.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Store holds sessions for the lifetime of the process. Nothing is persisted.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create starts a new, empty session.
func (st *Store) Create() *Session {
	s := &Session{ID: uuid.New().String()}
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get looks up a session by id.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Config is the explicit configuration of the chat service.
type Config struct {
	Credential string
	Model      string
}

// Service relays chat messages to the model.
type Service struct {
	cfg    Config
	store  *Store
	model  llm.ChatModel
	logger *zap.Logger
}

// NewService creates a chat service over the given store and model.
func NewService(cfg Config, store *Store, chatModel llm.ChatModel, logger *zap.Logger) *Service {
	return &Service{cfg: cfg, store: store, model: chatModel, logger: logger}
}

// Create starts a new session and returns its id.
func (s *Service) Create() string { return s.store.Create().ID }

// Send appends the user's message and the assistant's reply to the session and
// returns the updated transcript. Upstream failures become assistant messages;
// only an unknown session or an empty message is an error.
func (s *Service) Send(ctx context.Context, sessionID, content string) ([]model.ChatMessage, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}
	session, err := s.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if s.cfg.Credential == "" {
		session.messages = append(session.messages, model.ChatMessage{Role: model.RoleAssistant, Content: MissingKeyReply})
		return session.snapshot(), nil
	}

	session.messages = append(session.messages, model.ChatMessage{Role: model.RoleUser, Content: content})

	reply, err := s.model.Chat(llm.WithSubject(ctx, "chat:"+session.ID), llm.ChatRequest{
		Model:    s.cfg.Model,
		System:   SystemInstruction,
		Messages: conversation(session.messages),
	})
	switch {
	case err != nil:
		s.logger.Error("chat call failed", zap.String("session", session.ID), zap.Error(err))
		reply = ErrorReply
	case strings.TrimSpace(reply) == "":
		reply = NoResponseReply
	}

	session.messages = append(session.messages, model.ChatMessage{Role: model.RoleAssistant, Content: reply})
	return session.snapshot(), nil
}

// Transcript returns a copy of the session's messages.
func (s *Service) Transcript(sessionID string) ([]model.ChatMessage, error) {
	session, err := s.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.snapshot(), nil
}

// conversation drops the locally generated fallback replies so the model only
// sees real turns.
func conversation(messages []model.ChatMessage) []model.ChatMessage {
	out := make([]model.ChatMessage, 0, len(messages))
	for _, m := range messages {
		if m.Role == model.RoleAssistant && isFallback(m.Content) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func isFallback(content string) bool {
	return content == MissingKeyReply || content == ErrorReply || content == NoResponseReply
}
