package chat

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/fleveque/etf-lens/internal/llm"
	"github.com/fleveque/etf-lens/internal/model"
)

type fakeChat struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []llm.ChatRequest
}

func (f *fakeChat) ProviderName() string { return "fake" }

func (f *fakeChat) Chat(_ context.Context, req llm.ChatRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

func newTestService(credential string, fake *fakeChat) *Service {
	return NewService(Config{Credential: credential, Model: "gemini-flash-lite-latest"}, NewStore(), fake, zap.NewNop())
}

func TestSend_AppendsUserAndAssistant(t *testing.T) {
	fake := &fakeChat{reply: "VOO tracks the S&P 500."}
	svc := newTestService("key", fake)
	id := svc.Create()

	messages, err := svc.Send(context.Background(), id, "What does VOO hold?")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	want := []model.ChatMessage{
		{Role: model.RoleUser, Content: "What does VOO hold?"},
		{Role: model.RoleAssistant, Content: "VOO tracks the S&P 500."},
	}
	if len(messages) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(messages))
	}
	for i := range want {
		if messages[i] != want[i] {
			t.Errorf("message %d: expected %+v, got %+v", i, want[i], messages[i])
		}
	}

	req := fake.requests[0]
	if req.System != SystemInstruction {
		t.Errorf("unexpected system instruction: %q", req.System)
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != model.RoleUser {
		t.Errorf("expected the model to see the user turn, got %+v", req.Messages)
	}
}

func TestSend_SendsFullTranscript(t *testing.T) {
	fake := &fakeChat{reply: "ok"}
	svc := newTestService("key", fake)
	id := svc.Create()

	for _, msg := range []string{"first", "second", "third"} {
		if _, err := svc.Send(context.Background(), id, msg); err != nil {
			t.Fatalf("send %q: %v", msg, err)
		}
	}

	last := fake.requests[len(fake.requests)-1]
	if len(last.Messages) != 5 {
		t.Errorf("expected 5 messages in the last request, got %d", len(last.Messages))
	}

	transcript, err := svc.Transcript(id)
	if err != nil {
		t.Fatalf("transcript: %v", err)
	}
	if len(transcript) != 6 {
		t.Errorf("expected 6 transcript entries, got %d", len(transcript))
	}
}

func TestSend_MissingCredential(t *testing.T) {
	fake := &fakeChat{reply: "unused"}
	svc := newTestService("", fake)
	id := svc.Create()

	messages, err := svc.Send(context.Background(), id, "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(messages) != 1 || messages[0].Content != MissingKeyReply {
		t.Errorf("expected a single missing-key reply, got %+v", messages)
	}
	if len(fake.requests) != 0 {
		t.Errorf("expected 0 upstream calls, got %d", len(fake.requests))
	}
}

func TestSend_UpstreamErrorBecomesReply(t *testing.T) {
	fake := &fakeChat{err: errors.New("timeout")}
	svc := newTestService("key", fake)
	id := svc.Create()

	messages, err := svc.Send(context.Background(), id, "hello")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := messages[len(messages)-1]; got.Role != model.RoleAssistant || got.Content != ErrorReply {
		t.Errorf("expected error reply, got %+v", got)
	}

	// The fallback reply is not sent back to the model on the next turn.
	fake.err = nil
	fake.reply = "back online"
	if _, err := svc.Send(context.Background(), id, "again"); err != nil {
		t.Fatalf("send: %v", err)
	}
	for _, m := range fake.requests[1].Messages {
		if m.Content == ErrorReply {
			t.Error("expected fallback reply to be filtered from the conversation")
		}
	}
}

func TestSend_EmptyReply(t *testing.T) {
	svc := newTestService("key", &fakeChat{reply: "  "})
	id := svc.Create()

	messages, err := svc.Send(context.Background(), id, "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if messages[len(messages)-1].Content != NoResponseReply {
		t.Errorf("expected no-response reply, got %q", messages[len(messages)-1].Content)
	}
}

func TestSend_Errors(t *testing.T) {
	svc := newTestService("key", &fakeChat{reply: "ok"})
	id := svc.Create()

	if _, err := svc.Send(context.Background(), id, "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("expected ErrEmptyMessage, got %v", err)
	}
	if _, err := svc.Send(context.Background(), "nope", "hi"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := svc.Transcript("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSend_ConcurrentSessionsStayOrdered(t *testing.T) {
	svc := newTestService("key", &fakeChat{reply: "ok"})
	id := svc.Create()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Send(context.Background(), id, "ping")
		}()
	}
	wg.Wait()

	transcript, err := svc.Transcript(id)
	if err != nil {
		t.Fatalf("transcript: %v", err)
	}
	if len(transcript) != 20 {
		t.Fatalf("expected 20 messages, got %d", len(transcript))
	}
	for i, m := range transcript {
		wantRole := model.RoleUser
		if i%2 == 1 {
			wantRole = model.RoleAssistant
		}
		if m.Role != wantRole {
			t.Fatalf("message %d: expected role %s, got %s", i, wantRole, m.Role)
		}
	}
}

func TestStore_CreateUniqueIDs(t *testing.T) {
	store := NewStore()
	a := store.Create()
	b := store.Create()
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("expected distinct non-empty ids, got %q and %q", a.ID, b.ID)
	}
	if got, err := store.Get(a.ID); err != nil || got != a {
		t.Errorf("expected to find session %s", a.ID)
	}
}
