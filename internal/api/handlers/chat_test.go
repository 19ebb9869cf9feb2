package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/arielvoskov/reviewlens/internal/domain/chat"
)

type chatStub struct {
	envelopes []chat.Envelope
	gotInput  chat.TurnInput
}

func (s *chatStub) Stream(_ context.Context, in chat.TurnInput) <-chan chat.Envelope {
	s.gotInput = in
	ch := make(chan chat.Envelope, len(s.envelopes))
	for _, env := range s.envelopes {
		ch <- env
	}
	close(ch)
	return ch
}

func TestChat_StreamsEnvelopesAsSSE(t *testing.T) {
	t.Parallel()

	stub := &chatStub{envelopes: []chat.Envelope{
		{Type: chat.EnvelopeMetadata, Metadata: &chat.Metadata{TurnID: "t1", ReviewCount: 2}},
		{Type: chat.EnvelopeText, Text: "Users report "},
		{Type: chat.EnvelopeText, Text: "crashes."},
		{Type: chat.EnvelopeDone, Done: &chat.DoneInfo{StopReason: "stop"}},
	}}
	h := NewChatHandler(stub)

	body := `{"question":"what do users say?","appId":"app-1","history":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Chat(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get(headerContentType); ct != "text/event-stream" {
		t.Errorf("content type = %q, want text/event-stream", ct)
	}

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 SSE events, got %d: %q", len(lines), rec.Body.String())
	}
	var first chat.Envelope
	if err := json.Unmarshal([]byte(strings.TrimPrefix(lines[0], "data: ")), &first); err != nil {
		t.Fatalf("first event is not valid JSON: %v", err)
	}
	if first.Type != chat.EnvelopeMetadata {
		t.Errorf("first event type = %q, want metadata", first.Type)
	}
	if !strings.HasPrefix(lines[3], "data: ") || !strings.Contains(lines[3], `"done"`) {
		t.Errorf("last event should be done: %q", lines[3])
	}

	if stub.gotInput.Question != "what do users say?" || stub.gotInput.AppID != "app-1" {
		t.Errorf("input not forwarded: %+v", stub.gotInput)
	}
	if len(stub.gotInput.History) != 1 || stub.gotInput.History[0].Content != "hi" {
		t.Errorf("history not forwarded: %+v", stub.gotInput.History)
	}
}

func TestChat_MissingQuestion(t *testing.T) {
	t.Parallel()

	h := NewChatHandler(&chatStub{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.Chat(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestChat_InvalidBody(t *testing.T) {
	t.Parallel()

	h := NewChatHandler(&chatStub{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`not json`))
	rec := httptest.NewRecorder()
	h.Chat(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestChat_ErrorEnvelopePassedThrough(t *testing.T) {
	t.Parallel()

	stub := &chatStub{envelopes: []chat.Envelope{
		{Type: chat.EnvelopeError, Error: &chat.ErrorInfo{Kind: chat.ErrKindStoreDown, Message: "store down"}},
	}}
	h := NewChatHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"question":"q"}`))
	rec := httptest.NewRecorder()
	h.Chat(rec, req)

	// Stream already started; errors travel inside the stream, not as
	// HTTP status codes.
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), chat.ErrKindStoreDown) {
		t.Errorf("error envelope missing from stream: %q", rec.Body.String())
	}
}
