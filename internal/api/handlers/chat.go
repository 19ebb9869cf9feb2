package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/arielvoskov/reviewlens/internal/domain/chat"
	"github.com/arielvoskov/reviewlens/internal/infra/llm"
)

// ChatStreamer produces the envelope stream for one turn.
type ChatStreamer interface {
	Stream(ctx context.Context, in chat.TurnInput) <-chan chat.Envelope
}

// ChatHandler serves the streaming chat endpoint over server-sent events.
type ChatHandler struct {
	chat ChatStreamer
}

func NewChatHandler(chatService ChatStreamer) *ChatHandler {
	return &ChatHandler{chat: chatService}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Question string        `json:"question"`
	AppID    string        `json:"appId,omitempty"`
	Platform string        `json:"platform,omitempty"`
	Model    string        `json:"model,omitempty"`
	History  []chatMessage `json:"history,omitempty"`
}

// Chat handles POST /api/v1/chat. Each envelope is written as one SSE
// data event; the connection closes after the terminal envelope.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	history := make([]llm.Message, len(req.History))
	for i, m := range req.History {
		history[i] = llm.Message{Role: m.Role, Content: m.Content}
	}

	bw, flusher, err := prepareStream(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	stream := h.chat.Stream(r.Context(), chat.TurnInput{
		AppID:    req.AppID,
		Platform: req.Platform,
		Question: req.Question,
		History:  history,
		Model:    req.Model,
	})
	streamEnvelopes(bw, flusher, stream)
}

func prepareStream(w http.ResponseWriter) (*bufio.Writer, http.Flusher, error) {
	w.Header().Set(headerContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Flusher")
	}
	return bufio.NewWriter(w), flusher, nil
}

func streamEnvelopes(bw *bufio.Writer, flusher http.Flusher, stream <-chan chat.Envelope) {
	for env := range stream {
		b, _ := json.Marshal(env)
		if _, err := fmt.Fprintf(bw, "data: %s\n\n", b); err != nil {
			return
		}
		_ = bw.Flush()
		flusher.Flush()
	}
}
