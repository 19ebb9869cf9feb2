package chat

import (
	"strings"
	"testing"
	"time"

	"github.com/arielvoskov/reviewlens/internal/domain/retrieval"
	"github.com/arielvoskov/reviewlens/internal/domain/review"
)

func packedContext() retrieval.Context {
	date := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	return retrieval.Context{
		Query: "why do users complain about login?",
		Candidates: []retrieval.Candidate{
			{Review: review.Review{ID: "r1", Author: "alex", Rating: 2, Title: "Login broken", Content: "Cannot sign in since the update.", Date: date, Version: "3.1.0"}, Similarity: 0.9},
			{Review: review.Review{ID: "r2", Author: "sam", Rating: 1, Title: "Stuck at login", Content: "Spinner forever.", Date: date}, Similarity: 0.7},
		},
		AvgSimilarity: 0.8,
	}
}

func TestBuildPrompt_RendersBlocks(t *testing.T) {
	t.Parallel()

	p := BuildPrompt(packedContext(), "You are a product analyst.")

	if !strings.HasPrefix(p.System, "You are a product analyst.") {
		t.Error("system prompt must start with the instructions")
	}
	if !strings.Contains(p.System, "Reviews in context: 2") {
		t.Errorf("system prompt missing review count:\n%s", p.System)
	}
	if !strings.Contains(p.System, "Average relevance: 80.0%") {
		t.Errorf("system prompt missing relevance:\n%s", p.System)
	}
	if !strings.Contains(p.System, "Cite specific reviews by their index") {
		t.Error("system prompt missing guideline block")
	}

	if !strings.Contains(p.User, "[Review 1] Rating: 2/5") {
		t.Errorf("user prompt missing first block header:\n%s", p.User)
	}
	if !strings.Contains(p.User, "[Review 2] Rating: 1/5") {
		t.Error("user prompt missing second block header")
	}
	if !strings.Contains(p.User, "Version: 3.1.0") {
		t.Error("version line missing for versioned review")
	}
	// r2 has no version tag; its block must not carry a version line.
	second := p.User[strings.Index(p.User, "[Review 2]"):]
	if strings.Contains(second, "Version:") {
		t.Error("version line rendered for review without a version")
	}
	if !strings.Contains(p.User, blockSeparator) {
		t.Error("blocks not joined by separator")
	}
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	t.Parallel()

	rc := packedContext()
	a := BuildPrompt(rc, "instructions")
	b := BuildPrompt(rc, "instructions")
	if a != b {
		t.Error("identical inputs produced different prompts")
	}
}

func TestBuildPrompt_EmptyContext(t *testing.T) {
	t.Parallel()

	p := BuildPrompt(retrieval.Context{Query: "anything?"}, "instructions")
	if !strings.Contains(p.User, emptyContextNotice) {
		t.Errorf("empty context must state that no reviews matched:\n%s", p.User)
	}
	if !strings.Contains(p.System, "Reviews in context: 0") {
		t.Error("system prompt must report zero reviews")
	}
	if !strings.Contains(p.System, "Average relevance: 0.0%") {
		t.Error("system prompt must report zero relevance")
	}
}
