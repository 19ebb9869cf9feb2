package chat

import (
	"fmt"
	"strings"

	"github.com/arielvoskov/reviewlens/internal/domain/retrieval"
)

const blockSeparator = "\n---\n"

const emptyContextNotice = "No matching user reviews were found for this question."

const guidelines = `Guidelines:
- Ground every statement in the reviews provided above; do not invent feedback.
- Cite specific reviews by their index, e.g. [Review 2].
- If the reviews do not contain enough evidence to answer, say so explicitly.
- Summarize themes that recur across multiple reviews.
- Stay objective; report what reviewers wrote, not your own opinion.`

// Prompt is the rendered system/user pair for one turn.
type Prompt struct {
	System string
	User   string
}

// BuildPrompt renders the packed context into a prompt pair. Pure and
// deterministic: the same context and instructions always produce the
// same output, byte for byte.
func BuildPrompt(rc retrieval.Context, systemInstructions string) Prompt {
	var sys strings.Builder
	sys.WriteString(systemInstructions)
	sys.WriteString("\n\n")
	fmt.Fprintf(&sys, "Reviews in context: %d\n", len(rc.Candidates))
	fmt.Fprintf(&sys, "Average relevance: %.1f%%\n\n", rc.AvgSimilarity*100)
	sys.WriteString(guidelines)

	var user strings.Builder
	user.WriteString("Question: ")
	user.WriteString(rc.Query)
	user.WriteString("\n\nUser reviews:\n")
	if rc.Empty() {
		user.WriteString(emptyContextNotice)
	} else {
		blocks := make([]string, len(rc.Candidates))
		for i, cand := range rc.Candidates {
			blocks[i] = renderBlock(i+1, cand)
		}
		user.WriteString(strings.Join(blocks, blockSeparator))
	}

	return Prompt{System: sys.String(), User: user.String()}
}

// renderBlock formats one review. The version line is omitted when the
// review carries no version tag.
func renderBlock(ordinal int, cand retrieval.Candidate) string {
	r := cand.Review
	var b strings.Builder
	fmt.Fprintf(&b, "[Review %d] Rating: %d/5\n", ordinal, r.Rating)
	fmt.Fprintf(&b, "By: %s on %s\n", r.Author, r.Date.Format("2006-01-02"))
	if r.Version != "" {
		fmt.Fprintf(&b, "Version: %s\n", r.Version)
	}
	fmt.Fprintf(&b, "Title: %s\n", r.Title)
	fmt.Fprintf(&b, "Content: %s", r.Content)
	return b.String()
}
