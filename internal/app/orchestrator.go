package app

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"gopherai-training/internal/ai"
	"gopherai-training/internal/errs"
	"gopherai-training/internal/retrieval"
)

const (
	DefaultMinIngestChars   = 50
	DefaultMinAnalysisChars = 10
	referenceLimit          = 3
	excerptChars            = 240
)

const instructorPrompt = "You are an instructor and planning assistant for field artillery and joint fires training. " +
	"Answer precisely, use doctrinal terminology and never invent firing data."

type ChatGateway interface {
	Chat(ctx context.Context, messages []ai.ChatMessage) (*ai.ChatResult, error)
}

type Retriever interface {
	Query(q retrieval.Query) []retrieval.Result
}

// Source is a retrieval hit cited by an AI task result.
type Source struct {
	DocumentID   string  `json:"documentId"`
	DocumentName string  `json:"documentName"`
	ChunkID      string  `json:"chunkId"`
	SectionTitle string  `json:"sectionTitle,omitempty"`
	Score        float64 `json:"score"`
	Excerpt      string  `json:"excerpt"`
}

type orchestrator struct {
	gateway   ChatGateway
	retriever Retriever
}

func (o orchestrator) run(ctx context.Context, system, prompt string) (*ai.ChatResult, error) {
	messages := []ai.ChatMessage{
		{Role: ai.RoleSystem, Content: system},
		{Role: ai.RoleUser, Content: prompt},
	}
	return o.gateway.Chat(ctx, messages)
}

// references returns up to limit chunks relevant to text. It returns nil when no
// knowledge base is wired or text has no searchable terms.
func (o orchestrator) references(text string, filter retrieval.Filter, limit int) []retrieval.Result {
	if o.retriever == nil || strings.TrimSpace(text) == "" {
		return nil
	}
	return o.retriever.Query(retrieval.Query{Text: text, Filter: filter, Limit: limit})
}

func referenceSection(results []retrieval.Result) string {
	if len(results) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("REFERENCE MATERIAL:\n")
	for i, r := range results {
		title := r.Chunk.Title()
		if title == "" {
			title = fmt.Sprintf("part %d", r.Chunk.Order+1)
		}
		fmt.Fprintf(&b, "[%d] %s (%s)\n%s\n\n", i+1, r.Chunk.DocumentName, title, r.Chunk.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

func toSources(results []retrieval.Result) []Source {
	out := make([]Source, 0, len(results))
	for _, r := range results {
		out = append(out, Source{
			DocumentID:   r.Chunk.DocumentID,
			DocumentName: r.Chunk.DocumentName,
			ChunkID:      r.Chunk.ID,
			SectionTitle: r.Chunk.Title(),
			Score:        r.Score,
			Excerpt:      excerpt(r.Chunk.Content, excerptChars),
		})
	}
	return out
}

func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return errs.Validation("%s is required", field)
	}
	return nil
}

func minChars(field, value string, min int) error {
	if utf8.RuneCountInString(strings.TrimSpace(value)) < min {
		return errs.Validation("%s must be at least %d characters", field, min)
	}
	return nil
}

func oneOf(field, value, def string, allowed ...string) (string, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return def, nil
	}
	for _, a := range allowed {
		if value == a {
			return value, nil
		}
	}
	return "", errs.Validation("%s must be one of %s", field, strings.Join(allowed, ", "))
}

func bulletList(items []string) string {
	if len(items) == 0 {
		return "- none provided"
	}
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = "- " + it
	}
	return strings.Join(lines, "\n")
}
