package app

import (
	"context"
	"strings"

	"gopherai-training/internal/ai"
	"gopherai-training/internal/model"
	"gopherai-training/internal/retrieval"
)

const DefaultAskSources = 5

type AskInput struct {
	Question     string
	Category     string
	WeaponSystem string
	Limit        int
}

type AskResult struct {
	Answer     string   `json:"answer"`
	Confidence float64  `json:"confidence"`
	Sources    []Source `json:"sources"`
	Provider   string   `json:"provider"`
	Model      string   `json:"model,omitempty"`
	TokensUsed int      `json:"tokensUsed,omitempty"`
}

// AskService answers a question from the knowledge base. Confidence is the best
// retrieval score, or 0 when nothing matched.
type AskService struct {
	orchestrator
}

func NewAskService(gateway ChatGateway, retriever Retriever) *AskService {
	return &AskService{orchestrator: orchestrator{gateway: gateway, retriever: retriever}}
}

func (s *AskService) Ask(ctx context.Context, input AskInput) (*AskResult, error) {
	if err := required("question", input.Question); err != nil {
		return nil, err
	}
	filter := retrieval.Filter{WeaponSystem: strings.TrimSpace(input.WeaponSystem)}
	if input.Category != "" {
		category, ok := model.ParseCategory(input.Category)
		if !ok {
			return nil, invalidCategory()
		}
		filter.Category = category
	}
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultAskSources
	}

	refs := s.references(input.Question, filter, limit)

	var b strings.Builder
	b.WriteString(ai.TaskDirective(ai.TaskKnowledgeAnswer, 0))
	b.WriteString("\nAnswer the question using only the reference material. Cite sources as [n]. ")
	b.WriteString("If the material does not cover the question, say so.\n\n")
	b.WriteString(ai.ContentSection(input.Question))
	if section := referenceSection(refs); section != "" {
		b.WriteString("\n\n")
		b.WriteString(section)
	} else {
		b.WriteString("\n\nREFERENCE MATERIAL: none matched the question.")
	}

	res, err := s.run(ctx, instructorPrompt, b.String())
	if err != nil {
		return nil, err
	}

	out := &AskResult{
		Answer:     strings.TrimSpace(res.Content),
		Sources:    toSources(refs),
		Provider:   res.Provider,
		Model:      res.Model,
		TokensUsed: res.TokensUsed,
	}
	if len(refs) > 0 {
		out.Confidence = refs[0].Score
	}
	return out, nil
}
