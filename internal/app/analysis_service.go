package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"gopherai-training/internal/ai"
	"gopherai-training/internal/errs"
)

var analysisTypes = []string{
	ai.TaskExtractTopics,
	ai.TaskGenerateSummary,
	ai.TaskIdentifyConcepts,
	ai.TaskTagContent,
}

type AnalysisInput struct {
	Content      string
	AnalysisType string
}

// AnalysisResult carries exactly one of Topics, Summary, Concepts or Tags, matching
// AnalysisType.
type AnalysisResult struct {
	AnalysisType string   `json:"analysisType"`
	Topics       []string `json:"topics,omitempty"`
	Summary      string   `json:"summary,omitempty"`
	Concepts     []string `json:"concepts,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Provider     string   `json:"provider"`
	Model        string   `json:"model,omitempty"`
	TokensUsed   int      `json:"tokensUsed,omitempty"`
	ParseWarning string   `json:"parseWarning,omitempty"`
}

type AnalysisService struct {
	orchestrator
	minContentChars int
}

func NewAnalysisService(gateway ChatGateway, minContentChars int) *AnalysisService {
	if minContentChars <= 0 {
		minContentChars = DefaultMinAnalysisChars
	}
	return &AnalysisService{orchestrator: orchestrator{gateway: gateway}, minContentChars: minContentChars}
}

func (s *AnalysisService) Analyze(ctx context.Context, input AnalysisInput) (*AnalysisResult, error) {
	if err := minChars("content", input.Content, s.minContentChars); err != nil {
		return nil, err
	}
	kind, err := oneOf("analysisType", input.AnalysisType, ai.TaskExtractTopics, analysisTypes...)
	if err != nil {
		return nil, err
	}

	res, err := s.run(ctx, instructorPrompt, buildAnalysisPrompt(kind, input.Content))
	if err != nil {
		return nil, err
	}

	out := &AnalysisResult{
		AnalysisType: kind,
		Provider:     res.Provider,
		Model:        res.Model,
		TokensUsed:   res.TokensUsed,
	}
	var perr error
	switch kind {
	case ai.TaskGenerateSummary:
		out.Summary, perr = parseSummary(res.Content)
	case ai.TaskIdentifyConcepts:
		out.Concepts, perr = parseList(res.Content, "concepts")
	case ai.TaskTagContent:
		out.Tags, perr = parseList(res.Content, "tags")
	default:
		out.Topics, perr = parseList(res.Content, "topics")
	}
	if perr != nil {
		log.Printf("content analysis %s: %v", kind, perr)
		out.ParseWarning = perr.Error()
	}
	return out, nil
}

func buildAnalysisPrompt(kind, content string) string {
	var instruction string
	switch kind {
	case ai.TaskGenerateSummary:
		instruction = `Summarize the content in at most five sentences. Respond with JSON: {"summary": "..."}.`
	case ai.TaskIdentifyConcepts:
		instruction = `List the key doctrinal or technical concepts the content teaches. Respond with JSON: {"concepts": ["..."]}.`
	case ai.TaskTagContent:
		instruction = `Suggest short lowercase tags (weapon systems, procedures, subjects) for filing the content. Respond with JSON: {"tags": ["..."]}.`
	default:
		instruction = `List the main topics covered by the content. Respond with JSON: {"topics": ["..."]}.`
	}
	return ai.TaskDirective(kind, 0) + "\n" + instruction + "\n\n" + ai.ContentSection(content)
}

func parseList(text, key string) ([]string, error) {
	items, structured := parseStringList(text, key)
	if structured {
		return items, nil
	}
	if len(items) == 0 {
		return []string{}, errs.Parse(fmt.Sprintf("no %s found in provider response", key), nil)
	}
	return items, errs.Parse(fmt.Sprintf("%s recovered from unstructured provider response", key), nil)
}

func parseSummary(text string) (string, error) {
	if obj, ok := extractJSON(text, '{', '}'); ok {
		var out struct {
			Summary string `json:"summary"`
		}
		if json.Unmarshal([]byte(obj), &out) == nil && strings.TrimSpace(out.Summary) != "" {
			return strings.TrimSpace(out.Summary), nil
		}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errs.Parse("empty summary in provider response", nil)
	}
	return text, errs.Parse("summary recovered from unstructured provider response", nil)
}
