package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const mockModel = "mock-deterministic"

var mockStopwords = map[string]struct{}{
	"this": {}, "that": {}, "with": {}, "from": {}, "they": {}, "have": {}, "will": {},
	"when": {}, "then": {}, "than": {}, "into": {}, "each": {}, "must": {}, "should": {},
	"their": {}, "there": {}, "which": {}, "after": {}, "before": {}, "every": {}, "about": {},
	"were": {}, "been": {}, "being": {}, "also": {}, "only": {}, "over": {}, "under": {},
}

// MockProvider answers from templates derived from the last user message. Identical
// input always yields identical output and no network is used.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (p *MockProvider) Name() string  { return ProviderMock }
func (p *MockProvider) Model() string { return mockModel }

func (p *MockProvider) CheckHealth(context.Context) Health {
	return Health{Available: true, Provider: ProviderMock, Model: mockModel}
}

func (p *MockProvider) Chat(_ context.Context, messages []ChatMessage) (*ChatResult, error) {
	prompt := lastUserMessage(messages)
	content := p.respond(prompt)
	return &ChatResult{
		Content:    content,
		Provider:   ProviderMock,
		Model:      mockModel,
		TokensUsed: len(strings.Fields(prompt)) + len(strings.Fields(content)),
	}, nil
}

func (p *MockProvider) respond(prompt string) string {
	task, count, ok := ParseTaskDirective(prompt)
	if !ok {
		return fmt.Sprintf("Mock response (no live model configured). You asked: %q", truncateRunes(strings.TrimSpace(prompt), 200))
	}
	source := extractContent(prompt)
	terms := keyTerms(source, 8)

	switch task {
	case TaskQuestionGeneration:
		return mockQuestions(terms, count)
	case TaskExtractTopics:
		return mustJSON(map[string][]string{"topics": terms})
	case TaskIdentifyConcepts:
		return mustJSON(map[string][]string{"concepts": terms})
	case TaskTagContent:
		return mustJSON(map[string][]string{"tags": terms})
	case TaskGenerateSummary:
		return mustJSON(map[string]string{"summary": leadSentences(source, 2)})
	case TaskSafetyReview:
		return fmt.Sprintf("SAFETY REVIEW (mock)\nKey terms reviewed: %s.\nRISK LEVEL: MODERATE\nRecommendation: confirm surface danger zones and check firing data independently.",
			strings.Join(terms, ", "))
	default:
		return fmt.Sprintf("%s (mock)\nSummary of request: %s\nKey terms: %s.",
			strings.ToUpper(strings.ReplaceAll(task, "-", " ")),
			leadSentences(source, 1),
			strings.Join(terms, ", "))
	}
}

type mockQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation"`
}

func mockQuestions(terms []string, count int) string {
	if count <= 0 {
		count = 5
	}
	count = min(count, MaxTaskCount)
	if len(terms) == 0 {
		terms = []string{"procedure"}
	}
	out := make([]mockQuestion, count)
	for i := range out {
		term := terms[i%len(terms)]
		correct := i % 4
		options := make([]string, 4)
		for j := range options {
			if j == correct {
				options[j] = fmt.Sprintf("It is described in the source material on %s", term)
			} else {
				options[j] = fmt.Sprintf("Distractor %d for %s", j+1, term)
			}
		}
		out[i] = mockQuestion{
			Question:     fmt.Sprintf("Question %d: Which statement about %q is supported by the material?", i+1, term),
			Options:      options,
			CorrectIndex: correct,
			Explanation:  fmt.Sprintf("The source text discusses %s directly.", term),
		}
	}
	return mustJSON(out)
}

// keyTerms returns up to n distinct lowercase words of four or more letters, in order
// of first appearance, skipping common stopwords.
func keyTerms(text string, n int) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{})
	terms := []string{}
	for _, f := range fields {
		if utf8.RuneCountInString(f) < 4 {
			continue
		}
		if _, stop := mockStopwords[f]; stop {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
		if len(terms) == n {
			break
		}
	}
	return terms
}

func leadSentences(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	count := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			count++
			if count == n {
				return text[:i+1]
			}
		}
	}
	return truncateRunes(text, 300)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
