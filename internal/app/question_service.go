package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"gopherai-training/internal/ai"
	"gopherai-training/internal/errs"
	"gopherai-training/internal/retrieval"
)

const (
	DefaultQuestionCount = 5
	MaxQuestionCount     = ai.MaxTaskCount
	DefaultDifficulty    = "intermediate"
	optionCount          = 4
)

var difficulties = []string{"basic", "intermediate", "advanced"}

type Question struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation"`
	Difficulty   string   `json:"difficulty"`
	Type         string   `json:"type"`
}

type QuestionInput struct {
	Content          string
	Category         string
	Difficulty       string
	QuestionTypes    []string
	Count            int
	WeaponSystem     string
	CourseType       string
	UseKnowledgeBase bool
}

type QuestionResult struct {
	Questions    []Question `json:"questions"`
	Requested    int        `json:"requested"`
	Category     string     `json:"category"`
	Difficulty   string     `json:"difficulty"`
	Sources      []Source   `json:"sources,omitempty"`
	Provider     string     `json:"provider"`
	Model        string     `json:"model,omitempty"`
	TokensUsed   int        `json:"tokensUsed,omitempty"`
	ParseWarning string     `json:"parseWarning,omitempty"`
}

type QuestionService struct {
	orchestrator
	minContentChars int
}

func NewQuestionService(gateway ChatGateway, retriever Retriever, minContentChars int) *QuestionService {
	if minContentChars <= 0 {
		minContentChars = DefaultMinAnalysisChars
	}
	return &QuestionService{
		orchestrator:    orchestrator{gateway: gateway, retriever: retriever},
		minContentChars: minContentChars,
	}
}

// Generate asks the provider for exactly Count multiple-choice questions. A response that
// cannot be fully decoded still succeeds with whatever valid questions it contained.
func (s *QuestionService) Generate(ctx context.Context, input QuestionInput) (*QuestionResult, error) {
	if err := minChars("content", input.Content, s.minContentChars); err != nil {
		return nil, err
	}
	if err := required("category", input.Category); err != nil {
		return nil, err
	}
	count := input.Count
	if count == 0 {
		count = DefaultQuestionCount
	}
	if count < 1 || count > MaxQuestionCount {
		return nil, errs.Validation("count must be between 1 and %d", MaxQuestionCount)
	}
	difficulty, err := oneOf("difficulty", input.Difficulty, DefaultDifficulty, difficulties...)
	if err != nil {
		return nil, err
	}
	types := normalizeTypes(input.QuestionTypes)

	var refs []retrieval.Result
	if input.UseKnowledgeBase {
		refs = s.references(input.Content, retrieval.Filter{WeaponSystem: input.WeaponSystem}, referenceLimit)
	}

	prompt := buildQuestionPrompt(input, count, difficulty, types, refs)
	res, err := s.run(ctx, instructorPrompt, prompt)
	if err != nil {
		return nil, err
	}

	questions, perr := parseQuestions(res.Content, count, difficulty, types[0])
	out := &QuestionResult{
		Questions:  questions,
		Requested:  count,
		Category:   strings.TrimSpace(input.Category),
		Difficulty: difficulty,
		Provider:   res.Provider,
		Model:      res.Model,
		TokensUsed: res.TokensUsed,
	}
	if len(refs) > 0 {
		out.Sources = toSources(refs)
	}
	if perr != nil {
		log.Printf("question generation: %v", perr)
		out.ParseWarning = perr.Error()
	}
	return out, nil
}

func normalizeTypes(types []string) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		out = []string{"mcq"}
	}
	return out
}

func buildQuestionPrompt(input QuestionInput, count int, difficulty string, types []string, refs []retrieval.Result) string {
	var b strings.Builder
	b.WriteString(ai.TaskDirective(ai.TaskQuestionGeneration, count))
	fmt.Fprintf(&b, "\nWrite exactly %d %s-level training questions for the category %q.", count, difficulty, strings.TrimSpace(input.Category))
	fmt.Fprintf(&b, "\nQuestion types: %s.", strings.Join(types, ", "))
	if ws := strings.TrimSpace(input.WeaponSystem); ws != "" {
		fmt.Fprintf(&b, "\nWeapon system: %s.", ws)
	}
	if ct := strings.TrimSpace(input.CourseType); ct != "" {
		fmt.Fprintf(&b, "\nCourse: %s.", ct)
	}
	b.WriteString("\nEvery question has exactly 4 options and one correct answer.")
	b.WriteString("\nRespond with only a JSON array of objects with the keys question, options, correctIndex (0-3), explanation.\n\n")
	b.WriteString(ai.ContentSection(input.Content))
	if section := referenceSection(refs); section != "" {
		b.WriteString("\n\n")
		b.WriteString(section)
	}
	return b.String()
}

type rawQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex *int     `json:"correctIndex"`
	Explanation  string   `json:"explanation"`
	Difficulty   string   `json:"difficulty"`
	Type         string   `json:"type"`
}

// parseQuestions decodes at most count well-formed questions from the provider text. It
// returns an errs.ErrParse error describing what was dropped alongside the valid ones.
func parseQuestions(text string, count int, difficulty, qType string) ([]Question, error) {
	questions := []Question{}

	arr, ok := extractJSON(text, '[', ']')
	if !ok {
		if obj, found := extractJSON(text, '{', '}'); found {
			var wrapped struct {
				Questions json.RawMessage `json:"questions"`
			}
			if json.Unmarshal([]byte(obj), &wrapped) == nil && len(wrapped.Questions) > 0 {
				arr, ok = string(wrapped.Questions), true
			}
		}
	}
	if !ok {
		return questions, errs.Parse("no question array in provider response", nil)
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(arr), &items); err != nil {
		return questions, errs.Parse("decode question array failed", err)
	}

	invalid := 0
	for _, item := range items {
		if len(questions) == count {
			break
		}
		var rq rawQuestion
		if err := json.Unmarshal(item, &rq); err != nil {
			invalid++
			continue
		}
		q, ok := rq.validate(difficulty, qType)
		if !ok {
			invalid++
			continue
		}
		questions = append(questions, q)
	}

	if invalid > 0 || len(questions) < count {
		return questions, errs.Parse(
			fmt.Sprintf("parsed %d of %d requested questions (%d malformed)", len(questions), count, invalid), nil)
	}
	return questions, nil
}

func (rq rawQuestion) validate(difficulty, qType string) (Question, bool) {
	if strings.TrimSpace(rq.Question) == "" || len(rq.Options) != optionCount || rq.CorrectIndex == nil {
		return Question{}, false
	}
	if *rq.CorrectIndex < 0 || *rq.CorrectIndex >= optionCount {
		return Question{}, false
	}
	options := make([]string, optionCount)
	for i, o := range rq.Options {
		o = strings.TrimSpace(o)
		if o == "" {
			return Question{}, false
		}
		options[i] = o
	}
	q := Question{
		Question:     strings.TrimSpace(rq.Question),
		Options:      options,
		CorrectIndex: *rq.CorrectIndex,
		Explanation:  strings.TrimSpace(rq.Explanation),
		Difficulty:   difficulty,
		Type:         qType,
	}
	if d := strings.ToLower(strings.TrimSpace(rq.Difficulty)); d != "" {
		for _, known := range difficulties {
			if d == known {
				q.Difficulty = d
			}
		}
	}
	if t := strings.ToLower(strings.TrimSpace(rq.Type)); t != "" {
		q.Type = t
	}
	return q, true
}
