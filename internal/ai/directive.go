package ai

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Task names carried in the first line of orchestrator prompts. Live models treat the
// line as plain instructions; the mock provider uses it to pick a response template.
const (
	TaskQuestionGeneration = "question-generation"
	TaskExtractTopics      = "extract-topics"
	TaskGenerateSummary    = "generate-summary"
	TaskIdentifyConcepts   = "identify-concepts"
	TaskTagContent         = "tag-content"
	TaskKnowledgeAnswer    = "knowledge-answer"
	TaskMissionDebrief     = "mission-debrief"
	TaskJointFirePlan      = "joint-fire-plan"
	TaskAirSupportRequest  = "air-support-request"
	TaskSafetyReview       = "safety-review"
	TaskConceptExplanation = "concept-explanation"
)

const contentMarker = "CONTENT:"

// MaxTaskCount bounds the item count a directive may ask for.
const MaxTaskCount = 20

var directivePattern = regexp.MustCompile(`\A### TASK: ([a-z-]+)(?: count=(\d+))?[ \t]*(?:\r?\n|\z)`)

// TaskDirective renders the header line for a task prompt. count is omitted when zero.
func TaskDirective(task string, count int) string {
	if count > 0 {
		return fmt.Sprintf("### TASK: %s count=%d", task, count)
	}
	return "### TASK: " + task
}

// ParseTaskDirective reads the directive on the first line of prompt. A count that does
// not parse or exceeds MaxTaskCount invalidates the directive.
func ParseTaskDirective(prompt string) (task string, count int, ok bool) {
	m := directivePattern.FindStringSubmatch(prompt)
	if m == nil {
		return "", 0, false
	}
	if m[2] != "" {
		n, err := strconv.Atoi(m[2])
		if err != nil || n > MaxTaskCount {
			return "", 0, false
		}
		count = n
	}
	return m[1], count, true
}

// ContentSection renders the block holding the source text a task operates on.
func ContentSection(content string) string {
	return contentMarker + "\n" + strings.TrimSpace(content) + "\n" + contentMarker + " END"
}

func extractContent(prompt string) string {
	start := strings.Index(prompt, contentMarker+"\n")
	if start < 0 {
		return prompt
	}
	rest := prompt[start+len(contentMarker)+1:]
	if end := strings.Index(rest, "\n"+contentMarker+" END"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}
