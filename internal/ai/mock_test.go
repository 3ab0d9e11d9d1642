package ai

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mockSource = `The fire direction center computes firing data for the battery.
Misfire procedures require a two minute wait before opening the breech. Safety officers verify
deflection and quadrant elevation before every mission.`

func taskPrompt(task string, count int) string {
	return TaskDirective(task, count) + "\nFollow the instructions.\n\n" + ContentSection(mockSource)
}

func TestMockProvider_Deterministic(t *testing.T) {
	p := NewMockProvider()
	msgs := userMsg(taskPrompt(TaskGenerateSummary, 0))

	a, err := p.Chat(context.Background(), msgs)
	require.NoError(t, err)
	b, err := p.Chat(context.Background(), msgs)
	require.NoError(t, err)
	assert.Equal(t, a.Content, b.Content)
	assert.Equal(t, ProviderMock, a.Provider)
	assert.Positive(t, a.TokensUsed)
}

func TestMockProvider_Questions(t *testing.T) {
	p := NewMockProvider()
	res, err := p.Chat(context.Background(), userMsg(taskPrompt(TaskQuestionGeneration, 5)))
	require.NoError(t, err)

	var qs []mockQuestion
	require.NoError(t, json.Unmarshal([]byte(res.Content), &qs))
	require.Len(t, qs, 5)
	for _, q := range qs {
		assert.Len(t, q.Options, 4)
		assert.GreaterOrEqual(t, q.CorrectIndex, 0)
		assert.LessOrEqual(t, q.CorrectIndex, 3)
		assert.NotEmpty(t, q.Question)
	}
}

func TestMockProvider_Topics(t *testing.T) {
	p := NewMockProvider()
	res, err := p.Chat(context.Background(), userMsg(taskPrompt(TaskExtractTopics, 0)))
	require.NoError(t, err)

	var out struct {
		Topics []string `json:"topics"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Content), &out))
	assert.Contains(t, out.Topics, "fire")
	assert.Contains(t, out.Topics, "direction")
	assert.NotContains(t, out.Topics, "the")
}

func TestMockProvider_SafetyReviewCarriesRiskLevel(t *testing.T) {
	p := NewMockProvider()
	res, err := p.Chat(context.Background(), userMsg(taskPrompt(TaskSafetyReview, 0)))
	require.NoError(t, err)
	assert.Contains(t, res.Content, "RISK LEVEL:")
}

func TestMockProvider_PlainChat(t *testing.T) {
	p := NewMockProvider()
	res, err := p.Chat(context.Background(), []ChatMessage{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "what is a misfire?"},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Content, "Mock response"))
	assert.Contains(t, res.Content, "what is a misfire?")
}

func TestParseTaskDirective(t *testing.T) {
	task, count, ok := ParseTaskDirective("### TASK: question-generation count=7\nrest")
	require.True(t, ok)
	assert.Equal(t, TaskQuestionGeneration, task)
	assert.Equal(t, 7, count)

	task, count, ok = ParseTaskDirective(TaskDirective(TaskMissionDebrief, 0))
	require.True(t, ok)
	assert.Equal(t, TaskMissionDebrief, task)
	assert.Zero(t, count)

	_, _, ok = ParseTaskDirective("no directive here")
	assert.False(t, ok)
}

func TestExtractContent(t *testing.T) {
	prompt := "header\n" + ContentSection("  body text  ") + "\ntrailer"
	assert.Equal(t, "body text", extractContent(prompt))
	assert.Equal(t, "plain", extractContent("plain"))
}

func TestParseTaskDirective_OnlyFirstLineWithBoundedCount(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
	}{
		{"count above maximum", "### TASK: question-generation count=200000"},
		{"count overflows int", "### TASK: question-generation count=99999999999999999999999"},
		{"directive not on first line", "hello\n### TASK: question-generation count=5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, ok := ParseTaskDirective(tt.prompt)
			assert.False(t, ok)
		})
	}

	_, count, ok := ParseTaskDirective("### TASK: question-generation count=20")
	require.True(t, ok)
	assert.Equal(t, MaxTaskCount, count)
}

func TestMockProvider_OversizedCountIsPlainChat(t *testing.T) {
	p := NewMockProvider()
	res, err := p.Chat(context.Background(), userMsg("### TASK: question-generation count=200000"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Content, "Mock response"))
	assert.Less(t, len(res.Content), 1000)
}

func TestMockQuestions_CappedAtMaxTaskCount(t *testing.T) {
	var qs []mockQuestion
	require.NoError(t, json.Unmarshal([]byte(mockQuestions([]string{"misfire"}, 500)), &qs))
	assert.Len(t, qs, MaxTaskCount)
}
