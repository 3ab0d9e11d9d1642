package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"gopherai-training/internal/errs"
)

const DefaultGeminiModel = "gemini-1.5-flash"

// GeminiProvider is a hosted alternative to the local model.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

func NewGeminiProvider(ctx context.Context, cfg ProviderConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini provider requires api_key")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client failed: %w", err)
	}
	return &GeminiProvider{client: client, model: cfg.Model}, nil
}

func (p *GeminiProvider) Name() string  { return ProviderGemini }
func (p *GeminiProvider) Model() string { return p.model }

func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

// Chat maps system messages to the system instruction and replays earlier turns as
// chat history before sending the final message.
func (p *GeminiProvider) Chat(ctx context.Context, messages []ChatMessage) (*ChatResult, error) {
	model := p.client.GenerativeModel(p.model)

	var system []string
	var turns []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			turns = append(turns, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			turns = append(turns, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(strings.Join(system, "\n\n"))}}
	}
	if len(turns) == 0 {
		turns = append(turns, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text("Proceed.")}})
	}

	session := model.StartChat()
	session.History = turns[:len(turns)-1]
	last := turns[len(turns)-1]

	resp, err := session.SendMessage(ctx, last.Parts...)
	if err != nil {
		return nil, errs.Provider(errs.ReasonUnavailable, "gemini request failed", err)
	}

	var out strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				out.WriteString(string(text))
			}
		}
		break
	}
	if out.Len() == 0 {
		return nil, errs.Provider(errs.ReasonBadPayload, "gemini returned no text", nil)
	}

	res := &ChatResult{Content: out.String(), Provider: ProviderGemini, Model: p.model}
	if resp.UsageMetadata != nil {
		res.TokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}
	return res, nil
}

// CheckHealth counts tokens for a trivial prompt, which needs a valid key and model
// but generates nothing.
func (p *GeminiProvider) CheckHealth(ctx context.Context) Health {
	h := Health{Provider: ProviderGemini, Model: p.model}
	if _, err := p.client.GenerativeModel(p.model).CountTokens(ctx, genai.Text("ping")); err != nil {
		h.Error = fmt.Sprintf("gemini health check failed: %v", err)
		return h
	}
	h.Available = true
	return h
}
