package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gopherai-training/internal/errs"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatResult struct {
	Content    string `json:"content"`
	Provider   string `json:"provider"`
	Model      string `json:"model,omitempty"`
	TokensUsed int    `json:"tokensUsed,omitempty"`
}

type Health struct {
	Available bool   `json:"available"`
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Error     string `json:"error,omitempty"`
}

// Provider is one interchangeable chat backend. CheckHealth never returns an error;
// failures are reported through Health.Available and Health.Error.
type Provider interface {
	Name() string
	Model() string
	Chat(ctx context.Context, messages []ChatMessage) (*ChatResult, error)
	CheckHealth(ctx context.Context) Health
}

const (
	ProviderMock   = "mock"
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type ProviderConfig struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// NewProvider builds the provider selected by cfg.Provider. It is called once at startup.
func NewProvider(ctx context.Context, cfg ProviderConfig) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderMock:
		return NewMockProvider(), nil
	case ProviderOllama:
		return NewOllamaProvider(cfg), nil
	case ProviderOpenAI:
		if cfg.BaseURL == "" || cfg.Model == "" {
			return nil, fmt.Errorf("openai provider requires base_url and model")
		}
		return NewOpenAICompatibleProvider(cfg), nil
	case ProviderGemini:
		p, err := NewGeminiProvider(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// ValidateMessages rejects an empty conversation or any message with an unknown role or
// blank content.
func ValidateMessages(messages []ChatMessage) error {
	if len(messages) == 0 {
		return errs.Validation("messages must not be empty")
	}
	for i, m := range messages {
		switch m.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		case "":
			return errs.Validation("message %d: role is required", i)
		default:
			return errs.Validation("message %d: role must be one of system, user, assistant", i)
		}
		if strings.TrimSpace(m.Content) == "" {
			return errs.Validation("message %d: content is required", i)
		}
	}
	return nil
}

func lastUserMessage(messages []ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Content
		}
	}
	return ""
}
