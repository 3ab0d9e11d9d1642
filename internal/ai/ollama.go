package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"gopherai-training/internal/errs"
)

const (
	DefaultOllamaBaseURL = "http://localhost:11434"
	DefaultOllamaModel   = "llama3.2"
)

// OllamaProvider is the live local-model backend using Ollama's native chat API.
type OllamaProvider struct {
	client  *http.Client
	baseURL string
	model   string
}

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type ollamaChatResponse struct {
	Message         ChatMessage `json:"message"`
	Done            bool        `json:"done"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func NewOllamaProvider(cfg ProviderConfig) *OllamaProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOllamaBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultCallTimeout
	}
	return &OllamaProvider{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}
}

func (p *OllamaProvider) Name() string  { return ProviderOllama }
func (p *OllamaProvider) Model() string { return p.model }

// Chat forwards the conversation verbatim.
func (p *OllamaProvider) Chat(ctx context.Context, messages []ChatMessage) (*ChatResult, error) {
	body, err := json.Marshal(ollamaChatRequest{Model: p.model, Messages: messages, Stream: false})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errs.Provider(errs.ReasonUnavailable, "ollama request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, errs.Provider(errs.ReasonBadStatus,
			fmt.Sprintf("ollama error (status %d)", resp.StatusCode), fmt.Errorf("%s", truncateRunes(string(raw), 300)))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, errs.Provider(errs.ReasonBadPayload, "decode ollama response", err)
	}
	if strings.TrimSpace(chatResp.Message.Content) == "" {
		return nil, errs.Provider(errs.ReasonBadPayload, "ollama returned an empty message", nil)
	}

	return &ChatResult{
		Content:    chatResp.Message.Content,
		Provider:   ProviderOllama,
		Model:      p.model,
		TokensUsed: chatResp.PromptEvalCount + chatResp.EvalCount,
	}, nil
}

// CheckHealth queries /api/tags and reports whether the configured model is pulled.
func (p *OllamaProvider) CheckHealth(ctx context.Context) Health {
	h := Health{Provider: ProviderOllama, Model: p.model}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		h.Error = fmt.Sprintf("create request: %v", err)
		return h
	}
	resp, err := p.client.Do(req)
	if err != nil {
		h.Error = fmt.Sprintf("ollama unreachable: %v", err)
		return h
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		h.Error = fmt.Sprintf("ollama health status %d", resp.StatusCode)
		return h
	}
	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		h.Error = fmt.Sprintf("decode ollama tags: %v", err)
		return h
	}
	for _, m := range tags.Models {
		if m.Name == p.model || strings.TrimSuffix(m.Name, ":latest") == p.model {
			h.Available = true
			return h
		}
	}
	h.Error = fmt.Sprintf("model %s is not available in ollama", p.model)
	return h
}
