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

// OpenAICompatibleProvider talks to any server exposing /chat/completions, such as a
// local llama.cpp, vLLM or LM Studio instance.
type OpenAICompatibleProvider struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

func NewOpenAICompatibleProvider(cfg ProviderConfig) *OpenAICompatibleProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &OpenAICompatibleProvider{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
	}
}

func (p *OpenAICompatibleProvider) Name() string  { return ProviderOpenAI }
func (p *OpenAICompatibleProvider) Model() string { return p.model }

func (p *OpenAICompatibleProvider) Chat(ctx context.Context, messages []ChatMessage) (*ChatResult, error) {
	reqBody := map[string]interface{}{
		"model":    p.model,
		"messages": messages,
		"stream":   false,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal llm request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("build llm request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errs.Provider(errs.ReasonUnavailable, "llm request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Provider(errs.ReasonBadPayload, "read llm response failed", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errs.Provider(errs.ReasonBadStatus,
			fmt.Sprintf("llm response status %d", resp.StatusCode), fmt.Errorf("%s", truncateRunes(string(raw), 300)))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			TotalTokens int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errs.Provider(errs.ReasonBadPayload, "parse llm json failed", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, errs.Provider(errs.ReasonBadPayload, "empty llm choices", nil)
	}
	return &ChatResult{
		Content:    parsed.Choices[0].Message.Content,
		Provider:   ProviderOpenAI,
		Model:      p.model,
		TokensUsed: parsed.Usage.TotalTokens,
	}, nil
}

// CheckHealth lists models; any 2xx answer counts as available.
func (p *OpenAICompatibleProvider) CheckHealth(ctx context.Context) Health {
	h := Health{Provider: ProviderOpenAI, Model: p.model}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		h.Error = fmt.Sprintf("build health request failed: %v", err)
		return h
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		h.Error = fmt.Sprintf("llm health request failed: %v", err)
		return h
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		h.Error = fmt.Sprintf("llm health status %d", resp.StatusCode)
		return h
	}
	h.Available = true
	return h
}
