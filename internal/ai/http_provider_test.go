package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherai-training/internal/errs"
)

func TestOllamaProvider_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var req ollamaChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		assert.Equal(t, "llama3.2", req.Model)
		assert.Len(t, req.Messages, 1)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"message":           map[string]string{"role": "assistant", "content": "Check the breech."},
			"done":              true,
			"prompt_eval_count": 12,
			"eval_count":        4,
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(ProviderConfig{BaseURL: srv.URL, Model: "llama3.2"})
	res, err := p.Chat(context.Background(), userMsg("what now?"))
	require.NoError(t, err)
	assert.Equal(t, "Check the breech.", res.Content)
	assert.Equal(t, 16, res.TokensUsed)
	assert.Equal(t, ProviderOllama, res.Provider)
}

func TestOllamaProvider_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewOllamaProvider(ProviderConfig{BaseURL: srv.URL})
	_, err := p.Chat(context.Background(), userMsg("hi"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrProvider)
	assert.Equal(t, errs.ReasonBadStatus, errs.ReasonOf(err))
}

func TestOllamaProvider_Health(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]string{{"name": "llama3.2:latest"}},
		})
	}))
	defer srv.Close()

	h := NewOllamaProvider(ProviderConfig{BaseURL: srv.URL, Model: "llama3.2"}).CheckHealth(context.Background())
	assert.True(t, h.Available)

	h = NewOllamaProvider(ProviderConfig{BaseURL: srv.URL, Model: "mistral"}).CheckHealth(context.Background())
	assert.False(t, h.Available)
	assert.Contains(t, h.Error, "mistral")
}

func TestOllamaProvider_UnreachableHealthReturnsQuickly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	g := NewGateway(NewOllamaProvider(ProviderConfig{BaseURL: url}), WithHealthTimeout(time.Second))
	start := time.Now()
	h := g.CheckHealth(context.Background())
	assert.False(t, h.Available)
	assert.NotEmpty(t, h.Error)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestOpenAICompatibleProvider_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": "Roger."}}},
			"usage":   map[string]int{"total_tokens": 9},
		})
	}))
	defer srv.Close()

	p := NewOpenAICompatibleProvider(ProviderConfig{BaseURL: srv.URL + "/v1/", APIKey: "secret", Model: "qwen"})
	res, err := p.Chat(context.Background(), userMsg("radio check"))
	require.NoError(t, err)
	assert.Equal(t, "Roger.", res.Content)
	assert.Equal(t, 9, res.TokensUsed)
}

func TestOpenAICompatibleProvider_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	p := NewOpenAICompatibleProvider(ProviderConfig{BaseURL: srv.URL, Model: "qwen"})
	_, err := p.Chat(context.Background(), userMsg("hi"))
	require.Error(t, err)
	assert.Equal(t, errs.ReasonBadPayload, errs.ReasonOf(err))
}

func TestOpenAICompatibleProvider_Health(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	h := NewOpenAICompatibleProvider(ProviderConfig{BaseURL: srv.URL, Model: "qwen"}).CheckHealth(context.Background())
	assert.True(t, h.Available)
	assert.Equal(t, ProviderOpenAI, h.Provider)
}
