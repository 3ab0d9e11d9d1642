package app

import (
	"context"
	"strings"

	"gopherai-training/internal/ai"
)

// ChatService forwards a conversation to the gateway unchanged.
type ChatService struct {
	gateway ChatGateway
}

func NewChatService(gateway ChatGateway) *ChatService {
	return &ChatService{gateway: gateway}
}

func (s *ChatService) Chat(ctx context.Context, messages []ai.ChatMessage) (*ai.ChatResult, error) {
	res, err := s.gateway.Chat(ctx, messages)
	if err != nil {
		return nil, err
	}
	res.Content = strings.TrimSpace(res.Content)
	if res.Content == "" {
		res.Content = "The model returned an empty response."
	}
	return res, nil
}
