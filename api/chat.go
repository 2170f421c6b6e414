package api

import (
	"context"
	"net/http"
)

// ChatService covers /chat
type ChatService struct {
	client *Client
}

// SendMessage posts one user message. An empty chatID starts a new
// conversation on the server.
func (s *ChatService) SendMessage(ctx context.Context, message, chatID string) (*ChatReply, error) {
	var reply ChatReply
	req := ChatRequest{Message: message, ChatID: chatID}
	if err := s.client.Do(ctx, http.MethodPost, "/chat/message", req, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}
