package api

import (
	"context"
	"net/http"
	"strings"
)

// AudioService covers /audio
type AudioService struct {
	client *Client
}

// TextToSpeech synthesizes text. The backend answers with audio/mpeg.
func (s *AudioService) TextToSpeech(ctx context.Context, text string) (*Speech, error) {
	data, contentType, err := s.client.DoRaw(ctx, http.MethodPost, "/audio/text-to-speech", TTSRequest{Text: text})
	if err != nil {
		return nil, err
	}
	mime := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	if mime == "" {
		mime = "audio/mpeg"
	}
	return &Speech{Data: data, MimeType: mime}, nil
}
