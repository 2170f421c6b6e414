package voice

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
)

// Kind tags an inbound frame
type Kind int

const (
	// KindAudio is a raw binary audio frame
	KindAudio Kind = iota
	// KindMedia is a JSON media envelope; Payload holds the decoded audio
	KindMedia
	// KindOther is any other JSON text frame; Payload holds the raw JSON
	KindOther
)

// Frame is one decoded inbound socket message
type Frame struct {
	Kind    Kind
	Payload []byte
}

// Playable reports whether the frame carries audio
func (f Frame) Playable() bool {
	return (f.Kind == KindAudio || f.Kind == KindMedia) && len(f.Payload) > 0
}

type mediaEnvelope struct {
	Event string `json:"event"`
	Media *struct {
		Payload string `json:"payload"`
	} `json:"media"`
}

// DecodeFrame classifies a socket message. Text frames must be JSON.
func DecodeFrame(messageType int, data []byte) (Frame, error) {
	switch messageType {
	case websocket.BinaryMessage:
		return Frame{Kind: KindAudio, Payload: data}, nil
	case websocket.TextMessage:
	default:
		return Frame{}, fmt.Errorf("unexpected frame type %d", messageType)
	}

	var env mediaEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Frame{}, fmt.Errorf("decode text frame: %w", err)
	}
	if env.Event == "media" && env.Media != nil && env.Media.Payload != "" {
		audio, err := base64.StdEncoding.DecodeString(env.Media.Payload)
		if err != nil {
			return Frame{}, fmt.Errorf("decode media payload: %w", err)
		}
		return Frame{Kind: KindMedia, Payload: audio}, nil
	}
	return Frame{Kind: KindOther, Payload: data}, nil
}

// EncodeMedia builds the JSON media envelope for audio
func EncodeMedia(audio []byte) ([]byte, error) {
	return json.Marshal(map[string]any{
		"event": "media",
		"media": map[string]string{"payload": base64.StdEncoding.EncodeToString(audio)},
	})
}
