package voice

import (
	"context"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeTranscript(t *testing.T) {
	tests := []struct {
		prev, text, want string
	}{
		{"", "hello", "hello"},
		{"hello", "hello world", "hello world"},
		{"I have a", "headache", "I have headache"},
		{"pain in", "in my chest", "pain in my chest"},
		{"one", "", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MergeTranscript(tt.prev, tt.text), "%q + %q", tt.prev, tt.text)
	}
}

func TestTranscriberAccumulates(t *testing.T) {
	srv := newWSServer(t)
	updates := make(chan string, 8)
	tr := NewTranscriber(TranscriberConfig{
		WSBaseURL:    srv.wsBase(),
		Capture:      &fakeCapture{},
		OnTranscript: func(s string) { updates <- s },
	})

	require.NoError(t, tr.Start(context.Background()))
	assert.Equal(t, "/audio/ws/transcribe", waitFor(t, srv.paths))
	conn := waitFor(t, srv.conns)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"text":"my","is_final":false}`)))
	assert.Equal(t, "my", waitFor(t, updates))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"text":"my head hurts","is_final":true}`)))
	assert.Equal(t, "my head hurts", waitFor(t, updates))

	tr.Stop()
	assert.Equal(t, Idle, tr.State())
	assert.Equal(t, "my head hurts", tr.Transcript())

	// no end marker on the transcription socket
	waitFor(t, srv.ended)
	for {
		select {
		case f := <-srv.received:
			assert.NotEmpty(t, f.data)
		default:
			return
		}
	}
}
