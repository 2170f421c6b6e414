package voice

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCapture hands out an io.Pipe whose writer the test feeds
type fakeCapture struct {
	mu     sync.Mutex
	w      *io.PipeWriter
	opened atomic.Int32
	closed atomic.Int32
	err    error
}

func (c *fakeCapture) Open(context.Context) (io.ReadCloser, error) {
	if c.err != nil {
		return nil, c.err
	}
	r, w := io.Pipe()
	c.mu.Lock()
	c.w = w
	c.mu.Unlock()
	c.opened.Add(1)
	return &trackedReader{PipeReader: r, onClose: func() { c.closed.Add(1) }}, nil
}

func (c *fakeCapture) feed(data []byte) {
	c.mu.Lock()
	w := c.w
	c.mu.Unlock()
	_, _ = w.Write(data)
}

type trackedReader struct {
	*io.PipeReader
	once    sync.Once
	onClose func()
}

func (r *trackedReader) Close() error {
	r.once.Do(r.onClose)
	return r.PipeReader.Close()
}

type fakePlayer struct {
	clips chan []byte
}

func (p *fakePlayer) Play(_ context.Context, audio []byte) error {
	p.clips <- audio
	return nil
}

type serverFrame struct {
	kind int
	data []byte
}

// wsServer records frames from the client and lets the test push frames
type wsServer struct {
	*httptest.Server
	paths    chan string
	received chan serverFrame
	conns    chan *websocket.Conn
	ended    chan struct{}
}

func newWSServer(t *testing.T) *wsServer {
	t.Helper()
	s := &wsServer{
		paths:    make(chan string, 4),
		received: make(chan serverFrame, 64),
		conns:    make(chan *websocket.Conn, 4),
		ended:    make(chan struct{}, 4),
	}
	upgrader := websocket.Upgrader{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.paths <- r.URL.Path
		s.conns <- conn
		for {
			kind, data, err := conn.ReadMessage()
			if err != nil {
				s.ended <- struct{}{}
				return
			}
			s.received <- serverFrame{kind, data}
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *wsServer) wsBase() string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

type stateLog struct {
	mu     sync.Mutex
	states []State
	idle   chan struct{}
}

func newStateLog() *stateLog {
	return &stateLog{idle: make(chan struct{}, 8)}
}

func (l *stateLog) record(s State) {
	l.mu.Lock()
	l.states = append(l.states, s)
	l.mu.Unlock()
	if s == Idle {
		l.idle <- struct{}{}
	}
}

func (l *stateLog) get() []State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]State(nil), l.states...)
}

func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
		var zero T
		return zero
	}
}

func TestStartWithoutUserIDAcquiresNothing(t *testing.T) {
	capture := &fakeCapture{}
	s := NewSession(SessionConfig{WSBaseURL: "ws://unused", Capture: capture})

	err := s.Start(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrNoUserID)
	assert.Zero(t, capture.opened.Load())
	assert.Equal(t, Idle, s.State())
}

func TestCaptureFailureIsDeviceError(t *testing.T) {
	capture := &fakeCapture{err: errors.New("permission denied")}
	states := newStateLog()
	s := NewSession(SessionConfig{WSBaseURL: "ws://unused", Capture: capture, OnState: states.record})

	err := s.Start(context.Background(), "1")
	var devErr *DeviceError
	require.True(t, errors.As(err, &devErr))
	assert.Equal(t, []State{Starting, Idle}, states.get())
}

func TestDialFailureReleasesCapture(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	capture := &fakeCapture{}
	s := NewSession(SessionConfig{WSBaseURL: base, Capture: capture})

	err := s.Start(context.Background(), "1")
	require.Error(t, err)
	assert.Equal(t, int32(1), capture.closed.Load())
	assert.Equal(t, Idle, s.State())
}

func TestStreamingSendsChunksAndEndMarker(t *testing.T) {
	srv := newWSServer(t)
	capture := &fakeCapture{}
	states := newStateLog()
	s := NewSession(SessionConfig{
		WSBaseURL:     srv.wsBase(),
		Capture:       capture,
		ChunkInterval: 20 * time.Millisecond,
		FlushDelay:    10 * time.Millisecond,
		NewChatID:     func() string { return "chat-1" },
		OnState:       states.record,
	})

	require.NoError(t, s.Start(context.Background(), "42"))
	assert.Equal(t, "/voice_to_voice/ws/42/chat-1", waitFor(t, srv.paths))
	assert.Equal(t, Streaming, s.State())

	capture.feed([]byte("abc"))
	first := waitFor(t, srv.received)
	assert.Equal(t, websocket.BinaryMessage, first.kind)
	assert.Equal(t, []byte("abc"), first.data)

	s.Stop()
	marker := waitFor(t, srv.received)
	assert.Equal(t, websocket.BinaryMessage, marker.kind)
	assert.Empty(t, marker.data)

	assert.Equal(t, Idle, s.State())
	assert.Equal(t, int32(1), capture.closed.Load())
	assert.Equal(t, []State{Starting, Streaming, Stopping, Idle}, states.get())
}

func TestInboundAudioIsPlayed(t *testing.T) {
	srv := newWSServer(t)
	player := &fakePlayer{clips: make(chan []byte, 4)}
	s := NewSession(SessionConfig{
		WSBaseURL: srv.wsBase(),
		Capture:   &fakeCapture{},
		Player:    player,
	})
	defer s.Close()

	require.NoError(t, s.Start(context.Background(), "1"))
	conn := waitFor(t, srv.conns)

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3}))
	assert.Equal(t, []byte{1, 2, 3}, waitFor(t, player.clips))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"mark"}`)))

	media, err := EncodeMedia([]byte("mp3"))
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, media))
	assert.Equal(t, []byte("mp3"), waitFor(t, player.clips))
	assert.Equal(t, Streaming, s.State())
}

func TestRemoteCloseReturnsToIdle(t *testing.T) {
	srv := newWSServer(t)
	capture := &fakeCapture{}
	states := newStateLog()
	var errs atomic.Int32
	s := NewSession(SessionConfig{
		WSBaseURL: srv.wsBase(),
		Capture:   capture,
		OnState:   states.record,
		OnError:   func(error) { errs.Add(1) },
	})

	require.NoError(t, s.Start(context.Background(), "1"))
	conn := waitFor(t, srv.conns)
	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")))

	waitFor(t, states.idle)
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, int32(1), capture.closed.Load())
	assert.Zero(t, errs.Load())
	assert.NotContains(t, states.get(), Stopping)

	// A new session may start afterwards
	require.NoError(t, s.Start(context.Background(), "1"))
	s.Stop()
}

func TestSocketErrorReportsAndCleansUp(t *testing.T) {
	srv := newWSServer(t)
	capture := &fakeCapture{}
	states := newStateLog()
	gotErr := make(chan error, 1)
	s := NewSession(SessionConfig{
		WSBaseURL: srv.wsBase(),
		Capture:   capture,
		OnState:   states.record,
		OnError:   func(err error) { gotErr <- err },
	})

	require.NoError(t, s.Start(context.Background(), "1"))
	conn := waitFor(t, srv.conns)
	require.NoError(t, conn.UnderlyingConn().Close())

	assert.Error(t, waitFor(t, gotErr))
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, int32(1), capture.closed.Load())
}

func TestSecondStartWhileStreaming(t *testing.T) {
	srv := newWSServer(t)
	s := NewSession(SessionConfig{WSBaseURL: srv.wsBase(), Capture: &fakeCapture{}})
	require.NoError(t, s.Start(context.Background(), "1"))
	defer s.Stop()

	assert.ErrorIs(t, s.Start(context.Background(), "1"), ErrSessionActive)
}

func TestDecodeFrame(t *testing.T) {
	f, err := DecodeFrame(websocket.BinaryMessage, []byte{9})
	require.NoError(t, err)
	assert.Equal(t, KindAudio, f.Kind)

	f, err = DecodeFrame(websocket.TextMessage, []byte(`{"event":"media","media":{"payload":"aGk="}}`))
	require.NoError(t, err)
	assert.Equal(t, Frame{Kind: KindMedia, Payload: []byte("hi")}, f)

	f, err = DecodeFrame(websocket.TextMessage, []byte(`{"text":"hello","is_final":true}`))
	require.NoError(t, err)
	assert.Equal(t, KindOther, f.Kind)
	assert.False(t, f.Playable())

	_, err = DecodeFrame(websocket.TextMessage, []byte(`{"event":"media","media":{"payload":"%%%"}}`))
	assert.Error(t, err)

	_, err = DecodeFrame(websocket.TextMessage, []byte(`<html>`))
	assert.Error(t, err)
}

func TestVoiceURL(t *testing.T) {
	assert.Equal(t, "wss://api.example.com/voice_to_voice/ws/7/abc",
		VoiceURL("wss://api.example.com/", "7", "abc"))
	assert.Equal(t, "ws://h:8000/audio/ws/transcribe", TranscribeURL("ws://h:8000"))
}
