package voice

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/RaiAbdullah1800/AiMed/utils"
)

const (
	defaultChunkInterval = time.Second
	defaultFlushDelay    = 100 * time.Millisecond
	captureReadSize      = 4096
)

// engineConfig drives one capture-to-socket pipeline
type engineConfig struct {
	name          string
	capture       CaptureDevice
	dialer        Dialer
	chunkInterval time.Duration
	flushDelay    time.Duration
	// endMarker sends a zero-length binary frame on explicit stop
	endMarker bool
	logger    *utils.Logger
	onState   func(State)
	onError   func(error)
	onFrame   func(Frame)
}

// engine is the Idle/Starting/Streaming/Stopping state machine shared by
// the voice session and the transcriber
type engine struct {
	cfg engineConfig

	mu          sync.Mutex
	state       State
	startCancel context.CancelFunc
	active      *stream
}

// stream holds the resources of one Streaming period
type stream struct {
	conn    Conn
	capture io.ReadCloser
	ctx     context.Context
	cancel  context.CancelFunc

	writeMu sync.Mutex

	bufMu   sync.Mutex
	pending []byte

	stopping atomic.Bool
	flusher  sync.WaitGroup
}

func newEngine(cfg engineConfig) *engine {
	if cfg.chunkInterval <= 0 {
		cfg.chunkInterval = defaultChunkInterval
	}
	if cfg.flushDelay <= 0 {
		cfg.flushDelay = defaultFlushDelay
	}
	if cfg.logger == nil {
		cfg.logger = utils.NewDiscardLogger()
	}
	if cfg.dialer == nil {
		cfg.dialer = WebSocketDialer{}
	}
	return &engine{cfg: cfg}
}

func (e *engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *engine) emitState(s State) {
	e.cfg.logger.Debug("%s: %s", e.cfg.name, s)
	if e.cfg.onState != nil {
		e.cfg.onState(s)
	}
}

func (e *engine) emitError(err error) {
	e.cfg.logger.Error("%s: %s", e.cfg.name, utils.Redact(err.Error()))
	if e.cfg.onError != nil {
		e.cfg.onError(err)
	}
}

func (e *engine) toIdle() {
	e.mu.Lock()
	e.state = Idle
	e.startCancel = nil
	e.active = nil
	e.mu.Unlock()
	e.emitState(Idle)
}

// start acquires the capture device, dials url and begins streaming
func (e *engine) start(ctx context.Context, url string) error {
	if e.cfg.capture == nil {
		return &DeviceError{Err: errors.New("no capture device configured")}
	}

	e.mu.Lock()
	if e.state != Idle {
		e.mu.Unlock()
		return ErrSessionActive
	}
	dialCtx, dialCancel := context.WithCancel(ctx)
	e.startCancel = dialCancel
	e.state = Starting
	e.mu.Unlock()
	e.emitState(Starting)

	streamCtx, streamCancel := context.WithCancel(context.Background())
	capture, err := e.cfg.capture.Open(streamCtx)
	if err != nil {
		streamCancel()
		dialCancel()
		e.toIdle()
		return &DeviceError{Err: err}
	}

	conn, err := e.cfg.dialer.Dial(dialCtx, url)
	if err == nil && dialCtx.Err() != nil {
		_ = conn.Close()
		err = dialCtx.Err()
	}
	dialCancel()
	if err != nil {
		_ = capture.Close()
		streamCancel()
		e.toIdle()
		return err
	}

	s := &stream{conn: conn, capture: capture, ctx: streamCtx, cancel: streamCancel}

	e.mu.Lock()
	e.active = s
	e.startCancel = nil
	e.state = Streaming
	e.mu.Unlock()
	e.emitState(Streaming)

	s.flusher.Add(1)
	go e.pump(s)
	go e.flush(s)
	go e.read(s)
	return nil
}

// pump copies capture output into the pending chunk
func (e *engine) pump(s *stream) {
	buf := make([]byte, captureReadSize)
	for {
		n, err := s.capture.Read(buf)
		if n > 0 {
			s.bufMu.Lock()
			s.pending = append(s.pending, buf[:n]...)
			s.bufMu.Unlock()
		}
		if err != nil {
			if !s.stopping.Load() && !errors.Is(err, io.EOF) {
				e.cfg.logger.Warn("%s: capture read: %v", e.cfg.name, err)
			}
			return
		}
	}
}

func (s *stream) take() []byte {
	s.bufMu.Lock()
	defer s.bufMu.Unlock()
	chunk := s.pending
	s.pending = nil
	return chunk
}

func (s *stream) write(messageType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(messageType, data)
}

// flush sends the pending chunk every interval when it is non-empty
func (e *engine) flush(s *stream) {
	defer s.flusher.Done()
	ticker := time.NewTicker(e.cfg.chunkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			chunk := s.take()
			if len(chunk) == 0 {
				continue
			}
			if err := s.write(websocket.BinaryMessage, chunk); err != nil {
				go e.terminate(s, err)
				return
			}
		}
	}
}

// read dispatches inbound frames until the socket ends
func (e *engine) read(s *stream) {
	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.stopping.Load() {
				return
			}
			if isCleanClose(err) {
				e.terminate(s, nil)
			} else {
				e.terminate(s, err)
			}
			return
		}

		frame, err := DecodeFrame(messageType, data)
		if err != nil {
			e.cfg.logger.Warn("%s: dropping frame: %v", e.cfg.name, err)
			continue
		}
		if e.cfg.onFrame != nil {
			e.cfg.onFrame(frame)
		}
	}
}

// terminate handles socket errors and remote closes: same cleanup as stop,
// without the end-of-stream marker
func (e *engine) terminate(s *stream, cause error) {
	e.mu.Lock()
	if e.active != s || e.state != Streaming {
		e.mu.Unlock()
		return
	}
	e.active = nil
	e.mu.Unlock()

	s.stopping.Store(true)
	s.cancel()
	_ = s.capture.Close()
	_ = s.conn.Close()

	e.toIdle()
	if cause != nil {
		e.emitError(cause)
	} else {
		e.cfg.logger.Info("%s: closed by server", e.cfg.name)
	}
}

// stop ends the session from the client side. It blocks for the flush delay
// when an end marker is sent.
func (e *engine) stop() {
	e.mu.Lock()
	switch e.state {
	case Starting:
		if e.startCancel != nil {
			e.startCancel()
		}
		e.mu.Unlock()
		return
	case Streaming:
	default:
		e.mu.Unlock()
		return
	}
	s := e.active
	e.state = Stopping
	e.mu.Unlock()
	e.emitState(Stopping)

	s.stopping.Store(true)
	s.cancel()
	s.flusher.Wait()
	_ = s.capture.Close()

	if rest := s.take(); len(rest) > 0 {
		if err := s.write(websocket.BinaryMessage, rest); err != nil {
			e.cfg.logger.Debug("%s: final chunk not sent: %v", e.cfg.name, err)
		}
	}
	if e.cfg.endMarker {
		if err := s.write(websocket.BinaryMessage, []byte{}); err != nil {
			e.cfg.logger.Debug("%s: end marker not sent: %v", e.cfg.name, err)
		} else {
			time.Sleep(e.cfg.flushDelay)
		}
	}
	_ = s.conn.Close()

	e.toIdle()
}
