package voice

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RaiAbdullah1800/AiMed/utils"
)

// SessionConfig configures a voice-to-voice session
type SessionConfig struct {
	WSBaseURL     string
	Capture       CaptureDevice
	Player        Player
	Dialer        Dialer
	ChunkInterval time.Duration
	FlushDelay    time.Duration
	// NewChatID names the server-side conversation; uuid v4 by default
	NewChatID func() string
	Logger    *utils.Logger
	OnState   func(State)
	OnError   func(error)
}

// Session streams microphone audio to the assistant and plays its spoken
// replies
type Session struct {
	cfg    SessionConfig
	engine *engine
	logger *utils.Logger

	playCtx    context.Context
	playCancel context.CancelFunc
	plays      sync.WaitGroup

	mu     sync.Mutex
	chatID string
}

// NewSession creates an idle session
func NewSession(cfg SessionConfig) *Session {
	if cfg.NewChatID == nil {
		cfg.NewChatID = uuid.NewString
	}
	if cfg.Logger == nil {
		cfg.Logger = utils.NewDiscardLogger()
	}

	s := &Session{cfg: cfg, logger: cfg.Logger}
	s.playCtx, s.playCancel = context.WithCancel(context.Background())
	s.engine = newEngine(engineConfig{
		name:          "voice",
		capture:       cfg.Capture,
		dialer:        cfg.Dialer,
		chunkInterval: cfg.ChunkInterval,
		flushDelay:    cfg.FlushDelay,
		endMarker:     true,
		logger:        cfg.Logger,
		onState:       cfg.OnState,
		onError:       cfg.OnError,
		onFrame:       s.handleFrame,
	})
	return s
}

// VoiceURL builds the voice-to-voice socket address
func VoiceURL(wsBase, userID, chatID string) string {
	return strings.TrimRight(wsBase, "/") + "/voice_to_voice/ws/" + url.PathEscape(userID) + "/" + url.PathEscape(chatID)
}

// Start opens the microphone and the socket for userID under a fresh chat id
func (s *Session) Start(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrNoUserID
	}

	chatID := s.cfg.NewChatID()
	addr := VoiceURL(s.cfg.WSBaseURL, userID, chatID)
	s.logger.Info("Starting voice session %s", chatID)

	if err := s.engine.start(ctx, addr); err != nil {
		return err
	}
	s.mu.Lock()
	s.chatID = chatID
	s.mu.Unlock()
	return nil
}

// Stop ends a streaming session; it is a no-op when idle
func (s *Session) Stop() {
	s.engine.stop()
}

// State returns the current state
func (s *Session) State() State {
	return s.engine.State()
}

// ChatID returns the id of the most recent session
func (s *Session) ChatID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatID
}

// Close stops the session and cuts any clip still playing
func (s *Session) Close() {
	s.engine.stop()
	s.playCancel()
	s.plays.Wait()
}

func (s *Session) handleFrame(f Frame) {
	if !f.Playable() || s.cfg.Player == nil {
		return
	}
	if s.playCtx.Err() != nil {
		return
	}
	s.plays.Add(1)
	audio := f.Payload
	utils.SafeGo(s.logger, "voice playback", func() {
		defer s.plays.Done()
		if err := s.cfg.Player.Play(s.playCtx, audio); err != nil && s.playCtx.Err() == nil {
			s.logger.Warn("Playback failed: %v", err)
		}
	})
}
