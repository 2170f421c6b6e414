package voice

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/RaiAbdullah1800/AiMed/utils"
)

// TranscriberConfig configures live speech-to-text
type TranscriberConfig struct {
	WSBaseURL     string
	Capture       CaptureDevice
	Dialer        Dialer
	ChunkInterval time.Duration
	Logger        *utils.Logger
	OnState       func(State)
	OnError       func(error)
	// OnTranscript receives the running transcript after every update
	OnTranscript func(string)
}

// transcriptUpdate is one server message on the transcription socket
type transcriptUpdate struct {
	Text    *string `json:"text"`
	IsFinal bool    `json:"is_final"`
}

// Transcriber streams microphone audio and accumulates the transcript
type Transcriber struct {
	cfg    TranscriberConfig
	engine *engine

	mu         sync.Mutex
	transcript string
}

// NewTranscriber creates an idle transcriber
func NewTranscriber(cfg TranscriberConfig) *Transcriber {
	if cfg.Logger == nil {
		cfg.Logger = utils.NewDiscardLogger()
	}
	t := &Transcriber{cfg: cfg}
	t.engine = newEngine(engineConfig{
		name:          "transcribe",
		capture:       cfg.Capture,
		dialer:        cfg.Dialer,
		chunkInterval: cfg.ChunkInterval,
		logger:        cfg.Logger,
		onState:       cfg.OnState,
		onError:       cfg.OnError,
		onFrame:       t.handleFrame,
	})
	return t
}

// TranscribeURL builds the transcription socket address
func TranscribeURL(wsBase string) string {
	return strings.TrimRight(wsBase, "/") + "/audio/ws/transcribe"
}

// Start begins recording
func (t *Transcriber) Start(ctx context.Context) error {
	return t.engine.start(ctx, TranscribeURL(t.cfg.WSBaseURL))
}

// Stop ends recording; the transcript is kept
func (t *Transcriber) Stop() {
	t.engine.stop()
}

// State returns the current state
func (t *Transcriber) State() State {
	return t.engine.State()
}

// Transcript returns the text so far
func (t *Transcriber) Transcript() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transcript
}

// Clear empties the transcript
func (t *Transcriber) Clear() {
	t.mu.Lock()
	t.transcript = ""
	t.mu.Unlock()
	if t.cfg.OnTranscript != nil {
		t.cfg.OnTranscript("")
	}
}

func (t *Transcriber) handleFrame(f Frame) {
	if f.Kind != KindOther {
		return
	}
	var update transcriptUpdate
	if err := json.Unmarshal(f.Payload, &update); err != nil || update.Text == nil {
		return
	}

	t.mu.Lock()
	t.transcript = MergeTranscript(t.transcript, *update.Text)
	current := t.transcript
	t.mu.Unlock()

	if t.cfg.OnTranscript != nil {
		t.cfg.OnTranscript(current)
	}
}

// MergeTranscript folds one update into the running transcript: text
// replaces the last space-separated word. Interim and final updates merge
// the same way.
func MergeTranscript(prev, text string) string {
	if prev == "" {
		return strings.TrimSpace(text)
	}
	parts := strings.Split(prev, " ")
	parts[len(parts)-1] = text
	return strings.TrimSpace(strings.Join(parts, " "))
}
