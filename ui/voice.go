package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/RaiAbdullah1800/AiMed/api"
	"github.com/RaiAbdullah1800/AiMed/utils"
	"github.com/RaiAbdullah1800/AiMed/voice"
)

// VoiceView hosts text to speech, live transcription and the spoken
// conversation with the assistant
type VoiceView struct {
	app *App
	vc  viewContext

	transcriber *voice.Transcriber
	session     *voice.Session
	teardown    sync.Once

	// last converted clip
	speech *api.Speech

	ttsInput   *widget.Entry
	ttsConvert *widget.Button
	ttsSave    *widget.Button
	sttStart   *widget.Button
	sttStop    *widget.Button
	transcript *widget.Entry
	v2vStart   *widget.Button
	v2vStop    *widget.Button
	v2vState   *widget.Label
	snackbar   *widget.Label
	sttWasLive bool
	v2vWasLive bool
}

func newVoiceView(app *App) *VoiceView {
	v := &VoiceView{app: app, vc: newViewContext()}
	cfg := app.config
	logger := app.logger.WithPrefix("voice")

	v.transcriber = voice.NewTranscriber(voice.TranscriberConfig{
		WSBaseURL:     cfg.API.WebSocketBaseURL(),
		Capture:       app.capture,
		Dialer:        &voice.WebSocketDialer{},
		ChunkInterval: cfg.Audio.ChunkInterval(),
		Logger:        logger,
		OnState:       func(s voice.State) { v.onUI(func() { v.sttStateChanged(s) }) },
		OnError:       func(error) { v.onUI(func() { v.notify("STT error") }) },
		OnTranscript:  func(text string) { v.onUI(func() { v.transcript.SetText(text) }) },
	})
	v.session = voice.NewSession(voice.SessionConfig{
		WSBaseURL:     cfg.API.WebSocketBaseURL(),
		Capture:       app.capture,
		Player:        app.player,
		Dialer:        &voice.WebSocketDialer{},
		ChunkInterval: cfg.Audio.ChunkInterval(),
		FlushDelay:    100 * time.Millisecond,
		Logger:        logger,
		OnState:       func(s voice.State) { v.onUI(func() { v.v2vStateChanged(s) }) },
		OnError:       func(error) { v.onUI(func() { v.notify("V2V error") }) },
	})
	return v
}

func (v *VoiceView) Build() fyne.CanvasObject {
	v.snackbar = widget.NewLabel("")
	v.snackbar.TextStyle = fyne.TextStyle{Italic: true}

	return container.NewBorder(nil, v.snackbar, nil, nil,
		container.NewVScroll(container.NewVBox(
			v.buildTextToVoice(),
			widget.NewSeparator(),
			v.buildSpeechToText(),
			widget.NewSeparator(),
			v.buildVoiceToVoice(),
		)),
	)
}

// Teardown stops both sessions and any playback; it never blocks the UI
func (v *VoiceView) Teardown() {
	v.teardown.Do(func() {
		v.vc.cancel()
		utils.SafeGo(v.app.logger, "voice teardown", func() {
			v.transcriber.Stop()
			v.session.Close()
		})
	})
}

func sectionTitle(text string) *widget.Label {
	l := widget.NewLabel(text)
	l.TextStyle = fyne.TextStyle{Bold: true}
	return l
}

func (v *VoiceView) buildTextToVoice() fyne.CanvasObject {
	v.ttsInput = widget.NewMultiLineEntry()
	v.ttsInput.SetPlaceHolder("Type the text to speak")
	v.ttsInput.SetMinRowsVisible(3)

	v.ttsConvert = widget.NewButtonWithIcon("Convert & Play", theme.MediaPlayIcon(), v.convert)
	v.ttsConvert.Importance = widget.HighImportance
	v.ttsSave = widget.NewButtonWithIcon("Save", theme.DocumentSaveIcon(), v.saveSpeech)
	v.ttsSave.Disable()

	return container.NewVBox(
		sectionTitle("Text to Voice"),
		v.ttsInput,
		container.NewHBox(v.ttsConvert, v.ttsSave),
	)
}

func (v *VoiceView) convert() {
	text := strings.TrimSpace(v.ttsInput.Text)
	if text == "" {
		v.app.showError("Please enter some text")
		return
	}

	v.ttsConvert.Disable()
	var speech *api.Speech
	v.app.async(v.vc, "text to speech", func(ctx context.Context) error {
		var err error
		speech, err = v.app.client.Audio.TextToSpeech(ctx, text)
		return err
	}, func(err error) {
		v.ttsConvert.Enable()
		if err != nil {
			v.app.showError(api.UserMessage(err, "Failed to convert text to speech"))
			return
		}
		v.speech = speech
		v.ttsSave.Enable()
		v.play(speech.Data)
	})
}

func (v *VoiceView) play(audio []byte) {
	ctx := v.vc.ctx
	player := v.app.player
	logger := v.app.logger
	utils.SafeGo(logger, "tts playback", func() {
		if err := player.Play(ctx, audio); err != nil && ctx.Err() == nil {
			logger.Warn("Playback failed: %v", err)
			v.onUI(func() { v.notify("Playback failed") })
		}
	})
}

func (v *VoiceView) saveSpeech() {
	if v.speech == nil {
		return
	}
	data := v.speech.Data
	name := "tts" + utils.GetMimeExtension(v.speech.MimeType)

	save := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil {
			v.app.showError(err.Error())
			return
		}
		if w == nil {
			return
		}
		if err := utils.WriteTo(w, data); err != nil {
			v.app.logger.Error("Failed to save speech: %v", err)
			v.app.showError(err.Error())
			return
		}
		v.notify("Saved " + w.URI().Name())
	}, v.app.window)
	save.SetFileName(name)
	save.Show()
}

func (v *VoiceView) buildSpeechToText() fyne.CanvasObject {
	v.transcript = widget.NewMultiLineEntry()
	v.transcript.SetPlaceHolder("Transcript appears here")
	v.transcript.Wrapping = fyne.TextWrapWord
	v.transcript.SetMinRowsVisible(4)

	v.sttStart = widget.NewButtonWithIcon("Start Recording", theme.MediaRecordIcon(), v.startTranscribing)
	v.sttStop = widget.NewButtonWithIcon("Stop", theme.MediaStopIcon(), func() {
		utils.SafeGo(v.app.logger, "stt stop", v.transcriber.Stop)
	})
	v.sttStop.Disable()
	clearButton := widget.NewButtonWithIcon("Clear", theme.ContentClearIcon(), v.transcriber.Clear)

	return container.NewVBox(
		sectionTitle("Speech to Text"),
		container.NewHBox(v.sttStart, v.sttStop, clearButton),
		v.transcript,
	)
}

func (v *VoiceView) startTranscribing() {
	v.sttStart.Disable()
	ctx := v.vc.ctx
	utils.SafeGo(v.app.logger, "stt start", func() {
		if err := v.transcriber.Start(ctx); err != nil {
			v.app.logger.Warn("Transcription did not start: %v", err)
			v.onUI(func() {
				v.notify(startFailure("Failed to start STT", err))
				v.sttStateChanged(v.transcriber.State())
			})
		}
	})
}

func (v *VoiceView) sttStateChanged(s voice.State) {
	switch s {
	case voice.Streaming:
		v.sttWasLive = true
		v.notify("STT connected • STT recording started")
	case voice.Stopping:
		v.notify("STT recording stopped")
	case voice.Idle:
		if v.sttWasLive {
			v.sttWasLive = false
			v.notify("STT disconnected")
		}
	}
	setSessionButtons(s, v.sttStart, v.sttStop)
}

func (v *VoiceView) buildVoiceToVoice() fyne.CanvasObject {
	v.v2vStart = widget.NewButtonWithIcon("Start Talking", theme.MediaRecordIcon(), v.startConversation)
	v.v2vStop = widget.NewButtonWithIcon("Stop", theme.MediaStopIcon(), func() {
		utils.SafeGo(v.app.logger, "v2v stop", v.session.Stop)
	})
	v.v2vStop.Disable()
	v.v2vState = widget.NewLabel("Idle")

	return container.NewVBox(
		sectionTitle("Voice to Voice"),
		widget.NewLabel("Talk to the assistant and hear its replies."),
		container.NewHBox(v.v2vStart, v.v2vStop, v.v2vState),
	)
}

func (v *VoiceView) startConversation() {
	userID := ""
	if s := v.app.store.Current(); s != nil {
		userID = s.User.ID
	}
	if strings.TrimSpace(userID) == "" {
		v.notify("User ID not found in local storage. Cannot start V2V.")
		return
	}

	v.v2vStart.Disable()
	ctx := v.vc.ctx
	utils.SafeGo(v.app.logger, "v2v start", func() {
		if err := v.session.Start(ctx, userID); err != nil {
			v.app.logger.Warn("Voice session did not start: %v", err)
			v.onUI(func() {
				v.notify(startFailure("Failed to start V2V", err))
				v.v2vStateChanged(v.session.State())
			})
		}
	})
}

func (v *VoiceView) v2vStateChanged(s voice.State) {
	switch s {
	case voice.Streaming:
		v.v2vWasLive = true
		v.notify("V2V connected")
	case voice.Stopping:
		v.notify("V2V recording stopped")
	case voice.Idle:
		if v.v2vWasLive {
			v.v2vWasLive = false
			v.notify("V2V disconnected")
		}
	}
	v.v2vState.SetText(stateLabel(s))
	setSessionButtons(s, v.v2vStart, v.v2vStop)
}

// notify shows a short status line under the view
func (v *VoiceView) notify(msg string) {
	v.app.logger.Debug("Voice status: %s", msg)
	if v.snackbar != nil {
		v.snackbar.SetText(msg)
	}
}

// onUI runs fn on the UI goroutine while the view is alive
func (v *VoiceView) onUI(fn func()) {
	if v.vc.ctx.Err() != nil {
		return
	}
	fyne.Do(func() {
		if v.vc.ctx.Err() == nil {
			fn()
		}
	})
}

func setSessionButtons(s voice.State, start, stop *widget.Button) {
	if s == voice.Idle {
		start.Enable()
	} else {
		start.Disable()
	}
	if s == voice.Streaming {
		stop.Enable()
	} else {
		stop.Disable()
	}
}

func stateLabel(s voice.State) string {
	switch s {
	case voice.Starting:
		return "Connecting…"
	case voice.Streaming:
		return "Listening"
	case voice.Stopping:
		return "Finishing…"
	default:
		return "Idle"
	}
}

// startFailure names a device problem; other causes get the plain message
func startFailure(msg string, err error) string {
	var devErr *voice.DeviceError
	if errors.As(err, &devErr) {
		return msg + ": microphone unavailable"
	}
	return msg
}
