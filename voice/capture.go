package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"

	"github.com/RaiAbdullah1800/AiMed/utils"
)

// CaptureDevice opens a microphone stream of encoded audio
type CaptureDevice interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// FFmpegCapture records the default input with ffmpeg and encodes it as
// webm/opus on stdout
type FFmpegCapture struct {
	Path        string
	InputFormat string
	InputDevice string
	goos        string
}

// NewFFmpegCapture creates a capture device from the audio config
func NewFFmpegCapture(cfg utils.AudioConfig) *FFmpegCapture {
	return &FFmpegCapture{
		Path:        cfg.FFmpegPath,
		InputFormat: cfg.InputFormat,
		InputDevice: cfg.InputDevice,
		goos:        runtime.GOOS,
	}
}

// Open starts ffmpeg; closing the stream kills the process
func (c *FFmpegCapture) Open(ctx context.Context) (io.ReadCloser, error) {
	path := c.Path
	if path == "" {
		path = "ffmpeg"
	}
	if _, err := exec.LookPath(path); err != nil {
		return nil, errors.New("ffmpeg is required for microphone capture (install ffmpeg and ensure it is in PATH)")
	}

	args, err := captureArgs(c.goos, c.InputFormat, c.InputDevice)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, path, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, utils.WrapError(err, "open ffmpeg stdout")
	}
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return nil, utils.WrapError(err, "start ffmpeg mic capture")
	}
	return &ffmpegStream{cmd: cmd, stdout: stdout}, nil
}

func captureArgs(goos, format, device string) ([]string, error) {
	if format == "" || device == "" {
		switch goos {
		case "darwin":
			format, device = "avfoundation", ":0"
		case "linux":
			format, device = "pulse", "default"
		default:
			return nil, fmt.Errorf("no default microphone for %s; set audio.input_format and audio.input_device", goos)
		}
	}
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-f", format, "-i", device,
		"-ac", "1", "-ar", "48000",
		"-c:a", "libopus",
		"-flush_packets", "1",
		"-f", "webm", "-",
	}, nil
}

type ffmpegStream struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
}

func (s *ffmpegStream) Read(p []byte) (int, error) {
	if s == nil || s.stdout == nil {
		return 0, io.EOF
	}
	return s.stdout.Read(p)
}

func (s *ffmpegStream) Close() error {
	if s == nil {
		return nil
	}
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
		_ = s.cmd.Wait()
	}
	return nil
}
