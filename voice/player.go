package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// Player plays one complete audio clip
type Player interface {
	Play(ctx context.Context, audio []byte) error
}

// FFplayPlayer starts a fresh ffplay process for every clip; the container
// format is probed from the data
type FFplayPlayer struct {
	Path string
}

// Play blocks until the clip finished or ctx is cancelled
func (p *FFplayPlayer) Play(ctx context.Context, audio []byte) error {
	if len(audio) == 0 {
		return nil
	}
	path := p.Path
	if path == "" {
		path = "ffplay"
	}
	if _, err := exec.LookPath(path); err != nil {
		return errors.New("ffplay is required for playback (install ffmpeg/ffplay and ensure it is in PATH)")
	}

	cmd := exec.CommandContext(ctx, path,
		"-nodisp",
		"-autoexit",
		"-loglevel", "error",
		"-i", "pipe:0",
	)
	cmd.Stdin = bytes.NewReader(audio)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffplay: %w", err)
	}
	return nil
}
