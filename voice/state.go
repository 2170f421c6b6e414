package voice

import (
	"errors"
	"fmt"
)

// State of an audio session
type State int

const (
	Idle State = iota
	Starting
	Streaming
	Stopping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Streaming:
		return "streaming"
	case Stopping:
		return "stopping"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrNoUserID is returned by Start when no user is signed in
	ErrNoUserID = errors.New("user id not found, cannot start voice session")
	// ErrSessionActive is returned by Start when a session is not idle
	ErrSessionActive = errors.New("audio session already active")
)

// DeviceError wraps a capture device failure (missing tool, denied access)
type DeviceError struct {
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("capture device unavailable: %v", e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }
