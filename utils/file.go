package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// WriteTo streams data into w and closes it; used with fyne save dialogs
func WriteTo(w io.WriteCloser, data []byte) error {
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

// GetMimeExtension returns the file extension for an audio MIME type
func GetMimeExtension(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0])) {
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	case "audio/webm":
		return ".webm"
	default:
		return ".bin"
	}
}

// sanitizeFilename replaces characters that are invalid in file names
func sanitizeFilename(name string) string {
	sanitized := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' || r == '"' || r == '<' || r == '>' || r == '|' {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))

	// Truncate if too long
	if len(sanitized) > 50 {
		sanitized = sanitized[:50]
	}
	if sanitized == "" {
		sanitized = "untitled"
	}
	return sanitized
}

// GenerateAudioFilename builds a timestamped file name for a saved clip
func GenerateAudioFilename(prefix, mimeType string) string {
	return fmt.Sprintf("%s_%s%s", sanitizeFilename(prefix), time.Now().Format("20060102_150405"), GetMimeExtension(mimeType))
}

// GetDefaultDownloadPath returns the directory saved clips and exports go to
func GetDefaultDownloadPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(homeDir, "Downloads", "AiMed")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
