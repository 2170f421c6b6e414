package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// ExportFormat represents the export format
type ExportFormat string

const (
	FormatJSON     ExportFormat = "json"
	FormatMarkdown ExportFormat = "markdown"
)

// PatientExport is one patient's chat histories as written to disk
type PatientExport struct {
	PatientID string            `json:"patient_id"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Chats     []ChatExport      `json:"chats"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ChatExport represents a chat export structure
type ChatExport struct {
	ChatID    string          `json:"chat_id"`
	CreatedAt time.Time       `json:"created_at"`
	Messages  []MessageExport `json:"messages"`
}

// MessageExport represents a message export structure
type MessageExport struct {
	ID        string    `json:"message_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func exportMetadata() map[string]string {
	return map[string]string{
		"export_version": "1.0",
		"export_date":    time.Now().Format(time.RFC3339),
		"app_name":       "AiMed",
	}
}

// WritePatientExportJSON writes the export as indented JSON
func WritePatientExportJSON(w io.Writer, export PatientExport) error {
	if export.Metadata == nil {
		export.Metadata = exportMetadata()
	}
	if export.Chats == nil {
		export.Chats = []ChatExport{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(export); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}

// WritePatientExportMarkdown writes the export as a Markdown transcript
func WritePatientExportMarkdown(w io.Writer, export PatientExport) error {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# %s\n\n", export.Name))
	if export.Email != "" {
		sb.WriteString(fmt.Sprintf("**Email**: %s\n\n", export.Email))
	}
	sb.WriteString(fmt.Sprintf("**Chats**: %d\n\n", len(export.Chats)))
	sb.WriteString("---\n\n")

	for i, chat := range export.Chats {
		sb.WriteString(fmt.Sprintf("## Chat %s\n\n", chat.ChatID))
		sb.WriteString(fmt.Sprintf("*Started %s*\n\n", chat.CreatedAt.Local().Format("2006-01-02 15:04:05")))

		for _, msg := range chat.Messages {
			roleName := "Patient"
			if msg.Role == "assistant" {
				roleName = "Assistant"
			}
			sb.WriteString(fmt.Sprintf("**%s** @ %s\n\n", roleName, msg.Timestamp.Local().Format("15:04:05")))
			sb.WriteString(msg.Content)
			sb.WriteString("\n\n")
		}

		// Separator (except for last chat)
		if i < len(export.Chats)-1 {
			sb.WriteString("---\n\n")
		}
	}

	// Footer
	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported %s by AiMed*\n", time.Now().Format("2006-01-02 15:04:05")))

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("failed to write markdown: %w", err)
	}
	return nil
}

// WritePatientExport dispatches on format
func WritePatientExport(w io.Writer, export PatientExport, format ExportFormat) error {
	switch format {
	case FormatJSON:
		return WritePatientExportJSON(w, export)
	case FormatMarkdown:
		return WritePatientExportMarkdown(w, export)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// ExportPatientChats writes the export to a file
func ExportPatientChats(path string, export PatientExport, format ExportFormat) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := WritePatientExport(f, export, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// GenerateExportFilename generates a filename for export
func GenerateExportFilename(title string, format ExportFormat) string {
	timestamp := time.Now().Format("20060102_150405")
	ext := string(format)
	if format == FormatMarkdown {
		ext = "md"
	}

	return fmt.Sprintf("%s_%s.%s", sanitizeFilename(title), timestamp, ext)
}
