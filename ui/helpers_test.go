package ui

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaiAbdullah1800/AiMed/api"
	"github.com/RaiAbdullah1800/AiMed/session"
	"github.com/RaiAbdullah1800/AiMed/utils"
	"github.com/RaiAbdullah1800/AiMed/voice"
)

func TestSplitCodeBlocks(t *testing.T) {
	parts := splitCodeBlocks("Take this with water.\n```text\n500 mg twice daily\n```\nSee a doctor if it persists.")

	require.Len(t, parts, 3)
	assert.Equal(t, markdownPart{content: "Take this with water."}, parts[0])
	assert.Equal(t, markdownPart{content: "500 mg twice daily", isCode: true, language: "text"}, parts[1])
	assert.Equal(t, markdownPart{content: "See a doctor if it persists."}, parts[2])
}

func TestSplitCodeBlocksUnterminatedFence(t *testing.T) {
	parts := splitCodeBlocks("Dosage:\n```\n1 tablet")

	require.Len(t, parts, 2)
	assert.True(t, parts[1].isCode)
	assert.Equal(t, "1 tablet", parts[1].content)
}

func TestParseAppointmentTime(t *testing.T) {
	loc := time.FixedZone("PKT", 5*60*60)

	at, err := parseAppointmentTime("Smith", " 2026-11-02 14:30 ", loc)
	require.NoError(t, err)
	assert.Equal(t, "2026-11-02T09:30:00Z", at.UTC().Format(time.RFC3339))

	_, err = parseAppointmentTime("", "2026-11-02 14:30", loc)
	var verr *utils.ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = parseAppointmentTime("Smith", "tomorrow", loc)
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, "appointment_datetime", verr.Field)
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Scheduled", statusLabel(api.StatusScheduled))
	assert.Equal(t, "Rescheduled", statusLabel("rescheduled"))
	assert.Equal(t, "", statusLabel(""))
}

func TestChatTitleAndMessageHeader(t *testing.T) {
	created := time.Date(2026, 1, 5, 8, 0, 0, 0, time.Local)
	c := api.PatientChat{ChatID: "c9", CreatedAt: api.Timestamp{Time: created}}
	assert.Equal(t, "Chat ID: c9 • 2026-01-05 08:00", chatTitle(c))
	assert.Equal(t, "Chat ID: c9", chatTitle(api.PatientChat{ChatID: "c9"}))

	m := api.HistoryMessage{Role: "assistant", Timestamp: api.Timestamp{Time: created}}
	assert.Equal(t, "ASSISTANT @ 2026-01-05 08:00:00", messageHeader(m))
}

func TestPatientOptions(t *testing.T) {
	opts := patientOptions([]api.Patient{{ID: "1", Name: "Jane", Email: "jane@example.com"}})
	assert.Equal(t, []string{"Jane (jane@example.com)"}, opts)
}

func TestBuildPatientExport(t *testing.T) {
	at := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	export := buildPatientExport(
		api.Patient{ID: "7", Name: "Jane", Email: "jane@example.com"},
		[]api.PatientChat{{
			ChatID:    "c1",
			CreatedAt: api.Timestamp{Time: at},
			Messages: []api.HistoryMessage{
				{MessageID: "m1", Role: "user", Content: "hello", Timestamp: api.Timestamp{Time: at}},
			},
		}},
	)

	assert.Equal(t, "7", export.PatientID)
	require.Len(t, export.Chats, 1)
	assert.Equal(t, at, export.Chats[0].CreatedAt)
	assert.Equal(t, utils.MessageExport{ID: "m1", Role: "user", Content: "hello", Timestamp: at}, export.Chats[0].Messages[0])
}

func TestRoleFromLabel(t *testing.T) {
	assert.Equal(t, session.RoleAdmin, roleFromLabel("Admin"))
	assert.Equal(t, session.RolePatient, roleFromLabel("Patient"))
	assert.Equal(t, session.RolePatient, roleFromLabel(""))
}

func TestStartFailureNamesDeviceProblems(t *testing.T) {
	assert.Equal(t, "Failed to start V2V: microphone unavailable",
		startFailure("Failed to start V2V", &voice.DeviceError{Err: errors.New("no ffmpeg")}))
	assert.Equal(t, "Failed to start STT", startFailure("Failed to start STT", errors.New("dial refused")))
}
