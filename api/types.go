package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ID is a backend identifier that may arrive as a JSON string or number
type ID string

// UnmarshalJSON accepts strings, numbers and null
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Timestamp is a backend time value parsed with ParseTimestamp
type Timestamp struct {
	time.Time
}

// UnmarshalJSON accepts strings in the layouts ParseTimestamp understands
// and epoch seconds as JSON numbers. Null, empty and unrecognized values
// leave the zero time; a reply is never rejected for its timestamp.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		raw = s
	}
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if parsed, err := ParseTimestamp(raw); err == nil {
		t.Time = parsed
	}
	return nil
}

// MarshalJSON writes RFC 3339 in UTC
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses backend times. Values without a zone are UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		whole := int64(secs)
		return time.Unix(whole, int64((secs-float64(whole))*1e9)).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// Role names accepted by the backend
const (
	RolePatient = "patient"
	RoleAdmin   = "admin"
)

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by POST /auth/login
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	Name        string `json:"name"`
	UserID      ID     `json:"user_id"`
}

// ValidateResponse is returned by GET /auth/validate-token
type ValidateResponse struct {
	Valid  bool   `json:"valid"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Name   string `json:"name"`
	UserID ID     `json:"user_id"`
}

// ChatRequest is the body of POST /chat/message
type ChatRequest struct {
	Message string `json:"message"`
	ChatID  string `json:"chat_id,omitempty"`
}

// ChatReply is the assistant's answer
type ChatReply struct {
	Response  string    `json:"response"`
	ChatID    ID        `json:"chat_id"`
	Timestamp Timestamp `json:"timestamp"`
}

// Patient is one entry of GET /admin/patients
type Patient struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// HistoryMessage is one message inside a stored chat
type HistoryMessage struct {
	MessageID ID        `json:"message_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp Timestamp `json:"timestamp"`
}

// PatientChat is one stored conversation of a patient
type PatientChat struct {
	ChatID    ID               `json:"chat_id"`
	CreatedAt Timestamp        `json:"created_at"`
	Messages  []HistoryMessage `json:"messages"`
}

// Doctor is one entry of GET /appointments/available-doctors
type Doctor struct {
	DoctorName string `json:"doctor_name"`
}

// AppointmentStatus is displayed as received
type AppointmentStatus string

// Statuses the backend is known to send
const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// Appointment is a booked visit
type Appointment struct {
	ID          ID                `json:"id"`
	DoctorName  string            `json:"doctor_name"`
	ScheduledAt Timestamp         `json:"appointment_datetime"`
	Status      AppointmentStatus `json:"status"`
}

// ScheduleRequest is the body of POST /appointments/schedule
type ScheduleRequest struct {
	DoctorName string `json:"doctor_name"`
	// RFC 3339 in UTC
	AppointmentDatetime string `json:"appointment_datetime"`
}

// TTSRequest is the body of POST /audio/text-to-speech
type TTSRequest struct {
	Text string `json:"text"`
}

// Speech is synthesized audio
type Speech struct {
	Data     []byte
	MimeType string
}
