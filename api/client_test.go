package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, token string, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, TokenFunc(func() string { return token }))
}

func TestBearerHeaderAttached(t *testing.T) {
	var got string
	c := newTestClient(t, "abc", func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	})

	_, err := c.Admin.ListPatients(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", got)
}

func TestNoHeaderWithoutToken(t *testing.T) {
	var present bool
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		_, present = r.Header["Authorization"]
		w.Write([]byte(`{"access_token":"t","role":"patient","user_id":7}`))
	})

	resp, err := c.Auth.Login(context.Background(), LoginRequest{Email: "a@b.co", Password: "x"})
	require.NoError(t, err)
	assert.False(t, present)
	assert.Equal(t, ID("7"), resp.UserID)
}

func TestServerErrorIsNormalized(t *testing.T) {
	c := newTestClient(t, "abc", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"Traceback: db exploded"}`))
	})

	_, err := c.Chat.SendMessage(context.Background(), "Hi", "")
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, ServiceUnavailableMessage, apiErr.Message)
	assert.Empty(t, apiErr.Detail)
	assert.Equal(t, ServiceUnavailableMessage, UserMessage(err, "fallback"))
}

func TestDetailPreservedOnClientErrors(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"Email already registered"}`))
	})

	err := c.Auth.Register(context.Background(), RegisterRequest{Name: "A"})
	assert.Equal(t, "Email already registered", UserMessage(err, "Failed to register"))
}

func TestValidationDetailList(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":[{"msg":"field required"},{"msg":"value is not a valid email"}]}`))
	})

	_, err := c.Auth.Login(context.Background(), LoginRequest{})
	assert.Equal(t, "field required; value is not a valid email", UserMessage(err, "Failed to login"))
}

func TestUnauthorizedPublishesEventPerRequest(t *testing.T) {
	c := newTestClient(t, "stale", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Could not validate credentials"}`))
	})

	var mu sync.Mutex
	var events []UnauthorizedEvent
	unsubscribe := c.OnUnauthorized(func(ev UnauthorizedEvent) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Admin.ListPatients(context.Background())
			assert.ErrorIs(t, err, ErrUnauthorized)
		}()
	}
	wg.Wait()

	mu.Lock()
	require.Len(t, events, 3)
	for _, ev := range events {
		assert.Equal(t, "stale", ev.Token)
		assert.Equal(t, "/admin/patients", ev.Path)
	}
	mu.Unlock()

	unsubscribe()
	_, _ = c.Admin.ListPatients(context.Background())
	mu.Lock()
	assert.Len(t, events, 3)
	mu.Unlock()
}

func TestUnauthorizedIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, "abc", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Chat.SendMessage(context.Background(), "Hi", "c1")
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, nil)
	_, err := c.Admin.ListPatients(context.Background())

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "fallback", UserMessage(err, "fallback"))
}

func TestChatRequestOmitsEmptyChatID(t *testing.T) {
	var bodies []map[string]any
	c := newTestClient(t, "abc", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/message", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		w.Write([]byte(`{"response":"Hello","chat_id":"c1","timestamp":"2024-05-01T10:00:00Z"}`))
	})

	reply, err := c.Chat.SendMessage(context.Background(), "Hi", "")
	require.NoError(t, err)
	assert.Equal(t, "Hello", reply.Response)
	assert.Equal(t, ID("c1"), reply.ChatID)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), reply.Timestamp.Time)

	_, err = c.Chat.SendMessage(context.Background(), "Again", "c1")
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	_, hasID := bodies[0]["chat_id"]
	assert.False(t, hasID)
	assert.Equal(t, "c1", bodies[1]["chat_id"])
}

func TestScheduleSendsUTC(t *testing.T) {
	var req ScheduleRequest
	c := newTestClient(t, "abc", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Write([]byte(`{"id":12,"doctor_name":"Smith","appointment_datetime":"2025-01-02T08:30:00","status":"scheduled"}`))
	})

	loc := time.FixedZone("PKT", 5*3600)
	appt, err := c.Appointments.Schedule(context.Background(), "Smith", time.Date(2025, 1, 2, 13, 30, 0, 0, loc))
	require.NoError(t, err)

	assert.Equal(t, "Smith", req.DoctorName)
	assert.Equal(t, "2025-01-02T08:30:00Z", req.AppointmentDatetime)
	assert.Equal(t, ID("12"), appt.ID)
	assert.Equal(t, StatusScheduled, appt.Status)
	assert.True(t, appt.ScheduledAt.Equal(time.Date(2025, 1, 2, 8, 30, 0, 0, time.UTC)))
}

func TestPatientChatsPath(t *testing.T) {
	c := newTestClient(t, "abc", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/patients/42/chats", r.URL.Path)
		w.Write([]byte(`[{"chat_id":"c9","created_at":"2024-05-01 09:00:00","messages":[{"message_id":1,"role":"user","content":"Hi","timestamp":null}]}]`))
	})

	chats, err := c.Admin.PatientChats(context.Background(), "42")
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, ID("c9"), chats[0].ChatID)
	require.Len(t, chats[0].Messages, 1)
	assert.Equal(t, ID("1"), chats[0].Messages[0].MessageID)
	assert.True(t, chats[0].Messages[0].Timestamp.IsZero())
}

func TestTextToSpeechReturnsBytes(t *testing.T) {
	c := newTestClient(t, "abc", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"text":"hello"}`, string(body))
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte{0xff, 0xfb, 0x90})
	})

	speech, err := c.Audio.TextToSpeech(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xfb, 0x90}, speech.Data)
	assert.Equal(t, "audio/mpeg", speech.MimeType)
}

func TestValidateTokenUsesGivenToken(t *testing.T) {
	var got string
	c := newTestClient(t, "other", func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`{"valid":true,"email":"a@b.co","role":"admin","name":"A","user_id":"1"}`))
	})

	resp, err := c.Auth.ValidateToken(context.Background(), "stored")
	require.NoError(t, err)
	assert.Equal(t, "Bearer stored", got)
	assert.True(t, resp.Valid)
}
