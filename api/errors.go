package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/RaiAbdullah1800/AiMed/utils"
)

// ServiceUnavailableMessage replaces every 500 response body
const ServiceUnavailableMessage = "This service is temporarily down. Please try again later."

// ErrUnauthorized matches (errors.Is) any response with status 401
var ErrUnauthorized = errors.New("unauthorized")

// Error is a non-2xx response from the backend
type Error struct {
	StatusCode int
	Method     string
	Path       string
	// Message is the backend "message" field, or ServiceUnavailableMessage on 500
	Message string
	// Detail is the backend "detail" field; empty on 500
	Detail string
}

func (e *Error) Error() string {
	text := e.Detail
	if text == "" {
		text = e.Message
	}
	if text == "" {
		text = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("api: %s %s: %d: %s", e.Method, e.Path, e.StatusCode, text)
}

// Is makes 401 errors match ErrUnauthorized
func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// TransportError represents HTTP transport-level failures (DNS, connection
// refused, TLS handshake, reset) while talking to the backend.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Op != "" && e.URL != "":
		return fmt.Sprintf("transport error during %s %s: %v", e.Op, redactURLUserInfo(e.URL), e.Err)
	case e.Op != "":
		return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("transport error: %v", e.Err)
	}
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func redactURLUserInfo(raw string) string {
	if raw == "" {
		return raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed == nil {
		return raw
	}
	parsed.User = nil
	return parsed.String()
}

// UserMessage picks the text a view should show for err: the backend detail,
// then the backend message, then fallback.
func UserMessage(err error, fallback string) string {
	var validation *utils.ValidationError
	if errors.As(err, &validation) {
		return validation.Message
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		if apiErr.Message != "" {
			return apiErr.Message
		}
	}
	return fallback
}

// errorBody is the shape of backend error payloads. detail is either a
// string or a list of validation issues.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

func newError(method, path string, status int, body []byte) *Error {
	e := &Error{StatusCode: status, Method: method, Path: path}
	if status == http.StatusInternalServerError {
		e.Message = ServiceUnavailableMessage
		return e
	}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return e
	}
	e.Message = parsed.Message
	e.Detail = decodeDetail(parsed.Detail)
	return e
}

func decodeDetail(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	var issues []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &issues); err == nil {
		msgs := make([]string, 0, len(issues))
		for _, issue := range issues {
			if issue.Msg != "" {
				msgs = append(msgs, issue.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
