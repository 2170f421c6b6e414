package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/RaiAbdullah1800/AiMed/utils"
)

// TokenSource supplies the bearer credential attached to outbound requests
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource
type TokenFunc func() string

// Token implements TokenSource
func (f TokenFunc) Token() string {
	if f == nil {
		return ""
	}
	return f()
}

// UnauthorizedEvent is published once for every request rejected with 401
type UnauthorizedEvent struct {
	// Token is the credential the rejected request carried
	Token  string
	Method string
	Path   string
}

// Client is the single outbound channel to the backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *utils.Logger

	mu        sync.Mutex
	nextSubID int
	subs      map[int]func(UnauthorizedEvent)

	Auth         *AuthService
	Chat         *ChatService
	Admin        *AdminService
	Appointments *AppointmentService
	Audio        *AudioService
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(logger *utils.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a gateway for baseURL. tokens may be nil.
func NewClient(baseURL string, tokens TokenSource, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newDefaultHTTPClient(),
		tokens:     tokens,
		logger:     utils.NewDiscardLogger(),
		subs:       make(map[int]func(UnauthorizedEvent)),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.Auth = &AuthService{client: c}
	c.Chat = &ChatService{client: c}
	c.Admin = &AdminService{client: c}
	c.Appointments = &AppointmentService{client: c}
	c.Audio = &AudioService{client: c}
	return c
}

// Only dial, TLS and header timeouts; no overall request deadline
func newDefaultHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 120 * time.Second,
			MaxIdleConnsPerHost:   4,
		},
	}
}

// BaseURL returns the configured backend root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// OnUnauthorized registers fn for every 401 response. The returned function
// removes the subscription.
func (c *Client) OnUnauthorized(fn func(UnauthorizedEvent)) func() {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

func (c *Client) publishUnauthorized(ev UnauthorizedEvent) {
	c.mu.Lock()
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(UnauthorizedEvent), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, c.subs[id])
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

type request struct {
	method string
	path   string
	body   any
	accept string
	// token overrides the TokenSource when non-nil
	token *string
}

// Do sends a JSON request and decodes a JSON response into out (if non-nil)
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	data, _, err := c.send(ctx, request{method: method, path: path, body: body, accept: "application/json"})
	if err != nil {
		return err
	}
	return decodeJSON(method, path, data, out)
}

// DoRaw sends a JSON request and returns the raw response body and its
// content type
func (c *Client) DoRaw(ctx context.Context, method, path string, body any) ([]byte, string, error) {
	return c.send(ctx, request{method: method, path: path, body: body, accept: "*/*"})
}

func (c *Client) doWithToken(ctx context.Context, method, path, token string, out any) error {
	data, _, err := c.send(ctx, request{method: method, path: path, accept: "application/json", token: &token})
	if err != nil {
		return err
	}
	return decodeJSON(method, path, data, out)
}

func decodeJSON(method, path string, data []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("api: decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, r request) ([]byte, string, error) {
	url := c.baseURL + r.path

	var reader io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return nil, "", fmt.Errorf("api: encode %s %s request: %w", r.method, r.path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, url, reader)
	if err != nil {
		return nil, "", fmt.Errorf("api: build %s %s request: %w", r.method, r.path, err)
	}
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.accept != "" {
		req.Header.Set("Accept", r.accept)
	}

	token := ""
	if r.token != nil {
		token = *r.token
	} else if c.tokens != nil {
		token = c.tokens.Token()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		c.logger.Error("%s %s failed: %s", r.method, r.path, utils.Redact(err.Error()))
		return nil, "", &TransportError{Op: r.method + " " + r.path, URL: url, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &TransportError{Op: "read " + r.path, URL: url, Err: err}
	}
	c.logger.Debug("%s %s -> %d (%s)", r.method, r.path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, resp.Header.Get("Content-Type"), nil
	}

	apiErr := newError(r.method, r.path, resp.StatusCode, data)
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		c.logger.Warn("%s %s rejected credential", r.method, r.path)
		c.publishUnauthorized(UnauthorizedEvent{Token: token, Method: r.method, Path: r.path})
	case http.StatusInternalServerError:
		c.logger.Error("%s %s: server error: %s", r.method, r.path, utils.Redact(string(data)))
	default:
		c.logger.Debug("%s %s: %s", r.method, r.path, utils.Redact(apiErr.Error()))
	}
	return nil, "", apiErr
}
