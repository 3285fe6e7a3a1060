// Package assistant is the HTTP client for the parts assistant service.
package assistant

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"partchat/internal/chat"
)

const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = 30 * time.Second

	maxErrorBody = 4096
)

// StatusError is returned for any non-2xx reply.
type StatusError struct {
	Status       int
	Body         string
	RetryAfterMs int64
}

func (e *StatusError) Error() string {
	if e == nil {
		return "assistant error"
	}
	if e.Body == "" {
		return fmt.Sprintf("assistant http %d", e.Status)
	}
	return fmt.Sprintf("assistant http %d: %s", e.Status, e.Body)
}

// DecodeError means the service answered 2xx with a body that is not a reply
// envelope.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "assistant: decode reply: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

type Client struct {
	baseURL   string
	http      *http.Client
	timeout   time.Duration
	userAgent string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each request. It applies to a copy of the HTTP client,
// whatever the option order; a caller's *http.Client is never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
			},
		},
		userAgent: "partchat/1.0",
	}
	for _, o := range opts {
		o(c)
	}
	if c.timeout > 0 && c.http.Timeout != c.timeout {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

type chatRequest struct {
	Message             string `json:"message"`
	ConversationSnippet string `json:"conversation_snippet,omitempty"`
}

type chatResponse struct {
	Reply    *string         `json:"reply"`
	Metadata json.RawMessage `json:"metadata"`
}

// Chat posts one user message and decodes the reply envelope. Metadata of an
// unknown shape is dropped, not reported.
func (c *Client) Chat(ctx context.Context, r chat.Request) (chat.Reply, error) {
	b, err := json.Marshal(chatRequest{Message: r.Message, ConversationSnippet: r.ConversationSnippet})
	if err != nil {
		return chat.Reply{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(b))
	if err != nil {
		return chat.Reply{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return chat.Reply{}, fmt.Errorf("assistant: post chat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return chat.Reply{}, &StatusError{
			Status:       resp.StatusCode,
			Body:         strings.TrimSpace(string(raw)),
			RetryAfterMs: retryAfterMs(resp),
		}
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return chat.Reply{}, &DecodeError{Err: err}
	}
	if out.Reply == nil {
		return chat.Reply{}, &DecodeError{Err: errors.New("missing reply field")}
	}
	return chat.Reply{Text: *out.Reply, Metadata: chat.DecodeMetadata(out.Metadata)}, nil
}

// Health reports whether GET /health answers {"status":"ok"}.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("assistant: health: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return &DecodeError{Err: err}
	}
	if !strings.EqualFold(body.Status, "ok") {
		return fmt.Errorf("assistant: health status %q", body.Status)
	}
	return nil
}

func retryAfterMs(resp *http.Response) int64 {
	ra := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if ra == "" {
		return 0
	}
	if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
		return int64(secs) * 1000
	}
	if ts, err := http.ParseTime(ra); err == nil {
		if ms := time.Until(ts).Milliseconds(); ms > 0 {
			return ms
		}
	}
	return 0
}
