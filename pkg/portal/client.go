// Package portal is a Go client for the portal API. It carries the client
// half of enrollment handling: error message extraction, already-enrolled
// coercion, checkout redirects and post-enrollment navigation.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// GenericErrorMessage is surfaced when the request never produced a response.
const GenericErrorMessage = "An unexpected error occurred. Please try again."

// APIError is a failed call. Status is zero for transport failures.
type APIError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Client calls the portal API on behalf of one viewer.
type Client struct {
	baseURL  string
	token    string
	http     *http.Client
	sessions SessionRedirector
	logger   *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithToken sets the bearer access token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for the API rooted at baseURL, e.g. "https://portal.example.com".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

// do sends one request. No retries: a failed call is reported once.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &APIError{Message: GenericErrorMessage, Err: err}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &APIError{Message: GenericErrorMessage, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("portal request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return &APIError{Message: GenericErrorMessage, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Status: resp.StatusCode, Message: GenericErrorMessage, Err: err}
	}
	c.logger.Debug("portal request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		code, message := extractError(raw)
		if message == "" {
			message = fallbackMessage(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Code: code, Message: message}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &APIError{Status: resp.StatusCode, Message: GenericErrorMessage, Err: err}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &APIError{Status: resp.StatusCode, Message: GenericErrorMessage, Err: err}
	}
	return nil
}

// extractError reads the message from an error body. Accepted shapes:
// {"error":{"code","message"}}, {"error":"..."} and {"message":"..."}.
func extractError(raw []byte) (code, message string) {
	var body struct {
		Message string          `json:"message"`
		Code    string          `json:"code"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", ""
	}
	code, message = body.Code, body.Message

	if len(body.Error) > 0 {
		var text string
		if err := json.Unmarshal(body.Error, &text); err == nil {
			if message == "" {
				message = text
			}
			return code, message
		}
		var nested struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body.Error, &nested); err == nil {
			if nested.Code != "" {
				code = nested.Code
			}
			if nested.Message != "" {
				message = nested.Message
			}
		}
	}
	return code, message
}

func fallbackMessage(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return GenericErrorMessage
}
