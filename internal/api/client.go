// Package api is the HTTP client for the Ascend backend. Every backend
// capability is one method; failures come back classified as Unauthorized,
// InvalidInput, NetworkError or ServerError (see errors.go).
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout bounds a single request when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// TokenSource supplies the token for authenticated requests.
// *session.Store satisfies it.
type TokenSource interface {
	Token() (string, bool)
}

// Client calls the Ascend REST API. It performs no retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	log        *slog.Logger
}

// NewClient creates a Client targeting baseURL. A zero timeout uses DefaultTimeout.
func NewClient(baseURL string, tokens TokenSource, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		log:        log,
	}
}

// request describes one call to the backend.
type request struct {
	method string
	path   string
	query  url.Values
	body   any
	auth   bool
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("api: encode %s body: %w", r.path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return fmt.Errorf("api: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	if r.auth {
		token, ok := c.tokens.Token()
		if !ok {
			return &Error{StatusCode: http.StatusUnauthorized, Path: r.path, Detail: "not logged in"}
		}
		req.Header.Set("Authorization", "Token "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("api request failed", "method", r.method, "path", r.path, "request_id", requestID, "error", err)
		return &NetworkError{Path: r.path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Path: r.path, Err: fmt.Errorf("read body: %w", err)}
	}

	c.log.Debug("api request",
		"method", r.method,
		"path", r.path,
		"status", resp.StatusCode,
		"duration", time.Since(start).String(),
		"request_id", requestID,
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(r.path, resp.StatusCode, respBody)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("api: decode %s: %w", r.path, err)
	}
	return nil
}

// decodeError builds an *Error from a non-2xx body. Field errors come as
// {"field": ["msg", ...]} or {"field": "msg"}; "detail", "error" and
// "message" are treated as the non-field message.
func decodeError(path string, status int, body []byte) *Error {
	e := &Error{StatusCode: status, Path: path}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		var s string
		if json.Unmarshal(body, &s) == nil {
			e.Detail = s
		} else if status == http.StatusBadRequest {
			e.Detail = strings.TrimSpace(string(body))
		}
		return e
	}

	for key, val := range raw {
		var msgs []string
		var msg string
		switch {
		case json.Unmarshal(val, &msgs) == nil:
		case json.Unmarshal(val, &msg) == nil:
			msgs = []string{msg}
		default:
			continue
		}
		switch key {
		case "detail", "error", "message":
			if e.Detail == "" {
				e.Detail = strings.Join(msgs, " ")
			}
		default:
			if e.Fields == nil {
				e.Fields = map[string][]string{}
			}
			e.Fields[key] = msgs
		}
	}
	return e
}
