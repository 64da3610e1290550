package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/teamkonekt/konekt/internal/model"
)

// Client is a thin HTTP client for the TeamKonekt REST API. It injects the
// session token into every authenticated request, handles JSON
// (de)serialization, and maps error responses onto the typed errors in
// this package. It never retries.
type Client struct {
	baseURL    string
	scheme     string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// NewClient creates a new API client from the API section of the config.
func NewClient(cfg model.APIConfig) *Client {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = model.DefaultTimeoutSec * time.Second
	}
	scheme := cfg.AuthScheme
	if scheme == "" {
		scheme = model.DefaultAuthScheme
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		scheme:  scheme,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetToken installs (or, with "", clears) the session token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the installed session token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// HasToken reports whether a session token is installed.
func (c *Client) HasToken() bool {
	return c.Token() != ""
}

// Get performs an authenticated GET and unmarshals the JSON response.
func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// Post performs an authenticated POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

// Patch performs an authenticated PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPatch, path, body, result)
}

// Put performs an authenticated PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPut, path, body, result)
}

// Delete performs an authenticated DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// do sends an authenticated request and decodes the response into result.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
) error {
	respBody, err := c.send(ctx, method, path, body, true)
	if err != nil {
		return err
	}
	return decodeInto(method, path, respBody, result)
}

// send builds and executes a request and returns the raw body of a 2xx
// response. Non-2xx responses are mapped onto typed errors.
func (c *Client) send(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	authenticated bool,
) ([]byte, error) {
	token := c.Token()
	if authenticated && token == "" {
		return nil, &AuthError{Message: "no active session"}
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if authenticated {
		req.Header.Set("Authorization", c.scheme+" "+token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	op := method + " " + path

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: fmt.Errorf("reading response body: %w", err)}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return respBody, nil
	}

	return nil, statusError(op, path, resp.StatusCode, respBody)
}

// statusError maps a non-2xx response onto the error taxonomy.
func statusError(op, path string, status int, body []byte) error {
	message, fields := parseErrorBody(body)
	if message == "" {
		message = http.StatusText(status)
	}

	switch {
	case status == http.StatusUnauthorized:
		return &AuthError{Message: message}
	case status == http.StatusNotFound:
		return &NotFoundError{Path: path, Message: message}
	case status == http.StatusBadRequest,
		status == http.StatusForbidden,
		status == http.StatusConflict,
		status == http.StatusUnprocessableEntity:
		return &ValidationError{StatusCode: status, Message: message, Fields: fields}
	case status >= 500:
		return &NetworkError{Op: op, StatusCode: status, Err: errors.New(message)}
	default:
		return fmt.Errorf("unexpected status %d on %s: %s", status, op, message)
	}
}

// decodeInto unmarshals a response body into result. Empty bodies
// (e.g. 204) leave result untouched.
func decodeInto(method, path string, body []byte, result interface{}) error {
	if result == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
	}
	return nil
}
