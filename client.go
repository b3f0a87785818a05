package atelier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
)

const defaultUserAgent = "atelier-go"

// ClientConfig holds gateway client configuration.
type ClientConfig struct {
	BaseURL   string
	UserAgent string

	HTTPClient *http.Client
}

// Client is the typed gateway to the marketplace backend. It injects the
// bearer header, serializes request bodies, and normalizes every failure
// into *APIError. It never touches session or credential state.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     Logger
}

// NewClient creates a gateway client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Client{
		config:     cfg,
		httpClient: client,
		logger:     defLogger{},
	}
}

// WithLogger overrides the client logger.
func (c *Client) WithLogger(logger Logger) *Client {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// RequestOption customizes a single gateway request.
type RequestOption func(*requestOptions)

type requestOptions struct {
	jsonBody    any
	hasJSONBody bool
	rawBody     []byte
	hasRawBody  bool
	contentType string
	token       string
}

// WithBody attaches a JSON-serialized body and the JSON content type.
func WithBody(body any) RequestOption {
	return func(o *requestOptions) {
		o.jsonBody = body
		o.hasJSONBody = true
	}
}

// WithRawBody attaches a pre-encoded payload. An empty contentType leaves
// the header unset, which is what multipart/binary uploads need.
func WithRawBody(body []byte, contentType string) RequestOption {
	return func(o *requestOptions) {
		o.rawBody = body
		o.hasRawBody = true
		o.contentType = contentType
	}
}

// WithToken adds the Authorization bearer header when token is non-empty.
func WithToken(token string) RequestOption {
	return func(o *requestOptions) {
		o.token = token
	}
}

// Response is the raw outcome of a gateway call after error normalization.
// Body is empty for 204 responses.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// IsJSON reports whether the response body carries a JSON media type.
func (r *Response) IsJSON() bool {
	mediaType, _, err := mime.ParseMediaType(r.ContentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// Do performs a request and returns the raw successful response. Any
// failure, including transport faults, comes back as *APIError.
func (c *Client) Do(ctx context.Context, method, path string, opts ...RequestOption) (*Response, error) {
	options := &requestOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	var reader io.Reader
	contentType := ""
	switch {
	case options.hasRawBody:
		reader = bytes.NewReader(options.rawBody)
		contentType = options.contentType
	case options.hasJSONBody:
		encoded, err := json.Marshal(options.jsonBody)
		if err != nil {
			return nil, &APIError{
				Message: "failed to encode request body",
				Status:  0,
				Err:     err,
			}
		}
		reader = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return nil, &APIError{
			Message: "failed to build request",
			Status:  0,
			Err:     err,
		}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if options.token != "" {
		req.Header.Set("Authorization", "Bearer "+options.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("gateway transport failure: %s %s: %v", method, path, err)
		return nil, &APIError{
			Message: "request could not reach the server",
			Status:  0,
			Err:     err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{
			Message: "failed to read response body",
			Status:  0,
			Err:     err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, normalizeErrorResponse(resp, body)
	}

	if resp.StatusCode == http.StatusNoContent {
		return &Response{Status: resp.StatusCode}, nil
	}

	return &Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// normalizeErrorResponse turns a non-2xx response into *APIError. JSON error
// bodies contribute their message and decoded payload; anything else
// degrades to the HTTP status text.
func normalizeErrorResponse(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{
		Status:  resp.StatusCode,
		Message: http.StatusText(resp.StatusCode),
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil && len(payload) > 0 {
		apiErr.Data = payload
		if msg, ok := payload["message"].(string); ok && msg != "" {
			apiErr.Message = msg
		}
	}

	return apiErr
}

// Request performs a gateway call and decodes the response into T. A 204
// resolves to the zero value. A non-JSON success body is returned as-is when
// T is string; callers expecting structured data from non-JSON responses
// must use Do and decode themselves.
func Request[T any](ctx context.Context, c *Client, method, path string, opts ...RequestOption) (T, error) {
	var out T

	resp, err := c.Do(ctx, method, path, opts...)
	if err != nil {
		return out, err
	}

	if resp.Status == http.StatusNoContent || len(resp.Body) == 0 {
		return out, nil
	}

	if !resp.IsJSON() {
		if text, ok := any(&out).(*string); ok {
			*text = string(resp.Body)
			return out, nil
		}
		return out, &APIError{
			Message: fmt.Sprintf("expected JSON response, got %q", resp.ContentType),
			Status:  resp.Status,
		}
	}

	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return out, &APIError{
			Message: "failed to decode response body",
			Status:  resp.Status,
			Err:     err,
		}
	}

	return out, nil
}

// Get issues a GET request.
func Get[T any](ctx context.Context, c *Client, path string, opts ...RequestOption) (T, error) {
	return Request[T](ctx, c, http.MethodGet, path, opts...)
}

// Post issues a POST request.
func Post[T any](ctx context.Context, c *Client, path string, opts ...RequestOption) (T, error) {
	return Request[T](ctx, c, http.MethodPost, path, opts...)
}

// Put issues a PUT request.
func Put[T any](ctx context.Context, c *Client, path string, opts ...RequestOption) (T, error) {
	return Request[T](ctx, c, http.MethodPut, path, opts...)
}

// Delete issues a DELETE request.
func Delete[T any](ctx context.Context, c *Client, path string, opts ...RequestOption) (T, error) {
	return Request[T](ctx, c, http.MethodDelete, path, opts...)
}
