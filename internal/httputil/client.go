// Package httputil provides HTTP client and response helpers shared by the
// evaluation client and the gateway.
package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/R3E-Network/integrales/pkg/logger"
)

// TraceIDHeader carries the caller's trace id to downstream services.
const TraceIDHeader = "X-Trace-ID"

// DefaultMaxBodyBytes caps how much of a service reply is read.
const DefaultMaxBodyBytes = 8 << 20

// =============================================================================
// Service Client
// =============================================================================

// ServiceClient posts JSON to a single downstream service. It never retries.
type ServiceClient struct {
	httpClient   *http.Client
	baseURL      string
	maxBodyBytes int64
}

// ServiceClientConfig configures the service client.
type ServiceClientConfig struct {
	BaseURL      string
	Timeout      time.Duration
	MaxBodyBytes int64

	// HTTPClient replaces the default client; Timeout is then ignored.
	HTTPClient *http.Client
}

// NewServiceClient creates a new service client.
func NewServiceClient(cfg ServiceClientConfig) *ServiceClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	return &ServiceClient{
		httpClient:   client,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		maxBodyBytes: maxBody,
	}
}

// BaseURL returns the service root without a trailing slash.
func (c *ServiceClient) BaseURL() string {
	return c.baseURL
}

// Do executes an HTTP request. The trace id in ctx, if any, is forwarded.
func (c *ServiceClient) Do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	url := c.baseURL + "/" + strings.TrimLeft(path, "/")

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if traceID := logger.TraceIDFromContext(ctx); traceID != "" {
		req.Header.Set(TraceIDHeader, traceID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// Post performs a POST request with JSON body.
func (c *ServiceClient) Post(ctx context.Context, path string, body interface{}) (*http.Response, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// Get performs a GET request.
func (c *ServiceClient) Get(ctx context.Context, path string) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// PostRaw posts body and returns the status and the full reply body.
func (c *ServiceClient) PostRaw(ctx context.Context, path string, body interface{}) (int, []byte, error) {
	resp, err := c.Post(ctx, path, body)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := ReadAllStrict(resp.Body, c.maxBodyBytes)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, data, nil
}

// DecodeResponse decodes a JSON response into the target struct.
func DecodeResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, truncated, err := ReadAllWithLimit(resp.Body, 64<<10)
		if err != nil {
			return fmt.Errorf("read error response body: %w", err)
		}
		msg := strings.TrimSpace(string(body))
		if truncated {
			msg += "...(truncated)"
		}
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, msg)
	}

	if target == nil {
		if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, DefaultMaxBodyBytes)); err != nil {
			return fmt.Errorf("discard response body: %w", err)
		}
		return nil
	}

	body, err := ReadAllStrict(resp.Body, DefaultMaxBodyBytes)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
