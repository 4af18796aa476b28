package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/textnonce-go/internal/infra/buildinfo"
	"github.com/yndnr/textnonce-go/internal/infra/tlsroots"
)

const maxResponseBytes = 4 << 20

// Options configures an HTTPClient.
type Options struct {
	Server   string
	APIKey   string
	CACert   string
	Insecure bool
	Timeout  time.Duration
}

// HTTPClient talks to textnonce-server.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPClient creates a client. A server without a scheme gets http://,
// and https:// servers are verified against the system roots plus CACert.
func NewHTTPClient(opts Options) (*HTTPClient, error) {
	baseURL := strings.TrimRight(opts.Server, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid server %q: %w", opts.Server, err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if strings.HasPrefix(baseURL, "https://") {
		tlsCfg, err := tlsroots.ClientConfig(opts.CACert, opts.Insecure)
		if err != nil {
			return nil, fmt.Errorf("tls config: %w", err)
		}
		transport.TLSClientConfig = tlsCfg
	}

	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  opts.APIKey,
		client:  &http.Client{Timeout: timeout, Transport: transport},
	}, nil
}

// BaseURL returns the server base URL.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.addHeaders(req)
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.addHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.client.Do(req)
}

func (c *HTTPClient) addHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent("textnonce-cli"))
}

// IssueNonces asks the server for count nonces of length characters. Nil
// values are left out so the server defaults apply.
func (c *HTTPClient) IssueNonces(ctx context.Context, length, count *int) (*NonceBatch, error) {
	body := map[string]int{}
	if length != nil {
		body["length"] = *length
	}
	if count != nil {
		body["count"] = *count
	}

	resp, err := c.Post(ctx, "/nonces", body)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	var batch NonceBatch
	if err := ParseResponse(resp, &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

// Health calls GET /health.
func (c *HTTPClient) Health(ctx context.Context) (*Health, error) {
	resp, err := c.Get(ctx, "/health")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	var h Health
	if err := ParseResponse(resp, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Status calls GET /admin/v1/status.
func (c *HTTPClient) Status(ctx context.Context) (*Status, error) {
	resp, err := c.Get(ctx, "/admin/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	var s Status
	if err := ParseResponse(resp, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// APIError is an error envelope returned by the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    string
	RequestID  string
}

func (e *APIError) Error() string {
	msg := "[" + e.Code + "] " + e.Message
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.RequestID != "" {
		msg += " (request " + e.RequestID + ")"
	}
	return msg
}

type envelope struct {
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Details   string          `json:"details"`
	Data      json.RawMessage `json:"data"`
}

// ParseResponse decodes the envelope's data into target and closes the body.
// Error statuses return *APIError.
func ParseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&env)

	if resp.StatusCode >= 400 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Code:       "HTTP-" + strconv.Itoa(resp.StatusCode),
			Message:    http.StatusText(resp.StatusCode),
		}
		if decodeErr == nil && env.Code != "" && env.Code != "OK" {
			apiErr.Code = env.Code
			apiErr.Message = env.Message
			apiErr.Details = env.Details
			apiErr.RequestID = env.RequestID
		}
		return apiErr
	}

	if decodeErr != nil {
		if errors.Is(decodeErr, io.EOF) {
			return errors.New("empty response body")
		}
		return fmt.Errorf("parse response: %w", decodeErr)
	}
	if target != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, target); err != nil {
			return fmt.Errorf("parse response data: %w", err)
		}
	}
	return nil
}
