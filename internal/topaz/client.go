package topaz

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPDoer abstracts the HTTP transport so tests can substitute a stub.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the Topaz video API. Each call carries the API key
// supplied by the caller, so one client serves any number of keys.
type Client struct {
	baseURL string
	http    HTTPDoer
	timeout time.Duration
}

// Option adjusts client construction.
type Option func(*Client)

// WithHTTPDoer overrides the HTTP transport.
func WithHTTPDoer(doer HTTPDoer) Option {
	return func(c *Client) {
		c.http = doer
	}
}

// WithTimeout sets the per-request timeout for API calls. Upload and
// download requests are exempt because their duration scales with file size.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// NewClient builds a client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SourceSpec describes the video being submitted.
type SourceSpec struct {
	Container  string     `json:"container"`
	Size       int64      `json:"size"`
	Duration   int        `json:"duration"`
	FrameCount int64      `json:"frameCount"`
	FrameRate  float64    `json:"frameRate"`
	Resolution Resolution `json:"resolution"`
}

// Resolution is a pixel dimension pair.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Filter names an enhancement model to apply.
type Filter struct {
	Model string `json:"model"`
}

// OutputSpec describes the requested result rendition.
type OutputSpec struct {
	FrameRate               float64    `json:"frameRate"`
	AudioTransfer           string     `json:"audioTransfer"`
	AudioCodec              string     `json:"audioCodec"`
	DynamicCompressionLevel string     `json:"dynamicCompressionLevel"`
	Resolution              Resolution `json:"resolution"`
	Container               string     `json:"container"`
	VideoEncoder            string     `json:"videoEncoder"`
	VideoProfile            string     `json:"videoProfile"`
}

// Request is the enhancement job submission payload.
type Request struct {
	Source  SourceSpec `json:"source"`
	Filters []Filter   `json:"filters"`
	Output  OutputSpec `json:"output"`
}

type createResponse struct {
	RequestID string `json:"requestId"`
}

// Create submits an enhancement request and returns the remote request id.
func (c *Client) Create(ctx context.Context, apiKey string, req Request) (string, error) {
	var resp createResponse
	if err := c.call(ctx, apiKey, http.MethodPost, "/video/", req, &resp); err != nil {
		return "", err
	}
	if resp.RequestID == "" {
		return "", fmt.Errorf("create request: response missing requestId")
	}
	return resp.RequestID, nil
}

type acceptResponse struct {
	URLs       []string `json:"urls"`
	UploadURLs []string `json:"uploadUrls"`
}

// Accept acknowledges a created request and returns the presigned upload
// URLs, one per part.
func (c *Client) Accept(ctx context.Context, apiKey, requestID string) ([]string, error) {
	var resp acceptResponse
	path := fmt.Sprintf("/video/%s/accept", requestID)
	if err := c.call(ctx, apiKey, http.MethodPatch, path, nil, &resp); err != nil {
		return nil, err
	}
	urls := resp.URLs
	if len(urls) == 0 {
		urls = resp.UploadURLs
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("accept request: response contained no upload urls")
	}
	return urls, nil
}

// UploadResult records the server-assigned ETag for one uploaded part.
type UploadResult struct {
	PartNum int    `json:"partNum"`
	ETag    string `json:"eTag"`
}

type completeUploadRequest struct {
	UploadResults []UploadResult `json:"uploadResults"`
}

// CompleteUpload finalizes a multipart upload with the collected part tags.
func (c *Client) CompleteUpload(ctx context.Context, apiKey, requestID string, results []UploadResult) error {
	path := fmt.Sprintf("/video/%s/complete-upload/", requestID)
	return c.call(ctx, apiKey, http.MethodPatch, path, completeUploadRequest{UploadResults: results}, nil)
}

// Status fetches the current processing state for a request.
func (c *Client) Status(ctx context.Context, apiKey, requestID string) (JobStatus, error) {
	var raw statusResponse
	path := fmt.Sprintf("/video/%s/status", requestID)
	if err := c.call(ctx, apiKey, http.MethodGet, path, nil, &raw); err != nil {
		return JobStatus{}, err
	}
	return raw.normalize(), nil
}

func (c *Client) call(ctx context.Context, apiKey, method, path string, body, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-API-Key", apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read response: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Op: method + " " + path, Code: resp.StatusCode, Body: string(data)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}
