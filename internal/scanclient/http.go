package scanclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/rugbysim/internal/domain/catalog"
	"github.com/okian/rugbysim/internal/domain/model"
)

// Client talks to the rugbysim HTTP API.
type Client struct {
	base   string
	client *http.Client
}

// NewClient creates a client for baseURL with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	_ = drain(resp)
	return nil
}

// Catalog fetches the reference catalog.
func (c *Client) Catalog(ctx context.Context) (catalog.Data, error) {
	var data catalog.Data
	err := c.getJSON(ctx, "/catalog", &data)
	return data, err
}

// Submit posts a scan request. A duplicate id is not an error.
func (c *Client) Submit(ctx context.Context, req model.ScanRequest) (Ack, error) { //nolint:gocritic // hugeParam: request is a value type across the API
	resp, err := c.do(ctx, http.MethodPost, "/scans", req)
	if err != nil {
		return Ack{}, err
	}
	var ack Ack
	if err := decode(resp, &ack); err != nil {
		return Ack{}, err
	}
	return ack, nil
}

// Scan fetches the stored state of a scan.
func (c *Client) Scan(ctx context.Context, id string) (model.Scan, error) {
	var scan model.Scan
	err := c.getJSON(ctx, "/scans/"+url.PathEscape(id), &scan)
	return scan, err
}

// Report fetches the text report of a scan.
func (c *Client) Report(ctx context.Context, id string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/scans/"+url.PathEscape(id)+"/report", nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read report: %w", err)
	}
	return string(body), nil
}

// Wait polls a scan until it reaches a final status or ctx ends.
func (c *Client) Wait(ctx context.Context, id string, interval time.Duration) (model.Scan, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		scan, err := c.Scan(ctx, id)
		var apiErr *APIError
		switch {
		case err == nil && scan.Finished():
			return scan, nil
		case err != nil && !(errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound):
			return scan, err
		}
		select {
		case <-ctx.Done():
			return scan, fmt.Errorf("wait for scan %s: %w", id, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

// do sends a request and turns any non-2xx response into an *APIError.
func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return resp, nil
	}
	defer func() { _ = resp.Body.Close() }()
	apiErr := &APIError{Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = json.Unmarshal(raw, apiErr)
	return nil, apiErr
}

func decode(resp *http.Response, out any) error {
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func drain(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()
	_, err := io.Copy(io.Discard, resp.Body)
	return err
}
