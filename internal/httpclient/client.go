package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "codejudge/pkg/errors"
)

const (
	maxErrorBodyBytes    = 512
	maxResponseBodyBytes = 8 << 20
)

// ResponseInfo carries response details.
type ResponseInfo struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Request describes one call against the base URL.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Headers map[string]string
	Body    []byte
}

// Client performs JSON requests against a single base URL. It is safe for
// concurrent use.
type Client struct {
	baseURL        string
	http           *http.Client
	headerProvider func() map[string]string
}

// New builds a client. headerProvider, when set, is asked for extra headers on
// every request.
func New(baseURL string, timeout time.Duration, headerProvider func() map[string]string) *Client {
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &http.Client{Timeout: timeout},
		headerProvider: headerProvider,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends the request and returns the raw response regardless of status code.
func (c *Client) Do(ctx context.Context, r Request) (ResponseInfo, error) {
	var info ResponseInfo

	var reader io.Reader
	if len(r.Body) > 0 {
		reader = bytes.NewReader(r.Body)
	}

	target := c.baseURL + r.Path
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, target, reader)
	if err != nil {
		return info, fmt.Errorf("build request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.headerProvider != nil {
		for k, v := range c.headerProvider() {
			if v != "" {
				req.Header.Set(k, v)
			}
		}
	}
	for k, v := range r.Headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	info.Duration = time.Since(start)
	if err != nil {
		return info, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	info.StatusCode = resp.StatusCode
	info.Headers = resp.Header
	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes+1))
	if err != nil {
		return info, fmt.Errorf("read response body failed: %w", err)
	}
	if len(bodyBytes) > maxResponseBodyBytes {
		return info, fmt.Errorf("response body exceeds %d bytes", maxResponseBodyBytes)
	}
	info.Body = bodyBytes
	return info, nil
}

// DoJSON marshals in (when non-nil), sends the request and decodes a 2xx body
// into out. Network errors, non-2xx statuses and undecodable bodies all come
// back as JudgeTransportFailed errors.
func (c *Client) DoJSON(ctx context.Context, r Request, in, out interface{}) (ResponseInfo, error) {
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return ResponseInfo{}, pkgerrors.Wrapf(err, pkgerrors.InvalidParams, "marshal request body failed: %v", err)
		}
		r.Body = body
	}
	op := r.Method + " " + r.Path
	info, err := c.Do(ctx, r)
	if err != nil {
		return info, pkgerrors.TransportFailure(err, op)
	}
	if info.StatusCode < 200 || info.StatusCode > 299 {
		return info, pkgerrors.Newf(pkgerrors.JudgeTransportFailed, "%s returned HTTP %d", op, info.StatusCode).
			WithDetail("op", op).
			WithDetail("status", info.StatusCode).
			WithDetail("body", truncate(info.Body))
	}
	if out != nil {
		if err := json.Unmarshal(info.Body, out); err != nil {
			return info, pkgerrors.Wrapf(err, pkgerrors.JudgeTransportFailed, "%s returned malformed body: %v", op, err).
				WithDetail("op", op).
				WithDetail("body", truncate(info.Body))
		}
	}
	return info, nil
}

func truncate(body []byte) string {
	if len(body) > maxErrorBodyBytes {
		return string(body[:maxErrorBodyBytes]) + "..."
	}
	return string(body)
}
