// Package judge0 speaks the Judge0 submissions API.
package judge0

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"codejudge/internal/codec"
	"codejudge/internal/httpclient"
	pkgerrors "codejudge/pkg/errors"
)

const (
	DefaultAPIKeyHeader = "X-RapidAPI-Key"
	rapidAPIHostHeader  = "X-RapidAPI-Host"
	submissionsPath     = "/submissions"
)

// Config holds connection settings for a Judge0 deployment.
type Config struct {
	BaseURL      string
	APIKey       string
	APIKeyHeader string
	// APIHost is sent as X-RapidAPI-Host when the key header is the RapidAPI
	// one. Defaults to the host of BaseURL.
	APIHost string
	Timeout time.Duration
}

// SubmissionRequest is the creation payload. Text fields carry transport text.
type SubmissionRequest struct {
	SourceCode     string  `json:"source_code"`
	LanguageID     int     `json:"language_id"`
	Stdin          *string `json:"stdin"`
	ExpectedOutput *string `json:"expected_output,omitempty"`
}

// NewSubmissionRequest encodes plain-text fields. A nil expected output leaves
// the field out so the judge only runs the program.
func NewSubmissionRequest(source string, languageID int, stdin string, expected *string) SubmissionRequest {
	req := SubmissionRequest{
		SourceCode: codec.EncodeText(source),
		LanguageID: languageID,
		Stdin:      codec.EncodeOptional(stdin),
	}
	if expected != nil {
		req.ExpectedOutput = codec.EncodeOptional(*expected)
	}
	return req
}

// Client calls the submissions endpoints.
type Client struct {
	http *httpclient.Client
}

// New validates cfg and builds a client. A missing key or URL is a
// configuration error reported before any request is made.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, pkgerrors.ConfigError(pkgerrors.EndpointMissing, "judge.baseURL")
	}
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil || parsed.Host == "" {
		return nil, pkgerrors.ConfigError(pkgerrors.ConfigInvalid, "judge.baseURL").WithMessagef("invalid judge URL %q", cfg.BaseURL)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, pkgerrors.ConfigError(pkgerrors.APIKeyMissing, "judge.apiKey")
	}
	keyHeader := cfg.APIKeyHeader
	if keyHeader == "" {
		keyHeader = DefaultAPIKeyHeader
	}
	headers := map[string]string{keyHeader: cfg.APIKey}
	if strings.EqualFold(keyHeader, DefaultAPIKeyHeader) {
		host := cfg.APIHost
		if host == "" {
			host = parsed.Host
		}
		headers[rapidAPIHostHeader] = host
	}
	return &Client{
		http: httpclient.New(cfg.BaseURL, cfg.Timeout, func() map[string]string { return headers }),
	}, nil
}

// CreateSubmission queues a submission and returns its token.
func (c *Client) CreateSubmission(ctx context.Context, req SubmissionRequest) (string, error) {
	var resp codec.ServiceResponse
	_, err := c.http.DoJSON(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   submissionsPath,
		Query:  url.Values{"base64_encoded": {"true"}, "fields": {"*"}},
	}, req, &resp)
	if err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", pkgerrors.New(pkgerrors.JudgeBadResponse).WithMessage("judge returned no submission token")
	}
	return resp.Token, nil
}

// CreateAndWait submits with wait=true and returns the finished submission.
func (c *Client) CreateAndWait(ctx context.Context, req SubmissionRequest) (codec.ServiceResponse, error) {
	var resp codec.ServiceResponse
	_, err := c.http.DoJSON(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   submissionsPath,
		Query:  url.Values{"base64_encoded": {"true"}, "wait": {"true"}, "fields": {"*"}},
	}, req, &resp)
	return resp, err
}

// GetSubmission fetches the current state of a submission.
func (c *Client) GetSubmission(ctx context.Context, token string) (codec.ServiceResponse, error) {
	var resp codec.ServiceResponse
	_, err := c.http.DoJSON(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   submissionsPath + "/" + url.PathEscape(token),
		Query:  url.Values{"base64_encoded": {"true"}, "fields": {"*"}},
	}, nil, &resp)
	return resp, err
}
