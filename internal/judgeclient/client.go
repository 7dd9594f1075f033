// Package judgeclient drives the run and submit workflows against a judge.
package judgeclient

import (
	"context"
	"errors"
	"strings"
	"time"

	"codejudge/internal/codec"
	"codejudge/internal/httpclient"
	"codejudge/internal/judge0"
	pkgerrors "codejudge/pkg/errors"

	"golang.org/x/time/rate"
)

const (
	DefaultExecutionPath   = "/api/judge/submit-code"
	DefaultPollInterval    = 2 * time.Second
	DefaultMaxPollAttempts = 90
	DefaultPollDeadline    = 3 * time.Minute
	DefaultRequestTimeout  = 15 * time.Second
)

// Config wires a Client. Judge is required; ExecutionURL is only needed by Run.
type Config struct {
	ExecutionURL  string
	ExecutionPath string
	Judge         judge0.Config
	Languages     codec.LanguageTable

	// ExecutionToken is sent as a bearer token to the execution endpoint.
	ExecutionToken string

	PollInterval    time.Duration
	MaxPollAttempts int
	PollDeadline    time.Duration
	RequestTimeout  time.Duration

	// RateLimit caps outbound calls per second; zero disables throttling.
	RateLimit float64
	RateBurst int
}

// Client runs judge workflows. It holds no per-call state and is safe for
// concurrent use.
type Client struct {
	languages     codec.LanguageTable
	executor      *httpclient.Client
	executionPath string
	judge         *judge0.Client
	limiter       *rate.Limiter

	pollInterval    time.Duration
	maxPollAttempts int
	pollDeadline    time.Duration
}

// New validates cfg and builds a client. Configuration problems, including a
// missing API key, are reported here before any request is attempted.
func New(cfg Config) (*Client, error) {
	applyDefaults(&cfg)
	if cfg.Languages.Len() == 0 {
		return nil, pkgerrors.ConfigError(pkgerrors.ConfigInvalid, "languages").WithMessage("language table is empty")
	}
	if cfg.Judge.Timeout == 0 {
		cfg.Judge.Timeout = cfg.RequestTimeout
	}
	judge, err := judge0.New(cfg.Judge)
	if err != nil {
		return nil, err
	}

	c := &Client{
		languages:       cfg.Languages,
		executionPath:   cfg.ExecutionPath,
		judge:           judge,
		pollInterval:    cfg.PollInterval,
		maxPollAttempts: cfg.MaxPollAttempts,
		pollDeadline:    cfg.PollDeadline,
	}
	if strings.TrimSpace(cfg.ExecutionURL) != "" {
		var headers func() map[string]string
		if token := strings.TrimSpace(cfg.ExecutionToken); token != "" {
			headers = func() map[string]string {
				return map[string]string{"Authorization": "Bearer " + token}
			}
		}
		c.executor = httpclient.New(cfg.ExecutionURL, cfg.RequestTimeout, headers)
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Languages.Len() == 0 {
		cfg.Languages = codec.DefaultLanguageTable()
	}
	if cfg.ExecutionPath == "" {
		cfg.ExecutionPath = DefaultExecutionPath
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxPollAttempts <= 0 {
		cfg.MaxPollAttempts = DefaultMaxPollAttempts
	}
	if cfg.PollDeadline <= 0 {
		cfg.PollDeadline = DefaultPollDeadline
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
}

// Languages returns the table the client resolves keys against.
func (c *Client) Languages() codec.LanguageTable {
	return c.languages
}

// languageLabel keeps unsupported keys out of metric labels.
func (c *Client) languageLabel(key string) string {
	if _, err := c.languages.Resolve(key); err != nil {
		return "unsupported"
	}
	return strings.ToLower(strings.TrimSpace(key))
}

// beforeCall is checked ahead of every network call.
func (c *Client) beforeCall(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return classify(ctx, err)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return classify(ctx, err)
			}
			// the limiter refuses waits that would outlast the deadline
			return pkgerrors.Wrapf(err, pkgerrors.JudgeTimeout, "judge rate limit wait exceeds deadline")
		}
	}
	return nil
}

// classify maps a done ctx onto JudgeCanceled or JudgeTimeout. Errors raised
// while ctx is still live are returned untouched, so a per-request HTTP
// timeout stays a transport failure.
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	switch ctxErr := ctx.Err(); {
	case errors.Is(ctxErr, context.Canceled):
		return pkgerrors.Wrapf(err, pkgerrors.JudgeCanceled, "judge request canceled")
	case errors.Is(ctxErr, context.DeadlineExceeded):
		return pkgerrors.Wrapf(err, pkgerrors.JudgeTimeout, "judge request timed out")
	}
	return err
}
