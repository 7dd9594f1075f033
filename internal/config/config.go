// Package config loads the yaml configuration shared by the judge binaries.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"codejudge/internal/codec"
	"codejudge/internal/judge0"
	"codejudge/internal/judgeclient"
	"codejudge/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

const (
	// EnvAPIKey overrides judge.apiKey so the key can stay out of config files.
	EnvAPIKey = "JUDGE0_API_KEY"
	// EnvExecutionURL overrides client.executionURL.
	EnvExecutionURL = "JUDGE_EXECUTION_URL"

	DefaultJudgeBaseURL = "https://judge0-ce.p.rapidapi.com"
	DefaultHistoryFile  = ".judge_cli_history"
	DefaultStatePath    = ".judge_cli_state.json"
)

// JudgeConfig holds Judge0 connection settings.
type JudgeConfig struct {
	BaseURL      string        `yaml:"baseURL"`
	APIKey       string        `yaml:"apiKey"`
	APIKeyHeader string        `yaml:"apiKeyHeader"`
	APIHost      string        `yaml:"apiHost"`
	Timeout      time.Duration `yaml:"timeout"`
}

// PollConfig bounds how long a submission is polled.
type PollConfig struct {
	Interval    time.Duration `yaml:"interval"`
	MaxAttempts int           `yaml:"maxAttempts"`
	Deadline    time.Duration `yaml:"deadline"`
}

// RateConfig throttles outbound judge calls.
type RateConfig struct {
	PerSecond float64 `yaml:"perSecond"`
	Burst     int     `yaml:"burst"`
}

// ClientConfig is the judge client section.
type ClientConfig struct {
	ExecutionURL   string         `yaml:"executionURL"`
	ExecutionPath  string         `yaml:"executionPath"`
	ExecutionToken string         `yaml:"executionToken"`
	RequestTimeout time.Duration  `yaml:"requestTimeout"`
	Judge          JudgeConfig    `yaml:"judge"`
	Languages      map[string]int `yaml:"languages"` // merged over the built-in table
	Poll           PollConfig     `yaml:"poll"`
	RateLimit      RateConfig     `yaml:"rateLimit"`
}

// CLIConfig is the judge-cli configuration file.
type CLIConfig struct {
	Logger      logger.Config        `yaml:"logger"`
	Client      ClientConfig         `yaml:"client"`
	TestCase    judgeclient.TestCase `yaml:"testCase"`
	HistoryFile string               `yaml:"historyFile"`
	StatePath   string               `yaml:"statePath"`
	Timeout     time.Duration        `yaml:"timeout"` // per workflow, zero for none
}

// LoadYAML decodes the file at path into out.
func LoadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

// LoadCLI reads a CLI config. A missing file is not an error: defaults and
// environment overrides still apply.
func LoadCLI(path string) (CLIConfig, error) {
	var cfg CLIConfig
	if path != "" {
		if err := LoadYAML(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, err
		}
	}
	cfg.Client.ApplyEnv()
	applyCLIDefaults(&cfg)
	return cfg, nil
}

func applyCLIDefaults(cfg *CLIConfig) {
	if cfg.HistoryFile == "" {
		cfg.HistoryFile = DefaultHistoryFile
	}
	if cfg.StatePath == "" {
		cfg.StatePath = DefaultStatePath
	}
	if cfg.TestCase.Stdin == "" && cfg.TestCase.ExpectedOutput == "" {
		cfg.TestCase = DefaultTestCase()
	}
	cfg.Client.ApplyDefaults()
}

// DefaultTestCase is the factorial demo case used when no test case is
// configured.
func DefaultTestCase() judgeclient.TestCase {
	return judgeclient.TestCase{
		Stdin:          "4\n1\n2\n3\n4\n",
		ExpectedOutput: "1\n2\n6\n24",
	}
}

// ApplyEnv lets environment variables override file values.
func (c *ClientConfig) ApplyEnv() {
	if v, ok := os.LookupEnv(EnvAPIKey); ok && strings.TrimSpace(v) != "" {
		c.Judge.APIKey = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv(EnvExecutionURL); ok && strings.TrimSpace(v) != "" {
		c.ExecutionURL = strings.TrimSpace(v)
	}
}

// ApplyDefaults fills unset fields.
func (c *ClientConfig) ApplyDefaults() {
	if c.Judge.BaseURL == "" {
		c.Judge.BaseURL = DefaultJudgeBaseURL
	}
	if c.Judge.APIKeyHeader == "" {
		c.Judge.APIKeyHeader = judge0.DefaultAPIKeyHeader
	}
	if c.ExecutionPath == "" {
		c.ExecutionPath = judgeclient.DefaultExecutionPath
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = judgeclient.DefaultRequestTimeout
	}
	if c.Poll.Interval == 0 {
		c.Poll.Interval = judgeclient.DefaultPollInterval
	}
	if c.Poll.MaxAttempts == 0 {
		c.Poll.MaxAttempts = judgeclient.DefaultMaxPollAttempts
	}
	if c.Poll.Deadline == 0 {
		c.Poll.Deadline = judgeclient.DefaultPollDeadline
	}
}

// LanguageTable merges configured overrides over the built-in table.
func (c ClientConfig) LanguageTable() (codec.LanguageTable, error) {
	table, err := codec.DefaultLanguageTable().With(c.Languages)
	if err != nil {
		return codec.LanguageTable{}, fmt.Errorf("invalid languages: %w", err)
	}
	return table, nil
}

// JudgeClientConfig converts the file form into judgeclient.Config.
func (c ClientConfig) JudgeClientConfig() (judgeclient.Config, error) {
	languages, err := c.LanguageTable()
	if err != nil {
		return judgeclient.Config{}, err
	}
	return judgeclient.Config{
		ExecutionURL:   c.ExecutionURL,
		ExecutionPath:  c.ExecutionPath,
		ExecutionToken: c.ExecutionToken,
		Judge: judge0.Config{
			BaseURL:      c.Judge.BaseURL,
			APIKey:       c.Judge.APIKey,
			APIKeyHeader: c.Judge.APIKeyHeader,
			APIHost:      c.Judge.APIHost,
			Timeout:      c.Judge.Timeout,
		},
		Languages:       languages,
		PollInterval:    c.Poll.Interval,
		MaxPollAttempts: c.Poll.MaxAttempts,
		PollDeadline:    c.Poll.Deadline,
		RequestTimeout:  c.RequestTimeout,
		RateLimit:       c.RateLimit.PerSecond,
		RateBurst:       c.RateLimit.Burst,
	}, nil
}
