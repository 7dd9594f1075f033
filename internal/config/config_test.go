package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"codejudge/internal/judgeclient"
	"codejudge/internal/testutil"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cli.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	return path
}

func TestLoadCLIFromFile(t *testing.T) {
	path := writeFile(t, `
logger:
  level: debug
client:
  executionURL: http://127.0.0.1:8080
  judge:
    baseURL: http://judge.local
    apiKey: file-key
  languages:
    go: 60
    Python: 92
  poll:
    interval: 500ms
    maxAttempts: 10
  rateLimit:
    perSecond: 2
    burst: 3
testCase:
  stdin: "1\n"
  expectedOutput: "1"
`)
	t.Setenv(EnvAPIKey, "")

	cfg, err := LoadCLI(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	testutil.AssertEqual(t, cfg.Logger.Level, "debug")
	testutil.AssertEqual(t, cfg.Client.Judge.APIKey, "file-key")
	testutil.AssertEqual(t, cfg.Client.Poll.Interval, 500*time.Millisecond)
	testutil.AssertEqual(t, cfg.Client.Poll.MaxAttempts, 10)
	testutil.AssertEqual(t, cfg.Client.Poll.Deadline, judgeclient.DefaultPollDeadline)
	testutil.AssertEqual(t, cfg.TestCase.ExpectedOutput, "1")
	testutil.AssertEqual(t, cfg.HistoryFile, DefaultHistoryFile)

	jc, err := cfg.Client.JudgeClientConfig()
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	id, err := jc.Languages.Resolve("go")
	testutil.AssertTrue(t, err == nil && id == 60, "go override should resolve")
	id, _ = jc.Languages.Resolve("python")
	testutil.AssertEqual(t, id, 92)
	id, _ = jc.Languages.Resolve("cpp")
	testutil.AssertEqual(t, id, 54)
	testutil.AssertEqual(t, jc.RateLimit, 2.0)
	testutil.AssertEqual(t, jc.RateBurst, 3)
}

func TestLoadCLIMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvAPIKey, "env-key")
	t.Setenv(EnvExecutionURL, "http://exec.local")

	cfg, err := LoadCLI(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	testutil.AssertEqual(t, cfg.Client.Judge.APIKey, "env-key")
	testutil.AssertEqual(t, cfg.Client.ExecutionURL, "http://exec.local")
	testutil.AssertEqual(t, cfg.Client.Judge.BaseURL, DefaultJudgeBaseURL)
	testutil.AssertEqual(t, cfg.TestCase, DefaultTestCase())
}

func TestLoadCLIRejectsBadYAML(t *testing.T) {
	path := writeFile(t, "client: [not, a, map")
	if _, err := LoadCLI(path); err == nil {
		t.Fatal("malformed yaml should fail")
	}
}

func TestLanguageTableRejectsInvalidIDs(t *testing.T) {
	c := ClientConfig{Languages: map[string]int{"rust": 0}}
	if _, err := c.JudgeClientConfig(); err == nil {
		t.Fatal("non-positive id should be rejected")
	}
}
