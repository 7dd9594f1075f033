package judgeclient

import (
	"context"
	"testing"
	"time"

	"codejudge/internal/judge0"
	pkgerrors "codejudge/pkg/errors"
)

func TestBeforeCallRateLimit(t *testing.T) {
	c, err := New(Config{
		Judge:     judge0.Config{BaseURL: "http://judge.invalid", APIKey: "k"},
		RateLimit: 0.1,
		RateBurst: 1,
	})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := c.beforeCall(ctx); err != nil {
		t.Fatalf("first call should pass the limiter: %v", err)
	}
	if err := c.beforeCall(ctx); !pkgerrors.Is(err, pkgerrors.JudgeTimeout) {
		t.Fatalf("second call should exceed the deadline, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	live := context.Background()
	plain := context.DeadlineExceeded
	if got := classify(live, plain); got != plain {
		t.Errorf("errors under a live context must pass through, got %v", got)
	}

	canceled, cancel := context.WithCancel(live)
	cancel()
	if !pkgerrors.Is(classify(canceled, canceled.Err()), pkgerrors.JudgeCanceled) {
		t.Error("canceled context should classify as JudgeCanceled")
	}

	expired, cancel2 := context.WithTimeout(live, -time.Second)
	defer cancel2()
	if !pkgerrors.Is(classify(expired, expired.Err()), pkgerrors.JudgeTimeout) {
		t.Error("expired context should classify as JudgeTimeout")
	}
	if classify(live, nil) != nil {
		t.Error("nil stays nil")
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)
	if cfg.PollInterval != DefaultPollInterval || cfg.MaxPollAttempts != DefaultMaxPollAttempts {
		t.Errorf("poll defaults not applied: %+v", cfg)
	}
	if cfg.ExecutionPath != DefaultExecutionPath {
		t.Errorf("execution path = %q", cfg.ExecutionPath)
	}
	if _, err := cfg.Languages.Resolve("cpp"); err != nil {
		t.Errorf("default language table missing cpp: %v", err)
	}
}
