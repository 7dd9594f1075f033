package judgeclient_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"codejudge/internal/codec"
	"codejudge/internal/judge0/judge0test"
	"codejudge/internal/judgeclient"
	"codejudge/internal/testutil"
	pkgerrors "codejudge/pkg/errors"
)

func submitInput(language string) judgeclient.SubmissionInput {
	return judgeclient.SubmissionInput{
		SourceCode: "print(1)",
		Language:   language,
		TestCase:   demoCase,
	}
}

func TestSubmitPollsUntilTerminal(t *testing.T) {
	judge := judge0test.NewServer(t, judge0test.Script{
		Token: "abc",
		Polls: []codec.ServiceResponse{
			judge0test.Status(codec.StatusIDInQueue),
			judge0test.Status(codec.StatusIDProcessing),
			judge0test.Status(codec.StatusIDProcessing),
			judge0test.Status(codec.StatusIDAccepted),
		},
	})
	client := newClient(t, judge.URL, "")
	rec := &recorder{}

	got := client.Submit(context.Background(), submitInput("python"), rec)

	testutil.AssertEqual(t, got, "Submission Status: \nAccepted the test case")
	testutil.AssertEqual(t, judge.Creates(), 1)
	// one immediate fetch after creation plus three re-polls
	testutil.AssertEqual(t, judge.Polls(), 4)
	testutil.AssertStrings(t, rec.texts(), []string{
		"Submission Status: \nSubmitting Code...",
		"Submission Status: \nSubmitting Code...",
		got,
	})
	testutil.AssertEqual(t, rec.updates[1].Token, "abc")
	testutil.AssertEqual(t, rec.updates[1].Stage, judgeclient.StageSubmitted)
	testutil.AssertTrue(t, rec.updates[2].Final(), "last update should be final")
}

func TestSubmitSendsEncodedTestCase(t *testing.T) {
	judge := judge0test.NewServer(t, judge0test.Script{
		Polls: []codec.ServiceResponse{judge0test.Status(codec.StatusIDAccepted)},
	})
	client := newClient(t, judge.URL, "")

	client.Submit(context.Background(), submitInput("java"), nil)

	sent := judge.LastSubmission()
	testutil.AssertEqual(t, sent.LanguageID, 62)
	testutil.AssertEqual(t, sent.SourceCode, codec.EncodeText("print(1)"))
	if sent.Stdin == nil || sent.ExpectedOutput == nil {
		t.Fatal("stdin and expected output must be sent")
	}
	testutil.AssertEqual(t, *sent.Stdin, codec.EncodeText(demoCase.Stdin))
	testutil.AssertEqual(t, *sent.ExpectedOutput, codec.EncodeText(demoCase.ExpectedOutput))
	testutil.AssertEqual(t, judge.LastHeaders().Get("X-RapidAPI-Key"), "test-key")
	testutil.AssertContains(t, judge.LastQuery(), "base64_encoded=true")
}

func TestSubmitTerminalFailureOnFirstPoll(t *testing.T) {
	for name, id := range map[string]int{
		"wrong answer":  codec.StatusIDWrongAnswer,
		"compile error": codec.StatusIDCompilationError,
		"time limit":    codec.StatusIDTimeLimitExceeded,
	} {
		t.Run(name, func(t *testing.T) {
			judge := judge0test.NewServer(t, judge0test.Script{
				Polls: []codec.ServiceResponse{judge0test.Status(id)},
			})
			client := newClient(t, judge.URL, "")

			got := client.Submit(context.Background(), submitInput("cpp"), nil)

			testutil.AssertEqual(t, got, "Submission Status: \nFailed the test case")
			testutil.AssertEqual(t, judge.Polls(), 1)
		})
	}
}

func TestSubmitUnsupportedLanguage(t *testing.T) {
	judge := judge0test.NewServer(t, judge0test.Script{})
	client := newClient(t, judge.URL, "")
	rec := &recorder{}

	got := client.Submit(context.Background(), submitInput("Brainfuck"), rec)

	testutil.AssertEqual(t, got, "Submission Status: \nUnsupported language: Brainfuck")
	testutil.AssertEqual(t, judge.Creates(), 0)
	testutil.AssertEqual(t, judge.Polls(), 0)
	testutil.AssertStrings(t, rec.texts(), []string{got})
}

func TestSubmitCreateFailure(t *testing.T) {
	judge := judge0test.NewServer(t, judge0test.Script{CreateStatus: http.StatusTooManyRequests})
	client := newClient(t, judge.URL, "")
	rec := &recorder{}

	got := client.Submit(context.Background(), submitInput("python"), rec)

	testutil.AssertEqual(t, got, "Submission Status: \nFailed to execute code.")
	testutil.AssertEqual(t, judge.Polls(), 0)
	// no token, so no second "Submitting" update
	testutil.AssertStrings(t, rec.texts(), []string{"Submission Status: \nSubmitting Code...", got})
}

func TestSubmitPollFailure(t *testing.T) {
	judge := judge0test.NewServer(t, judge0test.Script{
		Polls:      []codec.ServiceResponse{judge0test.Status(codec.StatusIDProcessing), judge0test.Status(codec.StatusIDAccepted)},
		PollFailAt: 2,
	})
	client := newClient(t, judge.URL, "")

	got := client.Submit(context.Background(), submitInput("python"), nil)

	testutil.AssertEqual(t, got, "Submission Status: \nFailed to execute code.")
	testutil.AssertEqual(t, judge.Polls(), 2)
}

func TestSubmitGivesUpAfterMaxAttempts(t *testing.T) {
	judge := judge0test.NewServer(t, judge0test.Script{})
	client := newClient(t, judge.URL, "", func(cfg *judgeclient.Config) {
		cfg.MaxPollAttempts = 3
	})

	result, err := client.Verify(context.Background(), submitInput("python"), nil)

	testutil.AssertTrue(t, pkgerrors.Is(err, pkgerrors.JudgeTimeout), "expected JudgeTimeout")
	testutil.AssertEqual(t, result.Status, codec.StatusOther)
	testutil.AssertEqual(t, judge.Polls(), 3)
	testutil.AssertEqual(t, judgeclient.RenderSubmission(result, err), "Submission Status: \nTimed out waiting for the judge.")
}

func TestSubmitPollDeadline(t *testing.T) {
	judge := judge0test.NewServer(t, judge0test.Script{})
	client := newClient(t, judge.URL, "", func(cfg *judgeclient.Config) {
		cfg.PollInterval = 5 * time.Millisecond
		cfg.MaxPollAttempts = 100000
		cfg.PollDeadline = 30 * time.Millisecond
	})

	got := client.Submit(context.Background(), submitInput("python"), nil)

	testutil.AssertEqual(t, got, "Submission Status: \nTimed out waiting for the judge.")
	testutil.AssertTrue(t, judge.Polls() < 100000, "polling should stop at the deadline")
}

func TestSubmitCanceledWhilePolling(t *testing.T) {
	judge := judge0test.NewServer(t, judge0test.Script{})
	client := newClient(t, judge.URL, "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reporter := judgeclient.ReporterFunc(func(_ context.Context, u judgeclient.StatusUpdate) {
		if u.Stage == judgeclient.StageSubmitted {
			cancel()
		}
	})
	result, err := client.Verify(ctx, submitInput("python"), reporter)

	testutil.AssertTrue(t, pkgerrors.Is(err, pkgerrors.JudgeCanceled), "expected JudgeCanceled")
	testutil.AssertTrue(t, errors.Is(err, context.Canceled), "cause should be context.Canceled")
	testutil.AssertEqual(t, judge.Polls(), 0)
	testutil.AssertEqual(t, judgeclient.RenderSubmission(result, err), "Submission Status: \nExecution canceled.")
}

func TestSubmitCanceledBeforeStart(t *testing.T) {
	judge := judge0test.NewServer(t, judge0test.Script{})
	client := newClient(t, judge.URL, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := client.Submit(ctx, submitInput("python"), nil)

	testutil.AssertEqual(t, got, "Submission Status: \nExecution canceled.")
	testutil.AssertEqual(t, judge.Creates(), 0)
}

func TestVerifyReturnsJudgeVerdict(t *testing.T) {
	judge := judge0test.NewServer(t, judge0test.Script{
		Polls: []codec.ServiceResponse{{
			Status:        &codec.ServiceStatus{ID: codec.StatusIDCompilationError, Description: "Compilation Error"},
			CompileOutput: codec.EncodeOptional("main.cpp:1: error"),
		}},
	})
	client := newClient(t, judge.URL, "")

	result, err := client.Verify(context.Background(), submitInput("cpp"), nil)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	testutil.AssertEqual(t, result.Status, codec.StatusCompileError)
	testutil.AssertEqual(t, result.Diagnostic(), "main.cpp:1: error")
	testutil.AssertTrue(t, !result.Accepted(), "compile error is not accepted")
}

func TestNewRejectsIncompleteConfig(t *testing.T) {
	_, err := judgeclient.New(judgeclient.Config{
		Judge: judge0Config("http://judge.invalid", ""),
	})
	testutil.AssertTrue(t, pkgerrors.Is(err, pkgerrors.APIKeyMissing), "missing key should be rejected")

	_, err = judgeclient.New(judgeclient.Config{
		Judge: judge0Config("", "key"),
	})
	testutil.AssertTrue(t, pkgerrors.Is(err, pkgerrors.EndpointMissing), "missing URL should be rejected")
}
