package judgeclient

import (
	"context"
	"time"

	"codejudge/internal/codec"
	"codejudge/internal/judge0"
	"codejudge/internal/metrics"
	"codejudge/pkg/utils/contextkey"
	"codejudge/pkg/utils/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TestCase is the input and expected output a submission is verified against.
type TestCase struct {
	Stdin          string `yaml:"stdin" json:"stdin"`
	ExpectedOutput string `yaml:"expectedOutput" json:"expected_output"`
}

// SubmissionInput is a submit-with-verification request.
type SubmissionInput struct {
	SourceCode string
	Language   string
	TestCase   TestCase
}

// Verify creates a submission for the test case and polls it to a terminal
// status. "Submitting" updates are reported when the request starts and again
// once the token is known.
func (c *Client) Verify(ctx context.Context, in SubmissionInput, reporter StatusReporter) (codec.JudgeResult, error) {
	reporter = reporterOrNop(reporter)
	invocationID, _ := ctx.Value(contextkey.InvocationID).(string)

	languageID, err := c.languages.Resolve(in.Language)
	if err != nil {
		return codec.JudgeResult{}, err
	}
	reporter.ReportStatus(ctx, StatusUpdate{
		InvocationID: invocationID,
		Workflow:     WorkflowSubmit,
		Stage:        StageSubmitting,
		Text:         stageText(WorkflowSubmit, MsgSubmitting),
	})

	if err := c.beforeCall(ctx); err != nil {
		return codec.JudgeResult{}, err
	}
	expected := in.TestCase.ExpectedOutput
	token, err := c.judge.CreateSubmission(ctx, judge0.NewSubmissionRequest(in.SourceCode, languageID, in.TestCase.Stdin, &expected))
	metrics.JudgeCalls.WithLabelValues("create_submission", metrics.CallResult(err)).Inc()
	if err != nil {
		return codec.JudgeResult{}, classify(ctx, err)
	}
	logger.Debug(ctx, "submission created", zap.String("token", token))
	reporter.ReportStatus(ctx, StatusUpdate{
		InvocationID: invocationID,
		Workflow:     WorkflowSubmit,
		Stage:        StageSubmitted,
		Token:        token,
		Status:       codec.StatusQueued,
		Text:         stageText(WorkflowSubmit, MsgSubmitting),
	})

	raw, attempts, err := c.await(ctx, token)
	if err != nil {
		return codec.JudgeResult{}, err
	}
	logger.Debug(ctx, "submission settled", zap.String("token", token), zap.Int("attempts", attempts))
	return codec.DecodeResult(raw)
}

// Submit verifies source against the test case and returns the final
// "Submission Status:" text. Like Run it never returns an error.
func (c *Client) Submit(ctx context.Context, in SubmissionInput, reporter StatusReporter) string {
	reporter = reporterOrNop(reporter)
	invocationID := uuid.NewString()
	ctx = context.WithValue(ctx, contextkey.InvocationID, invocationID)
	ctx = context.WithValue(ctx, contextkey.Language, in.Language)
	start := time.Now()

	result, err := c.Verify(ctx, in, reporter)

	outcome := Outcome(result, err)
	if err != nil {
		logger.Warn(ctx, "submit workflow failed", zap.String("outcome", outcome), zap.Error(err))
	} else {
		logger.Info(ctx, "submit workflow finished", zap.String("outcome", outcome), zap.Int("status_id", result.StatusID))
	}
	metrics.WorkflowsTotal.WithLabelValues(string(WorkflowSubmit), c.languageLabel(in.Language), outcome).Inc()
	metrics.WorkflowDuration.WithLabelValues(string(WorkflowSubmit)).Observe(time.Since(start).Seconds())

	text := RenderSubmission(result, err)
	reporter.ReportStatus(ctx, StatusUpdate{
		InvocationID: invocationID,
		Workflow:     WorkflowSubmit,
		Stage:        StageFinished,
		Status:       result.Status,
		Text:         text,
	})
	return text
}
