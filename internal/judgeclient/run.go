package judgeclient

import (
	"context"
	"net/http"
	"time"

	"codejudge/internal/codec"
	"codejudge/internal/httpclient"
	"codejudge/internal/metrics"
	pkgerrors "codejudge/pkg/errors"
	"codejudge/pkg/utils/contextkey"
	"codejudge/pkg/utils/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExecutionInput is a single-shot run of source against stdin.
type ExecutionInput struct {
	SourceCode string
	Language   string
	Stdin      string
}

// Execute posts one request to the execution endpoint and decodes its answer.
// Judge verdicts such as compile errors come back as results, not errors.
func (c *Client) Execute(ctx context.Context, in ExecutionInput) (codec.JudgeResult, error) {
	languageID, err := c.languages.Resolve(in.Language)
	if err != nil {
		return codec.JudgeResult{}, err
	}
	if c.executor == nil {
		return codec.JudgeResult{}, pkgerrors.ConfigError(pkgerrors.EndpointMissing, "executionURL")
	}
	if err := c.beforeCall(ctx); err != nil {
		return codec.JudgeResult{}, err
	}

	var raw codec.ServiceResponse
	_, err = c.executor.DoJSON(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   c.executionPath,
	}, codec.ExecutionRequest{
		SourceCode: in.SourceCode,
		LanguageID: languageID,
		Stdin:      in.Stdin,
	}, &raw)
	metrics.JudgeCalls.WithLabelValues("execute", metrics.CallResult(err)).Inc()
	if err != nil {
		return codec.JudgeResult{}, classify(ctx, err)
	}
	return codec.DecodeResult(raw)
}

// Run executes source once and returns the final "Output:" text. Progress and
// the final text are also delivered to reporter. Run never returns an error:
// every failure is rendered as status text.
func (c *Client) Run(ctx context.Context, in ExecutionInput, reporter StatusReporter) string {
	reporter = reporterOrNop(reporter)
	invocationID := uuid.NewString()
	ctx = context.WithValue(ctx, contextkey.InvocationID, invocationID)
	ctx = context.WithValue(ctx, contextkey.Language, in.Language)
	start := time.Now()

	var (
		result codec.JudgeResult
		err    error
	)
	if _, err = c.languages.Resolve(in.Language); err == nil {
		reporter.ReportStatus(ctx, StatusUpdate{
			InvocationID: invocationID,
			Workflow:     WorkflowRun,
			Stage:        StageSubmitting,
			Text:         stageText(WorkflowRun, MsgSubmitting),
		})
		result, err = c.Execute(ctx, in)
	}

	outcome := Outcome(result, err)
	if err != nil {
		logger.Warn(ctx, "run workflow failed", zap.String("outcome", outcome), zap.Error(err))
	} else {
		logger.Info(ctx, "run workflow finished", zap.String("outcome", outcome), zap.Int("status_id", result.StatusID))
	}
	metrics.WorkflowsTotal.WithLabelValues(string(WorkflowRun), c.languageLabel(in.Language), outcome).Inc()
	metrics.WorkflowDuration.WithLabelValues(string(WorkflowRun)).Observe(time.Since(start).Seconds())

	text := RenderRun(result, err)
	reporter.ReportStatus(ctx, StatusUpdate{
		InvocationID: invocationID,
		Workflow:     WorkflowRun,
		Stage:        StageFinished,
		Status:       result.Status,
		Text:         text,
	})
	return text
}
