package judgeclient

import (
	"context"
	"errors"

	"codejudge/internal/codec"
	"codejudge/internal/metrics"
	pkgerrors "codejudge/pkg/errors"
	"codejudge/pkg/utils/logger"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

var errPending = errors.New("submission still pending")

// await fetches the submission right away, then every pollInterval while it is
// Queued or Processing. It stops at the first terminal status, after
// maxPollAttempts fetches, or when pollDeadline passes.
func (c *Client) await(ctx context.Context, token string) (codec.ServiceResponse, int, error) {
	pollCtx, cancel := context.WithTimeout(ctx, c.pollDeadline)
	defer cancel()

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.pollInterval), uint64(c.maxPollAttempts-1)),
		pollCtx,
	)

	var (
		last     codec.ServiceResponse
		attempts int
	)
	operation := func() error {
		if err := c.beforeCall(pollCtx); err != nil {
			return backoff.Permanent(err)
		}
		attempts++
		resp, err := c.judge.GetSubmission(pollCtx, token)
		metrics.JudgeCalls.WithLabelValues("get_submission", metrics.CallResult(err)).Inc()
		if err != nil {
			return backoff.Permanent(err)
		}
		if resp.Status == nil {
			return backoff.Permanent(pkgerrors.New(pkgerrors.JudgeBadResponse).WithMessage("submission status missing"))
		}
		last = resp
		status := codec.StatusFromID(resp.Status.ID)
		logger.Debug(ctx, "submission polled",
			zap.String("token", token),
			zap.Int("attempt", attempts),
			zap.String("status", status.String()))
		if status.IsTerminal() {
			return nil
		}
		return errPending
	}

	err := backoff.Retry(operation, policy)
	metrics.PollAttempts.Observe(float64(attempts))
	if err == nil {
		return last, attempts, nil
	}

	// the caller's own context decides between canceled and timed out first
	if ctx.Err() != nil {
		return last, attempts, classify(ctx, err)
	}
	if pollCtx.Err() != nil || errors.Is(err, errPending) {
		return last, attempts, pkgerrors.Wrapf(err, pkgerrors.JudgeTimeout, "submission %s not judged after %d attempts", token, attempts).
			WithDetail("token", token).
			WithDetail("attempts", attempts)
	}
	return last, attempts, err
}
