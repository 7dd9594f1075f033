package judgeclient

import (
	"context"

	"codejudge/internal/codec"
)

// Workflow names the operation a status update belongs to.
type Workflow string

const (
	WorkflowRun    Workflow = "run"
	WorkflowSubmit Workflow = "submit"
)

// Stage is the position of a workflow in its state machine.
type Stage int

const (
	StageSubmitting Stage = iota // request being sent
	StageSubmitted               // token received, polling about to start
	StageFinished                // final result, always the last update
)

func (s Stage) String() string {
	switch s {
	case StageSubmitting:
		return "submitting"
	case StageSubmitted:
		return "submitted"
	case StageFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// StatusUpdate is one notification delivered to the caller.
type StatusUpdate struct {
	InvocationID string
	Workflow     Workflow
	Stage        Stage
	Token        string
	Status       codec.JudgeStatus
	// Text is the human-readable status line, prefixed for its workflow.
	Text string
}

// Final reports whether u is the last update of its invocation.
func (u StatusUpdate) Final() bool {
	return u.Stage == StageFinished
}

// StatusReporter receives status updates in order on the workflow's goroutine.
type StatusReporter interface {
	ReportStatus(ctx context.Context, update StatusUpdate)
}

// ReporterFunc adapts a function to StatusReporter.
type ReporterFunc func(ctx context.Context, update StatusUpdate)

func (f ReporterFunc) ReportStatus(ctx context.Context, update StatusUpdate) {
	f(ctx, update)
}

type nopReporter struct{}

func (nopReporter) ReportStatus(context.Context, StatusUpdate) {}

func reporterOrNop(r StatusReporter) StatusReporter {
	if r == nil {
		return nopReporter{}
	}
	return r
}
