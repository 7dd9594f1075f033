package judgeclient

import (
	"fmt"
	"strings"

	"codejudge/internal/codec"
	pkgerrors "codejudge/pkg/errors"
)

// Caller-facing status text.
const (
	RunPrefix        = "Output:\n"
	SubmissionPrefix = "Submission Status: \n"

	MsgSubmitting       = "Submitting Code..."
	MsgNoOutput         = "There is no output."
	MsgCodeError        = "There is an error in code."
	MsgAccepted         = "Accepted the test case"
	MsgFailed           = "Failed the test case"
	MsgTransportFailure = "Failed to execute code."
	MsgTimeout          = "Timed out waiting for the judge."
	MsgCanceled         = "Execution canceled."
	MsgNotConfigured    = "Judge client is not configured."
)

// RenderRun turns the outcome of Execute into the run workflow's final text.
func RenderRun(result codec.JudgeResult, err error) string {
	return RunPrefix + runMessage(result, err)
}

func runMessage(result codec.JudgeResult, err error) string {
	if err != nil {
		return errorMessage(err)
	}
	if !result.Accepted() {
		return MsgCodeError + "\n" + result.Diagnostic()
	}
	if result.Stdout == "" {
		return MsgNoOutput
	}
	return result.Stdout
}

// RenderSubmission turns the outcome of Verify into the submit workflow's
// final text.
func RenderSubmission(result codec.JudgeResult, err error) string {
	return SubmissionPrefix + submissionMessage(result, err)
}

func submissionMessage(result codec.JudgeResult, err error) string {
	if err != nil {
		return errorMessage(err)
	}
	if result.Accepted() {
		return MsgAccepted
	}
	return MsgFailed
}

func stageText(workflow Workflow, msg string) string {
	if workflow == WorkflowSubmit {
		return SubmissionPrefix + msg
	}
	return RunPrefix + msg
}

func errorMessage(err error) string {
	e := pkgerrors.GetError(err)
	switch e.Code {
	case pkgerrors.LanguageNotSupported:
		if lang, ok := e.Details["language"]; ok {
			return fmt.Sprintf("Unsupported language: %v", lang)
		}
		return e.Code.Message()
	case pkgerrors.JudgeTimeout:
		return MsgTimeout
	case pkgerrors.JudgeCanceled:
		return MsgCanceled
	case pkgerrors.ConfigInvalid, pkgerrors.APIKeyMissing, pkgerrors.EndpointMissing:
		return MsgNotConfigured
	default:
		return MsgTransportFailure
	}
}

// Outcome is a short label for metrics and logs.
func Outcome(result codec.JudgeResult, err error) string {
	if err != nil {
		switch pkgerrors.GetCode(err) {
		case pkgerrors.LanguageNotSupported:
			return "unsupported_language"
		case pkgerrors.JudgeTimeout:
			return "timeout"
		case pkgerrors.JudgeCanceled:
			return "canceled"
		case pkgerrors.ConfigInvalid, pkgerrors.APIKeyMissing, pkgerrors.EndpointMissing:
			return "not_configured"
		default:
			return "transport_failure"
		}
	}
	return strings.ToLower(result.Status.String())
}
