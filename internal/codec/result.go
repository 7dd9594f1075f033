package codec

import (
	pkgerrors "codejudge/pkg/errors"
)

// ServiceStatus is the status object of a judge response.
type ServiceStatus struct {
	ID          int    `json:"id"`
	Description string `json:"description,omitempty"`
}

// ServiceResponse is the raw submission payload returned by the execution and
// submission-status endpoints. Text fields hold transport text.
type ServiceResponse struct {
	Token         string         `json:"token,omitempty"`
	Status        *ServiceStatus `json:"status,omitempty"`
	Stdout        *string        `json:"stdout,omitempty"`
	Stderr        *string        `json:"stderr,omitempty"`
	CompileOutput *string        `json:"compile_output,omitempty"`
	Message       *string        `json:"message,omitempty"`
	Time          *string        `json:"time,omitempty"`
	Memory        *int64         `json:"memory,omitempty"`
}

// JudgeResult is the decoded, human-readable form of a ServiceResponse.
type JudgeResult struct {
	Status        JudgeStatus
	StatusID      int
	Description   string
	Stdout        string
	CompileOutput string
	Stderr        string
	Message       string
	Time          string
	MemoryKB      int64
}

// Accepted reports whether the judge accepted the submission.
func (r JudgeResult) Accepted() bool {
	return r.Status == StatusAccepted
}

// Diagnostic returns the primary failure text: compile output first, then
// stderr, the service message and finally the status description.
func (r JudgeResult) Diagnostic() string {
	for _, candidate := range []string{r.CompileOutput, r.Stderr, r.Message, r.Description} {
		if candidate != "" {
			return candidate
		}
	}
	return r.Status.String()
}

// DecodeResult maps a raw response to a JudgeResult. A missing status object is
// a malformed response; undecodable text fields fail with EncodingFailed.
func DecodeResult(raw ServiceResponse) (JudgeResult, error) {
	if raw.Status == nil {
		return JudgeResult{}, pkgerrors.New(pkgerrors.JudgeBadResponse).WithMessage("judge response has no status")
	}
	result := JudgeResult{
		Status:      StatusFromID(raw.Status.ID),
		StatusID:    raw.Status.ID,
		Description: raw.Status.Description,
	}
	fields := []struct {
		name string
		in   *string
		out  *string
	}{
		{"stdout", raw.Stdout, &result.Stdout},
		{"compile_output", raw.CompileOutput, &result.CompileOutput},
		{"stderr", raw.Stderr, &result.Stderr},
		{"message", raw.Message, &result.Message},
	}
	for _, f := range fields {
		text, _, err := DecodeText(f.in)
		if err != nil {
			return JudgeResult{}, pkgerrors.Wrap(err, pkgerrors.EncodingFailed).WithDetail("field", f.name)
		}
		*f.out = text
	}
	if raw.Time != nil {
		result.Time = *raw.Time
	}
	if raw.Memory != nil {
		result.MemoryKB = *raw.Memory
	}
	return result, nil
}
