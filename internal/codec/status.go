package codec

// JudgeStatus is the normalized state of a submission.
type JudgeStatus int

const (
	StatusOther JudgeStatus = iota
	StatusQueued
	StatusProcessing
	StatusAccepted
	StatusWrongAnswer
	StatusCompileError
	StatusRuntimeError
	StatusTimeLimitExceeded
)

// Judge0 status ids.
const (
	StatusIDInQueue           = 1
	StatusIDProcessing        = 2
	StatusIDAccepted          = 3
	StatusIDWrongAnswer       = 4
	StatusIDTimeLimitExceeded = 5
	StatusIDCompilationError  = 6
	StatusIDRuntimeErrorFirst = 7
	StatusIDRuntimeErrorLast  = 12
	StatusIDInternalError     = 13
	StatusIDExecFormatError   = 14
)

var statusNames = map[JudgeStatus]string{
	StatusOther:             "Other",
	StatusQueued:            "Queued",
	StatusProcessing:        "Processing",
	StatusAccepted:          "Accepted",
	StatusWrongAnswer:       "WrongAnswer",
	StatusCompileError:      "CompileError",
	StatusRuntimeError:      "RuntimeError",
	StatusTimeLimitExceeded: "TimeLimitExceeded",
}

func (s JudgeStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Other"
}

// IsTerminal reports whether no further transition can follow s.
func (s JudgeStatus) IsTerminal() bool {
	return s != StatusQueued && s != StatusProcessing
}

// StatusFromID maps a Judge0 status id to JudgeStatus.
func StatusFromID(id int) JudgeStatus {
	switch {
	case id == StatusIDInQueue:
		return StatusQueued
	case id == StatusIDProcessing:
		return StatusProcessing
	case id == StatusIDAccepted:
		return StatusAccepted
	case id == StatusIDWrongAnswer:
		return StatusWrongAnswer
	case id == StatusIDTimeLimitExceeded:
		return StatusTimeLimitExceeded
	case id == StatusIDCompilationError:
		return StatusCompileError
	case id >= StatusIDRuntimeErrorFirst && id <= StatusIDRuntimeErrorLast:
		return StatusRuntimeError
	default:
		return StatusOther
	}
}
