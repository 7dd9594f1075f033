package errors_test

import (
	"errors"
	"fmt"
	"testing"

	. "codejudge/pkg/errors"
)

func TestErrorCode_Message(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{Success, "Success"},
		{LanguageNotSupported, "Programming language not supported"},
		{JudgeTimeout, "Timed out waiting for the judge"},
		{ErrorCode(99999), "Unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.code.Message(); got != tt.want {
				t.Errorf("Message() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code       ErrorCode
		wantStatus int
	}{
		{Success, 200},
		{InvalidParams, 400},
		{LanguageNotSupported, 400},
		{Unauthorized, 401},
		{TooManyRequests, 429},
		{JudgeTransportFailed, 502},
		{JudgeTimeout, 504},
		{InternalServerError, 500},
	}

	for _, tt := range tests {
		t.Run(tt.code.Message(), func(t *testing.T) {
			if got := tt.code.HTTPStatus(); got != tt.wantStatus {
				t.Errorf("HTTPStatus() = %v, want %v", got, tt.wantStatus)
			}
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := TransportFailure(cause, "create submission")

	if wrapped.Code != JudgeTransportFailed {
		t.Errorf("Code = %v, want %v", wrapped.Code, JudgeTransportFailed)
	}
	if !errors.Is(wrapped, cause) {
		t.Error("wrapped error should match its cause")
	}
	if wrapped.Details["op"] != "create submission" {
		t.Errorf("op detail = %v", wrapped.Details["op"])
	}
}

func TestGetCodeThroughFmtWrap(t *testing.T) {
	inner := UnsupportedLanguage("cobol")
	outer := fmt.Errorf("prepare request: %w", inner)

	if got := GetCode(outer); got != LanguageNotSupported {
		t.Errorf("GetCode() = %v, want %v", got, LanguageNotSupported)
	}
	if !Is(outer, LanguageNotSupported) {
		t.Error("Is() should see through fmt wrapping")
	}
	if GetCode(nil) != Success {
		t.Error("GetCode(nil) should be Success")
	}
	if GetCode(errors.New("plain")) != InternalServerError {
		t.Error("plain errors should map to InternalServerError")
	}
}

func TestWrapRecodesExisting(t *testing.T) {
	original := New(EncodingFailed).WithDetail("field", "stdout")
	recoded := Wrap(original, JudgeTransportFailed)

	if recoded != original {
		t.Fatal("Wrap should reuse an existing *Error")
	}
	if recoded.Code != JudgeTransportFailed {
		t.Errorf("Code = %v", recoded.Code)
	}
	if recoded.Details["field"] != "stdout" {
		t.Error("details should survive recoding")
	}
}

func TestConfigError(t *testing.T) {
	err := ConfigError(APIKeyMissing, "judge.apiKey")
	if err.Error() != APIKeyMissing.Message() {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.Details["field"] != "judge.apiKey" {
		t.Error("field detail not set")
	}
}
