package codec

import (
	"encoding/base64"
	"strings"

	pkgerrors "codejudge/pkg/errors"
)

var transportEncoding = base64.StdEncoding

// EncodeText converts plain text to its transport form. Empty input yields an
// empty transport value, which is still sent on the wire.
func EncodeText(plain string) string {
	return transportEncoding.EncodeToString([]byte(plain))
}

// DecodeText reverses EncodeText. present is false when the service omitted the
// field, which callers treat as "no output" rather than as an error.
func DecodeText(field *string) (text string, present bool, err error) {
	if field == nil {
		return "", false, nil
	}
	// Judge0 wraps base64 output every 60 columns.
	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, *field)
	raw, err := transportEncoding.DecodeString(cleaned)
	if err != nil {
		return "", true, pkgerrors.Wrapf(err, pkgerrors.EncodingFailed, "decode transport text failed: %v", err)
	}
	return string(raw), true, nil
}

// EncodeOptional encodes plain and returns a pointer suitable for JSON fields
// that must be present even when empty.
func EncodeOptional(plain string) *string {
	encoded := EncodeText(plain)
	return &encoded
}
