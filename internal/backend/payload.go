package backend

import (
	"errors"
	"strings"
)

// legacyErrorPrefix marks a text payload that reports a failure in band.
const legacyErrorPrefix = "Error:"

// SoftError is a failure reported inside an otherwise successful text payload.
type SoftError struct {
	Message string
}

func (e *SoftError) Error() string {
	return e.Message
}

// IsSoftError reports whether err is a SoftError.
func IsSoftError(err error) bool {
	var soft *SoftError
	return errors.As(err, &soft)
}

// ParseTextPayload converts a text payload into content or a SoftError.
// Payloads starting with "Error:" are failures; the message is the rest of
// the payload.
func ParseTextPayload(text string) (string, error) {
	if strings.HasPrefix(text, legacyErrorPrefix) {
		msg := strings.TrimSpace(strings.TrimPrefix(text, legacyErrorPrefix))
		if msg == "" {
			msg = "The backend reported an error without details."
		}
		return "", &SoftError{Message: msg}
	}
	return text, nil
}
