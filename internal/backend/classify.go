package backend

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/openai/openai-go"
	"google.golang.org/genai"

	"github.com/contentwriter/api/internal/model"
)

// Classifier maps a backend error to a failure kind.
type Classifier func(err error, op Operation) model.ErrorKind

// DefaultClassifier matches the error text case-insensitively in the order
// auth, quota, filtered (image calls only). Provider status codes are used
// only when no text rule matches.
func DefaultClassifier(err error, op Operation) model.ErrorKind {
	if err == nil {
		return model.ErrorKindBackendError
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api key not valid"):
		return model.ErrorKindAuthFailure
	case strings.Contains(msg, "quota"):
		return model.ErrorKindQuotaExceeded
	case op == OperationImage && strings.Contains(msg, "filtered"):
		return model.ErrorKindContentFiltered
	}

	if kind, ok := statusKind(err); ok {
		return kind
	}
	return model.ErrorKindBackendError
}

// statusKind inspects structured provider errors.
func statusKind(err error) (model.ErrorKind, bool) {
	var code int
	var status string

	var gemErr genai.APIError
	var gemErrPtr *genai.APIError
	var oaiErr *openai.Error
	switch {
	case errors.As(err, &gemErr):
		code, status = gemErr.Code, gemErr.Status
	case errors.As(err, &gemErrPtr):
		code, status = gemErrPtr.Code, gemErrPtr.Status
	case errors.As(err, &oaiErr):
		code = oaiErr.StatusCode
	default:
		return "", false
	}

	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden ||
		status == "UNAUTHENTICATED" || status == "PERMISSION_DENIED":
		return model.ErrorKindAuthFailure, true
	case code == http.StatusTooManyRequests || status == "RESOURCE_EXHAUSTED":
		return model.ErrorKindQuotaExceeded, true
	}
	return "", false
}

// Message returns the user-facing text for a failure kind.
func Message(kind model.ErrorKind, op Operation, err error) string {
	switch kind {
	case model.ErrorKindAuthFailure:
		return "The API key is not valid. Please check your environment configuration."
	case model.ErrorKindQuotaExceeded:
		return fmt.Sprintf("API quota exceeded for %s generation. Please try again later or check your plan.", op)
	case model.ErrorKindContentFiltered:
		return "The image prompt was filtered due to safety policies. Please try a different prompt."
	case model.ErrorKindMalformedResponse:
		return "Image generation did not return an image. The response might be empty or malformed."
	}

	detail := "unknown error"
	if err != nil {
		detail = err.Error()
	}
	return fmt.Sprintf("Error generating %s: %s", op, detail)
}
