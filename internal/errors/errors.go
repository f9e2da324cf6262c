package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError is the standardized shape for every error response this service emits.
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	Details string    `json:"details,omitempty"`
	Status  int       `json:"-"`
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MarshalJSON flattens APIError so callers can embed it directly under "error".
func (e *APIError) MarshalJSON() ([]byte, error) {
	type Alias APIError
	return json.Marshal(&struct{ *Alias }{Alias: (*Alias)(e)})
}

func NotFound(resource string) *APIError {
	return &APIError{Code: ErrNotFound, Message: fmt.Sprintf("%s not found", resource), Status: http.StatusNotFound}
}

func FileNotFound() *APIError {
	return &APIError{Code: ErrFileNotFound, Message: "audio file is missing from storage", Status: http.StatusNotFound}
}

func Forbidden(message string) *APIError {
	return &APIError{Code: ErrForbidden, Message: message, Status: http.StatusForbidden}
}

func ValidationError(field, message string) *APIError {
	return &APIError{Code: ErrValidation, Message: message, Field: field, Status: http.StatusUnprocessableEntity}
}

func DecodeFailed(stderr string) *APIError {
	return &APIError{Code: ErrDecodeFailed, Message: "failed to decode audio", Details: truncate(stderr, 2000), Status: http.StatusUnprocessableEntity}
}

func AudioTooShort() *APIError {
	return &APIError{Code: ErrAudioTooShort, Message: "audio is shorter than the minimum duration", Status: http.StatusBadRequest}
}

func AudioTooLong() *APIError {
	return &APIError{Code: ErrAudioTooLong, Message: "audio exceeds the maximum duration", Status: http.StatusBadRequest}
}

func UnsupportedFormat(detail string) *APIError {
	return &APIError{Code: ErrUnsupportedFormat, Message: "unsupported or unrecognized audio format", Details: detail, Status: http.StatusBadRequest}
}

func FileTooLarge(limitBytes int64) *APIError {
	return &APIError{Code: ErrFileTooLarge, Message: fmt.Sprintf("file exceeds the %d byte limit", limitBytes), Status: http.StatusBadRequest}
}

func EmptyFile() *APIError {
	return &APIError{Code: ErrEmptyFile, Message: "uploaded file is empty", Status: http.StatusBadRequest}
}

func RateLimited(message string) *APIError {
	if message == "" {
		message = "ingestion is already in progress"
	}
	return &APIError{Code: ErrRateLimited, Message: message, Status: http.StatusTooManyRequests}
}

func ServiceUnavailable(service string) *APIError {
	return &APIError{Code: ErrServiceUnavail, Message: fmt.Sprintf("%s is temporarily unavailable", service), Status: http.StatusServiceUnavailable}
}

func SearchTimeout() *APIError {
	return &APIError{Code: ErrSearchTimeout, Message: "search exceeded its time budget", Status: http.StatusGatewayTimeout}
}

func RangeNotSatisfiable(totalSize int64) *APIError {
	return &APIError{Code: ErrRangeNotSatisfied, Message: "requested range is outside the file", Details: fmt.Sprintf("bytes */%d", totalSize), Status: http.StatusRequestedRangeNotSatisfiable}
}

func IndexWriteFailed(detail string) *APIError {
	return &APIError{Code: ErrIndexWriteFailed, Message: "failed to write to the fingerprint index", Details: detail, Status: http.StatusInternalServerError}
}

func EmbeddingUnavailable() *APIError {
	return &APIError{Code: ErrEmbeddingUnavail, Message: "embedding model is not loaded", Status: http.StatusServiceUnavailable}
}

func InternalError(message string) *APIError {
	return &APIError{Code: ErrInternalError, Message: message, Status: http.StatusInternalServerError}
}

func (e *APIError) WithDetails(details string) *APIError {
	e.Details = details
	return e
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
