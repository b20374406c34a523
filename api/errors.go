package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrDecode is returned when a response body is not a valid envelope.
var ErrDecode = errors.New("failed to parse response")

// HTTPError is returned for a non-2xx response whose body is not an envelope.
type HTTPError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("http %d: %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

// IsHTTPError reports whether err wraps an *HTTPError and returns it.
func IsHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

func parseError(statusCode int, body []byte) error {
	var simple struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &simple); err == nil && (simple.Message != "" || simple.Error != "") {
		msg := simple.Message
		if msg == "" {
			msg = simple.Error
		}
		return &HTTPError{
			StatusCode: statusCode,
			Code:       simple.Code,
			Message:    msg,
		}
	}

	msg := string(body)
	if msg == "" {
		msg = http.StatusText(statusCode)
	}
	return &HTTPError{
		StatusCode: statusCode,
		Code:       http.StatusText(statusCode),
		Message:    msg,
	}
}
