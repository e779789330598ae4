package runner

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// MaxErrorBodyChars bounds the response body kept on an HTTPError.
const MaxErrorBodyChars = 200

// Outcome is the result of one dispatched request.
// A nil Err marks a success; Latency and Tokens are only meaningful then.
type Outcome struct {
	RequestID int
	Latency   time.Duration
	Tokens    int
	Err       error
}

// Success reports whether the request completed with a success status.
func (o Outcome) Success() bool {
	return o.Err == nil
}

// Succeeded builds a successful outcome.
func Succeeded(requestID int, latency time.Duration, tokens int) Outcome {
	if tokens < 0 {
		tokens = 0
	}
	return Outcome{RequestID: requestID, Latency: latency, Tokens: tokens}
}

// Failed builds a failed outcome. A nil err is recorded as a TransportError
// without a message so the outcome still counts as a failure.
func Failed(requestID int, err error) Outcome {
	if err == nil {
		err = &TransportError{}
	}
	return Outcome{RequestID: requestID, Err: err}
}

// HTTPError represents a response with a non-success status code.
type HTTPError struct {
	StatusCode int
	Body       string
}

// NewHTTPError truncates body to MaxErrorBodyChars characters.
func NewHTTPError(statusCode int, body string) *HTTPError {
	return &HTTPError{StatusCode: statusCode, Body: truncateChars(body, MaxErrorBodyChars)}
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// TransportError covers connection failures, timeouts and malformed
// responses. It never carries a status code.
type TransportError struct {
	Message string
}

func (e *TransportError) Error() string {
	if e.Message == "" {
		return "transport error"
	}
	return e.Message
}

func truncateChars(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
