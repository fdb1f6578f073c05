package dbl

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrTokenMissing is returned by New when the API token is blank.
var ErrTokenMissing = errors.New("dbl: API token is required")

// ErrInvalidWebhook is returned by Webhook.Validate.
var ErrInvalidWebhook = errors.New("dbl: invalid webhook payload")

const maxErrorBodyBytes = 512

// RatelimitError is returned when the API answers 429 Too Many Requests.
// The client never retries on its own; callers wait RetryAfter seconds.
type RatelimitError struct {
	RetryAfter uint32
}

func (e *RatelimitError) Error() string {
	return fmt.Sprintf("ratelimit reached, retry after: %d", e.RetryAfter)
}

// Duration converts RetryAfter to a time.Duration.
func (e *RatelimitError) Duration() time.Duration {
	return time.Duration(e.RetryAfter) * time.Second
}

// HTTPError covers transport failures (StatusCode 0), non-2xx responses and
// undecodable bodies.
type HTTPError struct {
	StatusCode int
	Body       []byte
	Err        error
}

func (e *HTTPError) Error() string {
	var b strings.Builder
	b.WriteString("dbl: ")
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, "http status %d", e.StatusCode)
		if text := http.StatusText(e.StatusCode); text != "" {
			b.WriteString(" " + text)
		}
	} else {
		b.WriteString("request failed")
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	if snippet := strings.TrimSpace(string(e.Body)); snippet != "" && e.Err == nil {
		b.WriteString(": " + snippet)
	}
	return b.String()
}

func (e *HTTPError) Unwrap() error { return e.Err }

// IsRatelimit reports whether err is, or wraps, a *RatelimitError.
func IsRatelimit(err error) bool {
	var rl *RatelimitError
	return errors.As(err, &rl)
}

// StatusCode extracts the HTTP status behind err. Transport and URL failures
// have no status.
func StatusCode(err error) (int, bool) {
	var rl *RatelimitError
	if errors.As(err, &rl) {
		return http.StatusTooManyRequests, true
	}
	var he *HTTPError
	if errors.As(err, &he) && he.StatusCode > 0 {
		return he.StatusCode, true
	}
	return 0, false
}

func bodySnippet(body []byte) []byte {
	if len(body) > maxErrorBodyBytes {
		body = body[:maxErrorBodyBytes]
	}
	return append([]byte(nil), body...)
}
