package httputil

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds one-shot requests (proxying, update manifests).
const DefaultTimeout = 30 * time.Second

// Client is a shared HTTP client with a 30-second timeout, used by one-shot
// callers to avoid indefinite hangs on unresponsive servers.
var Client = NewClient(DefaultTimeout)

// NewClient returns a client with the given overall timeout. A zero timeout
// means no limit, which is what long-lived streams need.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// NewStreamClient returns a client suitable for unbounded response bodies
// such as event streams. Cancellation comes from the request context.
func NewStreamClient() *http.Client {
	return &http.Client{}
}

// IsSuccess reports whether code is a 2xx status.
func IsSuccess(code int) bool {
	return code >= 200 && code < 300
}

// CheckStatus returns an error if the response status code is not 2xx.
// The prefix is included in the error message for context (e.g. "updater: manifest").
func CheckStatus(resp *http.Response, prefix string) error {
	if !IsSuccess(resp.StatusCode) {
		return fmt.Errorf("%s returned %d: %s", prefix, resp.StatusCode, ReadSnippet(resp.Body))
	}
	return nil
}

// ReadSnippet reads up to 200 bytes from r for inclusion in error messages.
func ReadSnippet(r io.Reader) string {
	buf := make([]byte, 200)
	n, _ := io.ReadFull(r, buf)
	if n == 0 {
		return "(empty body)"
	}
	s := string(buf[:n])
	if n == 200 {
		s += "..."
	}
	return s
}
