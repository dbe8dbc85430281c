// Package proxy issues HTTP requests on behalf of embedded web content,
// which cannot reach plain-http endpoints from a secure page itself.
package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/supacortex/desktop/internal/apperr"
)

// Request is one proxied call. Body and Headers are optional.
type Request struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Body    *string           `json:"body,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// Response is the envelope returned to the caller for every completed
// exchange, whatever its status code.
type Response struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

// JSON encodes the envelope as the string handed back to the front-end.
func (r Response) JSON() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("proxy: encode response: %w", err)
	}
	return string(b), nil
}

var knownMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// NormalizeMethod upper-cases m and maps anything unrecognised to GET.
func NormalizeMethod(m string) string {
	up := strings.ToUpper(strings.TrimSpace(m))
	if knownMethods[up] {
		return up
	}
	return http.MethodGet
}

// Fetch performs req with client and reads the whole response body.
// Non-2xx statuses are returned as ordinary responses; only transport
// failures are errors.
func Fetch(ctx context.Context, client *http.Client, req Request) (Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = strings.NewReader(*req.Body)
	}

	hr, err := http.NewRequestWithContext(ctx, NormalizeMethod(req.Method), req.URL, body)
	if err != nil {
		return Response{}, fmt.Errorf("proxy: new request: %w: %w", apperr.ErrInvalidInput, err)
	}
	for k, v := range req.Headers {
		hr.Header.Set(k, v)
	}

	resp, err := client.Do(hr)
	if err != nil {
		return Response{}, fmt.Errorf("proxy: %s %s: %w: %w", hr.Method, req.URL, apperr.ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("proxy: read body: %w: %w", apperr.ErrNetwork, err)
	}
	return Response{Status: resp.StatusCode, Body: string(data)}, nil
}
