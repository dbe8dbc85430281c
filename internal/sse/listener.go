// Package sse keeps a reconnecting Server-Sent-Events subscription alive
// and republishes each decoded frame to an events.Sink.
package sse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/supacortex/desktop/internal/apperr"
	"github.com/supacortex/desktop/internal/events"
	"github.com/supacortex/desktop/internal/httputil"
)

const readChunkSize = 32 * 1024

// Options holds the fixed backoff constants of the reconnect loop.
type Options struct {
	ReconnectDelay time.Duration // after any dropped or failed attempt
	BadStatusDelay time.Duration // extra wait after a non-2xx response
	MaxFrameBytes  int           // 0 = unbounded
}

// DefaultOptions returns the stock delays: 1s to reconnect, 2s extra after
// a bad status.
func DefaultOptions() Options {
	return Options{
		ReconnectDelay: time.Second,
		BadStatusDelay: 2 * time.Second,
		MaxFrameBytes:  4 << 20,
	}
}

// State is a step of the listener state machine.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateStreaming
	StateRetrying
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateRetrying:
		return "retrying"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// StatusError reports a non-2xx response to the stream request.
type StatusError struct {
	Code    int
	Snippet string
}

func (e *StatusError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("SSE connection failed with status %d", e.Code)
	}
	return fmt.Sprintf("SSE connection failed with status %d: %s", e.Code, e.Snippet)
}

// Listener connects to one stream URL per Run and republishes frames until
// its context is cancelled. A Listener carries no per-run state, so one
// value can serve successive runs.
type Listener struct {
	client *http.Client
	sink   events.Sink
	log    *slog.Logger
	opts   Options
}

// NewListener builds a listener. A nil client gets a stream client with no
// overall timeout.
func NewListener(client *http.Client, sink events.Sink, log *slog.Logger, opts Options) *Listener {
	if client == nil {
		client = httputil.NewStreamClient()
	}
	return &Listener{client: client, sink: sink, log: log, opts: opts}
}

// Run loops connect → stream → retry until ctx is cancelled. It never
// gives up on its own.
func (l *Listener) Run(ctx context.Context, url string) {
	l.run(ctx, url, func(State, error) {})
}

func (l *Listener) run(ctx context.Context, url string, report func(State, error)) {
	log := l.log.With("url", url)
	defer report(StateStopped, nil)

	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return
		}
		report(StateConnecting, nil)
		log.Debug("connecting", "attempt", attempt)

		extra, err := l.stream(ctx, url, report)
		if ctx.Err() != nil {
			log.Debug("listener cancelled")
			return
		}
		if err != nil {
			log.Warn("event stream failed", "error", err)
			l.sink.Publish(events.StreamError, err.Error())
		} else {
			log.Info("event stream ended, reconnecting")
		}
		report(StateRetrying, err)

		if !sleep(ctx, extra+l.opts.ReconnectDelay) {
			return
		}
	}
}

// stream performs one connection attempt and reads it to completion. The
// returned duration is any extra backoff owed before the standard delay.
func (l *Listener) stream(ctx context.Context, url string, report func(State, error)) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("sse: new request: %w: %w", apperr.ErrInvalidInput, err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := l.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("sse: connect: %w: %w", apperr.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if !httputil.IsSuccess(resp.StatusCode) {
		return l.opts.BadStatusDelay, &StatusError{
			Code:    resp.StatusCode,
			Snippet: httputil.ReadSnippet(resp.Body),
		}
	}

	report(StateStreaming, nil)
	l.log.Info("event stream connected", "url", url, "status", resp.StatusCode)

	parser := NewParser(l.opts.MaxFrameBytes)
	buf := make([]byte, readChunkSize)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			frames, perr := parser.Feed(buf[:n])
			for _, f := range frames {
				// A superseded run must not publish into the new run's stream.
				if ctx.Err() != nil {
					return 0, nil
				}
				if len(f.Event) > 0 {
					l.log.Debug("frame", "event", string(f.Event), "bytes", len(f.Data))
				}
				l.sink.Publish(events.StreamEvent, string(f.Data))
			}
			if perr != nil {
				return 0, perr
			}
		}
		if errors.Is(rerr, io.EOF) {
			if n := parser.Pending(); n > 0 {
				l.log.Debug("stream ended mid-frame, discarding", "url", url, "bytes", n)
			}
			return 0, nil
		}
		if rerr != nil {
			if ctx.Err() != nil {
				return 0, nil
			}
			return 0, fmt.Errorf("sse: stream read: %w: %w", apperr.ErrNetwork, rerr)
		}
	}
}

// sleep waits for d or until ctx is done. It reports whether the full
// delay elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
