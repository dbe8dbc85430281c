package sse

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/supacortex/desktop/internal/apperr"
)

// Status is a snapshot of the handle, shaped for the front-end.
type Status struct {
	Running   bool   `json:"running"`
	URL       string `json:"url,omitempty"`
	State     string `json:"state"`
	LastError string `json:"lastError,omitempty"`
}

// Handle owns the single active listener run. Start retires the previous
// run before installing its own; a run that exits only clears the slot if
// it still owns it, identified by its generation number.
type Handle struct {
	parent   context.Context
	listener *Listener

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	url     string
	state   State
	lastErr string
	closed  bool
	wg      sync.WaitGroup
}

// ErrClosed is returned by Start after Close.
var ErrClosed = errors.New("sse: handle closed")

// NewHandle returns an idle handle. Runs derive their context from parent,
// so cancelling parent stops whatever is running.
func NewHandle(parent context.Context, l *Listener) *Handle {
	return &Handle{parent: parent, listener: l}
}

// Start cancels any running listener and schedules a new one for rawURL.
// It returns once the run is scheduled, not once it has connected.
func (h *Handle) Start(rawURL string) error {
	if err := checkStreamURL(rawURL); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}
	if h.cancel != nil {
		h.cancel()
	}
	h.gen++
	gen := h.gen
	ctx, cancel := context.WithCancel(h.parent)
	h.cancel = cancel
	h.url = rawURL
	h.state = StateConnecting
	h.lastErr = ""

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer h.release(gen, cancel)
		h.listener.run(ctx, rawURL, func(s State, err error) { h.report(gen, s, err) })
	}()
	return nil
}

// Restart starts the last URL again. It reports false when nothing was
// ever started.
func (h *Handle) Restart() (bool, error) {
	h.mu.Lock()
	u := h.url
	h.mu.Unlock()
	if u == "" {
		return false, nil
	}
	return true, h.Start(u)
}

// Stop signals the current run, if any, and returns without waiting for
// it to finish.
func (h *Handle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// Running reports whether a run currently owns the slot.
func (h *Handle) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancel != nil
}

// Status returns a snapshot of the current run.
func (h *Handle) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Status{
		Running:   h.cancel != nil,
		URL:       h.url,
		State:     h.state.String(),
		LastError: h.lastErr,
	}
}

// Close stops the current run and waits for every run started through the
// handle to exit. Later calls to Start fail with ErrClosed.
func (h *Handle) Close() {
	h.mu.Lock()
	h.closed = true
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	h.mu.Unlock()
	h.wg.Wait()
}

func (h *Handle) report(gen uint64, s State, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if gen != h.gen {
		return
	}
	h.state = s
	if err != nil {
		h.lastErr = err.Error()
	}
}

func (h *Handle) release(gen uint64, cancel context.CancelFunc) {
	cancel()
	h.mu.Lock()
	defer h.mu.Unlock()
	if gen == h.gen {
		h.cancel = nil
	}
}

func checkStreamURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("sse: start: %w: %w", apperr.ErrInvalidInput, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("sse: start: %w: %q is not an http(s) URL", apperr.ErrInvalidInput, raw)
	}
	return nil
}
