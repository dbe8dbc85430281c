package events

import (
	"context"
	"log/slog"
	"sync"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// WailsSink emits events to the front-end through the Wails runtime. It is
// created before the window exists and bound to the runtime context in
// OnStartup; events published while unbound are dropped.
type WailsSink struct {
	mu   sync.RWMutex
	ctx  context.Context
	log  *slog.Logger
	emit func(ctx context.Context, name string, data ...interface{})
}

// NewWailsSink returns an unbound sink.
func NewWailsSink(log *slog.Logger) *WailsSink {
	return &WailsSink{log: log, emit: wailsRuntime.EventsEmit}
}

// Bind attaches the Wails runtime context. Passing nil unbinds.
func (s *WailsSink) Bind(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
}

func (s *WailsSink) Publish(kind string, payload any) {
	s.mu.RLock()
	ctx := s.ctx
	s.mu.RUnlock()
	if ctx == nil {
		s.log.Debug("event dropped before window startup", "kind", kind)
		return
	}
	if payload == nil {
		s.emit(ctx, kind)
		return
	}
	s.emit(ctx, kind, payload)
}
