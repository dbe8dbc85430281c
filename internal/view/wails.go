package view

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/supacortex/desktop/internal/apperr"
)

// Front-end events driving the child surfaces. Wails v2 gives each window
// a single native webview, so the front-end renders children from these.
const (
	EventOpen   = "webview:open"
	EventUpdate = "webview:update"
	EventClose  = "webview:close"
)

// WailsHost keeps the registry of secondary views for the Wails main
// window. It is usable only between Attach (OnStartup) and Detach
// (OnShutdown); before that the main window does not exist.
type WailsHost struct {
	mu    sync.Mutex
	ctx   context.Context
	views map[string]*wailsView
	log   *slog.Logger

	emit func(ctx context.Context, name string, data ...interface{})
	show func(ctx context.Context)
}

func NewWailsHost(log *slog.Logger) *WailsHost {
	return &WailsHost{
		views: make(map[string]*wailsView),
		log:   log,
		emit:  wailsRuntime.EventsEmit,
		show: func(ctx context.Context) {
			wailsRuntime.WindowUnminimise(ctx)
			wailsRuntime.WindowShow(ctx)
		},
	}
}

// Attach binds the host to the Wails runtime context of the main window.
func (h *WailsHost) Attach(ctx context.Context) {
	h.mu.Lock()
	h.ctx = ctx
	h.mu.Unlock()
}

// Detach forgets the main window and every child view.
func (h *WailsHost) Detach() {
	h.mu.Lock()
	h.ctx = nil
	h.views = make(map[string]*wailsView)
	h.mu.Unlock()
}

// Labels returns the labels of all open views in sorted order.
func (h *WailsHost) Labels() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.views))
	for l := range h.views {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

func (h *WailsHost) Lookup(label string) (View, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.views[label]
	if !ok {
		return nil, false
	}
	return v, true
}

func (h *WailsHost) AddChild(d Descriptor) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ctx == nil {
		return fmt.Errorf("main window: %w", apperr.ErrNotFound)
	}
	if _, exists := h.views[d.Label]; exists {
		return fmt.Errorf("view %q already exists", d.Label)
	}
	v := &wailsView{host: h, desc: d}
	h.views[d.Label] = v
	h.emit(h.ctx, EventOpen, d)
	h.log.Debug("webview opened", "label", d.Label, "url", d.URL)
	return nil
}

type wailsView struct {
	host *WailsHost
	desc Descriptor
}

// update applies fn under the host lock and pushes the new descriptor.
func (v *wailsView) update(fn func(d *Descriptor)) error {
	h := v.host
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ctx == nil {
		return fmt.Errorf("main window: %w", apperr.ErrNotFound)
	}
	if h.views[v.desc.Label] != v {
		return fmt.Errorf("view %q is closed", v.desc.Label)
	}
	fn(&v.desc)
	h.emit(h.ctx, EventUpdate, v.desc)
	return nil
}

func (v *wailsView) Bounds() Rect {
	v.host.mu.Lock()
	defer v.host.mu.Unlock()
	return v.desc.Bounds
}

func (v *wailsView) SetPosition(x, y float64) error {
	return v.update(func(d *Descriptor) { d.Bounds.X, d.Bounds.Y = x, y })
}

func (v *wailsView) SetSize(width, height float64) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("negative size %gx%g", width, height)
	}
	return v.update(func(d *Descriptor) { d.Bounds.Width, d.Bounds.Height = width, height })
}

func (v *wailsView) SetFocus() error {
	h := v.host
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ctx == nil {
		return fmt.Errorf("main window: %w", apperr.ErrNotFound)
	}
	for _, other := range h.views {
		other.desc.Focused = other == v
	}
	h.show(h.ctx)
	h.emit(h.ctx, EventUpdate, v.desc)
	return nil
}

func (v *wailsView) Close() error {
	h := v.host
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.views[v.desc.Label] != v {
		return nil
	}
	delete(h.views, v.desc.Label)
	if h.ctx != nil {
		h.emit(h.ctx, EventClose, v.desc)
	}
	h.log.Debug("webview closed", "label", v.desc.Label)
	return nil
}
