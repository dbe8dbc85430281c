package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/energye/systray"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/supacortex/desktop/internal/activity"
	"github.com/supacortex/desktop/internal/config"
	"github.com/supacortex/desktop/internal/events"
	"github.com/supacortex/desktop/internal/httputil"
	"github.com/supacortex/desktop/internal/proxy"
	"github.com/supacortex/desktop/internal/sse"
	"github.com/supacortex/desktop/internal/updater"
	"github.com/supacortex/desktop/internal/view"
)

// App is bound to the front-end. Its exported methods are the commands the
// UI can invoke.
type App struct {
	ctx   context.Context // Wails runtime context, set in startup
	ready chan struct{}   // closed when Wails startup completes

	cfg     config.Config
	log     *slog.Logger
	ui      *events.WailsSink
	host    *view.WailsHost
	views   *view.Manager
	stream  *sse.Handle
	fetch   *http.Client
	updates *updater.Updater
	journal *activity.Store

	quitting atomic.Bool

	// bg outlives individual commands; shutdown cancels it.
	bg     context.Context
	cancel context.CancelFunc
}

func newApp(cfg config.Config, log *slog.Logger, ui *events.WailsSink, sink events.Sink) *App {
	bg, cancel := context.WithCancel(context.Background())
	host := view.NewWailsHost(log)

	listener := sse.NewListener(httputil.NewStreamClient(), sink, log, sse.Options{
		ReconnectDelay: cfg.Listener.ReconnectDelay(),
		BadStatusDelay: cfg.Listener.BadStatusDelay(),
		MaxFrameBytes:  cfg.Listener.MaxFrameBytes,
	})

	return &App{
		ready:  make(chan struct{}),
		cfg:    cfg,
		log:    log,
		ui:     ui,
		host:   host,
		views:  view.NewManager(host),
		stream: sse.NewHandle(bg, listener),
		fetch:  httputil.NewClient(cfg.Proxy.Timeout()),
		updates: updater.New(nil, sink, log, updater.Options{
			ManifestURL:    cfg.Updates.ManifestURL,
			CurrentVersion: version,
			StartupDelay:   cfg.Updates.StartupDelay(),
		}),
		bg:     bg,
		cancel: cancel,
	}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	a.ui.Bind(ctx)
	a.host.Attach(ctx)

	if a.cfg.UI.URL != "" {
		wailsRuntime.WindowExecJS(ctx, fmt.Sprintf("window.location.href = %q;", a.cfg.UI.URL))
	}

	buildType := wailsRuntime.Environment(ctx).BuildType
	if a.cfg.Updates.ShouldRun(buildType) {
		go a.updates.Run(a.bg)
	} else {
		a.log.Debug("update check skipped", "build", buildType)
	}

	// systray wants the main thread on macOS, which Wails already owns.
	if runtime.GOOS != "darwin" {
		go runTray(a)
	}
	close(a.ready)
}

func (a *App) shutdown(ctx context.Context) {
	a.stream.Close()
	a.cancel()
	a.ui.Bind(nil)
	a.host.Detach()
}

// beforeClose intercepts the window close event. Shift+close exits fully;
// normal close hides to tray.
func (a *App) beforeClose(ctx context.Context) bool {
	if a.quitting.Load() || runtime.GOOS == "darwin" || isShiftHeld() {
		return false
	}
	wailsRuntime.WindowHide(a.ctx)
	return true
}

func (a *App) ShowWindow() {
	<-a.ready
	wailsRuntime.WindowUnminimise(a.ctx)
	wailsRuntime.WindowShow(a.ctx)
}

func (a *App) quit() {
	a.quitting.Store(true)
	systray.Quit()
	if a.ctx != nil {
		wailsRuntime.Quit(a.ctx)
		return
	}
	os.Exit(0)
}

// OpenWebview shows the view called label at the given bounds, creating it
// from url when it does not exist yet.
func (a *App) OpenWebview(url, label string, x, y, width, height float64) error {
	return a.views.Open(url, label, x, y, width, height)
}

// ListWebviews returns the labels of the open secondary views, sorted. The
// front-end uses it to rebuild its surfaces after a reload.
func (a *App) ListWebviews() []string {
	return a.host.Labels()
}

func (a *App) CloseWebview(label string) error {
	return a.views.Close(label)
}

func (a *App) ResizeWebview(label string, x, y, width, height float64) error {
	return a.views.Resize(label, x, y, width, height)
}

// ProxyFetch performs an HTTP request on behalf of embedded content and
// returns {"status":N,"body":"..."} as JSON. Error statuses are returned,
// not raised.
func (a *App) ProxyFetch(url, method string, body *string, headers map[string]string) (string, error) {
	resp, err := proxy.Fetch(a.bg, a.fetch, proxy.Request{
		URL:     url,
		Method:  method,
		Body:    body,
		Headers: headers,
	})
	if err != nil {
		return "", err
	}
	return resp.JSON()
}

// StartOpencodeListener replaces any running stream listener with one for
// url. It returns as soon as the listener is scheduled.
func (a *App) StartOpencodeListener(url string) error {
	if err := a.stream.Start(url); err != nil {
		return err
	}
	a.log.Info("stream listener started", "url", url)
	return nil
}

// StopOpencodeListener stops the stream listener. It is a no-op when idle.
func (a *App) StopOpencodeListener() error {
	if a.stream.Running() {
		a.log.Info("stream listener stopped")
	}
	a.stream.Stop()
	return nil
}

// ListenerStatus is the stream handle state plus how many stream errors the
// journal saw in the last hour.
type ListenerStatus struct {
	sse.Status
	RecentErrors int `json:"recentErrors"`
}

func (a *App) OpencodeListenerStatus() ListenerStatus {
	st := ListenerStatus{Status: a.stream.Status()}
	if a.journal != nil {
		n, err := a.journal.CountSince(events.StreamError, time.Now().Add(-time.Hour))
		if err != nil {
			a.log.Warn("journal: count errors", "error", err)
		}
		st.RecentErrors = n
	}
	return st
}

// RecentActivity returns up to limit journal entries, newest first. It
// returns nothing when the journal is disabled.
func (a *App) RecentActivity(limit int) ([]activity.Entry, error) {
	if a.journal == nil {
		return []activity.Entry{}, nil
	}
	if limit <= 0 {
		limit = 50
	}
	return a.journal.Recent(limit)
}

// ClearActivity empties the journal. It is a no-op when the journal is
// disabled.
func (a *App) ClearActivity() error {
	if a.journal == nil {
		return nil
	}
	if err := a.journal.Clear(); err != nil {
		return fmt.Errorf("activity: clear: %w", err)
	}
	a.log.Info("activity journal cleared", "path", a.journal.Path())
	return nil
}

// CheckForUpdate reports a newer release, or nil when up to date. It does
// not install anything.
func (a *App) CheckForUpdate() (*updater.Release, error) {
	return a.updates.Check(a.bg)
}
