package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/supacortex/desktop/internal/activity"
	"github.com/supacortex/desktop/internal/config"
	"github.com/supacortex/desktop/internal/events"
	"github.com/supacortex/desktop/internal/mqtt"
	"github.com/supacortex/desktop/internal/paths"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	configPath := ""
	logJSON := false
	debug := false

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config", "-c":
			if i+1 < len(args) {
				configPath = args[i+1]
				i++
			} else {
				fmt.Fprintf(os.Stderr, "Error: --config requires a file path\n")
				os.Exit(1)
			}
		case "--log-json":
			logJSON = true
		case "--debug":
			debug = true
		case "--version", "-V":
			fmt.Printf("supacortex %s (%s) %s/%s\n", version, buildDate, runtime.GOOS, runtime.GOARCH)
			return
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "supacortex: %v\n", err)
		os.Exit(1)
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "supacortex: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(logJSON, debug)
	ui := events.NewWailsSink(log)
	sinks := []events.Sink{ui}

	if cfg.Journal.Enabled {
		journal, err := openJournal(cfg.Journal, log)
		if err != nil {
			log.Warn("activity journal disabled", "error", err)
		} else {
			defer journal.Close()
			sinks = append(sinks, journal)
		}
	}

	if cfg.Mirror.Broker != "" {
		mirror, err := mqtt.NewSink(cfg.Mirror, log)
		if err != nil {
			log.Warn("event mirror disabled", "broker", cfg.Mirror.Broker, "error", err)
		} else {
			defer mirror.Close()
			sinks = append(sinks, mirror)
		}
	}

	app := newApp(cfg, log, ui, events.Multi(sinks...))
	app.journal = journalOf(sinks)

	// The bundled page is a placeholder; startup navigates to ui.url when set.
	loader := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html><html><body style="background:#1a1b26"></body></html>`))
	})

	err = wails.Run(&options.App{
		Title:     "supacortex",
		Width:     1280,
		Height:    820,
		MinWidth:  800,
		MinHeight: 600,
		AssetServer: &assetserver.Options{
			Handler: loader,
		},
		BackgroundColour: &options.RGBA{R: 26, G: 27, B: 38, A: 255}, // #1a1b26
		OnStartup:        app.startup,
		OnShutdown:       app.shutdown,
		OnBeforeClose:    app.beforeClose,
		Bind:             []interface{}{app},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "supacortex: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(asJSON, debug bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
	}
	if asJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// openJournal opens the activity database and prunes rows past retention.
// Stream frames are high volume and only journaled when asked for.
func openJournal(cfg config.Journal, log *slog.Logger) (*activity.Store, error) {
	path := cfg.Path
	if path == "" {
		path = paths.JournalPath()
	}
	var exclude []string
	if !cfg.IncludeStreamEvents {
		exclude = append(exclude, events.StreamEvent)
	}
	store, err := activity.NewStore(path, log, exclude...)
	if err != nil {
		return nil, err
	}
	log.Info("activity journal opened", "path", store.Path())
	if n, err := store.Clean(cfg.RetentionDays); err != nil {
		log.Warn("journal cleanup failed", "error", err)
	} else if n > 0 {
		log.Info("journal cleaned", "removed", n, "retention_days", cfg.RetentionDays)
	}
	return store, nil
}

func journalOf(sinks []events.Sink) *activity.Store {
	for _, s := range sinks {
		if j, ok := s.(*activity.Store); ok {
			return j
		}
	}
	return nil
}
