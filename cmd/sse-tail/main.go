// Command sse-tail runs the desktop app's event stream listener headless
// and prints every event to stdout, one per line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/term"

	"github.com/supacortex/desktop/internal/config"
	"github.com/supacortex/desktop/internal/events"
	"github.com/supacortex/desktop/internal/httputil"
	"github.com/supacortex/desktop/internal/sse"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	configPath := ""
	asJSON := false
	url := ""

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config", "-c":
			if i+1 >= len(args) {
				fmt.Fprintf(stderr, "Error: --config requires a file path\n")
				return 2
			}
			configPath = args[i+1]
			i++
		case "--json":
			asJSON = true
		case "help", "-h", "--help":
			printUsage(stdout)
			return 0
		default:
			if url != "" {
				fmt.Fprintf(stderr, "Error: unexpected argument %q\n", args[i])
				return 2
			}
			url = args[i]
		}
	}
	if url == "" {
		printUsage(stderr)
		return 2
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "sse-tail: %v\n", err)
		return 1
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(stderr, "sse-tail: %v\n", err)
		return 1
	}

	log := newLogger(stderr)
	out := &printer{w: stdout, json: asJSON}
	l := sse.NewListener(httputil.NewStreamClient(), out, log, sse.Options{
		ReconnectDelay: cfg.Listener.ReconnectDelay(),
		BadStatusDelay: cfg.Listener.BadStatusDelay(),
		MaxFrameBytes:  cfg.Listener.MaxFrameBytes,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := sse.NewHandle(ctx, l)
	if err := h.Start(url); err != nil {
		fmt.Fprintf(stderr, "sse-tail: %v\n", err)
		return 2
	}
	<-ctx.Done()
	h.Close()
	return 0
}

// newLogger writes human-readable logs to a terminal and JSON otherwise.
func newLogger(w io.Writer) *slog.Logger {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return slog.New(slog.NewTextHandler(w, nil))
	}
	return slog.New(slog.NewJSONHandler(w, nil))
}

// printer is an events.Sink writing one line per event.
type printer struct {
	mu   sync.Mutex
	w    io.Writer
	json bool
}

var _ events.Sink = (*printer)(nil)

func (p *printer) Publish(kind string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.json {
		b, _ := json.Marshal(struct {
			Kind    string `json:"kind"`
			Payload any    `json:"payload"`
		}{kind, payload})
		fmt.Fprintf(p.w, "%s\n", b)
		return
	}
	if kind == events.StreamError {
		fmt.Fprintf(p.w, "! %v\n", payload)
		return
	}
	fmt.Fprintf(p.w, "%v\n", payload)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `sse-tail - Print events from a Server-Sent-Events endpoint

Usage:
  sse-tail [options] <url>

Options:
  --config, -c <path>   Path to supacortex-config.json (listener settings)
  --json                Print one JSON object per event

The listener reconnects on failure until interrupted.`)
}
