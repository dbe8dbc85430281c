// Package events is the UI-bound notification channel. The core publishes
// through Sink and never depends on how (or whether) anything listens.
package events

// Event names understood by the front-end.
const (
	StreamEvent      = "opencode-sse-event"
	StreamError      = "opencode-sse-error"
	UpdateAvailable  = "update-available"
	UpdateDownloaded = "update-downloaded"
)

// Sink publishes fire-and-forget notifications. Implementations must be
// safe for concurrent use and must not block for long.
type Sink interface {
	Publish(kind string, payload any)
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(kind string, payload any)

func (f SinkFunc) Publish(kind string, payload any) { f(kind, payload) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(string, any) {})

// Multi fans one event out to every sink in order. Nil sinks are skipped.
func Multi(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type multi []Sink

func (m multi) Publish(kind string, payload any) {
	for _, s := range m {
		s.Publish(kind, payload)
	}
}
