package view

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/supacortex/desktop/internal/apperr"
)

type emission struct {
	name string
	desc Descriptor
}

// testHost returns an attached WailsHost that records emissions instead of
// talking to a real window.
func testHost(t *testing.T) (*WailsHost, *[]emission, *int) {
	t.Helper()
	var emitted []emission
	shows := 0
	h := NewWailsHost(slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.emit = func(_ context.Context, name string, data ...interface{}) {
		d, _ := data[0].(Descriptor)
		emitted = append(emitted, emission{name, d})
	}
	h.show = func(context.Context) { shows++ }
	h.Attach(context.Background())
	return h, &emitted, &shows
}

func TestOpenCreatesView(t *testing.T) {
	h, emitted, _ := testHost(t)
	m := NewManager(h)

	if err := m.Open("https://example.com/a", "reader-1", 10, 20, 300, 400); err != nil {
		t.Fatalf("Open: %v", err)
	}
	v, ok := h.Lookup("reader-1")
	if !ok {
		t.Fatal("view not registered")
	}
	if got := v.Bounds(); got != (Rect{10, 20, 300, 400}) {
		t.Errorf("Bounds = %+v", got)
	}
	if len(*emitted) != 1 || (*emitted)[0].name != EventOpen {
		t.Fatalf("emitted = %+v", *emitted)
	}
	if (*emitted)[0].desc.URL != "https://example.com/a" {
		t.Errorf("URL = %q", (*emitted)[0].desc.URL)
	}
}

func TestOpenTwiceRepositionsAndFocuses(t *testing.T) {
	h, _, shows := testHost(t)
	m := NewManager(h)

	if err := m.Open("https://example.com/a", "r", 0, 0, 100, 100); err != nil {
		t.Fatalf("first Open: %v", err)
	}
	// Second call ignores the URL entirely, even a malformed one.
	if err := m.Open("::bad::", "r", 50, 60, 200, 250); err != nil {
		t.Fatalf("second Open: %v", err)
	}

	if labels := h.Labels(); len(labels) != 1 {
		t.Fatalf("labels = %v, want exactly one view", labels)
	}
	v, _ := h.Lookup("r")
	if got := v.Bounds(); got != (Rect{50, 60, 200, 250}) {
		t.Errorf("Bounds = %+v, want second call's coordinates", got)
	}
	if !v.(*wailsView).desc.Focused {
		t.Error("view should be focused")
	}
	if *shows != 1 {
		t.Errorf("window shown %d times, want 1", *shows)
	}
}

func TestFocusMovesBetweenViews(t *testing.T) {
	h, _, _ := testHost(t)
	m := NewManager(h)
	m.Open("https://example.com/a", "a", 0, 0, 1, 1)
	m.Open("https://example.com/b", "b", 0, 0, 1, 1)

	m.Open("", "a", 0, 0, 1, 1)
	m.Open("", "b", 0, 0, 1, 1)

	a, _ := h.Lookup("a")
	b, _ := h.Lookup("b")
	if a.(*wailsView).desc.Focused || !b.(*wailsView).desc.Focused {
		t.Error("focus should belong to b only")
	}
}

func TestOpenInvalidURL(t *testing.T) {
	h, emitted, _ := testHost(t)
	m := NewManager(h)

	for _, u := range []string{"", "relative/path", "https://", "http://%zz"} {
		err := m.Open(u, "x", 0, 0, 1, 1)
		if !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("Open(%q) = %v, want ErrInvalidInput", u, err)
		}
	}
	if len(*emitted) != 0 {
		t.Errorf("invalid opens emitted %+v", *emitted)
	}
}

func TestOpenWithoutMainWindow(t *testing.T) {
	h := NewWailsHost(slog.New(slog.NewTextHandler(io.Discard, nil)))
	m := NewManager(h)

	err := m.Open("https://example.com", "x", 0, 0, 1, 1)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if errors.Is(err, apperr.ErrPlatform) {
		t.Error("missing window should not be reported as a platform error")
	}
}

func TestCloseUnknownIsNoop(t *testing.T) {
	h, emitted, _ := testHost(t)
	if err := NewManager(h).Close("nope"); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(*emitted) != 0 {
		t.Errorf("emitted %+v", *emitted)
	}
}

func TestCloseDestroysView(t *testing.T) {
	h, emitted, _ := testHost(t)
	m := NewManager(h)
	m.Open("https://example.com", "x", 0, 0, 1, 1)

	if err := m.Close("x"); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, ok := h.Lookup("x"); ok {
		t.Error("view still registered after Close")
	}
	last := (*emitted)[len(*emitted)-1]
	if last.name != EventClose || last.desc.Label != "x" {
		t.Errorf("last emission = %+v", last)
	}

	// Reopening after close creates a fresh view.
	if err := m.Open("https://example.com/2", "x", 1, 1, 2, 2); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if (*emitted)[len(*emitted)-1].name != EventOpen {
		t.Error("reopen should emit open")
	}
}

func TestResize(t *testing.T) {
	h, _, _ := testHost(t)
	m := NewManager(h)

	if err := m.Resize("missing", 1, 2, 3, 4); err != nil {
		t.Fatalf("Resize unknown: %v", err)
	}

	m.Open("https://example.com", "x", 0, 0, 10, 10)
	if err := m.Resize("x", 5, 6, 70, 80); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	v, _ := h.Lookup("x")
	if got := v.Bounds(); got != (Rect{5, 6, 70, 80}) {
		t.Errorf("Bounds = %+v", got)
	}
}

func TestResizeRollsBackPositionOnSizeFailure(t *testing.T) {
	h, _, _ := testHost(t)
	m := NewManager(h)
	m.Open("https://example.com", "x", 1, 2, 10, 10)

	err := m.Resize("x", 50, 60, -1, 10)
	if !errors.Is(err, apperr.ErrPlatform) {
		t.Fatalf("err = %v, want ErrPlatform", err)
	}
	v, _ := h.Lookup("x")
	if got := v.Bounds(); got != (Rect{1, 2, 10, 10}) {
		t.Errorf("Bounds = %+v, want unchanged", got)
	}
}

func TestDetachDropsViews(t *testing.T) {
	h, _, _ := testHost(t)
	m := NewManager(h)
	m.Open("https://example.com", "x", 0, 0, 1, 1)
	v, _ := h.Lookup("x")

	h.Detach()
	if len(h.Labels()) != 0 {
		t.Error("Detach should forget views")
	}
	if err := v.SetPosition(1, 1); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("SetPosition after Detach = %v, want ErrNotFound", err)
	}
}

func TestLabelsSorted(t *testing.T) {
	h, _, _ := testHost(t)
	m := NewManager(h)
	for _, l := range []string{"c", "a", "b"} {
		m.Open("https://example.com/"+l, l, 0, 0, 1, 1)
	}
	got := h.Labels()
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("Labels = %v", got)
	}
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"https://example.com", true},
		{"http://localhost:4096/session", true},
		{"about:blank", true},
		{"file:///tmp/x.html", true},
		{"example.com", false},
		{"https://", false},
		{"", false},
	}
	for _, tt := range tests {
		_, err := ParseURL(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseURL(%q) err = %v, want ok=%v", tt.in, err, tt.ok)
		}
	}
}
