// Package view manages secondary web views embedded next to the main
// window. The windowing host owns the views; Manager only decides whether
// to create, update or destroy one.
package view

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/supacortex/desktop/internal/apperr"
)

// Rect is a position and size in logical pixels, relative to the main
// window's content area.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Descriptor describes one secondary view.
type Descriptor struct {
	Label   string `json:"label"`
	URL     string `json:"url"`
	Bounds  Rect   `json:"bounds"`
	Focused bool   `json:"focused"`
}

// View is a live secondary view.
type View interface {
	Bounds() Rect
	SetPosition(x, y float64) error
	SetSize(width, height float64) error
	SetFocus() error
	Close() error
}

// Host is the windowing system. AddChild returns an error wrapping
// apperr.ErrNotFound when the main window does not exist yet.
type Host interface {
	Lookup(label string) (View, bool)
	AddChild(d Descriptor) error
}

// Manager implements open/close/resize on top of a Host.
type Manager struct {
	host Host
}

func NewManager(host Host) *Manager {
	return &Manager{host: host}
}

// Open repositions, resizes and focuses the view called label if it
// exists. Otherwise it validates rawURL and creates the view.
func (m *Manager) Open(rawURL, label string, x, y, width, height float64) error {
	if v, ok := m.host.Lookup(label); ok {
		if err := v.SetPosition(x, y); err != nil {
			return platformErr("open", label, err)
		}
		if err := v.SetSize(width, height); err != nil {
			return platformErr("open", label, err)
		}
		if err := v.SetFocus(); err != nil {
			return platformErr("open", label, err)
		}
		return nil
	}

	u, err := ParseURL(rawURL)
	if err != nil {
		return fmt.Errorf("view: open %q: %w", label, err)
	}

	err = m.host.AddChild(Descriptor{
		Label:  label,
		URL:    u.String(),
		Bounds: Rect{X: x, Y: y, Width: width, Height: height},
	})
	if errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("view: open %q: %w", label, err)
	}
	if err != nil {
		return platformErr("open", label, err)
	}
	return nil
}

// Close destroys the view called label. Unknown labels are not an error.
func (m *Manager) Close(label string) error {
	v, ok := m.host.Lookup(label)
	if !ok {
		return nil
	}
	if err := v.Close(); err != nil {
		return platformErr("close", label, err)
	}
	return nil
}

// Resize moves and resizes the view called label. Unknown labels are not
// an error. If the size cannot be applied the previous position is
// restored, so the caller sees both changes or neither.
func (m *Manager) Resize(label string, x, y, width, height float64) error {
	v, ok := m.host.Lookup(label)
	if !ok {
		return nil
	}
	prev := v.Bounds()
	if err := v.SetPosition(x, y); err != nil {
		return platformErr("resize", label, err)
	}
	if err := v.SetSize(width, height); err != nil {
		v.SetPosition(prev.X, prev.Y)
		return platformErr("resize", label, err)
	}
	return nil
}

// ParseURL accepts absolute URLs only. http and https need a host.
func ParseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("%w: %q is not an absolute URL", apperr.ErrInvalidInput, raw)
	}
	if (u.Scheme == "http" || u.Scheme == "https") && u.Host == "" {
		return nil, fmt.Errorf("%w: %q has no host", apperr.ErrInvalidInput, raw)
	}
	return u, nil
}

func platformErr(op, label string, err error) error {
	return fmt.Errorf("view: %s %q: %w: %w", op, label, apperr.ErrPlatform, err)
}
