package sse

import (
	"strings"
	"testing"
)

func feedAll(t *testing.T, p *Parser, chunks ...string) []string {
	t.Helper()
	var out []string
	for _, c := range chunks {
		frames, err := p.Feed([]byte(c))
		if err != nil {
			t.Fatalf("Feed(%q): %v", c, err)
		}
		for _, f := range frames {
			out = append(out, string(f.Data))
		}
	}
	return out
}

func TestParserRechunking(t *testing.T) {
	const stream = "data: {\"a\":1}\n\n"

	check := func(chunks []string) {
		t.Helper()
		got := feedAll(t, NewParser(0), chunks...)
		if len(got) != 1 || got[0] != `{"a":1}` {
			t.Errorf("chunks %q: got %q, want one {\"a\":1}", chunks, got)
		}
	}

	check([]string{stream})

	// Every two-way split.
	for i := 0; i <= len(stream); i++ {
		check([]string{stream[:i], stream[i:]})
	}

	// Every three-way split.
	for i := 0; i <= len(stream); i++ {
		for j := i; j <= len(stream); j++ {
			check([]string{stream[:i], stream[i:j], stream[j:]})
		}
	}

	// Byte at a time.
	bytewise := make([]string, len(stream))
	for i := range stream {
		bytewise[i] = stream[i : i+1]
	}
	check(bytewise)
}

func TestParserMultipleDataLines(t *testing.T) {
	got := feedAll(t, NewParser(0), "data: foo\ndata: bar\n\n")
	if len(got) != 1 || got[0] != "foo\nbar" {
		t.Errorf("got %q, want [\"foo\\nbar\"]", got)
	}
}

func TestParserEventWithoutDataDropped(t *testing.T) {
	got := feedAll(t, NewParser(0), "event: ping\n\n")
	if len(got) != 0 {
		t.Errorf("got %q, want no frames", got)
	}
}

func TestParserKeepsPartialFrame(t *testing.T) {
	p := NewParser(0)
	got := feedAll(t, p, "data: one\n\ndata: tw")
	if len(got) != 1 || got[0] != "one" {
		t.Fatalf("got %q, want [one]", got)
	}
	if p.Pending() == 0 {
		t.Fatal("expected partial frame to stay buffered")
	}

	got = feedAll(t, p, "o\n\n")
	if len(got) != 1 || got[0] != "two" {
		t.Errorf("got %q, want [two]", got)
	}
	if p.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", p.Pending())
	}
}

func TestParserSeveralFramesInOneChunk(t *testing.T) {
	got := feedAll(t, NewParser(0), "data: a\n\nevent: x\n\ndata: b\n\n")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("got %q, want [a b]", got)
	}
}

func TestParserLineEndings(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
	}{
		{"crlf", []string{"data: x\r\n\r\n"}},
		{"cr", []string{"data: x\r\r"}},
		{"crlf split", []string{"data: x\r", "\n\r", "\n"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := feedAll(t, NewParser(0), tt.chunks...)
			if len(got) != 1 || got[0] != "x" {
				t.Errorf("got %q, want [x]", got)
			}
		})
	}
}

func TestParserFields(t *testing.T) {
	p := NewParser(0)
	frames, err := p.Feed([]byte(": keepalive\nid: 42\nevent: message.updated\nretry: 3000\ndata:{\"k\":\"v\"}\n\n"))
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	f := frames[0]
	if string(f.Data) != `{"k":"v"}` {
		t.Errorf("Data = %q", f.Data)
	}
	if string(f.Event) != "message.updated" {
		t.Errorf("Event = %q", f.Event)
	}
	if string(f.ID) != "42" {
		t.Errorf("ID = %q", f.ID)
	}
	if string(f.Retry) != "3000" {
		t.Errorf("Retry = %q", f.Retry)
	}
}

func TestParserOnlyFirstSpaceStripped(t *testing.T) {
	got := feedAll(t, NewParser(0), "data:   indented\n\n")
	if len(got) != 1 || got[0] != "  indented" {
		t.Errorf("got %q, want [\"  indented\"]", got)
	}
}

func TestParserEmptyDataLine(t *testing.T) {
	got := feedAll(t, NewParser(0), "data:\n\n")
	if len(got) != 1 || got[0] != "" {
		t.Errorf("got %q, want one empty payload", got)
	}
}

func TestParserUnknownFieldsIgnored(t *testing.T) {
	got := feedAll(t, NewParser(0), "foo: bar\nnocolon\ndata: ok\n\n")
	if len(got) != 1 || got[0] != "ok" {
		t.Errorf("got %q, want [ok]", got)
	}
}

func TestParserMaxBytes(t *testing.T) {
	p := NewParser(16)
	_, err := p.Feed([]byte("data: " + strings.Repeat("x", 32)))
	if err == nil {
		t.Fatal("expected error for oversized frame")
	}
	if p.Pending() != 0 {
		t.Errorf("buffer should be reset after overflow, Pending = %d", p.Pending())
	}

	// The parser is usable again afterwards.
	got := feedAll(t, p, "data: ok\n\n")
	if len(got) != 1 || got[0] != "ok" {
		t.Errorf("got %q after reset", got)
	}
}

func TestParserReset(t *testing.T) {
	p := NewParser(0)
	feedAll(t, p, "data: half")
	p.Reset()
	got := feedAll(t, p, "\n\ndata: next\n\n")
	if len(got) != 1 || got[0] != "next" {
		t.Errorf("got %q, want [next]", got)
	}
}

func TestParserResumesSearchAcrossFeeds(t *testing.T) {
	p := NewParser(0)
	body := strings.Repeat("x", 4096)
	feedAll(t, p, "data: ")
	for i := 0; i < len(body); i += 64 {
		feedAll(t, p, body[i:i+64])
		// Only the last byte of what is buffered needs another look.
		if p.scanned != p.Pending()-1 {
			t.Fatalf("after %d bytes: scanned = %d, pending = %d", i+64, p.scanned, p.Pending())
		}
	}

	// A terminator split over two feeds is still found.
	if got := feedAll(t, p, "\n"); len(got) != 0 {
		t.Fatalf("frame completed early: %d", len(got))
	}
	got := feedAll(t, p, "\ndata: next\n\n")
	if len(got) != 2 || got[0] != body || got[1] != "next" {
		t.Fatalf("got %d frames", len(got))
	}
	if p.scanned != 0 || p.Pending() != 0 {
		t.Errorf("scanned = %d, pending = %d after a complete frame", p.scanned, p.Pending())
	}
}
