package sse

import (
	"bytes"
	"fmt"

	r3sse "github.com/r3labs/sse/v2"
)

// Parser accumulates raw stream bytes and splits them into frames. A frame
// ends at a blank line; whatever follows the last blank line stays buffered
// until the next Feed. One Parser serves exactly one connection.
type Parser struct {
	buf     []byte
	scanned int // buf[:scanned] holds no frame terminator
	skipLF  bool
	max     int
}

// NewParser returns a parser whose pending buffer may grow to maxBytes
// before Feed fails. Zero means unbounded.
func NewParser(maxBytes int) *Parser {
	return &Parser{max: maxBytes}
}

// Feed appends chunk and returns every frame it completes, in stream order.
// Line endings are normalised (CRLF and lone CR become LF), including a
// CRLF pair split across two chunks.
func (p *Parser) Feed(chunk []byte) ([]*r3sse.Event, error) {
	for _, c := range chunk {
		if p.skipLF {
			p.skipLF = false
			if c == '\n' {
				continue
			}
		}
		if c == '\r' {
			p.buf = append(p.buf, '\n')
			p.skipLF = true
			continue
		}
		p.buf = append(p.buf, c)
	}

	var frames []*r3sse.Event
	start, from := 0, p.scanned
	for {
		i := bytes.Index(p.buf[from:], []byte("\n\n"))
		if i < 0 {
			break
		}
		end := from + i
		if ev := parseFrame(p.buf[start:end]); ev != nil {
			frames = append(frames, ev)
		}
		start = end + 2
		from = start
	}
	if start > 0 {
		p.buf = append(p.buf[:0], p.buf[start:]...)
	}
	// Back off one byte: a trailing "\n" may pair with the next chunk's.
	p.scanned = max(len(p.buf)-1, 0)

	if p.max > 0 && len(p.buf) > p.max {
		p.Reset()
		return frames, fmt.Errorf("sse: frame exceeds %d bytes", p.max)
	}
	return frames, nil
}

// Pending returns the number of buffered bytes not yet part of a frame.
func (p *Parser) Pending() int {
	return len(p.buf)
}

// Reset drops any partial frame.
func (p *Parser) Reset() {
	p.buf = p.buf[:0]
	p.scanned = 0
	p.skipLF = false
}

// parseFrame decodes one frame. It returns nil when the frame carries no
// data line, since such frames are never delivered.
func parseFrame(block []byte) *r3sse.Event {
	ev := &r3sse.Event{}
	var data [][]byte
	hasData := false

	for _, line := range bytes.Split(block, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		if line[0] == ':' {
			ev.Comment = append(ev.Comment, line[1:]...)
			continue
		}
		field, value, _ := bytes.Cut(line, []byte(":"))
		if len(value) > 0 && value[0] == ' ' {
			value = value[1:]
		}
		switch string(field) {
		case "data":
			data = append(data, value)
			hasData = true
		case "event":
			ev.Event = append([]byte(nil), value...)
		case "id":
			ev.ID = append([]byte(nil), value...)
		case "retry":
			ev.Retry = append([]byte(nil), value...)
		}
	}

	if !hasData {
		return nil
	}
	ev.Data = bytes.Join(data, []byte("\n"))
	return ev
}
