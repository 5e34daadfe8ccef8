package ics

import (
	"bufio"
	"io"
)

// CalendarStream reads content lines from an iCalendar stream, unfolding the
// continuation lines described in RFC 5545 section 3.1: a CRLF (or bare LF)
// immediately followed by a single space or horizontal tab is a fold, not a
// line break, and the leading whitespace is dropped when rejoining.
type CalendarStream struct {
	r io.Reader
	b *bufio.Reader
}

// NewCalendarStream wraps r so callers can read unfolded logical lines one at
// a time via ReadLine.
func NewCalendarStream(r io.Reader) *CalendarStream {
	return &CalendarStream{r: r, b: bufio.NewReader(r)}
}

// ReadLine returns the next unfolded content line. Trailing control bytes
// (0x00-0x1F, 0x7F, 0xA0) and whitespace are stripped; an all-whitespace or
// empty result is skipped by the caller (ParseCalendar/ParseComponent).
func (cs *CalendarStream) ReadLine() (*ContentLine, error) {
	r := []byte{}
	c := true
	var err error
	for c {
		var b []byte
		b, err = cs.b.ReadBytes('\n')
		switch {
		case len(b) == 0:
			if err == nil {
				continue
			}
			c = false
		case b[len(b)-1] == '\n':
			o := 1
			if len(b) > 1 && b[len(b)-2] == '\r' {
				o = 2
			}
			p, peekErr := cs.b.Peek(1)
			r = append(r, b[:len(b)-o]...)
			if peekErr == io.EOF {
				c = false
			}
			switch {
			case len(p) == 0:
				c = false
			case p[0] == ' ' || p[0] == '\t':
				_, _ = cs.b.Discard(1) //nolint:errcheck
			default:
				c = false
			}
		default:
			r = append(r, b...)
		}
		switch err {
		case nil:
			if len(r) == 0 {
				c = true
			}
		case io.EOF:
			c = false
		default:
			return nil, err
		}
	}
	if len(r) == 0 && err != nil {
		return nil, err
	}
	cl := ContentLine(stripControlBytes(r))
	return &cl, err
}

// stripControlBytes trims trailing whitespace and the control-byte range
// called out in spec section 4.A (0x00-0x1F, 0x7F, 0xA0) from a logical line.
func stripControlBytes(b []byte) []byte {
	end := len(b)
	for end > 0 {
		c := b[end-1]
		if c == ' ' || c == '\t' || isControlByte(c) {
			end--
			continue
		}
		break
	}
	return b[:end]
}

func isControlByte(c byte) bool {
	return c <= 0x1F || c == 0x7F || c == 0xA0
}
