// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sse

import (
	"bytes"
)

var frameDelimiter = []byte(FrameDelimiter)

// =============================================================================
// PARSER
// =============================================================================

// Parser is an incremental event stream decoder for a single parse session.
//
// The buffer only ever holds the unconsumed tail after every complete frame
// has been extracted. Once a done frame is seen the parser is terminal: all
// further input, including frames already split out of the same delivery, is
// ignored.
//
// A Parser is not safe for concurrent use.
type Parser struct {
	dec  *textDecoder
	buf  []byte
	done bool

	// OnDrop, when set, receives every frame that was discarded as malformed.
	OnDrop func(err error)
}

// NewParser creates a parser with an empty buffer.
func NewParser() *Parser {
	return &Parser{dec: newTextDecoder()}
}

// Feed decodes one delivery and returns the tokens of every frame it
// completes, in order.
func (p *Parser) Feed(data []byte) []string {
	if p.done {
		return nil
	}

	// Only the new bytes, plus enough of the old tail to catch a delimiter
	// split across deliveries, need searching.
	start := max(len(p.buf)-len(frameDelimiter)+1, 0)
	p.buf = append(p.buf, p.dec.decode(data, false)...)

	var tokens []string
	consumed := 0
	for {
		i := bytes.Index(p.buf[start:], frameDelimiter)
		if i < 0 {
			break
		}
		end := start + i
		res := p.frame(string(p.buf[consumed:end]))
		consumed = end + len(frameDelimiter)
		start = consumed

		if res.HasToken() {
			tokens = append(tokens, res.Token)
		}
		if res.Outcome == OutcomeDone {
			p.finish()
			return tokens
		}
	}
	if consumed > 0 {
		p.buf = append(p.buf[:0], p.buf[consumed:]...)
	}
	return tokens
}

// Flush ends the session at end of input. A non-empty remainder is decoded
// once as a final, possibly malformed, frame. Flush is a no-op after done.
func (p *Parser) Flush() []string {
	if p.done {
		return nil
	}

	p.buf = append(p.buf, p.dec.decode(nil, true)...)
	rest := string(p.buf)
	p.finish()

	if rest == "" {
		return nil
	}
	res := p.frame(rest)
	if res.HasToken() {
		return []string{res.Token}
	}
	return nil
}

// Done reports whether the session has terminated.
func (p *Parser) Done() bool {
	return p.done
}

// Buffered returns the unconsumed tail of the stream.
func (p *Parser) Buffered() string {
	return string(p.buf)
}

func (p *Parser) frame(frame string) FrameResult {
	res := DecodeFrame(frame)
	if res.Err != nil && p.OnDrop != nil {
		p.OnDrop(res.Err)
	}
	return res
}

// finish marks the session terminal and discards the buffer.
func (p *Parser) finish() {
	p.done = true
	p.buf = nil
	p.dec.reset()
}
