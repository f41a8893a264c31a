// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sse

import (
	"errors"
	"io"
)

// DefaultReadSize is the size of each read from the underlying source.
const DefaultReadSize = 4 * 1024

// =============================================================================
// READER
// =============================================================================

// Reader exposes a parse session as a forward-only token sequence.
//
// Next returns tokens in arrival order and io.EOF once the stream has ended,
// either because a done frame arrived or because the source reached EOF. A
// read error from the source is returned after any tokens decoded from the
// same read. The sequence is single-use: once Next has returned a non-nil
// error, every later call returns the same error (or io.EOF).
//
// After a done frame no further read is issued against the source.
type Reader struct {
	src     io.Reader
	parser  *Parser
	buf     []byte
	pending []string
	ended   bool
	err     error
}

// NewReader creates a Reader that decodes src.
func NewReader(src io.Reader) *Reader {
	return NewReaderSize(src, DefaultReadSize)
}

// NewReaderSize creates a Reader that reads at most size bytes at a time.
func NewReaderSize(src io.Reader, size int) *Reader {
	if size <= 0 {
		size = DefaultReadSize
	}
	return &Reader{
		src:    src,
		parser: NewParser(),
		buf:    make([]byte, size),
	}
}

// Parser returns the underlying parse session, for hooks such as OnDrop.
func (r *Reader) Parser() *Parser {
	return r.parser
}

// Next returns the next token.
func (r *Reader) Next() (string, error) {
	for {
		if len(r.pending) > 0 {
			tok := r.pending[0]
			r.pending = r.pending[1:]
			return tok, nil
		}
		if r.ended {
			if r.err != nil {
				return "", r.err
			}
			return "", io.EOF
		}
		if r.parser.Done() {
			r.ended = true
			continue
		}
		r.fill()
	}
}

// fill performs one read and queues whatever tokens it completes.
func (r *Reader) fill() {
	n, err := r.src.Read(r.buf)
	if n > 0 {
		r.pending = append(r.pending, r.parser.Feed(r.buf[:n])...)
	}
	if err == nil {
		return
	}

	r.ended = true
	if errors.Is(err, io.EOF) {
		if !r.parser.Done() {
			r.pending = append(r.pending, r.parser.Flush()...)
		}
		return
	}
	r.err = err
}
