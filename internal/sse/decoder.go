// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sse

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// textDecoder turns successive byte deliveries into text.
// A multi-byte sequence cut at a delivery boundary is held back until the
// rest of it arrives. A leading byte order mark is dropped and invalid bytes
// become U+FFFD.
type textDecoder struct {
	t       transform.Transformer
	pending []byte
	dst     []byte
}

func newTextDecoder() *textDecoder {
	return &textDecoder{t: unicode.UTF8BOM.NewDecoder()}
}

// decode converts b, together with any bytes held back from the previous
// call. With atEOF set, incomplete trailing bytes are flushed as U+FFFD.
func (d *textDecoder) decode(b []byte, atEOF bool) string {
	src := append(d.pending, b...)
	d.pending = nil
	if len(src) == 0 {
		return ""
	}

	// Each source byte expands to at most one replacement rune.
	if need := len(src)*utf8.UTFMax + utf8.UTFMax; cap(d.dst) < need {
		d.dst = make([]byte, need)
	}
	dst := d.dst[:cap(d.dst)]

	var out strings.Builder
	for len(src) > 0 {
		nDst, nSrc, err := d.t.Transform(dst, src, atEOF)
		out.Write(dst[:nDst])
		src = src[nSrc:]

		if err == transform.ErrShortDst && (nDst > 0 || nSrc > 0) {
			continue
		}
		if err == transform.ErrShortSrc {
			d.pending = append([]byte(nil), src...)
		}
		break
	}
	return out.String()
}

// reset discards held-back bytes and the decoder state.
func (d *textDecoder) reset() {
	d.pending = nil
	d.t.Reset()
}
