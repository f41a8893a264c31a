// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sse

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// HELPERS
// =============================================================================

// chunkedReader delivers a fixed list of chunks, one per Read call.
type chunkedReader struct {
	chunks [][]byte
	reads  int
	err    error // returned once chunks are exhausted (default io.EOF)
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	c.reads++
	if len(c.chunks) == 0 {
		if c.err != nil {
			return 0, c.err
		}
		return 0, io.EOF
	}
	n := copy(p, c.chunks[0])
	if n < len(c.chunks[0]) {
		c.chunks[0] = c.chunks[0][n:]
	} else {
		c.chunks = c.chunks[1:]
	}
	return n, nil
}

func split(s string, at ...int) [][]byte {
	var out [][]byte
	prev := 0
	for _, i := range at {
		out = append(out, []byte(s[prev:i]))
		prev = i
	}
	return append(out, []byte(s[prev:]))
}

func collect(t *testing.T, r *Reader) []string {
	t.Helper()
	var toks []string
	for {
		tok, err := r.Next()
		if errors.Is(err, io.EOF) {
			return toks
		}
		require.NoError(t, err)
		toks = append(toks, tok)
	}
}

func feedAll(p *Parser, chunks [][]byte) []string {
	var toks []string
	for _, c := range chunks {
		toks = append(toks, p.Feed(c)...)
	}
	return append(toks, p.Flush()...)
}

// =============================================================================
// FRAME DECODING
// =============================================================================

func TestDecodeFrame(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		outcome Outcome
		token   string
		wantErr bool
	}{
		{"token", `data: {"token":"hi"}`, OutcomeToken, "hi", false},
		{"no space after prefix", `data:{"token":"hi"}`, OutcomeToken, "hi", false},
		{"done without token", `data: {"done":true}`, OutcomeDone, "", false},
		{"done with token", `data: {"token":"end","done":true}`, OutcomeDone, "end", false},
		{"done false", `data: {"token":"x","done":false}`, OutcomeToken, "x", false},
		{"empty token", `data: {"token":""}`, OutcomeSkip, "", false},
		{"null token", `data: {"token":null}`, OutcomeSkip, "", false},
		{"empty payload", `data:   `, OutcomeSkip, "", false},
		{"no data line", "event: ping\nid: 3", OutcomeSkip, "", false},
		{"comment only", ": keepalive", OutcomeSkip, "", false},
		{"data after other fields", "event: message\ndata: {\"token\":\"a\"}", OutcomeToken, "a", false},
		{"first data line wins", "data: {\"token\":\"a\"}\ndata: {\"token\":\"b\"}", OutcomeToken, "a", false},
		{"malformed json", `data: {"token":`, OutcomeSkip, "", true},
		{"wrong type", `data: {"token":5}`, OutcomeSkip, "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := DecodeFrame(tc.frame)
			assert.Equal(t, tc.outcome, res.Outcome)
			assert.Equal(t, tc.token, res.Token)
			if tc.wantErr {
				var fe *FrameDecodeError
				assert.ErrorAs(t, res.Err, &fe)
			} else {
				assert.NoError(t, res.Err)
			}
		})
	}
}

// =============================================================================
// PARSER
// =============================================================================

func TestParser_SingleDeliveryWithDone(t *testing.T) {
	src := &chunkedReader{
		chunks: [][]byte{[]byte("data: {\"token\":\"Hello\"}\n\ndata: {\"token\":\" world\",\"done\":true}\n\n")},
		err:    errors.New("read after done"),
	}
	r := NewReader(src)

	assert.Equal(t, []string{"Hello", " world"}, collect(t, r))
	assert.Equal(t, 1, src.reads, "no read may follow the done frame")
}

func TestParser_ChunkBoundaryIndependence(t *testing.T) {
	stream := "data: {\"token\":\"Grüße\"}\n\n" +
		": comment\n\n" +
		"data: {\"token\":\" aus \"}\n\n" +
		"event: x\ndata: {\"token\":\"東京 🚀\"}\n\n" +
		"data: {\"done\":true}\n\n"
	want := []string{"Grüße", " aus ", "東京 🚀"}

	whole := feedAll(NewParser(), [][]byte{[]byte(stream)})
	require.Equal(t, want, whole)

	for i := 0; i <= len(stream); i++ {
		for j := i; j <= len(stream); j += 7 {
			got := feedAll(NewParser(), split(stream, i, j))
			require.Equal(t, want, got, "split at %d,%d", i, j)
		}
	}

	var bytewise [][]byte
	for i := 0; i < len(stream); i++ {
		bytewise = append(bytewise, []byte{stream[i]})
	}
	assert.Equal(t, want, feedAll(NewParser(), bytewise))
}

func TestParser_MultiByteSplitAtBoundary(t *testing.T) {
	stream := "data: {\"token\":\"café\"}\n\n"
	cut := strings.Index(stream, "é") + 1 // between the two bytes of é

	p := NewParser()
	assert.Empty(t, p.Feed([]byte(stream[:cut])))
	assert.Equal(t, []string{"café"}, p.Feed([]byte(stream[cut:])))
	assert.NotContains(t, strings.Join(feedAll(NewParser(), split(stream, cut)), ""), "�")
}

func TestParser_DoneSuppressesLaterFrames(t *testing.T) {
	p := NewParser()
	toks := p.Feed([]byte(
		"data: {\"token\":\"a\"}\n\n" +
			"data: {\"done\":true}\n\n" +
			"data: {\"token\":\"b\"}\n\n" +
			"data: {\"token\":\"c\"}\n\n"))

	assert.Equal(t, []string{"a"}, toks)
	assert.True(t, p.Done())
	assert.Empty(t, p.Buffered())
	assert.Nil(t, p.Feed([]byte("data: {\"token\":\"d\"}\n\n")))
	assert.Nil(t, p.Flush())
}

func TestParser_LargeFrameSmallDeliveries(t *testing.T) {
	body := strings.Repeat("abcdefgh", 2<<20) // 16 MiB
	stream := "data: {\"token\":\"" + body + "\"}\n\ndata: {\"token\":\"!\",\"done\":true}\n\n"

	start := time.Now()
	p := NewParser()
	var toks []string
	for i := 0; i < len(stream); i += 4096 {
		toks = append(toks, p.Feed([]byte(stream[i:min(i+4096, len(stream))]))...)
	}
	elapsed := time.Since(start)

	require.Len(t, toks, 2)
	assert.Equal(t, len(body), len(toks[0]))
	assert.Equal(t, "!", toks[1])
	assert.True(t, p.Done())
	// Rescanning the whole buffer on every delivery takes far longer.
	assert.Less(t, elapsed, 5*time.Second)
}

func TestParser_MalformedFrameResilience(t *testing.T) {
	var dropped []error
	p := NewParser()
	p.OnDrop = func(err error) { dropped = append(dropped, err) }

	toks := feedAll(p, [][]byte{[]byte(
		"data: {\"token\":\"before\"}\n\n" +
			"data: {not json}\n\n" +
			"data: {\"token\":\"after\"}\n\n")})

	assert.Equal(t, []string{"before", "after"}, toks)
	require.Len(t, dropped, 1)
	var fe *FrameDecodeError
	assert.ErrorAs(t, dropped[0], &fe)
}

func TestParser_FlushRemainder(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"trailing frame without delimiter", "data: {\"token\":\"a\"}\n\ndata: {\"token\":\"b\"}", []string{"a", "b"}},
		{"trailing single newline", "data: {\"token\":\"a\"}\n", []string{"a"}},
		{"malformed remainder", "data: {\"token\":\"a\"}\n\ndata: {\"tok", []string{"a"}},
		{"remainder without data line", "data: {\"token\":\"a\"}\n\nretry: 10", []string{"a"}},
		{"empty remainder", "data: {\"token\":\"a\"}\n\n", []string{"a"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, feedAll(NewParser(), [][]byte{[]byte(tc.input)}))
		})
	}
}

func TestParser_FlushTruncatedRune(t *testing.T) {
	p := NewParser()
	p.Feed([]byte("data: {\"token\":\"ok\"}\n\n\xe6\x9d"))
	assert.Nil(t, p.Flush())
	assert.True(t, p.Done())
}

func TestParser_LeadingByteOrderMark(t *testing.T) {
	got := feedAll(NewParser(), [][]byte{[]byte("\xef\xbb"), []byte("\xbfdata: {\"token\":\"x\"}\n\n")})
	assert.Equal(t, []string{"x"}, got)
}

// =============================================================================
// READER
// =============================================================================

func TestReader_ReadErrorAfterTokens(t *testing.T) {
	boom := errors.New("connection reset")
	src := &chunkedReader{
		chunks: [][]byte{[]byte("data: {\"token\":\"Partial\"}\n\n")},
		err:    boom,
	}
	r := NewReader(src)

	tok, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "Partial", tok)

	_, err = r.Next()
	assert.ErrorIs(t, err, boom)
	_, err = r.Next()
	assert.ErrorIs(t, err, boom, "the sequence stays terminated")
}

func TestReader_SmallReads(t *testing.T) {
	stream := "data: {\"token\":\"one\"}\n\ndata: {\"token\":\"two\"}\n\n"
	r := NewReaderSize(strings.NewReader(stream), 3)
	assert.Equal(t, []string{"one", "two"}, collect(t, r))

	_, err := r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_EmptyStream(t *testing.T) {
	r := NewReader(strings.NewReader(""))
	_, err := r.Next()
	assert.ErrorIs(t, err, io.EOF)
}
