// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agenthub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// HELPERS
// =============================================================================

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL + "/"})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func writeFrames(w http.ResponseWriter, frames ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	flusher := w.(http.Flusher)
	for _, f := range frames {
		fmt.Fprintf(w, "data: %s\n\n", f)
		flusher.Flush()
	}
}

func drain(t *testing.T, s *TokenStream) ([]string, error) {
	t.Helper()
	var toks []string
	for {
		tok, err := s.Next()
		if errors.Is(err, io.EOF) {
			return toks, nil
		}
		if err != nil {
			return toks, err
		}
		toks = append(toks, tok)
	}
}

// =============================================================================
// RETRIEVE
// =============================================================================

func TestRetrieve_DecodesHitsInOrder(t *testing.T) {
	type seen struct {
		body QueryRequest
		id   string
	}
	got := make(chan seen, 1)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/retrieve", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var s seen
		s.id = r.Header.Get(RequestIDHeader)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&s.body))
		got <- s
		_, _ = io.WriteString(w, `{"hits":[
			{"text":"first","score":0.9,"source":"a.md"},
			{"text":"second","score":0.5},
			{"text":"third","score":0.1,"source":null}
		]}`)
	})

	ctx := WithRequestID(context.Background(), "req-1")
	hits, err := client.Retrieve(ctx, "what is rag", 3)
	require.NoError(t, err)

	s := <-got
	assert.Equal(t, QueryRequest{Q: "what is rag", TopK: 3}, s.body)
	assert.Equal(t, "req-1", s.id)
	require.Len(t, hits, 3)
	assert.Equal(t, SourceHit{Text: "first", Score: 0.9, Source: "a.md"}, hits[0])
	assert.Equal(t, "second", hits[1].Text)
	assert.False(t, hits[1].HasSource())
	assert.False(t, hits[2].HasSource())
}

func TestRetrieve_EmptyHits(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"hits":[]}`)
	})

	hits, err := client.Retrieve(context.Background(), "q", 4)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestRetrieve_StatusFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	hits, err := client.Retrieve(context.Background(), "q", 4)
	assert.Nil(t, hits)
	require.Error(t, err)

	status, ok := IsNetworkError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "/retrieve failed: 500", err.Error())
}

func TestRetrieve_InvalidTopK(t *testing.T) {
	client := NewClient()
	_, err := client.Retrieve(context.Background(), "q", 0)
	assert.ErrorIs(t, err, ErrInvalidTopK)
}

func TestRetrieve_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: url})
	_, err := client.Retrieve(context.Background(), "q", 4)
	status, ok := IsNetworkError(err)
	assert.True(t, ok)
	assert.Zero(t, status)
}

// =============================================================================
// STREAM CHAT
// =============================================================================

func TestStreamChat_TokensUntilDone(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat", r.URL.Path)
		writeFrames(w,
			`{"token":"Hello"}`,
			`{"token":" world","done":true}`,
			`{"token":"ignored"}`,
		)
	})

	stream, err := client.StreamChat(context.Background(), "hi", 4)
	require.NoError(t, err)
	defer stream.Close()

	toks, err := drain(t, stream)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello", " world"}, toks)
	assert.Equal(t, 2, stream.TokenCount())
	assert.False(t, stream.Cancelled())

	_, err = stream.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStreamChat_OpenFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	stream, err := client.StreamChat(context.Background(), "hi", 4)
	assert.Nil(t, stream)
	require.Error(t, err)
	assert.True(t, IsStreamOpenError(err))

	var openErr *StreamOpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, http.StatusServiceUnavailable, openErr.Status)
}

func TestStreamChat_NoBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	_, err := client.StreamChat(context.Background(), "hi", 4)
	assert.True(t, IsStreamOpenError(err))
}

func TestStreamChat_DroppedConnection(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeFrames(w, `{"token":"Partial"}`)
		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			_ = conn.Close()
		}
	})

	stream, err := client.StreamChat(context.Background(), "hi", 4)
	require.NoError(t, err)
	defer stream.Close()

	toks, err := drain(t, stream)
	assert.Equal(t, []string{"Partial"}, toks)

	var streamErr *StreamError
	require.ErrorAs(t, err, &streamErr)
	assert.Equal(t, 1, streamErr.Tokens)

	_, err = stream.Next()
	assert.ErrorIs(t, err, io.EOF, "a failed stream stays terminated")
}

func TestStreamChat_CancelMidStream(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeFrames(w, `{"token":"first"}`)
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})

	stream, err := client.StreamChat(context.Background(), "hi", 4)
	require.NoError(t, err)

	tok, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, "first", tok)

	stream.Cancel()
	stream.Cancel()

	_, err = stream.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.True(t, stream.Cancelled())
}

func TestStreamChat_CancelWhileBlocked(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeFrames(w, `{"token":"first"}`)
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})

	stream, err := client.StreamChat(context.Background(), "hi", 4)
	require.NoError(t, err)
	_, err = stream.Next()
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := stream.Next()
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	stream.Cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, io.EOF)
	case <-time.After(3 * time.Second):
		t.Fatal("Next did not return after Cancel")
	}
}

func TestStreamChat_ContextCancel(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeFrames(w, `{"token":"first"}`)
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := client.StreamChat(ctx, "hi", 4)
	require.NoError(t, err)
	defer stream.Close()

	_, err = stream.Next()
	require.NoError(t, err)
	cancel()

	_, err = stream.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStreamChat_CancelAfterFinishIsNoop(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeFrames(w, `{"token":"a","done":true}`)
	})

	stream, err := client.StreamChat(context.Background(), "hi", 4)
	require.NoError(t, err)

	toks, err := drain(t, stream)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, toks)

	stream.Cancel()
	assert.False(t, stream.Cancelled())
	assert.NoError(t, stream.Close())
}

// =============================================================================
// HEALTH & INGEST
// =============================================================================

func TestHealth(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/health", r.URL.Path)
		_, _ = io.WriteString(w, `{"ok":true,"model":"llama3"}`)
	})

	h, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Health{OK: true, Model: "llama3"}, h)
}

func TestIngest(t *testing.T) {
	got := make(chan IngestRequest, 1)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ingest", r.URL.Path)
		var req IngestRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		got <- req
		_, _ = io.WriteString(w, `{"ingested":12,"detail":"ok"}`)
	})

	res, err := client.Ingest(context.Background(), IngestRequest{Path: "docs/", Collection: "main"})
	require.NoError(t, err)
	assert.Equal(t, IngestRequest{Path: "docs/", Collection: "main"}, <-got)
	assert.Equal(t, 12, res.Ingested)
	assert.Equal(t, "ok", res.Detail)
}

func TestIngest_RequiresTarget(t *testing.T) {
	_, err := NewClient().Ingest(context.Background(), IngestRequest{Collection: "main"})
	assert.ErrorIs(t, err, ErrNoIngestPath)
}

// =============================================================================
// PACING
// =============================================================================

func TestLimiter(t *testing.T) {
	assert.True(t, newLimiter(0).Allow())
	assert.True(t, newLimiter(0).Allow())

	l := newLimiter(1)
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}
