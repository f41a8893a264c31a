// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agenthub

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jeranaias/agenthub/internal/sse"
)

// =============================================================================
// STREAMING CHAT
// =============================================================================

// StreamChat opens /chat for query and returns its token sequence.
//
// Opening failures (a non-success status, no body, or a transport error)
// return a *StreamOpenError before any token is produced. The returned
// stream owns the connection; callers must Close or Cancel it.
func (c *Client) StreamChat(ctx context.Context, query string, topK int) (*TokenStream, error) {
	if topK <= 0 {
		return nil, ErrInvalidTopK
	}

	ctx, cancel := context.WithCancel(ctx)
	ctx, span := tracer.Start(ctx, "agenthub.stream_chat", trace.WithAttributes(
		attribute.Int("agenthub.top_k", topK),
	))

	resp, err := c.do(ctx, c.streamClient, http.MethodPost, "/chat", QueryRequest{Q: query, TopK: topK})
	if err != nil {
		cancel()
		openErr := &StreamOpenError{Cause: err}
		recordError(span, openErr)
		span.End()
		return nil, openErr
	}

	if !isSuccess(resp.StatusCode) || resp.Body == nil || resp.Body == http.NoBody {
		if resp.Body != nil {
			drainAndClose(resp.Body)
		}
		cancel()
		openErr := &StreamOpenError{Status: resp.StatusCode}
		if isSuccess(resp.StatusCode) {
			openErr.Status = 0
		}
		recordError(span, openErr)
		span.End()
		return nil, openErr
	}

	c.logger.Debug("stream_open", "request_id", RequestIDFrom(ctx))
	return newTokenStream(ctx, cancel, span, resp.Body, c.logger), nil
}

// =============================================================================
// TOKEN STREAM
// =============================================================================

type streamState int

const (
	streamOpen streamState = iota
	streamFinished
	streamCancelled
	streamFailed
)

func (s streamState) String() string {
	switch s {
	case streamOpen:
		return "open"
	case streamFinished:
		return "finished"
	case streamCancelled:
		return "cancelled"
	case streamFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TokenStream is the pull-based token sequence of one /chat call.
//
// Next must be called from a single goroutine. Cancel and Close may be
// called from any goroutine, any number of times.
type TokenStream struct {
	ctx    context.Context
	cancel context.CancelFunc
	body   io.ReadCloser
	reader *sse.Reader
	span   trace.Span
	logger *slog.Logger

	mu      sync.Mutex
	state   streamState
	tokens  atomic.Int64
	release sync.Once
}

func newTokenStream(ctx context.Context, cancel context.CancelFunc, span trace.Span, body io.ReadCloser, logger *slog.Logger) *TokenStream {
	s := &TokenStream{
		ctx:    ctx,
		cancel: cancel,
		body:   body,
		reader: sse.NewReader(body),
		span:   span,
		logger: logger,
	}
	s.reader.Parser().OnDrop = func(err error) {
		logger.Debug("frame_dropped", "error", err)
	}
	return s
}

// Next returns the next token. It returns io.EOF when the stream finished
// normally or was cancelled, and a *StreamError when the connection failed
// mid-stream. Once Next has returned an error, later calls return io.EOF.
func (s *TokenStream) Next() (string, error) {
	if s.terminated() {
		return "", io.EOF
	}
	if s.ctx.Err() != nil {
		s.finish(streamCancelled)
		return "", io.EOF
	}

	tok, err := s.reader.Next()
	if err == nil {
		s.tokens.Add(1)
		return tok, nil
	}

	if errors.Is(err, io.EOF) {
		s.finish(streamFinished)
		return "", io.EOF
	}
	if s.ctx.Err() != nil || s.cancelled() {
		s.finish(streamCancelled)
		return "", io.EOF
	}

	s.finish(streamFailed)
	return "", &StreamError{Tokens: s.TokenCount(), Err: err}
}

// Cancel aborts the stream. It is idempotent and has no effect on a
// stream that already ended.
func (s *TokenStream) Cancel() {
	s.finish(streamCancelled)
}

// Close releases the connection. A stream closed before it ended counts
// as cancelled.
func (s *TokenStream) Close() error {
	s.finish(streamCancelled)
	return nil
}

// TokenCount returns the number of tokens delivered so far.
func (s *TokenStream) TokenCount() int {
	return int(s.tokens.Load())
}

// Cancelled reports whether the stream ended by cancellation.
func (s *TokenStream) Cancelled() bool {
	return s.cancelled()
}

func (s *TokenStream) terminated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != streamOpen
}

func (s *TokenStream) cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == streamCancelled
}

// finish moves an open stream to state and releases its resources. The
// first terminal state wins.
func (s *TokenStream) finish(state streamState) {
	s.mu.Lock()
	if s.state == streamOpen {
		s.state = state
	}
	final := s.state
	s.mu.Unlock()

	s.release.Do(func() {
		// Cancel first so a Read blocked in Next unblocks before Close.
		s.cancel()
		_ = s.body.Close()
		s.span.SetAttributes(
			attribute.String("agenthub.stream_state", final.String()),
			attribute.Int("agenthub.tokens", s.TokenCount()),
		)
		s.span.End()
		s.logger.Debug("stream_end", "state", final.String(), "tokens", s.TokenCount())
	})
}
