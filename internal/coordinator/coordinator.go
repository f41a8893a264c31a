// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package coordinator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jeranaias/agenthub/internal/agenthub"
)

const (
	// DefaultTopK is the number of passages requested when Config.TopK is 0.
	DefaultTopK = 4

	// FailureMarker is appended to a partial answer when the stream fails.
	FailureMarker = "\n\n[stream ended]"

	// FailureMessage replaces the answer when the stream fails before any
	// token arrived.
	FailureMessage = "Error streaming."
)

var tracer = otel.Tracer("github.com/jeranaias/agenthub/internal/coordinator")

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds coordinator options. Zero values select defaults.
type Config struct {
	TopK     int
	Observer Observer
	Logger   *slog.Logger
	Now      func() time.Time
}

// =============================================================================
// COORDINATOR
// =============================================================================

// Coordinator is the request state machine:
//
//	Idle --Submit--> Retrieving --(retrieval settles)--> Streaming --(end | error | cancel)--> Idle
//
// It is safe for concurrent use. Each attempt is tagged with a generation;
// once an attempt is superseded or stopped, it can no longer change the
// answer, the status or anything else an Observer sees.
type Coordinator struct {
	retriever Retriever
	streamer  Streamer
	topK      int
	observer  Observer
	logger    *slog.Logger
	now       func() time.Time

	// emitMu serializes observer notifications. Lock order: emitMu, mu.
	emitMu sync.Mutex

	mu        sync.Mutex
	gen       uint64
	current   *handle
	status    Status
	answer    string
	hits      []agenthub.SourceHit
	loading   bool
	latency   time.Duration
	requestID string
}

// New creates a coordinator over the given retriever and streamer.
func New(r Retriever, s Streamer, cfg Config) *Coordinator {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.Observer == nil {
		cfg.Observer = NopObserver{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Coordinator{
		retriever: r,
		streamer:  s,
		topK:      cfg.TopK,
		observer:  cfg.Observer,
		logger:    cfg.Logger.With("component", "coordinator"),
		now:       cfg.Now,
		hits:      []agenthub.SourceHit{},
	}
}

// NewForClient creates a coordinator backed by an agenthub client.
func NewForClient(client *agenthub.Client, cfg Config) *Coordinator {
	return New(client, clientStreamer{client: client}, cfg)
}

// Status returns the current status.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Snapshot returns a copy of the observable state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Status:         c.status,
		Answer:         c.answer,
		Hits:           append([]agenthub.SourceHit(nil), c.hits...),
		LoadingSources: c.loading,
		Latency:        c.latency,
		RequestID:      c.requestID,
	}
}

// =============================================================================
// SUBMIT
// =============================================================================

// Submit runs one query to completion and returns what it produced. A
// blank query is ignored. Any attempt still active is cancelled first.
//
// Retrieval failures are swallowed and replaced by an empty hit list.
// Stream failures are folded into the answer (see FailureMarker and
// FailureMessage). Cancellation ends the attempt silently.
func (c *Coordinator) Submit(ctx context.Context, query string) Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{Outcome: OutcomeIgnored}
	}

	requestID := agenthub.NewRequestID()
	ctx = agenthub.WithRequestID(ctx, requestID)
	ctx, span := tracer.Start(ctx, "coordinator.submit", trace.WithAttributes(
		attribute.String("agenthub.request_id", requestID),
	))
	defer span.End()

	c.logger.Info("submit", "request_id", requestID, "top_k", c.topK)

	res := c.run(ctx, requestID, query)

	span.SetAttributes(
		attribute.String("agenthub.outcome", res.Outcome.String()),
		attribute.Int("agenthub.tokens", res.Tokens),
	)
	if res.Outcome == OutcomeFailed {
		span.SetStatus(codes.Error, res.Err.Error())
	}
	c.logger.Info("submit_done",
		"request_id", requestID,
		"outcome", res.Outcome.String(),
		"tokens", res.Tokens,
		"latency_ms", res.Latency.Milliseconds(),
	)
	return res
}

func (c *Coordinator) run(ctx context.Context, requestID, query string) Result {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := c.now()
	h := c.begin(requestID, cancel)
	res := Result{RequestID: requestID, Query: query, Hits: []agenthub.SourceHit{}}

	// Retrieval settles fully before the stream is requested.
	hits, err := c.retriever.Retrieve(ctx, query, c.topK)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Warn("retrieve_failed", "request_id", requestID, "error", err)
		}
		hits = nil
	}
	if hits == nil {
		hits = []agenthub.SourceHit{}
	}
	res.Hits = hits

	if ctx.Err() != nil {
		return c.cancelled(h, res)
	}
	if !c.apply(h.gen, func() {
		c.hits = hits
		c.loading = false
		c.status = Streaming
	}, func(o Observer) {
		o.OnSources(hits, false)
		o.OnStatus(Streaming)
	}) {
		return c.cancelled(h, res)
	}

	stream, err := c.streamer.StreamChat(ctx, query, c.topK)
	if err != nil {
		if ctx.Err() != nil {
			return c.cancelled(h, res)
		}
		return c.failed(h, res, err)
	}
	if !h.attach(stream) {
		_ = stream.Close()
		return c.cancelled(h, res)
	}
	defer stream.Close()

	var answer strings.Builder
	for {
		tok, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			res.Answer = answer.String()
			if ctx.Err() != nil {
				return c.cancelled(h, res)
			}
			return c.failed(h, res, err)
		}

		answer.WriteString(tok)
		res.Tokens++
		text := answer.String()
		if !c.apply(h.gen, func() {
			c.answer = text
		}, func(o Observer) {
			o.OnAnswer(text)
		}) {
			res.Answer = text
			return c.cancelled(h, res)
		}
	}
	res.Answer = answer.String()

	// A cancelled stream also ends with io.EOF.
	if _, aborted := h.aborted(); aborted || ctx.Err() != nil {
		return c.cancelled(h, res)
	}

	latency := c.now().Sub(start)
	if !c.apply(h.gen, func() {
		c.latency = latency
		c.status = Idle
		c.current = nil
	}, func(o Observer) {
		o.OnLatency(latency)
		o.OnStatus(Idle)
	}) {
		return c.cancelled(h, res)
	}

	res.Latency = latency
	res.Outcome = OutcomeCompleted
	return res
}

// =============================================================================
// STOP
// =============================================================================

// Stop cancels the active attempt and returns to Idle without waiting for
// the stream to wind down. The answer produced so far is kept. Stop on an
// idle coordinator does nothing.
func (c *Coordinator) Stop() {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	if c.status == Idle {
		c.mu.Unlock()
		return
	}
	h := c.current
	c.current = nil
	c.gen++
	c.status = Idle
	wasLoading := c.loading
	c.loading = false
	hits := c.hits
	requestID := c.requestID
	c.mu.Unlock()

	if h != nil {
		h.abort(OutcomeCancelled)
	}
	c.logger.Debug("stop", "request_id", requestID)

	if wasLoading {
		c.observer.OnSources(hits, false)
	}
	c.observer.OnStatus(Idle)
}

// =============================================================================
// INTERNALS
// =============================================================================

// begin supersedes any active attempt and makes a new one current. The old
// handle is cancelled outside the state lock, since closing its stream may
// block on the network, but before any notification for the new attempt.
func (c *Coordinator) begin(requestID string, cancel context.CancelFunc) *handle {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	prev := c.current
	c.gen++
	h := newHandle(c.gen, cancel)
	c.current = h
	c.status = Retrieving
	c.answer = ""
	c.hits = []agenthub.SourceHit{}
	c.loading = true
	c.latency = 0
	c.requestID = requestID
	c.mu.Unlock()

	if prev != nil {
		prev.abort(OutcomeSuperseded)
		c.logger.Debug("superseded", "request_id", requestID)
	}

	c.observer.OnAnswer("")
	c.observer.OnStatus(Retrieving)
	c.observer.OnSources([]agenthub.SourceHit{}, true)
	return h
}

// apply runs mutate under the state lock and then notify, but only while
// gen is still the current attempt.
func (c *Coordinator) apply(gen uint64, mutate func(), notify func(Observer)) bool {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return false
	}
	mutate()
	c.mu.Unlock()

	notify(c.observer)
	return true
}

// failed folds a stream failure into the answer and returns to Idle.
func (c *Coordinator) failed(h *handle, res Result, err error) Result {
	answer := FailureMessage
	if res.Answer != "" {
		answer = res.Answer + FailureMarker
	}

	if !c.apply(h.gen, func() {
		c.answer = answer
		c.status = Idle
		c.current = nil
	}, func(o Observer) {
		o.OnAnswer(answer)
		o.OnStatus(Idle)
	}) {
		return c.cancelled(h, res)
	}

	c.logger.Warn("stream_failed", "request_id", res.RequestID, "tokens", res.Tokens, "error", err)
	res.Answer = answer
	res.Err = err
	res.Outcome = OutcomeFailed
	return res
}

// cancelled ends an attempt without failure text. If the attempt is still
// current (its caller's context ended), it returns the coordinator to Idle.
func (c *Coordinator) cancelled(h *handle, res Result) Result {
	c.emitMu.Lock()
	c.mu.Lock()
	current := c.gen == h.gen
	wasLoading := c.loading
	hits := c.hits
	if current {
		c.current = nil
		c.status = Idle
		c.loading = false
	}
	c.mu.Unlock()

	if current {
		if wasLoading {
			c.observer.OnSources(hits, false)
		}
		c.observer.OnStatus(Idle)
	}
	c.emitMu.Unlock()

	res.Outcome = OutcomeCancelled
	if reason, ok := h.aborted(); ok {
		res.Outcome = reason
	}
	return res
}
