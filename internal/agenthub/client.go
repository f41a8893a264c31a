// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agenthub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("github.com/jeranaias/agenthub/internal/agenthub")

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// Transport names accepted by ClientConfig.Transport.
const (
	TransportHTTP  = "http"
	TransportHTTP3 = "h3"
)

// ClientConfig holds configuration options for the agenthub client.
type ClientConfig struct {
	// BaseURL is the backend base URL (default: http://localhost:8000)
	BaseURL string

	// Timeout for request/response calls (default: 30s). Streaming calls
	// are bounded only by their context.
	Timeout time.Duration

	// Transport selects HTTP/1.1+2 ("http") or HTTP/3 over QUIC ("h3").
	Transport string

	// RequestsPerSecond paces outgoing requests. Zero disables pacing.
	RequestsPerSecond float64

	// UserAgent sent with every request.
	UserAgent string

	// InsecureSkipVerify disables TLS verification for the h3 transport.
	InsecureSkipVerify bool

	// Logger for client events (default: slog.Default()).
	Logger *slog.Logger
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:   "http://localhost:8000",
		Timeout:   30 * time.Second,
		Transport: TransportHTTP,
		UserAgent: "agenthub-cli",
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the agenthub backend.
//
// The Client is safe for concurrent use.
type Client struct {
	config       *ClientConfig
	transport    http.RoundTripper
	httpClient   *http.Client
	streamClient *http.Client
	limiter      *rate.Limiter
	logger       *slog.Logger
}

// NewClient creates a client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:8000"
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Transport == "" {
		config.Transport = TransportHTTP
	}
	if config.UserAgent == "" {
		config.UserAgent = "agenthub-cli"
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	transport := newTransport(config)
	return &Client{
		config:    config,
		transport: transport,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		streamClient: &http.Client{Transport: transport},
		limiter:      newLimiter(config.RequestsPerSecond),
		logger:       logger.With("component", "agenthub"),
	}
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Close releases idle connections held by the transport.
func (c *Client) Close() error {
	return closeTransport(c.transport)
}

// =============================================================================
// RETRIEVAL
// =============================================================================

// Retrieve returns the topK passages most relevant to query, in the order
// the backend ranked them. A non-success status yields a *NetworkError.
func (c *Client) Retrieve(ctx context.Context, query string, topK int) ([]SourceHit, error) {
	if topK <= 0 {
		return nil, ErrInvalidTopK
	}

	ctx, span := tracer.Start(ctx, "agenthub.retrieve", trace.WithAttributes(
		attribute.Int("agenthub.top_k", topK),
	))
	defer span.End()

	resp, err := c.do(ctx, c.httpClient, http.MethodPost, "/retrieve", QueryRequest{Q: query, TopK: topK})
	if err != nil {
		recordError(span, err)
		return nil, &NetworkError{Op: "retrieve", Cause: err}
	}
	defer drainAndClose(resp.Body)

	if !isSuccess(resp.StatusCode) {
		err := &NetworkError{Op: "retrieve", Status: resp.StatusCode}
		recordError(span, err)
		return nil, err
	}

	var result retrieveResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		recordError(span, err)
		return nil, &NetworkError{Op: "retrieve", Cause: fmt.Errorf("decode response: %w", err)}
	}

	hits := make([]SourceHit, 0, len(result.Hits))
	for _, rec := range result.Hits {
		hits = append(hits, hitFromRecord(rec))
	}
	span.SetAttributes(attribute.Int("agenthub.hits", len(hits)))
	c.logger.Debug("retrieve", "hits", len(hits), "request_id", RequestIDFrom(ctx))
	return hits, nil
}

// =============================================================================
// HEALTH & INGEST
// =============================================================================

// Health queries /health.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	resp, err := c.do(ctx, c.httpClient, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, &NetworkError{Op: "health", Cause: err}
	}
	defer drainAndClose(resp.Body)

	if !isSuccess(resp.StatusCode) {
		return nil, &NetworkError{Op: "health", Status: resp.StatusCode}
	}

	var result Health
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &NetworkError{Op: "health", Cause: fmt.Errorf("decode response: %w", err)}
	}
	return &result, nil
}

// Ingest asks the backend to index a local path or a URL.
func (c *Client) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	if req.Path == "" && req.URL == "" {
		return nil, ErrNoIngestPath
	}

	resp, err := c.do(ctx, c.httpClient, http.MethodPost, "/ingest", req)
	if err != nil {
		return nil, &NetworkError{Op: "ingest", Cause: err}
	}
	defer drainAndClose(resp.Body)

	if !isSuccess(resp.StatusCode) {
		return nil, &NetworkError{Op: "ingest", Status: resp.StatusCode}
	}

	var result IngestResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &NetworkError{Op: "ingest", Cause: fmt.Errorf("decode response: %w", err)}
	}
	c.logger.Info("ingest", "ingested", result.Ingested, "path", req.Path, "url", req.URL)
	return &result, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// do paces, builds and sends one request. body is JSON-encoded when non-nil.
func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, body any) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	if id := RequestIDFrom(ctx); id != "" {
		req.Header.Set(RequestIDHeader, id)
	}
	return hc.Do(req)
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// drainAndClose lets the transport reuse the connection.
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64*1024))
	_ = body.Close()
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
