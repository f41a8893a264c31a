// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agenthub

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
	"golang.org/x/time/rate"
)

// =============================================================================
// TRANSPORT
// =============================================================================

// newTransport builds the round tripper shared by the request and stream
// clients.
func newTransport(config *ClientConfig) http.RoundTripper {
	if config.Transport == TransportHTTP3 {
		return &http3.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion:         tls.VersionTLS13,
				InsecureSkipVerify: config.InsecureSkipVerify, //nolint:gosec // opt-in for local backends
			},
			QUICConfig: &quic.Config{
				MaxIdleTimeout:  5 * time.Minute,
				KeepAlivePeriod: 30 * time.Second,
			},
		}
	}

	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConnsPerHost = 4
	t.ResponseHeaderTimeout = 0 // streams may take a while to produce headers
	return t
}

func closeTransport(rt http.RoundTripper) error {
	switch t := rt.(type) {
	case *http3.Transport:
		return t.Close()
	case *http.Transport:
		t.CloseIdleConnections()
	}
	return nil
}

// newLimiter paces requests at rps with a burst of one. rps <= 0 means
// unlimited.
func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// =============================================================================
// REQUEST IDS
// =============================================================================

// RequestIDHeader carries the caller's request ID to the backend.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// NewRequestID returns a fresh random request ID.
func NewRequestID() string {
	return uuid.NewString()
}

// WithRequestID attaches id to ctx; requests made with ctx send it in
// RequestIDHeader.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request ID attached to ctx, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
