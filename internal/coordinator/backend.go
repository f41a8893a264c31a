// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package coordinator

import (
	"context"

	"github.com/jeranaias/agenthub/internal/agenthub"
)

// Retriever fetches ranked passages for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]agenthub.SourceHit, error)
}

// TokenSource is a cancellable, pull-based token sequence. Next returns
// io.EOF when the sequence ends, including after Cancel.
type TokenSource interface {
	Next() (string, error)
	Cancel()
	Close() error
}

// Streamer opens a token stream for a query.
type Streamer interface {
	StreamChat(ctx context.Context, query string, topK int) (TokenSource, error)
}

// clientStreamer adapts *agenthub.Client to Streamer.
type clientStreamer struct {
	client *agenthub.Client
}

func (s clientStreamer) StreamChat(ctx context.Context, query string, topK int) (TokenSource, error) {
	stream, err := s.client.StreamChat(ctx, query, topK)
	if err != nil {
		// Avoid returning a typed nil inside the interface.
		return nil, err
	}
	return stream, nil
}
