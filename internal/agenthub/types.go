// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agenthub

// =============================================================================
// REQUEST TYPES
// =============================================================================

// QueryRequest is the request body for /retrieve and /chat.
type QueryRequest struct {
	Q    string `json:"q"`
	TopK int    `json:"top_k"`
}

// IngestRequest is the request body for /ingest. At least one of Path and
// URL must be set.
type IngestRequest struct {
	Path       string `json:"path,omitempty"`
	URL        string `json:"url,omitempty"`
	Collection string `json:"collection,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// SourceHit is one retrieved passage, in the order the backend ranked it.
// Source is empty when the backend did not report one.
type SourceHit struct {
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
	Source string  `json:"source,omitempty"`
}

// HasSource reports whether the hit carries a provenance label.
func (h SourceHit) HasSource() bool {
	return h.Source != ""
}

// retrieveResponse keeps hit records loosely typed so that a record with a
// missing or oddly typed field does not fail the whole response.
type retrieveResponse struct {
	Hits []map[string]any `json:"hits"`
}

// Health is the response from /health.
type Health struct {
	OK    bool   `json:"ok"`
	Model string `json:"model"`
}

// IngestResult is the response from /ingest.
type IngestResult struct {
	Ingested int    `json:"ingested"`
	Detail   string `json:"detail,omitempty"`
}

// =============================================================================
// HELPERS
// =============================================================================

// hitFromRecord converts a raw hit record. Only source gets special
// treatment; text and score are taken as they come.
func hitFromRecord(rec map[string]any) SourceHit {
	var h SourceHit
	h.Text, _ = rec["text"].(string)
	h.Score, _ = rec["score"].(float64)
	h.Source, _ = rec["source"].(string)
	return h
}
