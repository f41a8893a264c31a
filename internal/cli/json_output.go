// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - JSON output for --json mode.
//
// Every command prints one JSONResponse envelope. Human-readable messages
// go to stderr in this mode.
package cli

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/jeranaias/agenthub/internal/agenthub"
)

// JSONResponse is the envelope for all --json output.
type JSONResponse struct {
	Success   bool    `json:"success"`
	Data      any     `json:"data"`
	Error     *string `json:"error"`
	Timestamp string  `json:"timestamp"`
	Command   string  `json:"command,omitempty"`
}

// NewJSONResponse creates a successful response.
func NewJSONResponse(command string, data any) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a failed response, optionally with data.
func NewJSONErrorResponse(command string, err error, data any) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Data:      data,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print writes the response to stdout.
func (r *JSONResponse) Print() error {
	return r.Fprint(os.Stdout)
}

// Fprint writes the response as indented JSON to w.
func (r *JSONResponse) Fprint(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// =============================================================================
// COMMAND DATA
// =============================================================================

// SourceData is one retrieved passage.
type SourceData struct {
	Rank   int     `json:"rank"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
	Source string  `json:"source,omitempty"`
}

// AskData is the result of the ask command.
type AskData struct {
	RequestID string       `json:"request_id"`
	Query     string       `json:"query"`
	Answer    string       `json:"answer"`
	Outcome   string       `json:"outcome"`
	Sources   []SourceData `json:"sources"`
	Tokens    int          `json:"tokens"`
	LatencyMs int64        `json:"latency_ms"`
}

// RetrieveData is the result of the retrieve command.
type RetrieveData struct {
	Query   string       `json:"query"`
	TopK    int          `json:"top_k"`
	Sources []SourceData `json:"sources"`
}

// HealthData is the result of the health command.
type HealthData struct {
	BaseURL   string `json:"base_url"`
	OK        bool   `json:"ok"`
	Model     string `json:"model,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

// IngestData is the result of the ingest command.
type IngestData struct {
	Path       string `json:"path,omitempty"`
	URL        string `json:"url,omitempty"`
	Collection string `json:"collection,omitempty"`
	Ingested   int    `json:"ingested"`
	Detail     string `json:"detail,omitempty"`
}

// VersionData is the result of the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
}

// sourcesData converts hits to ranked output rows.
func sourcesData(hits []agenthub.SourceHit) []SourceData {
	out := make([]SourceData, len(hits))
	for i, h := range hits {
		out[i] = SourceData{Rank: i + 1, Text: h.Text, Score: h.Score, Source: h.Source}
	}
	return out
}
