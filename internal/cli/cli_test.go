// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/agenthub/internal/agenthub"
	"github.com/jeranaias/agenthub/internal/config"
	"github.com/jeranaias/agenthub/internal/coordinator"
	"github.com/jeranaias/agenthub/internal/logging"
	"github.com/jeranaias/agenthub/internal/telemetry"
)

// =============================================================================
// HELPERS
// =============================================================================

// backend serves a small fake of the question answering API.
type backend struct {
	chatStatus int
	health     string
	ingested   chan agenthub.IngestRequest
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/retrieve":
		_, _ = io.WriteString(w, `{"hits":[{"text":"Passage one","score":0.9,"source":"a.md"},{"text":"Passage two","score":0.4}]}`)
	case "/chat":
		if b.chatStatus != 0 {
			w.WriteHeader(b.chatStatus)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, f := range []string{`{"token":"Hello"}`, `{"token":" world","done":true}`} {
			fmt.Fprintf(w, "data: %s\n\n", f)
			flusher.Flush()
		}
	case "/health":
		body := b.health
		if body == "" {
			body = `{"ok":true,"model":"llama3"}`
		}
		_, _ = io.WriteString(w, body)
	case "/ingest":
		var req agenthub.IngestRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if b.ingested != nil {
			b.ingested <- req
		}
		_, _ = io.WriteString(w, `{"ingested":3,"detail":"3 chunks"}`)
	default:
		http.NotFound(w, r)
	}
}

func newTestApp(t *testing.T, b *backend) (*App, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.API.BaseURL = srv.URL
	logger := logging.Discard()

	var out bytes.Buffer
	app := &App{
		Config: cfg,
		Logger: logger,
		Client: agenthub.NewClientWithConfig(ClientConfig(cfg, logger)),
		Stdout: &out,
		Stderr: io.Discard,
	}
	t.Cleanup(func() { _ = app.Client.Close() })
	return app, &out
}

func decodeResponse(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	return resp
}

// =============================================================================
// PARSING
// =============================================================================

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		cmd  Command
		want func(t *testing.T, a Args)
	}{
		{"no args starts tui", nil, CmdTUI, nil},
		{"ask joins words", []string{"ask", "what", "is", "rag"}, CmdAsk, func(t *testing.T, a Args) {
			assert.Equal(t, "what is rag", a.Query)
		}},
		{"alias", []string{"search", "deploy"}, CmdRetrieve, func(t *testing.T, a Args) {
			assert.Equal(t, "deploy", a.Query)
		}},
		{"global flags anywhere", []string{"ask", "--json", "hi", "--top-k", "8"}, CmdAsk, func(t *testing.T, a Args) {
			assert.True(t, a.JSON)
			assert.Equal(t, 8, a.TopK)
			assert.Equal(t, "hi", a.Query)
		}},
		{"equals form", []string{"--api-base=http://x:1", "health"}, CmdHealth, func(t *testing.T, a Args) {
			assert.Equal(t, "http://x:1", a.BaseURL)
		}},
		{"bad top-k", []string{"--top-k", "lots", "ask", "q"}, CmdAsk, func(t *testing.T, a Args) {
			assert.Equal(t, -1, a.TopK)
		}},
		{"config default show", []string{"config"}, CmdConfig, func(t *testing.T, a Args) {
			assert.Equal(t, "show", a.Subcommand)
		}},
		{"config set", []string{"config", "set", "api.base_url", "http://h:1"}, CmdConfig, func(t *testing.T, a Args) {
			assert.Equal(t, "set", a.Subcommand)
			assert.Equal(t, "api.base_url", a.ConfigKey)
			assert.Equal(t, "http://h:1", a.ConfigVal)
		}},
		{"ingest keeps raw", []string{"ingest", "--path", "a.md"}, CmdIngest, func(t *testing.T, a Args) {
			assert.Equal(t, []string{"--path", "a.md"}, a.Raw)
		}},
		{"version flag", []string{"--version"}, CmdVersion, nil},
		{"unknown", []string{"frobnicate"}, CmdUnknown, func(t *testing.T, a Args) {
			assert.Equal(t, "frobnicate", a.Name)
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cmd, args := ParseArgs(tc.argv)
			assert.Equal(t, tc.cmd, cmd)
			if tc.want != nil {
				tc.want(t, args)
			}
		})
	}
}

func TestArgParser(t *testing.T) {
	p := NewArgParser([]string{"docs/", "--collection", "notes", "--days=3", "--force", "--url=https://x"})

	assert.Equal(t, "docs/", p.Positional(0))
	assert.Equal(t, "", p.Positional(1))
	assert.Equal(t, 1, p.PositionalCount())
	assert.Equal(t, "notes", p.Flag("collection"))
	assert.Equal(t, "https://x", p.Flag("url"))
	assert.Equal(t, 3, p.FlagIntOrDefault("days", 7))
	assert.Equal(t, 7, p.FlagIntOrDefault("weeks", 7))
	assert.True(t, p.BoolFlag("force"))
	assert.True(t, p.HasFlag("collection"))
	assert.False(t, p.HasFlag("path"))
}

func TestParseIntWithValidation(t *testing.T) {
	n, err := ParseIntWithValidation("5", "days")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, err = ParseIntWithValidation("0", "days")
	assert.Error(t, err)
	_, err = ParseIntWithValidation("x", "days")
	assert.Error(t, err)
	_, err = ParseIntWithValidation("", "days")
	assert.Error(t, err)
}

func TestSuggestCommand(t *testing.T) {
	tests := map[string]string{
		"helth":    "health",
		"retreive": "retrieve",
		"confgi":   "config",
		"ak":       "ask",
		"ask":      "",
		"xyzzy":    "",
		"q":        "",
	}
	for in, want := range tests {
		assert.Equal(t, want, SuggestCommand(in), in)
	}
}

// =============================================================================
// ERRORS
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"reported", &ReportedError{Code: 42}, 42},
		{"validation", ErrMissingArgument("question", ""), ExitUsageError},
		{"invalid top-k", agenthub.ErrInvalidTopK, ExitUsageError},
		{"config", fmt.Errorf("load: %w", config.ValidateErrors{{Field: "api.top_k", Message: "bad"}}), ExitConfigError},
		{"timeout", context.DeadlineExceeded, ExitTimeoutError},
		{"cancelled", context.Canceled, ExitInterrupted},
		{"network", &agenthub.NetworkError{Op: "health", Status: 502}, ExitNetworkError},
		{"stream open", &agenthub.StreamOpenError{Status: 500}, ExitNetworkError},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, GetExitCode(tc.err))
		})
	}
}

func TestDisplayError(t *testing.T) {
	var stdout, stderr bytes.Buffer

	displayError(&stdout, &stderr, errors.New("boom"), false)
	assert.Contains(t, stderr.String(), "[ERROR] boom")
	assert.Empty(t, stdout.String())

	stderr.Reset()
	displayError(&stdout, &stderr, &ValidationError{Field: "top-k", Reason: "must be positive"}, true)
	assert.Empty(t, stderr.String())
	resp := decodeResponse(t, &stdout)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "validation_error", resp["error_type"])
	assert.Equal(t, "top-k", resp["field"])

	stdout.Reset()
	displayError(&stdout, &stderr, &ReportedError{Code: 5, Err: errors.New("shown")}, false)
	assert.Empty(t, stdout.String())
	assert.Empty(t, stderr.String())
}

// =============================================================================
// APP
// =============================================================================

func TestApplyOverrides(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, ApplyOverrides(cfg, Args{
		BaseURL:   " https://rag:8443 ",
		Transport: "H3",
		TopK:      6,
		Verbose:   true,
	}))
	assert.Equal(t, "https://rag:8443", cfg.API.BaseURL)
	assert.Equal(t, "h3", cfg.API.Transport)
	assert.Equal(t, 6, cfg.API.TopK)
	assert.Equal(t, "debug", cfg.Log.Level)

	err := ApplyOverrides(config.Default(), Args{TopK: -1})
	assert.True(t, IsValidationError(err))

	err = ApplyOverrides(config.Default(), Args{BaseURL: "not a url"})
	var verrs config.ValidateErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestAnswerPrinter_WritesSuffixes(t *testing.T) {
	var buf bytes.Buffer
	p := newAnswerPrinter(&buf, true)

	p.OnAnswer("")
	p.OnAnswer("Hel")
	p.OnAnswer("Hello")
	p.OnAnswer("Hello world")
	p.finish()
	assert.Equal(t, "Hello world\n", buf.String())

	buf.Reset()
	p.OnAnswer("Hello world" + coordinator.FailureMarker)
	assert.Equal(t, coordinator.FailureMarker, buf.String())

	buf.Reset()
	p.OnAnswer("Different")
	assert.Equal(t, "\nDifferent", buf.String())
}

func TestAnswerPrinter_NotLive(t *testing.T) {
	var buf bytes.Buffer
	p := newAnswerPrinter(&buf, false)
	p.OnAnswer("Hello")
	p.finish()
	assert.Empty(t, buf.String())
}

func TestApp_RecordSkipsIgnored(t *testing.T) {
	tracker, err := telemetry.NewUsageTracker(t.TempDir())
	require.NoError(t, err)
	app := &App{Usage: tracker}

	app.Record(coordinator.Result{Outcome: coordinator.OutcomeIgnored})
	app.Record(coordinator.Result{Outcome: coordinator.OutcomeCompleted, Query: "q", Tokens: 3, Latency: time.Second})

	cur := tracker.Current()
	assert.Equal(t, 1, cur.Queries)
	assert.Equal(t, 3, cur.Tokens)
}

// =============================================================================
// COMMANDS
// =============================================================================

func TestHandleAsk_StreamsAnswer(t *testing.T) {
	app, out := newTestApp(t, &backend{})

	err := HandleAsk(context.Background(), app, Args{Query: "What is RAG?"})
	require.NoError(t, err)

	s := out.String()
	assert.Contains(t, s, "Hello world\n")
	assert.Contains(t, s, "[1] a.md (0.900)")
	assert.Contains(t, s, "[2] passage (0.400)")
	assert.Contains(t, s, "2 sources · 2 tokens")
}

func TestHandleAsk_JSON(t *testing.T) {
	app, out := newTestApp(t, &backend{})

	require.NoError(t, HandleAsk(context.Background(), app, Args{Query: "q", JSON: true}))

	resp := decodeResponse(t, out)
	assert.Equal(t, true, resp["success"])
	data := resp["data"].(map[string]any)
	assert.Equal(t, "Hello world", data["answer"])
	assert.Equal(t, "completed", data["outcome"])
	assert.Len(t, data["sources"], 2)
	assert.NotEmpty(t, data["request_id"])
}

func TestHandleAsk_StreamFailure(t *testing.T) {
	app, out := newTestApp(t, &backend{chatStatus: http.StatusInternalServerError})

	err := HandleAsk(context.Background(), app, Args{Query: "q", Quiet: true})
	var reported *ReportedError
	require.ErrorAs(t, err, &reported)
	assert.Equal(t, ExitNetworkError, reported.Code)
	assert.Contains(t, out.String(), coordinator.FailureMessage)
}

func TestHandleAsk_EmptyQuery(t *testing.T) {
	app, _ := newTestApp(t, &backend{})
	err := HandleAsk(context.Background(), app, Args{Query: "   "})
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestHandleRetrieve_JSON(t *testing.T) {
	app, out := newTestApp(t, &backend{})

	require.NoError(t, HandleRetrieve(context.Background(), app, Args{Query: "deploy", JSON: true}))

	data := decodeResponse(t, out)["data"].(map[string]any)
	assert.Equal(t, "deploy", data["query"])
	assert.EqualValues(t, 4, data["top_k"])
	sources := data["sources"].([]any)
	require.Len(t, sources, 2)
	first := sources[0].(map[string]any)
	assert.EqualValues(t, 1, first["rank"])
	assert.Equal(t, "a.md", first["source"])
}

func TestHandleHealth(t *testing.T) {
	app, out := newTestApp(t, &backend{})
	require.NoError(t, HandleHealth(context.Background(), app, Args{}))
	assert.Contains(t, out.String(), "llama3")
	assert.Contains(t, out.String(), "[OK]")

	app, out = newTestApp(t, &backend{health: `{"ok":false}`})
	err := HandleHealth(context.Background(), app, Args{JSON: true})
	assert.Equal(t, ExitNetworkError, GetExitCode(err))
	resp := decodeResponse(t, out)
	assert.Equal(t, false, resp["success"])
}

func TestHandleIngest(t *testing.T) {
	b := &backend{ingested: make(chan agenthub.IngestRequest, 1)}
	app, out := newTestApp(t, b)

	err := HandleIngest(context.Background(), app, Args{Raw: []string{"docs/", "--collection", "notes"}})
	require.NoError(t, err)

	req := <-b.ingested
	assert.Equal(t, "docs/", req.Path)
	assert.Equal(t, "notes", req.Collection)
	assert.Contains(t, out.String(), "Ingested 3 from docs/")

	err = HandleIngest(context.Background(), app, Args{})
	assert.True(t, IsValidationError(err))
}

func TestHandleStats(t *testing.T) {
	tracker, err := telemetry.NewUsageTracker(t.TempDir())
	require.NoError(t, err)
	tracker.Record(telemetry.QueryRecord{Query: "q", Outcome: "completed", Tokens: 12, Latency: 200 * time.Millisecond})
	require.NoError(t, tracker.EndSession())

	var out bytes.Buffer
	app := &App{Usage: tracker, Stdout: &out}

	require.NoError(t, HandleStats(app, Args{JSON: true}))
	data := decodeResponse(t, &out)["data"].(map[string]any)
	assert.EqualValues(t, 7, data["days"])
	assert.EqualValues(t, 1, data["queries"])
	assert.EqualValues(t, 12, data["tokens"])

	err = HandleStats(app, Args{Raw: []string{"--days", "zero"}})
	assert.True(t, IsValidationError(err))
}

func TestConfigCommand(t *testing.T) {
	var out bytes.Buffer
	c := &configCommand{
		w:         &out,
		path:      filepath.Join(t.TempDir(), "config.toml"),
		effective: config.Default(),
	}

	require.NoError(t, c.run(Args{Subcommand: "set", ConfigKey: "api.top_k", ConfigVal: "9"}))
	saved := config.Default()
	require.NoError(t, config.LoadTOML(saved, c.path))
	assert.Equal(t, 9, saved.API.TopK)

	info, err := os.Stat(c.path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// Validation runs before anything is written.
	assert.Error(t, c.run(Args{Subcommand: "set", ConfigKey: "api.top_k", ConfigVal: "0"}))
	require.NoError(t, config.LoadTOML(saved, c.path))
	assert.Equal(t, 9, saved.API.TopK)

	assert.True(t, IsValidationError(c.run(Args{Subcommand: "set", ConfigKey: "api.top_k"})))
	assert.True(t, IsValidationError(c.run(Args{Subcommand: "get", ConfigKey: "api.nope"})))
	assert.True(t, IsValidationError(c.run(Args{Subcommand: "bogus"})))

	out.Reset()
	require.NoError(t, c.run(Args{Subcommand: "get", ConfigKey: "api.base_url"}))
	assert.Equal(t, "http://localhost:8000\n", out.String())

	out.Reset()
	require.NoError(t, c.run(Args{Subcommand: "show"}))
	assert.Contains(t, out.String(), "[api]")
	assert.Contains(t, out.String(), "otlp_endpoint")
}

// =============================================================================
// CHAT
// =============================================================================

func TestChatSession_HandleInput(t *testing.T) {
	app, out := newTestApp(t, &backend{})
	s := newChatSession(app, Args{Quiet: true})
	ctx := context.Background()

	cont, err := s.handleInput(ctx, "   ")
	require.NoError(t, err)
	assert.True(t, cont)
	assert.Equal(t, 0, s.queries)

	cont, err = s.handleInput(ctx, "What is RAG?")
	require.NoError(t, err)
	assert.True(t, cont)
	assert.Contains(t, out.String(), "Hello world")
	assert.Equal(t, 1, s.queries)
	assert.Equal(t, 2, s.tokens)
	assert.Equal(t, coordinator.OutcomeCompleted, s.last.Outcome)

	out.Reset()
	cont, err = s.handleInput(ctx, "/sources")
	require.NoError(t, err)
	assert.True(t, cont)
	assert.Contains(t, out.String(), "a.md")

	_, err = s.handleInput(ctx, "/bogus")
	assert.Error(t, err)

	cont, _ = s.handleInput(ctx, "/quit")
	assert.False(t, cont)
	cont, _ = s.handleInput(ctx, "EXIT")
	assert.False(t, cont)
}

// scriptedReader replays lines, then blocks until closed or reports EOF.
type scriptedReader struct {
	lines    []string
	block    bool
	prompted chan struct{}
	closed   chan struct{}
}

func newScriptedReader(block bool, lines ...string) *scriptedReader {
	return &scriptedReader{
		lines:    lines,
		block:    block,
		prompted: make(chan struct{}, 16),
		closed:   make(chan struct{}),
	}
}

func (r *scriptedReader) ReadInput(string) (string, error) {
	select {
	case r.prompted <- struct{}{}:
	default:
	}
	if len(r.lines) > 0 {
		line := r.lines[0]
		r.lines = r.lines[1:]
		return line, nil
	}
	if r.block {
		<-r.closed
	}
	return "", io.EOF
}

func (r *scriptedReader) Close() {
	close(r.closed)
}

func TestRunChat_EndsOnEOF(t *testing.T) {
	app, out := newTestApp(t, &backend{})
	s := newChatSession(app, Args{Quiet: true})
	in := newScriptedReader(false, "What is RAG?", "")

	err := runChat(context.Background(), s, in)
	require.NoError(t, err)
	assert.Equal(t, 1, s.queries)
	assert.Contains(t, out.String(), "Hello world")
	assert.Equal(t, coordinator.Idle, s.coord.Status())
}

func TestRunChat_ContextCancelWhileIdle(t *testing.T) {
	app, _ := newTestApp(t, &backend{})
	s := newChatSession(app, Args{Quiet: true})
	in := newScriptedReader(true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runChat(ctx, s, in) }()

	<-in.prompted
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("chat did not return after cancellation")
	}
	assert.Equal(t, coordinator.Idle, s.coord.Status())
}
