// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode chat REPL.
//
// Command: chat
//
// Each line is submitted as a question; the answer streams below it.
//
// Interactive commands:
//
//	/help, /h        Show commands
//	/sources, /s     Show the sources of the last answer
//	/stats           Show session statistics
//	/quit, /q        Exit
//	Ctrl+C           Stop the current answer (exit when idle)
//	Ctrl+D           Exit
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/agenthub/internal/config"
	"github.com/jeranaias/agenthub/internal/coordinator"
	"github.com/jeranaias/agenthub/internal/ui/styles"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides line editing and persistent input history.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a line editor with history loaded from
// ~/.agenthub/chat_history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	c := &ChatCLI{line: line, historyFile: filepath.Join(dir, "chat_history")}
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
	return c
}

// ReadInput prompts for one line. Non-empty lines are added to history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history (owner-only permissions) and restores the terminal.
func (c *ChatCLI) Close() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0o700); err == nil {
		if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			_, _ = c.line.WriteHistory(f)
			f.Close()
		}
	}
	c.line.Close()
}

// =============================================================================
// SESSION
// =============================================================================

type chatSession struct {
	app         *App
	coord       *coordinator.Coordinator
	printer     *answerPrinter
	useMarkdown bool
	quiet       bool

	start   time.Time
	queries int
	tokens  int
	last    coordinator.Result
}

func newChatSession(app *App, args Args) *chatSession {
	useMarkdown := app.Markdown
	printer := newAnswerPrinter(app.Stdout, !useMarkdown)
	return &chatSession{
		app:         app,
		coord:       app.Coordinator(printer),
		printer:     printer,
		useMarkdown: useMarkdown,
		quiet:       args.Quiet,
		start:       time.Now(),
	}
}

// lineReader is the prompt the REPL reads from. *ChatCLI is the
// terminal implementation.
type lineReader interface {
	ReadInput(prompt string) (string, error)
	Close()
}

// HandleChat runs the REPL until the user quits or the process receives
// SIGTERM.
func HandleChat(ctx context.Context, app *App, args Args) error {
	return runChat(ctx, newChatSession(app, args), NewChatCLI())
}

type readResult struct {
	line string
	err  error
}

// runChat drives the session from in. SIGINT stops the answer being
// streamed; SIGTERM ends the session whether or not one is running.
func runChat(ctx context.Context, s *chatSession, in lineReader) error {
	defer in.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()

	release := stopOnInterrupt(func() {
		if s.coord.Status() != coordinator.Idle {
			s.coord.Stop()
			fmt.Fprintln(s.app.Stderr, "\n"+styles.RenderWarning("Stopped"))
		}
	}, os.Interrupt)
	defer release()

	if !s.quiet {
		s.printWelcome()
	}

	for {
		// The prompt blocks on the terminal, so it is read off the
		// session goroutine to let cancellation end the loop.
		lines := make(chan readResult, 1)
		go func() {
			line, err := in.ReadInput(promptStyle.Render("agenthub> "))
			lines <- readResult{line: line, err: err}
		}()

		var r readResult
		select {
		case <-ctx.Done():
			s.coord.Stop()
			fmt.Fprintln(s.app.Stdout)
			s.printExitSummary()
			return ctx.Err()
		case r = <-lines:
		}

		if r.err != nil {
			// Ctrl+C at the prompt, Ctrl+D or a closed stdin.
			fmt.Fprintln(s.app.Stdout)
			s.printExitSummary()
			if errors.Is(r.err, liner.ErrPromptAborted) || errors.Is(r.err, io.EOF) {
				return nil
			}
			return r.err
		}

		cont, err := s.handleInput(ctx, r.line)
		if err != nil {
			fmt.Fprintf(s.app.Stderr, "%s %v\n", ErrorStyle.Render("[Error]"), err)
		}
		if !cont {
			s.printExitSummary()
			return nil
		}
		if ctx.Err() != nil {
			s.printExitSummary()
			return ctx.Err()
		}
	}
}

// handleInput processes one line. It returns false when the session
// should end.
func (s *chatSession) handleInput(ctx context.Context, input string) (bool, error) {
	input = strings.TrimSpace(input)
	switch {
	case input == "":
		return true, nil
	case strings.HasPrefix(input, "/"):
		return s.handleSlashCommand(input)
	case strings.EqualFold(input, "exit"), strings.EqualFold(input, "quit"):
		return false, nil
	}

	s.printer.reset()
	res := s.coord.Submit(ctx, input)
	s.app.Record(res)

	s.last = res
	s.queries++
	s.tokens += res.Tokens

	if s.useMarkdown {
		fmt.Fprint(s.app.Stdout, renderMarkdown(res.Answer, GetTerminalWidth()-4))
	} else {
		s.printer.finish()
	}
	if !s.quiet {
		printSummary(s.app.Stdout, res)
	}
	fmt.Fprintln(s.app.Stdout)
	return true, nil
}

func (s *chatSession) handleSlashCommand(input string) (bool, error) {
	fields := strings.Fields(input)
	switch strings.ToLower(fields[0]) {
	case "/quit", "/q", "/exit":
		return false, nil
	case "/help", "/h":
		s.printHelp()
	case "/sources", "/s":
		printSources(s.app.Stdout, s.last.Hits)
	case "/stats":
		s.printStats()
	default:
		return true, fmt.Errorf("unknown command %s (try /help)", fields[0])
	}
	return true, nil
}

// =============================================================================
// OUTPUT
// =============================================================================

func (s *chatSession) printWelcome() {
	w := s.app.Stdout
	fmt.Fprintln(w, TitleStyle.Render("agenthub chat"))
	fmt.Fprintf(w, "%s %s\n", RenderLabel("Backend"), ValueStyle.Render(s.app.Client.BaseURL()))
	fmt.Fprintf(w, "%s %s\n", RenderLabel("Passages"), ValueStyle.Render(fmt.Sprint(s.app.Config.API.TopK)))
	fmt.Fprintln(w, DimStyle.Render("Type a question, /help for commands, Ctrl+D to exit."))
	fmt.Fprintln(w)
}

func (s *chatSession) printHelp() {
	w := s.app.Stdout
	fmt.Fprintln(w, TitleStyle.Render("Commands"))
	fmt.Fprintln(w, "  /sources, /s   sources of the last answer")
	fmt.Fprintln(w, "  /stats         session statistics")
	fmt.Fprintln(w, "  /quit, /q      exit")
	fmt.Fprintln(w, "  Ctrl+C         stop the current answer")
}

func (s *chatSession) printStats() {
	w := s.app.Stdout
	fmt.Fprintf(w, "%s %d\n", RenderLabel("Questions"), s.queries)
	fmt.Fprintf(w, "%s %d\n", RenderLabel("Tokens"), s.tokens)
	fmt.Fprintf(w, "%s %s\n", RenderLabel("Session"), formatDurationShort(time.Since(s.start)))
	if s.app.Usage != nil {
		cur := s.app.Usage.Current()
		if avg := cur.AverageLatency(); avg > 0 {
			fmt.Fprintf(w, "%s %s\n", RenderLabel("Avg latency"), formatLatency(avg))
		}
	}
}

func (s *chatSession) printExitSummary() {
	if s.quiet || s.queries == 0 {
		return
	}
	fmt.Fprintln(s.app.Stdout, DimStyle.Render(fmt.Sprintf("%d questions, %d tokens in %s",
		s.queries, s.tokens, formatDurationShort(time.Since(s.start)))))
}
