// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command-line parsing for agenthub.
package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Version information (overridden at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command is the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdRetrieve
	CmdHealth
	CmdIngest
	CmdConfig
	CmdStats
	CmdVersion
	CmdHelp
	CmdUnknown
)

var commandNames = map[Command]string{
	CmdTUI:      "tui",
	CmdAsk:      "ask",
	CmdChat:     "chat",
	CmdRetrieve: "retrieve",
	CmdHealth:   "health",
	CmdIngest:   "ingest",
	CmdConfig:   "config",
	CmdStats:    "stats",
	CmdVersion:  "version",
	CmdHelp:     "help",
	CmdUnknown:  "unknown",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	JSON    bool
	Quiet   bool
	Verbose bool

	// Overrides applied on top of the loaded configuration.
	BaseURL   string
	Transport string
	TopK      int

	// Command-specific
	Query      string
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// Name is the unrecognized command for CmdUnknown.
	Name string

	// Raw holds the arguments after the command name.
	Raw []string
}

const usageText = `agenthub - terminal client for a retrieval-augmented question answering service

Usage:
  agenthub [global flags] [command] [args]

Commands:
  tui                      Interactive terminal UI (default)
  ask <question>           Ask one question and stream the answer
  chat                     Line-mode chat session
  retrieve <query>         Show the passages retrieved for a query
  health                   Check the backend
  ingest --path P | --url U [--collection C]
                           Ask the backend to ingest a document
  config [show|get|set|list|path|reset]
                           Show or change configuration
  stats [--days N]         Show local usage statistics
  version                  Show version information
  help                     Show this help

Global flags:
  --api-base URL           Backend base URL (default from config)
  --transport http|h3      HTTP transport
  --top-k N                Number of passages to retrieve
  --json                   Machine-readable output
  -q, --quiet              Only print the answer
  --verbose                Debug logging

Keys (tui):
  Enter submit, Esc stop, Ctrl+C quit

Configuration: ~/.agenthub/config.toml
Version: %s
`

// PrintUsage prints usage information.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("agenthub version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses the given arguments (without the program name) and
// returns the command and its arguments.
func ParseArgs(argv []string) (Command, Args) {
	remaining, parsed := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsed.Raw = remaining

	switch cmd {
	case "tui", "ui":
		return CmdTUI, parsed

	case "ask", "a":
		parsed.Query = joinQuery(remaining)
		return CmdAsk, parsed

	case "chat":
		return CmdChat, parsed

	case "retrieve", "search", "r":
		parsed.Query = joinQuery(remaining)
		return CmdRetrieve, parsed

	case "health", "status":
		return CmdHealth, parsed

	case "ingest":
		return CmdIngest, parsed

	case "config":
		parseConfigArgs(&parsed, remaining)
		return CmdConfig, parsed

	case "stats", "usage":
		return CmdStats, parsed

	case "version", "-v", "--version":
		return CmdVersion, parsed

	case "help", "-h", "--help":
		return CmdHelp, parsed

	default:
		parsed.Name = cmd
		return CmdUnknown, parsed
	}
}

// parseGlobalFlags extracts global flags and returns the remaining args.
// Global flags may appear anywhere on the command line.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsed Args

	for i := 0; i < len(args); i++ {
		arg := args[i]

		name, value, hasValue := strings.Cut(arg, "=")
		takeValue := func() (string, bool) {
			if hasValue {
				return value, true
			}
			if i+1 < len(args) {
				i++
				return args[i], true
			}
			return "", false
		}

		switch name {
		case "--json":
			parsed.JSON = true
		case "-q", "--quiet":
			parsed.Quiet = true
		case "--verbose":
			parsed.Verbose = true
		case "--api-base", "--base-url":
			if v, ok := takeValue(); ok {
				parsed.BaseURL = v
			}
		case "--transport":
			if v, ok := takeValue(); ok {
				parsed.Transport = v
			}
		case "--top-k", "-k":
			if v, ok := takeValue(); ok {
				if n, err := strconv.Atoi(v); err == nil {
					parsed.TopK = n
				} else {
					// Keep the bad value visible to validation.
					parsed.TopK = -1
				}
			}
		default:
			remaining = append(remaining, arg)
		}
	}

	return remaining, parsed
}

// joinQuery joins the non-flag words of a command into a query.
func joinQuery(words []string) string {
	var query []string
	for _, w := range words {
		if strings.HasPrefix(w, "-") && len(w) > 1 {
			continue
		}
		query = append(query, w)
	}
	return strings.Join(query, " ")
}

// parseConfigArgs parses "config <sub> [key] [value]".
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) == 0 {
		args.Subcommand = "show"
		return
	}
	args.Subcommand = strings.ToLower(remaining[0])
	if len(remaining) > 1 {
		args.ConfigKey = remaining[1]
	}
	if len(remaining) > 2 {
		args.ConfigVal = strings.Join(remaining[2:], " ")
	}
}
