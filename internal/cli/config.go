// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation.
//
// Command: config [subcommand]
//
// Subcommands:
//
//	show (default)      Display the effective configuration
//	get <key>           Print one value
//	set <key> <value>   Set a value in ~/.agenthub/config.toml
//	list                List all keys
//	path                Show the configuration file path
//	reset               Reset the file to defaults
//
// Examples:
//
//	agenthub config set api.base_url http://rag.internal:8000
//	agenthub config set api.top_k 8
//	agenthub config set ui.markdown false
//	agenthub config get api.transport
//	agenthub config show --json
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeranaias/agenthub/internal/config"
	"github.com/jeranaias/agenthub/internal/ui/styles"
)

// configCommand runs config subcommands against one file.
type configCommand struct {
	w    io.Writer
	path string
	json bool

	// effective is the configuration in use (file, env and flags applied).
	effective *config.Config
}

// HandleConfig handles the "config" command. cfg is the effective
// configuration; set and reset edit the TOML file.
func HandleConfig(cfg *config.Config, args Args) error {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return NewCommandError("config", args.Subcommand, "no config path", err)
	}
	c := &configCommand{w: os.Stdout, path: path, json: args.JSON, effective: cfg}
	return c.run(args)
}

func (c *configCommand) run(args Args) error {
	switch args.Subcommand {
	case "", "show":
		return c.show()
	case "get":
		return c.get(args.ConfigKey)
	case "set":
		return c.set(args.ConfigKey, args.ConfigVal)
	case "list", "keys":
		return c.list()
	case "path":
		return c.showPath()
	case "reset":
		return c.reset()
	default:
		return &ValidationError{
			Field:   "config subcommand",
			Value:   args.Subcommand,
			Reason:  "must be show, get, set, list, path or reset",
			Example: "agenthub config show",
		}
	}
}

func (c *configCommand) show() error {
	if c.json {
		return NewJSONResponse("config show", c.effective).Fprint(c.w)
	}

	fmt.Fprintln(c.w, TitleStyle.Render("agenthub configuration"))
	section := ""
	for _, key := range config.GetAllKeys() {
		sec, name, _ := strings.Cut(key, ".")
		if sec != section {
			section = sec
			fmt.Fprintln(c.w)
			fmt.Fprintln(c.w, LabelStyle.Render("["+sec+"]"))
		}
		v, _ := c.effective.Get(key)
		fmt.Fprintf(c.w, "  %-22s %s\n", name, ValueStyle.Render(formatConfigValue(v)))
	}
	fmt.Fprintln(c.w)
	fmt.Fprintf(c.w, "Config file: %s\n", DimStyle.Render(c.path))
	return nil
}

func (c *configCommand) get(key string) error {
	if key == "" {
		return ErrMissingArgument("key", "agenthub config get api.base_url")
	}
	v, err := c.effective.Get(strings.ToLower(key))
	if err != nil {
		return &ValidationError{Field: "key", Value: key, Reason: "unknown key", Example: "agenthub config list"}
	}
	if c.json {
		return NewJSONResponse("config get", map[string]any{"key": key, "value": v}).Fprint(c.w)
	}
	fmt.Fprintln(c.w, formatConfigValue(v))
	return nil
}

func (c *configCommand) set(key, value string) error {
	if key == "" {
		return ErrMissingArgument("key", "agenthub config set <key> <value>")
	}
	if value == "" {
		return ErrMissingArgument("value", "agenthub config set "+key+" <value>")
	}
	key = strings.ToLower(key)

	// Edit the file as written, without env or flag overrides.
	cfg, err := c.loadFile()
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return &ValidationError{Field: key, Value: value, Reason: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration value: %w", err)
	}
	if err := config.SaveTOML(cfg, c.path); err != nil {
		return NewCommandError("config", "set", "could not save", err)
	}

	if c.json {
		return NewJSONResponse("config set", map[string]any{"key": key, "value": value, "path": c.path}).Fprint(c.w)
	}
	fmt.Fprintln(c.w, styles.RenderSuccess(key+" = "+value))
	return nil
}

func (c *configCommand) list() error {
	keys := config.GetAllKeys()
	if c.json {
		return NewJSONResponse("config list", keys).Fprint(c.w)
	}
	for _, k := range keys {
		fmt.Fprintln(c.w, k)
	}
	return nil
}

func (c *configCommand) showPath() error {
	_, err := os.Stat(c.path)
	exists := err == nil
	if c.json {
		return NewJSONResponse("config path", map[string]any{"path": c.path, "exists": exists}).Fprint(c.w)
	}
	fmt.Fprintln(c.w, c.path)
	if !exists {
		fmt.Fprintln(c.w, DimStyle.Render("(file does not exist; defaults are in use)"))
	}
	return nil
}

func (c *configCommand) reset() error {
	if err := config.SaveTOML(config.Default(), c.path); err != nil {
		return NewCommandError("config", "reset", "could not save", err)
	}
	if c.json {
		return NewJSONResponse("config reset", map[string]any{"path": c.path}).Fprint(c.w)
	}
	fmt.Fprintln(c.w, styles.RenderSuccess("Configuration reset to defaults"))
	fmt.Fprintf(c.w, "Config file: %s\n", DimStyle.Render(c.path))
	return nil
}

// loadFile reads the config file, or defaults if it does not exist.
func (c *configCommand) loadFile() (*config.Config, error) {
	cfg := config.Default()
	if _, err := os.Stat(c.path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err := config.LoadTOML(cfg, c.path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func formatConfigValue(v any) string {
	if s, ok := v.(string); ok && s == "" {
		return "(not set)"
	}
	return fmt.Sprint(v)
}
