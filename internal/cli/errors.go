// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types, display and exit codes for CLI commands.
//
// Handlers return errors; main decides how to display them.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jeranaias/agenthub/internal/agenthub"
	"github.com/jeranaias/agenthub/internal/config"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitConfigError  = 3
	ExitNetworkError = 5
	ExitTimeoutError = 8
	ExitInterrupted  = 130
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError is a command failure with context.
type CommandError struct {
	Command string
	Action  string
	Reason  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError is invalid user input.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// ReportedError carries an exit code for a failure the command has already
// shown to the user.
type ReportedError struct {
	Code int
	Err  error
}

func (e *ReportedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ReportedError) Unwrap() error {
	return e.Err
}

// =============================================================================
// CONSTRUCTORS
// =============================================================================

// NewCommandError creates a command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// ErrMissingArgument reports a required argument that was not given.
func ErrMissingArgument(argName, usage string) error {
	return &ValidationError{Field: argName, Reason: "required", Example: usage}
}

// ErrInvalidFormat reports a value in the wrong format.
func ErrInvalidFormat(field, value, expected string) error {
	return &ValidationError{Field: field, Value: value, Reason: "expected " + expected}
}

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError prints err for the user. Already reported errors are skipped.
func DisplayError(err error, jsonMode bool) {
	displayError(os.Stdout, os.Stderr, err, jsonMode)
}

func displayError(stdout, stderr io.Writer, err error, jsonMode bool) {
	if err == nil {
		return
	}
	var reported *ReportedError
	if errors.As(err, &reported) {
		return
	}

	if jsonMode {
		displayErrorJSON(stdout, err)
		return
	}
	fmt.Fprintf(stderr, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
}

func displayErrorJSON(w io.Writer, err error) {
	output := map[string]any{
		"success":    false,
		"error":      err.Error(),
		"error_type": errorType(err),
	}

	var cmdErr *CommandError
	var valErr *ValidationError
	switch {
	case errors.As(err, &valErr):
		output["field"] = valErr.Field
		if valErr.Example != "" {
			output["example"] = valErr.Example
		}
	case errors.As(err, &cmdErr):
		output["command"] = cmdErr.Command
		output["action"] = cmdErr.Action
	}
	if status, ok := agenthub.IsNetworkError(err); ok && status > 0 {
		output["status"] = status
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(output)
}

func errorType(err error) string {
	var valErr *ValidationError
	var cfgErr config.ValidateErrors
	switch {
	case errors.As(err, &valErr):
		return "validation_error"
	case errors.As(err, &cfgErr):
		return "config_error"
	case isBackendError(err):
		return "network_error"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "command_error"
	}
}

// GetExitCode maps an error to a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var reported *ReportedError
	if errors.As(err, &reported) {
		return reported.Code
	}
	if IsValidationError(err) ||
		errors.Is(err, agenthub.ErrInvalidTopK) ||
		errors.Is(err, agenthub.ErrNoIngestPath) {
		return ExitUsageError
	}
	var cfgErr config.ValidateErrors
	if errors.As(err, &cfgErr) {
		return ExitConfigError
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ExitTimeoutError
	}
	if errors.Is(err, context.Canceled) {
		return ExitInterrupted
	}
	if isBackendError(err) {
		return ExitNetworkError
	}
	return ExitGeneralError
}

func isBackendError(err error) bool {
	if _, ok := agenthub.IsNetworkError(err); ok {
		return true
	}
	if agenthub.IsStreamOpenError(err) {
		return true
	}
	var streamErr *agenthub.StreamError
	return errors.As(err, &streamErr)
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}
