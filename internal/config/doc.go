// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for agenthub.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - APIConfig: Backend URL, top-k, timeouts and transport
//   - LogConfig, TelemetryConfig: Ambient logging and OpenTelemetry export
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (AGENTHUB_*)
//   - ~/.agenthub/config.toml
//   - ~/.agenthub/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	base := cfg.API.BaseURL
//
// Dotted keys back the config command:
//
//	_ = cfg.Set("api.top_k", "8")
//	v, _ := cfg.Get("api.top_k")
package config
