// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for chatwidget.
//
// Supports both TOML and JSON configuration formats, with defaults,
// environment variable overrides, .env files and validation.
//
// # Key Types
//
//   - Config: main configuration structure
//   - EndpointConfig: the remote query endpoint
//   - StorageConfig: where chat history lives
//   - DictationConfig: voice input
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (CHATWIDGET_*), including those from ./.env
//   - ~/.chatwidget/config.toml
//   - ~/.chatwidget/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := cloud.NewClient(cloud.Options{URL: cfg.Endpoint.URL}, logger)
package config
