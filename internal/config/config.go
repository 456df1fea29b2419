// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/jeranaias/chatwidget/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete chatwidget configuration.
type Config struct {
	// Query endpoint
	Endpoint EndpointConfig `toml:"endpoint" json:"endpoint"`

	// Where chat history is kept
	Storage StorageConfig `toml:"storage" json:"storage"`

	// Conversation defaults
	Chat ChatConfig `toml:"chat" json:"chat"`

	// Voice dictation
	Dictation DictationConfig `toml:"dictation" json:"dictation"`

	// Logging
	Log LogConfig `toml:"log" json:"log"`

	// Terminal presentation
	UI UIConfig `toml:"ui" json:"ui"`
}

// EndpointConfig configures the remote query endpoint.
type EndpointConfig struct {
	// URL receives POST requests with {"query", "conversation_id"}.
	URL string `toml:"url" json:"url"`

	// TimeoutSecs bounds each request. 0 disables the timeout.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`

	// UserAgent is sent with every request.
	UserAgent string `toml:"user_agent" json:"user_agent"`
}

// StorageConfig configures history persistence.
type StorageConfig struct {
	// Backend is "file", "sqlite" or "memory".
	Backend string `toml:"backend" json:"backend"`

	// Dir is the profile data directory (default ~/.chatwidget).
	Dir string `toml:"dir" json:"dir"`

	// Watch reloads history written by other instances (file backend only).
	Watch bool `toml:"watch" json:"watch"`
}

// ChatConfig configures the conversation.
type ChatConfig struct {
	// Greeting is the seeded assistant message of a new conversation.
	Greeting string `toml:"greeting" json:"greeting"`

	// TimestampLayout is a Go time layout for message timestamps.
	TimestampLayout string `toml:"timestamp_layout" json:"timestamp_layout"`
}

// DictationConfig configures voice input.
type DictationConfig struct {
	Enabled bool `toml:"enabled" json:"enabled"`

	// URL of the websocket speech-recognition service.
	URL string `toml:"url" json:"url"`

	// Language is a BCP 47 tag such as "en-US".
	Language string `toml:"language" json:"language"`

	// Platform picks the wording of microphone guidance
	// (chrome, edge, firefox, safari, generic).
	Platform string `toml:"platform" json:"platform"`

	// CaptureCommand records raw audio to stdout.
	CaptureCommand []string `toml:"capture_command" json:"capture_command"`

	// CaptureFile replays a raw audio file instead of recording.
	CaptureFile string `toml:"capture_file" json:"capture_file"`

	SampleRate int `toml:"sample_rate" json:"sample_rate"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is a zerolog level name.
	Level string `toml:"level" json:"level"`

	// File receives JSON log lines (default <storage.dir>/chatwidget.log).
	File string `toml:"file" json:"file"`
}

// UIConfig configures the terminal chat view.
type UIConfig struct {
	// Theme is "dark", "light" or "auto".
	Theme string `toml:"theme" json:"theme"`

	// RenderMarkdown renders assistant replies as Markdown.
	RenderMarkdown bool `toml:"render_markdown" json:"render_markdown"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a config with default values.
func Default() *Config {
	return &Config{
		Endpoint: EndpointConfig{
			URL:       "http://127.0.0.1:8000/query",
			UserAgent: "chatwidget/1.0",
		},
		Storage: StorageConfig{
			Backend: "file",
			Watch:   true,
		},
		Chat: ChatConfig{
			Greeting:        "Hello! I'm your AI assistant. How can I help you today?",
			TimestampLayout: "Jan 2, 3:04 PM",
		},
		Dictation: DictationConfig{
			Enabled:        false,
			URL:            "ws://127.0.0.1:8000/asr",
			Language:       "en-US",
			Platform:       "generic",
			CaptureCommand: []string{"arecord", "-q", "-f", "S16_LE", "-r", "16000", "-c", "1", "-t", "raw"},
			SampleRate:     16000,
		},
		Log: LogConfig{
			Level: "info",
		},
		UI: UIConfig{
			Theme:          "dark",
			RenderMarkdown: true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the chatwidget configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".chatwidget"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// DataDir returns the directory holding chat history.
func (c *Config) DataDir() (string, error) {
	if c.Storage.Dir != "" {
		return expandHome(c.Storage.Dir)
	}
	return ConfigDir()
}

// LogFilePath returns the file log lines are written to.
func (c *Config) LogFilePath() (string, error) {
	if c.Log.File != "" {
		return expandHome(c.Log.File)
	}
	dir, err := c.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "chatwidget.log"), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// A .env file in the working directory is read first, then TOML is tried,
// then JSON, falling back to defaults. Environment overrides are applied
// last. A file that fails to parse is reported along with the defaults.
func Load() (*Config, error) {
	loadDotEnv()
	cfg := Default()
	var loadErr error

	// Try TOML first
	if tomlPath, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finish(cfg)
			}
		}
	}

	// Try JSON as fallback
	if jsonPath, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = errors.Join(loadErr, fmt.Errorf("failed to load JSON config: %w", err))
			} else {
				return finish(cfg)
			}
		}
	}

	cfg = Default()
	cfg, err := finish(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	loadDotEnv()
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}
	return finish(cfg)
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadDotEnv reads ./.env without overriding variables already set.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
}

// SetDefaults fills zero values that must not stay empty.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Endpoint.URL == "" {
		c.Endpoint.URL = defaults.Endpoint.URL
	}
	if c.Endpoint.UserAgent == "" {
		c.Endpoint.UserAgent = defaults.Endpoint.UserAgent
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaults.Storage.Backend
	}
	if strings.TrimSpace(c.Chat.Greeting) == "" {
		c.Chat.Greeting = defaults.Chat.Greeting
	}
	if c.Chat.TimestampLayout == "" {
		c.Chat.TimestampLayout = defaults.Chat.TimestampLayout
	}
	if c.Dictation.Language == "" {
		c.Dictation.Language = defaults.Dictation.Language
	}
	if c.Dictation.Platform == "" {
		c.Dictation.Platform = defaults.Dictation.Platform
	}
	if c.Dictation.SampleRate == 0 {
		c.Dictation.SampleRate = defaults.Dictation.SampleRate
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg to path with a header comment.
func SaveTOML(cfg *Config, path string) error {
	var sb strings.Builder
	sb.WriteString("# chatwidget configuration file\n")
	sb.WriteString("# Environment variables (CHATWIDGET_*) override these values.\n\n")

	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, []byte(sb.String()), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes cfg to path as indented JSON.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, data, 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validBackends  = map[string]bool{"file": true, "sqlite": true, "memory": true}
	validThemes    = map[string]bool{"dark": true, "light": true, "auto": true}
	validPlatforms = map[string]bool{"chrome": true, "edge": true, "firefox": true, "safari": true, "generic": true}
)

// Validate returns ValidateErrors listing every invalid field, or nil.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if err := validateURL(c.Endpoint.URL, "http", "https"); err != nil {
		add("endpoint.url", "%v", err)
	}
	if c.Endpoint.TimeoutSecs < 0 {
		add("endpoint.timeout_secs", "must not be negative, got %d", c.Endpoint.TimeoutSecs)
	}

	if !validBackends[c.Storage.Backend] {
		add("storage.backend", "must be file, sqlite or memory, got %q", c.Storage.Backend)
	}

	if c.Dictation.Enabled {
		if err := validateURL(c.Dictation.URL, "ws", "wss"); err != nil {
			add("dictation.url", "%v", err)
		}
		if len(c.Dictation.CaptureCommand) == 0 && c.Dictation.CaptureFile == "" {
			add("dictation.capture_command", "a capture command or capture file is required")
		}
	}
	if _, err := language.Parse(c.Dictation.Language); err != nil {
		add("dictation.language", "invalid language tag %q", c.Dictation.Language)
	}
	if !validPlatforms[strings.ToLower(c.Dictation.Platform)] {
		add("dictation.platform", "unknown platform %q", c.Dictation.Platform)
	}
	if c.Dictation.SampleRate <= 0 {
		add("dictation.sample_rate", "must be positive, got %d", c.Dictation.SampleRate)
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		add("log.level", "unknown level %q", c.Log.Level)
	}

	if !validThemes[c.UI.Theme] {
		add("ui.theme", "must be dark, light or auto, got %q", c.UI.Theme)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %v", raw, err)
	}
	if u.Host == "" {
		return fmt.Errorf("URL %q has no host", raw)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("URL %q must use %s", raw, strings.Join(schemes, " or "))
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - CHATWIDGET_ENDPOINT: overrides endpoint.url
//   - CHATWIDGET_DATA_DIR: overrides storage.dir
//   - CHATWIDGET_STORAGE: overrides storage.backend
//   - CHATWIDGET_LOG_LEVEL: overrides log.level
//   - CHATWIDGET_DICTATION_URL: overrides dictation.url and enables dictation
//   - CHATWIDGET_LANGUAGE: overrides dictation.language
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("CHATWIDGET_ENDPOINT"); v != "" {
		c.Endpoint.URL = v
	}
	if v := os.Getenv("CHATWIDGET_DATA_DIR"); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv("CHATWIDGET_STORAGE"); v != "" {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("CHATWIDGET_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("CHATWIDGET_DICTATION_URL"); v != "" {
		c.Dictation.URL = v
		c.Dictation.Enabled = true
	}
	if v := os.Getenv("CHATWIDGET_LANGUAGE"); v != "" {
		c.Dictation.Language = v
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "endpoint.url").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "ui.theme").
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			lower := strings.ToLower(strVal)
			field.SetBool(lower == "1" || lower == "true" || lower == "yes")
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				field.Set(reflect.ValueOf(strings.Fields(strVal)))
				return nil
			}
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"endpoint.url",
		"endpoint.timeout_secs",
		"endpoint.user_agent",
		"storage.backend",
		"storage.dir",
		"storage.watch",
		"chat.greeting",
		"chat.timestamp_layout",
		"dictation.enabled",
		"dictation.url",
		"dictation.language",
		"dictation.platform",
		"dictation.capture_command",
		"dictation.capture_file",
		"dictation.sample_rate",
		"log.level",
		"log.file",
		"ui.theme",
		"ui.render_markdown",
	}
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Dictation.CaptureCommand = append([]string(nil), c.Dictation.CaptureCommand...)
	return &clone
}

// String returns the config as indented JSON.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
