// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the home directory at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		"CHATWIDGET_ENDPOINT", "CHATWIDGET_DATA_DIR", "CHATWIDGET_STORAGE",
		"CHATWIDGET_LOG_LEVEL", "CHATWIDGET_DICTATION_URL", "CHATWIDGET_LANGUAGE",
	} {
		t.Setenv(key, "")
	}
	return home
}

// =============================================================================
// DEFAULT TESTS
// =============================================================================

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://127.0.0.1:8000/query", cfg.Endpoint.URL)
	assert.Zero(t, cfg.Endpoint.TimeoutSecs, "no timeout by default")
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.False(t, cfg.Dictation.Enabled)
}

func TestLoad_NoFilesUsesDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Endpoint.URL, cfg.Endpoint.URL)

	dir, err := cfg.DataDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".chatwidget"), dir)

	logPath, err := cfg.LogFilePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".chatwidget", "chatwidget.log"), logPath)
}

// =============================================================================
// LOAD TESTS
// =============================================================================

func TestLoad_TOML(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".chatwidget")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
[endpoint]
url = "https://bot.example.com/query"
timeout_secs = 30

[storage]
backend = "sqlite"

[ui]
theme = "light"
`), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://bot.example.com/query", cfg.Endpoint.URL)
	assert.Equal(t, 30, cfg.Endpoint.TimeoutSecs)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "light", cfg.UI.Theme)
	assert.Equal(t, Default().Chat.Greeting, cfg.Chat.Greeting, "unset keys keep defaults")
}

func TestLoad_JSONFallback(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".chatwidget")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"),
		[]byte(`{"chat":{"greeting":"Howdy"}}`), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Howdy", cfg.Chat.Greeting)
}

func TestLoad_BrokenTOMLReportsErrorWithDefaults(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".chatwidget")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[endpoint\nurl="), 0600))

	cfg, err := Load()
	require.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, Default().Endpoint.URL, cfg.Endpoint.URL)
}

func TestLoadFromPath_Invalid(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[endpoint]
url = "ftp://nowhere"
[storage]
backend = "redis"
`), 0600))

	_, err := LoadFromPath(path)
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	fields := map[string]bool{}
	for _, v := range verrs {
		fields[v.Field] = true
	}
	assert.True(t, fields["endpoint.url"])
	assert.True(t, fields["storage.backend"])
}

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("CHATWIDGET_ENDPOINT", "https://env.example.com/query")
	t.Setenv("CHATWIDGET_STORAGE", "MEMORY")
	t.Setenv("CHATWIDGET_LOG_LEVEL", "debug")
	t.Setenv("CHATWIDGET_DICTATION_URL", "wss://asr.example.com/stream")
	t.Setenv("CHATWIDGET_LANGUAGE", "de-DE")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "https://env.example.com/query", cfg.Endpoint.URL)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Dictation.Enabled)
	assert.Equal(t, "wss://asr.example.com/stream", cfg.Dictation.URL)
	assert.Equal(t, "de-DE", cfg.Dictation.Language)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_DotEnv(t *testing.T) {
	isolate(t)
	wd, err := os.Getwd()
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	require.NoError(t, os.WriteFile(".env", []byte("CHATWIDGET_LANGUAGE=fr-FR\n"), 0600))
	os.Unsetenv("CHATWIDGET_LANGUAGE")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "fr-FR", cfg.Dictation.Language)
	os.Unsetenv("CHATWIDGET_LANGUAGE")
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"negative timeout", func(c *Config) { c.Endpoint.TimeoutSecs = -1 }, "endpoint.timeout_secs"},
		{"bad language", func(c *Config) { c.Dictation.Language = "not a tag!" }, "dictation.language"},
		{"bad platform", func(c *Config) { c.Dictation.Platform = "netscape" }, "dictation.platform"},
		{"bad level", func(c *Config) { c.Log.Level = "chatty" }, "log.level"},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"dictation http url", func(c *Config) {
			c.Dictation.Enabled = true
			c.Dictation.URL = "http://asr.example.com"
		}, "dictation.url"},
		{"dictation without source", func(c *Config) {
			c.Dictation.Enabled = true
			c.Dictation.CaptureCommand = nil
		}, "dictation.capture_command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs))
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

// =============================================================================
// SAVE / GET / SET TESTS
// =============================================================================

func TestSaveTOML_RoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Endpoint.URL = "https://saved.example.com/query"
	cfg.Dictation.CaptureCommand = []string{"rec", "-t", "raw", "-"}
	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSaveJSON_RoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := Default()
	cfg.UI.RenderMarkdown = false
	require.NoError(t, SaveJSON(cfg, path))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.False(t, loaded.UI.RenderMarkdown)
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("endpoint.url", "https://x.example.com/q"))
	require.NoError(t, cfg.Set("endpoint.timeout_secs", "15"))
	require.NoError(t, cfg.Set("ui.render_markdown", "false"))
	require.NoError(t, cfg.Set("dictation.capture_command", "rec -q -t raw -"))

	v, err := cfg.Get("endpoint.url")
	require.NoError(t, err)
	assert.Equal(t, "https://x.example.com/q", v)
	assert.Equal(t, 15, cfg.Endpoint.TimeoutSecs)
	assert.False(t, cfg.UI.RenderMarkdown)
	assert.Equal(t, []string{"rec", "-q", "-t", "raw", "-"}, cfg.Dictation.CaptureCommand)

	_, err = cfg.Get("endpoint.nope")
	assert.Error(t, err)
	assert.Error(t, cfg.Set("endpoint.url.deeper", "x"))
	assert.Error(t, cfg.Set("endpoint.timeout_secs", "soon"))
}

func TestGetAllKeys_Resolve(t *testing.T) {
	cfg := Default()
	for _, key := range GetAllKeys() {
		_, err := cfg.Get(key)
		assert.NoError(t, err, key)
	}
}

func TestClone_IsDeep(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()
	clone.Dictation.CaptureCommand[0] = "changed"
	assert.Equal(t, "arecord", cfg.Dictation.CaptureCommand[0])
}
