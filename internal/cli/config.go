// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/jeranaias/chatwidget/internal/config"
)

// HandleConfig dispatches the config subcommands:
//
//	show (default)      print the effective configuration
//	path                print the config file location
//	init [--force]      write a default config file
//	get <key>           print one value
//	set <key> <value>   change one value in the config file
func HandleConfig(env *Env, args Args) error {
	switch args.Subcommand {
	case "", "show":
		return configShow(env, args)
	case "path":
		return configPath(env, args)
	case "init":
		return configInit(env, args)
	case "get":
		return configGet(env, args)
	case "set":
		return configSet(env, args)
	default:
		return &UsageError{Command: "config", Reason: fmt.Sprintf("unknown subcommand %q", args.Subcommand)}
	}
}

// configFile returns the file config commands read and write.
func (e *Env) configFile() (string, error) {
	if e.ConfigPath != "" {
		return e.ConfigPath, nil
	}
	return config.ConfigPathTOML()
}

func configShow(env *Env, args Args) error {
	out := env.stdout()
	if args.JSON {
		return NewJSONResponse("config", env.Config).Print(out)
	}

	fmt.Fprintln(out, TitleStyle.Render("chatwidget configuration"))
	section := ""
	for _, key := range config.GetAllKeys() {
		if s, _, _ := strings.Cut(key, "."); s != section {
			section = s
			fmt.Fprintln(out, SectionStyle.Render("["+section+"]"))
		}
		v, err := env.Config.Get(key)
		if err != nil {
			continue
		}
		fmt.Fprintln(out, LabelStyle.Render(key)+ValueStyle.Render(formatValue(v)))
	}
	return nil
}

func configPath(env *Env, args Args) error {
	path, err := env.configFile()
	if err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("config path", map[string]string{"path": path}).Print(env.stdout())
	}
	fmt.Fprintln(env.stdout(), path)
	return nil
}

func configInit(env *Env, args Args) error {
	path, err := env.configFile()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !args.Force {
		return &CommandError{Command: "config", Action: "init", Err: fmt.Errorf("%s already exists (use --force)", path)}
	}
	if err := saveConfig(config.Default(), path); err != nil {
		return &CommandError{Command: "config", Action: "init", Err: err}
	}
	if !args.Quiet {
		fmt.Fprintln(env.stdout(), "Wrote "+path)
	}
	return nil
}

func configGet(env *Env, args Args) error {
	if args.ConfigKey == "" {
		return &UsageError{Command: "config get", Reason: "missing key"}
	}
	v, err := env.Config.Get(args.ConfigKey)
	if err != nil {
		return &UsageError{Command: "config get", Reason: err.Error()}
	}
	if args.JSON {
		return NewJSONResponse("config get", map[string]any{args.ConfigKey: v}).Print(env.stdout())
	}
	fmt.Fprintln(env.stdout(), formatValue(v))
	return nil
}

// configSet edits the config file only, so environment and flag overrides
// are never written back.
func configSet(env *Env, args Args) error {
	if args.ConfigKey == "" || args.ConfigVal == "" {
		return &UsageError{Command: "config set", Reason: "usage: config set <key> <value>"}
	}
	path, err := env.configFile()
	if err != nil {
		return err
	}

	cfg := config.Default()
	if _, statErr := os.Stat(path); statErr == nil {
		if err := loadConfig(cfg, path); err != nil {
			return &CommandError{Command: "config", Action: "set", Err: err}
		}
	} else if !errors.Is(statErr, fs.ErrNotExist) {
		return &CommandError{Command: "config", Action: "set", Err: statErr}
	}

	if err := cfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
		return &UsageError{Command: "config set", Reason: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := saveConfig(cfg, path); err != nil {
		return &CommandError{Command: "config", Action: "set", Err: err}
	}
	if !args.Quiet {
		fmt.Fprintf(env.stdout(), "%s = %s\n", args.ConfigKey, args.ConfigVal)
	}
	return nil
}

func loadConfig(cfg *config.Config, path string) error {
	if strings.HasSuffix(path, ".json") {
		return config.LoadJSON(cfg, path)
	}
	return config.LoadTOML(cfg, path)
}

func saveConfig(cfg *config.Config, path string) error {
	if strings.HasSuffix(path, ".json") {
		return config.SaveJSON(cfg, path)
	}
	return config.SaveTOML(cfg, path)
}

func formatValue(v any) string {
	switch t := v.(type) {
	case []string:
		return strings.Join(t, " ")
	case string:
		if t == "" {
			return "(unset)"
		}
		return t
	default:
		return fmt.Sprint(v)
	}
}
