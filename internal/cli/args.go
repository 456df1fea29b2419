// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strconv"
	"strings"
)

// =============================================================================
// ARG PARSER
// =============================================================================

// ArgParser splits raw arguments into flags and positional arguments.
//
// Supported forms:
//
//	--flag value     string flag
//	--flag=value     string flag
//	-f value         short string flag
//	--flag           boolean flag
//	--flag=false     explicit boolean
//	--               everything after is positional
type ArgParser struct {
	flags      map[string]string
	boolFlags  map[string]bool
	positional []string
}

// NewArgParser parses raw. boolNames lists flags that never take a value,
// so "--json hello" leaves "hello" positional.
func NewArgParser(raw []string, boolNames ...string) *ArgParser {
	p := &ArgParser{
		flags:     make(map[string]string),
		boolFlags: make(map[string]bool),
	}
	isBool := make(map[string]bool, len(boolNames))
	for _, n := range boolNames {
		isBool[n] = true
	}

	for i := 0; i < len(raw); i++ {
		arg := raw[i]

		if arg == "--" {
			p.positional = append(p.positional, raw[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			p.positional = append(p.positional, arg)
			continue
		}

		name := strings.TrimLeft(arg, "-")
		if k, v, ok := strings.Cut(name, "="); ok {
			if b, err := strconv.ParseBool(v); err == nil && (isBool[k] || v == "true" || v == "false") {
				p.boolFlags[k] = b
			} else {
				p.flags[k] = v
			}
			continue
		}

		if !isBool[name] && i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-") {
			p.flags[name] = raw[i+1]
			i++
			continue
		}
		p.boolFlags[name] = true
	}
	return p
}

// Subcommand returns the first positional argument.
func (p *ArgParser) Subcommand() string {
	return p.Positional(0)
}

// Flag returns the value of a string flag, trying each name in turn.
func (p *ArgParser) Flag(names ...string) string {
	for _, n := range names {
		if v, ok := p.flags[strings.TrimLeft(n, "-")]; ok {
			return v
		}
	}
	return ""
}

// FlagOrDefault returns the flag value or def.
func (p *ArgParser) FlagOrDefault(name, def string) string {
	if v := p.Flag(name); v != "" {
		return v
	}
	return def
}

// FlagIntOrDefault returns the flag as an integer, or def when absent or invalid.
func (p *ArgParser) FlagIntOrDefault(name string, def int) int {
	v, err := strconv.Atoi(p.Flag(name))
	if err != nil {
		return def
	}
	return v
}

// BoolFlag reports whether any of names was given as a boolean flag.
func (p *ArgParser) BoolFlag(names ...string) bool {
	for _, n := range names {
		if p.boolFlags[strings.TrimLeft(n, "-")] {
			return true
		}
	}
	return false
}

// HasFlag reports whether name was given in any form.
func (p *ArgParser) HasFlag(name string) bool {
	name = strings.TrimLeft(name, "-")
	_, s := p.flags[name]
	_, b := p.boolFlags[name]
	return s || b
}

// Positional returns the positional argument at index, or "".
func (p *ArgParser) Positional(index int) string {
	if index < 0 || index >= len(p.positional) {
		return ""
	}
	return p.positional[index]
}

// PositionalFrom returns the positional arguments from index on.
func (p *ArgParser) PositionalFrom(index int) []string {
	if index < 0 || index >= len(p.positional) {
		return nil
	}
	return p.positional[index:]
}

// PositionalCount returns the number of positional arguments.
func (p *ArgParser) PositionalCount() int {
	return len(p.positional)
}
