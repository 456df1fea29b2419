// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"runtime"
)

// VersionInfo is the --json payload of version.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// HandleVersion prints version information.
func HandleVersion(env *Env, args Args) error {
	if args.JSON {
		return NewJSONResponse("version", VersionInfo{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		}).Print(env.stdout())
	}
	fmt.Fprintln(env.stdout(), VersionString())
	return nil
}

// HandleHelp prints usage, and an error for an unknown command.
func HandleHelp(env *Env, args Args) error {
	PrintUsage(env.stdout())
	if args.Unknown != "" {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, args.Unknown)
	}
	return nil
}
