// chatwidget - a conversational assistant in your terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatwidget/internal/cli"
	"github.com/jeranaias/chatwidget/internal/ui/chat"
	"github.com/jeranaias/chatwidget/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	cmd, args := cli.Parse(argv)

	// Help and version need no configuration.
	switch cmd {
	case cli.CmdHelp:
		return report(cli.HandleHelp(&cli.Env{}, args))
	case cli.CmdVersion:
		return report(cli.HandleVersion(&cli.Env{}, args))
	}

	env, err := cli.NewEnv(cmd, args)
	if err != nil {
		return report(err)
	}
	defer env.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env.Logger.Debug().Str("command", cmd.String()).Msg("starting")

	switch cmd {
	case cli.CmdChat:
		err = cli.HandleChat(ctx, env, args)
	case cli.CmdAsk:
		err = cli.HandleAsk(ctx, env, args)
	case cli.CmdHistory:
		err = cli.HandleHistory(env, args)
	case cli.CmdClear:
		err = cli.HandleClear(env, args)
	case cli.CmdConfig:
		err = cli.HandleConfig(env, args)
	default:
		err = runTUI(ctx, env)
	}
	if err != nil {
		env.Logger.Error().Err(err).Str("command", cmd.String()).Msg("command failed")
	}
	return report(err)
}

// report prints err and returns the exit code for it.
func report(err error) int {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return cli.ExitCode(err)
}

// runTUI starts the full-screen chat view.
func runTUI(ctx context.Context, env *cli.Env) error {
	w, err := env.Widget()
	if err != nil {
		return err
	}

	theme := styles.NewTheme(env.Config.UI.Theme)
	m := chat.New(w, chat.Options{
		Theme:          theme,
		RenderMarkdown: env.Config.UI.RenderMarkdown,
	})

	// Create the Bubble Tea program
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	cancel := chat.Subscribe(w, p.Send)
	defer cancel()
	w.Start(ctx)

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("chat view: %w", err)
	}
	return nil
}
