// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli is the command surface of cortex: argument routing, the
// first-run setup command, status and config inspection, and daemon
// control. Commands return process exit codes; main only parses and
// exits.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// App routes subcommands.
type App struct {
	configDir string
	term      *Terminal
}

// NewApp creates the CLI rooted at the default config directory
// (~/.cortex), or $CORTEX_CONFIG_DIR when set.
func NewApp() *App {
	dir := os.Getenv("CORTEX_CONFIG_DIR")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".cortex")
		} else {
			dir = ".cortex"
		}
	}
	return &App{configDir: dir, term: NewTerminal()}
}

// Run dispatches the parsed arguments and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	parser := NewArgParser(args)

	switch parser.Subcommand() {
	case "":
		return a.runStatus(ctx, parser)
	case "help":
		a.printUsage()
		return ExitOK
	case "version":
		fmt.Printf("cortex %s\n", Version)
		return ExitOK
	case "setup", "init", "wizard":
		return a.runSetup(ctx, parser)
	case "status":
		return a.runStatus(ctx, parser)
	case "config":
		return a.runConfig(parser)
	case "daemon":
		return a.runDaemon(ctx, parser)
	case "completion":
		return a.runCompletion(parser)
	default:
		fmt.Fprintf(os.Stderr, "%s unknown command %q\n", RenderStatus("error"), parser.Subcommand())
		if suggestion := SuggestCommand(parser.Subcommand()); suggestion != "" {
			fmt.Fprintf(os.Stderr, "Did you mean %q?\n", suggestion)
		}
		a.printUsage()
		return ExitError
	}
}

func (a *App) printUsage() {
	fmt.Println(RenderConditional(TitleStyle, "cortex - AI assistant for your terminal"))
	fmt.Println("Usage: cortex <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  setup       Run first-time setup (--force to re-run, --non-interactive, --json)")
	fmt.Println("  status      Show provider, credential and daemon status")
	fmt.Println("  config      Inspect or edit configuration (show|path|get|set)")
	fmt.Println("  daemon      Control the background daemon (ping|status|reload|stop)")
	fmt.Println("  completion  Print a shell completion script (--shell bash|zsh|fish, --install)")
	fmt.Println("  version     Print the version")
}
