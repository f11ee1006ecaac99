// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// completion_cmd.go - Shell completion command for cortex.

package cli

import (
	"fmt"
	"os"

	"github.com/cortexlinux/cortex-cli/internal/shell"
)

// runCompletion handles `cortex completion`. By default the script for
// the detected shell is printed to stdout for the user to source;
// --install writes it into the shell's completion directory instead.
func (a *App) runCompletion(parser *ArgParser) int {
	kind := shell.Detect()
	if name := parser.Flag("shell"); name != "" {
		switch name {
		case "bash":
			kind = shell.KindBash
		case "zsh":
			kind = shell.KindZsh
		case "fish":
			kind = shell.KindFish
		default:
			fmt.Fprintf(os.Stderr, "%s unsupported shell %q (bash, zsh, fish)\n", RenderStatus("error"), name)
			return ExitError
		}
	}

	if parser.BoolFlag("install") {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", RenderStatus("error"), err)
			return ExitError
		}
		path, err := shell.InstallCompletion(kind, home)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", RenderStatus("error"), err)
			return ExitError
		}
		fmt.Printf("%s completion installed: %s\n", RenderStatus("ok"), path)
		return ExitOK
	}

	script, err := shell.CompletionScript(kind)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", RenderStatus("error"), err)
		return ExitError
	}
	fmt.Print(script)
	return ExitOK
}
