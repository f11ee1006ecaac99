// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// setup.go - First-run setup command for cortex.

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cortexlinux/cortex-cli/internal/daemon"
	"github.com/cortexlinux/cortex-cli/internal/ollama"
	"github.com/cortexlinux/cortex-cli/internal/wizard"
)

// runSetup handles `cortex setup`.
//
// Flags:
//
//	--force            run even when setup is already complete
//	--non-interactive  no prompts; auto-select and use defaults
//	--yes              alias for --non-interactive
//	--json             machine-readable result on stdout; implies --non-interactive
func (a *App) runSetup(ctx context.Context, parser *ArgParser) int {
	jsonOut := parser.BoolFlag("json")
	interactive := !parser.BoolFlag("non-interactive") && !parser.BoolFlag("yes") && !jsonOut
	if interactive && !IsTTY() {
		// Piped stdin cannot answer prompts.
		interactive = false
	}

	term := a.term
	if jsonOut {
		// Keep stdout machine-readable; progress goes to stderr.
		term = NewTerminalWith(os.Stdin, os.Stderr)
	}

	machine := wizard.NewMachine(a.configDir, term,
		wizard.WithInteractive(interactive),
		wizard.WithLocalRunner(ollama.NewClient()),
		wizard.WithDaemonClient(daemon.NewClient()),
	)

	err := machine.Run(ctx, parser.BoolFlag("force"))

	if jsonOut {
		result := map[string]any{"success": err == nil}
		if err != nil {
			result["error"] = err.Error()
		}
		data, _ := json.Marshal(result)
		fmt.Println(string(data))
		if err != nil {
			return ExitError
		}
		return ExitOK
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", RenderStatus("error"), err)
		return ExitError
	}
	return ExitOK
}
