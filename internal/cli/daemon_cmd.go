// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// daemon_cmd.go - Daemon control command for cortex.

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/cortexlinux/cortex-cli/internal/daemon"
)

// runDaemon handles `cortex daemon ping|status|reload|stop`.
func (a *App) runDaemon(ctx context.Context, parser *ArgParser) int {
	client := daemon.NewClient()

	switch parser.Positional(1) {
	case "ping":
		if err := client.Ping(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", RenderStatus("fail"), err)
			return ExitError
		}
		fmt.Printf("%s daemon is running\n", RenderStatus("ok"))
		return ExitOK

	case "status", "":
		status, err := client.GetStatus(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", RenderStatus("fail"), err)
			return ExitError
		}
		fmt.Printf("%s%s\n", LabelStyle.Render("Version"), ValueStyle.Render(status.Version))
		fmt.Printf("%s%s\n", LabelStyle.Render("Uptime"), ValueStyle.Render(status.Uptime))
		fmt.Printf("%s%d\n", LabelStyle.Render("PID"), status.PID)
		return ExitOK

	case "reload":
		if err := client.ReloadConfig(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", RenderStatus("fail"), err)
			return ExitError
		}
		fmt.Printf("%s configuration reloaded\n", RenderStatus("ok"))
		return ExitOK

	case "stop":
		if err := client.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", RenderStatus("fail"), err)
			return ExitError
		}
		fmt.Printf("%s daemon stopping\n", RenderStatus("ok"))
		return ExitOK

	default:
		fmt.Fprintf(os.Stderr, "%s unknown daemon subcommand %q (try: ping, status, reload, stop)\n",
			RenderStatus("error"), parser.Positional(1))
		return ExitError
	}
}
