// cortex - AI assistant for the Linux terminal.
//
// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cortexlinux/cortex-cli/internal/cli"
)

// Version information (set at build time)
var (
	Version = "0.1.0"
)

func main() {
	cli.Version = Version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := cli.NewApp().Run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
