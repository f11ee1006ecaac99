// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Status command for cortex.

package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cortexlinux/cortex-cli/internal/credential"
	"github.com/cortexlinux/cortex-cli/internal/daemon"
	"github.com/cortexlinux/cortex-cli/internal/provider"
	"github.com/cortexlinux/cortex-cli/internal/wizard"
)

// runStatus handles `cortex status`: configured provider, per-provider
// credential diagnostics (including present-but-invalid sources), and
// daemon health.
func (a *App) runStatus(ctx context.Context, parser *ArgParser) int {
	fmt.Println(RenderConditional(TitleStyle, "Cortex Status"))

	cfg, err := wizard.LoadConfig(a.configDir)
	if err != nil {
		fmt.Printf("%s config unreadable: %v\n", RenderStatus("warn"), err)
		cfg = nil
	}

	if cfg != nil && cfg.Provider != "" {
		fmt.Printf("%s%s\n", LabelStyle.Render("Provider"), ValueStyle.Render(cfg.ProviderKind().DisplayName()))
		fmt.Printf("%s%s\n", LabelStyle.Render("Verbosity"), ValueStyle.Render(cfg.Preferences.Verbosity))
		if cfg.Hardware != nil {
			fmt.Printf("%s%s\n", LabelStyle.Render("Hardware"), ValueStyle.Render(cfg.Hardware.String()))
		}
		if cfg.RecommendedModel != "" {
			fmt.Printf("%s%s\n", LabelStyle.Render("Local model"), ValueStyle.Render(cfg.RecommendedModel))
		}
	} else {
		fmt.Printf("%s not configured; run `cortex setup`\n", RenderStatus("warn"))
	}

	fmt.Println()
	fmt.Println("Credentials:")
	locator := credential.NewLocator(
		credential.WithEnvFilePath(filepath.Join(a.configDir, ".env")),
	)
	for _, kind := range provider.CanonicalOrder {
		if !kind.NeedsCredential() {
			continue
		}
		cred, probes := locator.LocateForKind(kind)
		if cred != nil {
			fmt.Printf("  %s %s (%s)\n", RenderStatus("ok"), kind.DisplayName(), cred.Provenance)
			continue
		}
		shown := false
		for _, probe := range probes {
			// Present-but-invalid is worth a distinct callout.
			if probe.State == credential.ProbeInvalid {
				fmt.Printf("  %s %s: malformed value in %s\n", RenderStatus("fail"), kind.DisplayName(), probe.Source)
				shown = true
				break
			}
		}
		if !shown {
			fmt.Printf("  %s %s: not configured\n", RenderStatus("none"), kind.DisplayName())
		}
	}

	fmt.Println()
	client := daemon.NewClient()
	if status, err := client.GetStatus(ctx); err == nil {
		fmt.Printf("Daemon: %s version %s, up %s (pid %d)\n",
			RenderStatus("ok"), status.Version, status.Uptime, status.PID)
	} else if err := client.Ping(ctx); err == nil {
		fmt.Printf("Daemon: %s running\n", RenderStatus("ok"))
	} else {
		fmt.Printf("Daemon: %s not running\n", RenderStatus("none"))
	}

	return ExitOK
}
