// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config inspection and editing command for cortex.

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/cortexlinux/cortex-cli/internal/wizard"
)

// runConfig handles `cortex config [show|path|get <key>|set <key> <value>]`.
// Provider and credential fields are owned by setup and are read-only
// here; preferences can be edited directly.
func (a *App) runConfig(parser *ArgParser) int {
	switch parser.Positional(1) {
	case "", "show":
		return a.configShow()
	case "path":
		fmt.Println(a.configDir)
		return ExitOK
	case "get":
		return a.configGet(parser.Positional(2))
	case "set":
		return a.configSet(parser.Positional(2), parser.Positional(3))
	default:
		fmt.Fprintf(os.Stderr, "%s unknown config subcommand %q (try: show, path, get, set)\n",
			RenderStatus("error"), parser.Positional(1))
		return ExitError
	}
}

func (a *App) configShow() int {
	cfg, err := wizard.LoadConfig(a.configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", RenderStatus("error"), err)
		return ExitError
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", RenderStatus("error"), err)
		return ExitError
	}
	fmt.Println(string(data))
	return ExitOK
}

func (a *App) configGet(key string) int {
	cfg, err := wizard.LoadConfig(a.configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", RenderStatus("error"), err)
		return ExitError
	}

	switch key {
	case "provider":
		fmt.Println(cfg.Provider)
	case "credential_configured":
		fmt.Println(strconv.FormatBool(cfg.CredentialConfigured))
	case "recommended_model":
		fmt.Println(cfg.RecommendedModel)
	case "preferences.verbosity":
		fmt.Println(cfg.Preferences.Verbosity)
	case "preferences.auto_confirm":
		fmt.Println(strconv.FormatBool(cfg.Preferences.AutoConfirm))
	case "preferences.caching_enabled":
		fmt.Println(strconv.FormatBool(cfg.Preferences.CachingEnabled))
	default:
		fmt.Fprintf(os.Stderr, "%s unknown config key %q\n", RenderStatus("error"), key)
		return ExitError
	}
	return ExitOK
}

func (a *App) configSet(key, value string) int {
	cfg, err := wizard.LoadConfig(a.configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", RenderStatus("error"), err)
		return ExitError
	}

	switch key {
	case "preferences.verbosity":
		switch value {
		case wizard.VerbosityQuiet, wizard.VerbosityNormal, wizard.VerbosityVerbose:
			cfg.Preferences.Verbosity = value
		default:
			fmt.Fprintf(os.Stderr, "%s verbosity must be quiet, normal, or verbose\n", RenderStatus("error"))
			return ExitError
		}
	case "preferences.auto_confirm", "preferences.caching_enabled":
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %s must be true or false\n", RenderStatus("error"), key)
			return ExitError
		}
		if key == "preferences.auto_confirm" {
			cfg.Preferences.AutoConfirm = parsed
		} else {
			cfg.Preferences.CachingEnabled = parsed
		}
	case "recommended_model":
		cfg.RecommendedModel = value
	case "provider", "credential_configured":
		fmt.Fprintf(os.Stderr, "%s %q is managed by `cortex setup`\n", RenderStatus("error"), key)
		return ExitError
	default:
		fmt.Fprintf(os.Stderr, "%s unknown config key %q\n", RenderStatus("error"), key)
		return ExitError
	}

	if err := cfg.Save(a.configDir); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", RenderStatus("error"), err)
		return ExitError
	}
	fmt.Printf("%s %s = %s\n", RenderStatus("ok"), key, value)
	return ExitOK
}
